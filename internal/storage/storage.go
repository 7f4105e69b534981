// Package storage persists start.gg payloads in a local SQLite database so
// repeat runs can be served without hitting the API again.
package storage

import (
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps a sql.DB for the payload cache.
type DB struct {
	conn *sql.DB
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// Open opens (or creates) the SQLite database at the given path and applies
// the schema. Use ":memory:" for an ephemeral store.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		conn.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &DB{conn: conn, enc: enc, dec: dec}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	db.enc.Close()
	db.dec.Close()
	return db.conn.Close()
}

func (db *DB) compress(data []byte) []byte {
	return db.enc.EncodeAll(data, nil)
}

func (db *DB) decompress(data []byte) ([]byte, error) {
	return db.dec.DecodeAll(data, nil)
}
