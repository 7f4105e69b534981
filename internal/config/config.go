// Package config resolves runtime settings from the environment, an
// optional .env file, and the ~/.smashmetrics directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	envToken   = "STARTGG_API_TOKEN"
	envDBPath  = "SMASHMETRICS_DB"
	envLogLvl  = "LOG_LEVEL"
	configDir  = ".smashmetrics"
	tokenFile  = "token"
	dbFileName = "smash.db"
)

// Load reads a .env file when present and returns the resolved settings.
// Environment variables always win over .env entries.
type Config struct {
	DBPath   string
	LogLevel zerolog.Level
}

func Load() Config {
	// Missing .env is the normal case; godotenv never overrides
	// variables already set in the environment.
	_ = godotenv.Load()

	return Config{
		DBPath:   resolveDBPath(),
		LogLevel: resolveLogLevel(),
	}
}

func resolveDBPath() string {
	if p := os.Getenv(envDBPath); p != "" {
		return p
	}
	return filepath.Join(userHome(), configDir, dbFileName)
}

func resolveLogLevel() zerolog.Level {
	raw := strings.TrimSpace(os.Getenv(envLogLvl))
	if raw == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// APIToken returns the start.gg API token from the STARTGG_API_TOKEN
// environment variable or ~/.smashmetrics/token.
func APIToken() (string, error) {
	if tok := os.Getenv(envToken); tok != "" {
		return tok, nil
	}
	data, err := os.ReadFile(filepath.Join(userHome(), configDir, tokenFile))
	if err != nil {
		return "", fmt.Errorf("start.gg token not found: set STARTGG_API_TOKEN or create ~/.smashmetrics/token\n" +
			"  Generate one at https://start.gg/admin/profile/developer")
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", fmt.Errorf("start.gg token file is empty")
	}
	return tok, nil
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
