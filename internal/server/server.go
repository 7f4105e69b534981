// Package server exposes the metrics pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/smashcc/startgg-metrics/internal/aggregator"
	"github.com/smashcc/startgg-metrics/internal/model"
	"github.com/smashcc/startgg-metrics/internal/startgg"
)

const (
	defaultCharacter = "Marth"
	defaultLimit     = 25
	maxLimit         = 200
	maxMonthsBack    = 24
)

// MetricsFunc produces the sorted metrics table for a filter. The server
// stays decoupled from the pipeline through it.
type MetricsFunc func(ctx context.Context, filt startgg.TournamentFilter, opts aggregator.Options) ([]model.PlayerMetrics, error)

type Server struct {
	metrics MetricsFunc
	log     zerolog.Logger
}

func New(metrics MetricsFunc, log zerolog.Logger) *Server {
	return &Server{metrics: metrics, log: log}
}

// ListenAndServe blocks serving HTTP on addr.
func (s *Server) ListenAndServe(addr string) error {
	srv := &fasthttp.Server{
		Handler: s.Handler,
		Name:    "smashmetrics",
	}
	s.log.Info().Str("addr", addr).Msg("listening")
	return srv.ListenAndServe(addr)
}

// Handler routes a single request.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/health":
		s.handleHealth(ctx)
	case "/search":
		s.handleSearch(ctx)
	default:
		writeError(ctx, fasthttp.StatusNotFound, "not found")
	}
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string]bool{"ok": true})
}

// searchResponse wraps the metrics rows with the query echo.
type searchResponse struct {
	State     string                `json:"state"`
	Character string                `json:"character"`
	Count     int                   `json:"count"`
	Results   []model.PlayerMetrics `json:"results"`
}

func (s *Server) handleSearch(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()

	state := string(args.Peek("state"))
	if state == "" {
		writeError(ctx, fasthttp.StatusBadRequest, "missing required query parameter: state")
		return
	}
	character := string(args.Peek("character"))
	if character == "" {
		character = defaultCharacter
	}

	monthsBack := args.GetUintOrZero("months_back")
	if monthsBack == 0 {
		monthsBack = startgg.DefaultMonthsBack
	}
	if monthsBack < 1 || monthsBack > maxMonthsBack {
		writeError(ctx, fasthttp.StatusBadRequest,
			fmt.Sprintf("months_back must be between 1 and %d", maxMonthsBack))
		return
	}

	videogameID := args.GetUintOrZero("videogame_id")
	if videogameID == 0 {
		videogameID = startgg.DefaultVideogameID
	}

	limit := args.GetUintOrZero("limit")
	if limit == 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		writeError(ctx, fasthttp.StatusBadRequest,
			fmt.Sprintf("limit must be between 1 and %d", maxLimit))
		return
	}

	filt := startgg.TournamentFilter{
		State:       state,
		VideogameID: videogameID,
		MonthsBack:  monthsBack,
	}
	opts := aggregator.Options{
		TargetCharacter:  character,
		AssumeTargetMain: args.GetBool("assume_target_main"),
	}

	rows, err := s.metrics(ctx, filt, opts)
	if err != nil {
		s.log.Error().Err(err).Str("state", state).Msg("search failed")
		writeError(ctx, fasthttp.StatusBadGateway, err.Error())
		return
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	writeJSON(ctx, fasthttp.StatusOK, searchResponse{
		State:     state,
		Character: character,
		Count:     len(rows),
		Results:   rows,
	})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json; charset=utf-8")
	if err := json.NewEncoder(ctx).Encode(body); err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	}
}

func writeError(ctx *fasthttp.RequestCtx, status int, detail string) {
	writeJSON(ctx, status, map[string]string{"detail": detail})
}
