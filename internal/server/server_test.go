package server

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/smashcc/startgg-metrics/internal/aggregator"
	"github.com/smashcc/startgg-metrics/internal/model"
	"github.com/smashcc/startgg-metrics/internal/startgg"
)

func doRequest(t *testing.T, s *Server, uri string) *fasthttp.RequestCtx {
	t.Helper()
	var req fasthttp.Request
	req.SetRequestURI(uri)
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	s.Handler(ctx)
	return ctx
}

func stubMetrics(rows []model.PlayerMetrics, err error) (MetricsFunc, *startgg.TournamentFilter, *aggregator.Options) {
	var gotFilt startgg.TournamentFilter
	var gotOpts aggregator.Options
	fn := func(_ context.Context, filt startgg.TournamentFilter, opts aggregator.Options) ([]model.PlayerMetrics, error) {
		gotFilt, gotOpts = filt, opts
		return rows, err
	}
	return fn, &gotFilt, &gotOpts
}

func TestHealth(t *testing.T) {
	fn, _, _ := stubMetrics(nil, nil)
	s := New(fn, zerolog.Nop())

	ctx := doRequest(t, s, "http://test/health")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var body map[string]bool
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
	assert.True(t, body["ok"])
}

func TestSearchRequiresState(t *testing.T) {
	fn, _, _ := stubMetrics(nil, nil)
	s := New(fn, zerolog.Nop())

	ctx := doRequest(t, s, "http://test/search")
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestSearchDefaultsAndEcho(t *testing.T) {
	rows := []model.PlayerMetrics{
		{PlayerID: 1, GamerTag: "Alice"},
		{PlayerID: 2, GamerTag: "Bob"},
	}
	fn, gotFilt, gotOpts := stubMetrics(rows, nil)
	s := New(fn, zerolog.Nop())

	ctx := doRequest(t, s, "http://test/search?state=GA")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	assert.Equal(t, "GA", gotFilt.State)
	assert.Equal(t, startgg.DefaultVideogameID, gotFilt.VideogameID)
	assert.Equal(t, startgg.DefaultMonthsBack, gotFilt.MonthsBack)
	assert.Equal(t, defaultCharacter, gotOpts.TargetCharacter)
	assert.False(t, gotOpts.AssumeTargetMain)

	var body searchResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
	assert.Equal(t, "GA", body.State)
	assert.Equal(t, defaultCharacter, body.Character)
	assert.Equal(t, 2, body.Count)
	assert.Len(t, body.Results, 2)
}

func TestSearchAppliesLimitAndOptions(t *testing.T) {
	rows := make([]model.PlayerMetrics, 5)
	for i := range rows {
		rows[i] = model.PlayerMetrics{PlayerID: i + 1}
	}
	fn, gotFilt, gotOpts := stubMetrics(rows, nil)
	s := New(fn, zerolog.Nop())

	ctx := doRequest(t, s,
		"http://test/search?state=fl&character=Roy&months_back=3&videogame_id=1&assume_target_main=true&limit=2")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	assert.Equal(t, "fl", gotFilt.State)
	assert.Equal(t, 1, gotFilt.VideogameID)
	assert.Equal(t, 3, gotFilt.MonthsBack)
	assert.Equal(t, "Roy", gotOpts.TargetCharacter)
	assert.True(t, gotOpts.AssumeTargetMain)

	var body searchResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Len(t, body.Results, 2)
}

func TestSearchValidatesRanges(t *testing.T) {
	fn, _, _ := stubMetrics(nil, nil)
	s := New(fn, zerolog.Nop())

	ctx := doRequest(t, s, "http://test/search?state=GA&months_back=48")
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	ctx = doRequest(t, s, "http://test/search?state=GA&limit=9999")
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestSearchUpstreamFailure(t *testing.T) {
	fn, _, _ := stubMetrics(nil, errors.New("start.gg unavailable"))
	s := New(fn, zerolog.Nop())

	ctx := doRequest(t, s, "http://test/search?state=GA")
	assert.Equal(t, fasthttp.StatusBadGateway, ctx.Response.StatusCode())

	var body map[string]string
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
	assert.Contains(t, body["detail"], "unavailable")
}

func TestUnknownRoute(t *testing.T) {
	fn, _, _ := stubMetrics(nil, nil)
	s := New(fn, zerolog.Nop())

	ctx := doRequest(t, s, "http://test/nope")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}
