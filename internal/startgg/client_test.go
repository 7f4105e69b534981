package startgg

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("test-token", zerolog.Nop())
	c.apiURL = srv.URL
	return c
}

func TestExecute_DecodesData(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "query X { ping }", req.Query)
		assert.EqualValues(t, 7, req.Variables["n"])

		w.Write([]byte(`{"data":{"value":42}}`))
	})

	var out struct {
		Value int `json:"value"`
	}
	err := c.Execute(context.Background(), "query X { ping }", map[string]any{"n": 7}, &out)
	require.NoError(t, err)
	assert.Equal(t, 42, out.Value)
}

func TestExecute_GraphQLErrors(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null,"errors":[{"message":"not authorized"}]}`))
	})
	err := c.Execute(context.Background(), "query {}", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authorized")
}

func TestExecute_RetriesOn429(t *testing.T) {
	attempts := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"data":{"ok":true}}`))
	})

	var out struct {
		OK bool `json:"ok"`
	}
	err := c.Execute(context.Background(), "query {}", nil, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, 3, attempts)
}

func TestExecute_NonOKStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	err := c.Execute(context.Background(), "query {}", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestRetryWait(t *testing.T) {
	assert.Equal(t, 2500*time.Millisecond, retryWait("2.5", 0))
	assert.Equal(t, 1*time.Second, retryWait("", 0))
	assert.Equal(t, 8*time.Second, retryWait("junk", 3))
	assert.Equal(t, 60*time.Second, retryWait("", 10))
}

func TestEventSeeds_Paginates(t *testing.T) {
	pagesServed := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables struct {
				Page int `json:"page"`
			} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		pagesServed++

		seedNum := req.Variables.Page
		resp := map[string]any{
			"data": map[string]any{
				"event": map[string]any{
					"seeds": map[string]any{
						"pageInfo": map[string]any{"totalPages": 2, "total": 2},
						"nodes": []map[string]any{
							{"id": 100 + seedNum, "seedNum": seedNum,
								"entrant": map[string]any{"id": 200 + seedNum, "name": "E"}},
						},
					},
				},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	seeds, err := c.EventSeeds(context.Background(), 55)
	require.NoError(t, err)
	assert.Equal(t, 2, pagesServed)
	require.Len(t, seeds, 2)
	require.NotNil(t, seeds[0].SeedNum)
	assert.Equal(t, 1, *seeds[0].SeedNum)
	assert.Equal(t, 202, seeds[1].Entrant.ID)
}

func TestSetID_UnmarshalBothForms(t *testing.T) {
	var node SetNode
	require.NoError(t, json.Unmarshal([]byte(`{"id": 123, "state": 3}`), &node))
	assert.Equal(t, "123", node.ID.String())

	require.NoError(t, json.Unmarshal([]byte(`{"id": "preview_9_4"}`), &node))
	assert.Equal(t, "preview_9_4", node.ID.String())
}

func TestTournamentFilter_Cutoff(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	filt := TournamentFilter{MonthsBack: 6}
	want := now.AddDate(0, 0, -180).Unix()
	assert.Equal(t, want, filt.Cutoff(now))
}
