// Package startgg provides a minimal client for the start.gg GraphQL API:
// authenticated execution with rate-limit retries, plus typed helpers for
// tournament discovery and per-event seed/standing/set retrieval.
package startgg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// apiURL is the start.gg GraphQL endpoint.
const apiURL = "https://api.start.gg/gql/alpha"

const maxRetryAttempts = 5

// Client is a minimal start.gg GraphQL client.
type Client struct {
	token  string
	apiURL string
	http   *http.Client
	log    zerolog.Logger
}

// NewClient returns a start.gg client authenticated with the given API token.
func NewClient(token string, log zerolog.Logger) *Client {
	return &Client{
		token:  token,
		apiURL: apiURL,
		http:   &http.Client{Timeout: 30 * time.Second},
		log:    log.With().Str("component", "startgg").Logger(),
	}
}

// graphqlError is one entry of the "errors" array in a GraphQL response.
type graphqlError struct {
	Message string `json:"message"`
}

// Execute posts a GraphQL request and unmarshals the "data" object into out.
// HTTP 429 responses are retried up to 5 times, honoring Retry-After when the
// header parses and falling back to exponential backoff capped at 60s.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var body []byte
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("POST %s: %w", c.apiURL, err)
		}
		body, err = io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxRetryAttempts {
			wait := retryWait(resp.Header.Get("Retry-After"), attempt)
			c.log.Warn().
				Int("attempt", attempt+1).
				Dur("wait", wait).
				Msg("rate limited, backing off")
			if err := sleepCtx(ctx, wait); err != nil {
				return err
			}
			continue
		}
		if resp.StatusCode != http.StatusOK {
			snippet := string(body)
			if len(snippet) > 200 {
				snippet = snippet[:200]
			}
			return fmt.Errorf("POST %s: HTTP %d: %s", c.apiURL, resp.StatusCode, snippet)
		}
		break
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("graphql error: %s", envelope.Errors[0].Message)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// retryWait picks the backoff before the next attempt: the server's
// Retry-After seconds when usable, otherwise min(60, 2^attempt) seconds.
func retryWait(retryAfter string, attempt int) time.Duration {
	if secs, err := strconv.ParseFloat(retryAfter, 64); err == nil && secs >= 0 {
		return time.Duration(secs * float64(time.Second))
	}
	backoff := 1 << attempt
	if backoff > 60 {
		backoff = 60
	}
	return time.Duration(backoff) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
