/**
 * @description
 * HTTP client for the RPT-1 forecasting provider.
 * POSTs the labeled row payload and returns the raw JSON document; the
 * response contract is unreliable, so decoding is left to the normalizer.
 *
 * @dependencies
 * - net/http
 * - encoding/json
 * - backend/internal/config
 * - backend/internal/logger
 */

package rpt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/salesight/backend/internal/logger"
)

const (
	requestTimeout = 120 * time.Second
	logPreviewLen  = 2000
)

// ErrUpstream marks transport failures and non-success statuses from the
// provider. Callers map it to a 502-equivalent.
var ErrUpstream = errors.New("rpt-1 request failed")

type Client struct {
	url        string
	authToken  string
	httpClient *http.Client
}

// NewClient builds a provider client from the configured endpoint. An empty
// URL yields a client that reports itself unconfigured; the orchestrator
// turns that into a configuration error per run.
func NewClient(url, authToken string) *Client {
	return &Client{
		url:       strings.TrimSpace(url),
		authToken: strings.TrimSpace(authToken),
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Configured reports whether a provider endpoint is set.
func (c *Client) Configured() bool {
	return c.url != ""
}

// Predict submits the payload and returns the raw response body. No retries:
// the pipeline treats any upstream failure as terminal for the run.
func (c *Client) Predict(ctx context.Context, payload Payload) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	logPreview("RPT-1 POST -> %s bodyPreview: %s", c.url, string(body))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		// Tokens already carrying the scheme pass through unchanged.
		auth := c.authToken
		if !strings.HasPrefix(auth, "Bearer") {
			auth = "Bearer " + auth
		}
		req.Header.Set("Authorization", auth)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUpstream, readErr)
	}

	logPreview("RPT-1 response status %d bodyPreview: %s", resp.StatusCode, string(respBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d %s %s", ErrUpstream, resp.StatusCode, http.StatusText(resp.StatusCode), truncate(string(respBody), logPreviewLen))
	}

	return respBody, nil
}

// logPreview logs with every string argument truncated, so large payloads
// never flood the log stream.
func logPreview(format string, args ...interface{}) {
	for i, a := range args {
		if s, ok := a.(string); ok {
			args[i] = truncate(s, logPreviewLen)
		}
	}
	logger.Info(format, args...)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "...<truncated>"
}
