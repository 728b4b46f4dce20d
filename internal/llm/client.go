// Package llm talks to a llama.cpp-compatible completion server and turns
// its free-text output into structured assessment data. When the server is
// unreachable the caller falls back to the rule engine alone.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const (
	// ClientTimeout is the total request timeout. Completion servers on
	// field hardware are slow, so this is generous.
	ClientTimeout = 60 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 5 * time.Second
	// maxResponseBytes caps how much of a completion response is read.
	maxResponseBytes = 64 * 1024
)

// ErrUnavailable indicates no completion server is configured or reachable.
var ErrUnavailable = errors.New("completion server unavailable")

// Client calls a llama.cpp-style /completion endpoint.
type Client struct {
	baseURL     string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	logger      *slog.Logger
}

// New creates a completion client. An empty baseURL yields a client whose
// calls return ErrUnavailable, which callers treat as "rules only".
func New(baseURL string, temperature float64, maxTokens int, logger *slog.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger.With("component", "llm.client"),
		httpClient: &http.Client{
			Timeout: ClientTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   DialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Available reports whether a completion server is configured.
func (c *Client) Available() bool {
	return c.baseURL != ""
}

type completionRequest struct {
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	NPredict    int     `json:"n_predict"`
}

type completionResponse struct {
	Content string `json:"content"`
}

// Complete sends a prompt and returns the raw completion text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.Available() {
		return "", ErrUnavailable
	}

	body, err := json.Marshal(completionRequest{
		Prompt:      prompt,
		Temperature: c.temperature,
		NPredict:    c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/completion", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("completion request failed", "error", err)
		return "", ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		c.logger.Warn("completion server error", "http_status", resp.StatusCode)
		return "", ErrUnavailable
	}

	var parsed completionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	return parsed.Content, nil
}
