// Package sidecar provides the inference provider for the local sidecar
// service, the default deployment: a small HTTP service on localhost that
// owns the actual model access.
package sidecar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tabzero/tabzero-go/pkg/inference"
)

// Client implements inference.Provider against the sidecar HTTP contract.
type Client struct {
	http *resty.Client
}

// Config contains sidecar client configuration.
type Config struct {
	// BaseURL is the sidecar address, e.g. "http://127.0.0.1:8765".
	BaseURL string

	// Timeout bounds each request. Zero means the transport default.
	Timeout time.Duration
}

// NewClient creates a sidecar client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("NewSidecarClient: base URL is required")
	}

	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}

	return &Client{http: c}, nil
}

// Chat performs one POST /chat request. No retries: a failed or malformed
// exchange is returned as an error for the orchestrator to recover from.
func (c *Client) Chat(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&inference.ChatResponse{}).
		Post("/chat")
	if err != nil {
		return nil, fmt.Errorf("Chat: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("Chat: sidecar returned status %d", resp.StatusCode())
	}

	result, ok := resp.Result().(*inference.ChatResponse)
	if !ok || result.Reply == "" {
		return nil, errors.New("Chat: malformed sidecar response")
	}
	return result, nil
}

// Health performs one GET /health probe.
func (c *Client) Health(ctx context.Context) (bool, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&inference.HealthStatus{}).
		Get("/health")
	if err != nil {
		return false, fmt.Errorf("Health: %w", err)
	}
	if resp.IsError() {
		return false, nil
	}

	status, ok := resp.Result().(*inference.HealthStatus)
	if !ok {
		return false, nil
	}
	return status.OK, nil
}

// Close releases the client. The resty client holds no resources that
// need explicit release.
func (c *Client) Close() error {
	return nil
}
