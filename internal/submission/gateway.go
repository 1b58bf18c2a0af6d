// Package submission hands reviewed extraction data to the downstream
// logistics gateway. A gateway failure is an expected outcome, not a fault:
// the document stays reviewed and can be resubmitted at any time.
package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const apiKeyHeader = "X-API-Key"

// Gateway is the downstream transport.
type Gateway interface {
	// Submit delivers one extraction payload, keyed by the document's
	// external id and filename. A non-2xx response is an error.
	Submit(ctx context.Context, externalID, filename string, payload json.RawMessage) error
	// Ping verifies the gateway is reachable and accepts our credentials.
	Ping(ctx context.Context) error
}

type httpGateway struct {
	client     *http.Client
	baseURL    string
	submitPath string
	pingPath   string
	apiKey     string
}

// NewGateway creates an HTTP gateway client from the given configuration.
func NewGateway(cfg *Config) Gateway {
	return &httpGateway{
		client:     &http.Client{Timeout: cfg.TimeoutDuration()},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		submitPath: cfg.SubmitPath,
		pingPath:   cfg.PingPath,
		apiKey:     cfg.APIKey,
	}
}

func (g *httpGateway) Submit(ctx context.Context, externalID, filename string, payload json.RawMessage) error {
	body, err := json.Marshal(map[string]any{
		"external_id": externalID,
		"filename":    filename,
		"document":    payload,
	})
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+g.submitPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway rejected submission: %s: %s",
			resp.Status, strings.TrimSpace(string(detail)))
	}

	return nil
}

func (g *httpGateway) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.baseURL+g.pingPath, nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway ping failed: %s", resp.Status)
	}

	return nil
}

func (g *httpGateway) authorize(req *http.Request) {
	if g.apiKey != "" {
		req.Header.Set(apiKeyHeader, g.apiKey)
	}
}
