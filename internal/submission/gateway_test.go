package submission_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/waybill/internal/submission"
)

func newGateway(t *testing.T, baseURL string) submission.Gateway {
	t.Helper()

	cfg := &submission.Config{
		BaseURL: baseURL,
		APIKey:  "secret-key",
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	return submission.NewGateway(cfg)
}

func TestGatewaySubmit(t *testing.T) {
	var received struct {
		ExternalID string          `json:"external_id"`
		Filename   string          `json:"filename"`
		Document   json.RawMessage `json:"document"`
	}
	var apiKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/documents" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		apiKey = r.Header.Get("X-API-Key")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode submission body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	g := newGateway(t, server.URL)

	payload := json.RawMessage(`{"driver": "J. Weber"}`)
	if err := g.Submit(context.Background(), "EXT-42", "report.pdf", payload); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if received.ExternalID != "EXT-42" {
		t.Errorf("external_id = %q, want EXT-42", received.ExternalID)
	}
	if received.Filename != "report.pdf" {
		t.Errorf("filename = %q, want report.pdf", received.Filename)
	}
	if string(received.Document) != string(payload) {
		t.Errorf("document payload = %s", received.Document)
	}
	if apiKey != "secret-key" {
		t.Errorf("api key header = %q", apiKey)
	}
}

func TestGatewaySubmitRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown external id", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	g := newGateway(t, server.URL)

	err := g.Submit(context.Background(), "EXT-1", "report.pdf", json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "422") {
		t.Errorf("error should carry the response status: %v", err)
	}
	if !strings.Contains(err.Error(), "unknown external id") {
		t.Errorf("error should carry the response body: %v", err)
	}
}

func TestGatewayUnreachable(t *testing.T) {
	g := newGateway(t, "http://127.0.0.1:1")

	if err := g.Submit(context.Background(), "EXT-1", "report.pdf", json.RawMessage(`{}`)); err == nil {
		t.Error("expected error when the gateway is unreachable")
	}
	if err := g.Ping(context.Background()); err == nil {
		t.Error("expected ping error when the gateway is unreachable")
	}
}

func TestGatewayPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ping" {
			t.Errorf("ping path = %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if err := newGateway(t, server.URL).Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}
