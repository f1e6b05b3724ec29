package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akoreshkov/docfields/internal/core/domain"
)

func TestGenerateSendsPromptAndReturnsCandidateText(t *testing.T) {
	var capturedPath, capturedKey, capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedKey = r.Header.Get("x-goog-api-key")

		var payload generateRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedPrompt = payload.Contents[0].Parts[0].Text

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  {\"total\": \"450\"}  "}]}}]}`))
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL, APIKey: "secret", Model: "gemini-2.5-flash"})
	text, err := client.Generate(context.Background(), "Extract fields from: invoice")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != `{"total": "450"}` {
		t.Fatalf("expected trimmed candidate text, got %q", text)
	}
	if capturedPath != "/v1beta/models/gemini-2.5-flash:generateContent" {
		t.Fatalf("unexpected path: %s", capturedPath)
	}
	if capturedKey != "secret" {
		t.Fatalf("expected api key header, got %q", capturedKey)
	}
	if !strings.Contains(capturedPrompt, "invoice") {
		t.Fatalf("unexpected prompt: %s", capturedPrompt)
	}
}

func TestGenerateIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model is overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL, Model: "gemini-2.5-flash"})
	_, err := client.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model is overloaded") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestGenerateMarksRetryableStatusesTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL, Model: "gemini-2.5-flash"})
	_, err := client.Generate(context.Background(), "prompt")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error for 502, got %v", err)
	}
}

func TestGenerateClientTimeoutIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can detect the client
		// disconnect, then hold the response until the client gives up.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL, Model: "gemini-2.5-flash", Timeout: 50 * time.Millisecond})
	_, err := client.Generate(context.Background(), "prompt")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error for client timeout, got %v", err)
	}
}

func TestGenerateCallerCancellationIsNotTemporary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		cancel()
		<-r.Context().Done()
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL, Model: "gemini-2.5-flash"})
	_, err := client.Generate(ctx, "prompt")
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("caller cancellation must not be temporary, got %v", err)
	}
}

func TestGenerateClientErrorIsNotTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL, Model: "gemini-2.5-flash"})
	_, err := client.Generate(context.Background(), "prompt")
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("400 must not be temporary, got %v", err)
	}
}

func TestGenerateRejectsEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL, Model: "gemini-2.5-flash"})
	_, err := client.Generate(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "no candidates") {
		t.Fatalf("expected no-candidates error, got %v", err)
	}
}
