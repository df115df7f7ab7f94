package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/image-analyzer/internal/providers"
)

func kindOf(t *testing.T, err error) providers.ErrorKind {
	t.Helper()
	var perr *providers.Error
	if !errors.As(err, &perr) {
		t.Fatalf("Expected *providers.Error, got %T: %v", err, err)
	}
	return perr.Kind
}

func TestNewDefaults(t *testing.T) {
	a := New("", "", "", time.Second)
	if a.baseURL != DefaultURL || a.model != DefaultModel || a.version != DefaultVersion {
		t.Errorf("Expected defaults, got %s %s %s", a.baseURL, a.model, a.version)
	}
	if a.ID() != providers.Anthropic {
		t.Errorf("Expected id %s, got %s", providers.Anthropic, a.ID())
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantKind providers.ErrorKind
	}{
		{name: "valid key", status: http.StatusOK},
		{name: "unauthorized", status: http.StatusUnauthorized, wantKind: providers.InvalidCredential},
		{name: "server error", status: http.StatusInternalServerError, wantKind: providers.InvalidCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet || r.URL.Path != "/v1/models" {
					t.Errorf("Unexpected probe %s %s", r.Method, r.URL.Path)
				}
				if r.Header.Get("x-api-key") != "secret" {
					t.Errorf("Expected api key header, got %q", r.Header.Get("x-api-key"))
				}
				if r.Header.Get("anthropic-version") != DefaultVersion {
					t.Errorf("Expected version header, got %q", r.Header.Get("anthropic-version"))
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"data":[]}`))
			}))
			defer server.Close()

			err := New(server.URL, "", "", time.Second).Verify(context.Background(), "secret")
			if tt.wantKind == "" {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if got := kindOf(t, err); got != tt.wantKind {
				t.Errorf("Expected %s, got %s", tt.wantKind, got)
			}
		})
	}
}

func TestVerifyEmptyKeySkipsNetwork(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	err := New(server.URL, "", "", time.Second).Verify(context.Background(), " ")
	if got := kindOf(t, err); got != providers.InvalidCredential {
		t.Errorf("Expected %s, got %s", providers.InvalidCredential, got)
	}
	if called {
		t.Error("Expected no request for an empty key")
	}
}

func TestVerifyNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	err := New(url, "", "", time.Second).Verify(context.Background(), "secret")
	if got := kindOf(t, err); got != providers.NetworkError {
		t.Errorf("Expected %s, got %s", providers.NetworkError, got)
	}
}

func TestAnalyzeRequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/messages" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected json content type, got %q", r.Header.Get("Content-Type"))
		}

		var body messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			return
		}
		if body.Model != "test-model" || body.MaxTokens != 1000 {
			t.Errorf("Expected test-model/1000, got %s/%d", body.Model, body.MaxTokens)
		}
		if len(body.Messages) != 1 || body.Messages[0].Role != "user" || len(body.Messages[0].Content) != 2 {
			t.Errorf("Unexpected messages: %+v", body.Messages)
			return
		}
		img := body.Messages[0].Content[0]
		if img.Type != "image" || img.Source == nil || img.Source.Type != "base64" ||
			img.Source.MediaType != "image/png" || img.Source.Data != "aGk=" {
			t.Errorf("Unexpected image block: %+v", img)
		}
		txt := body.Messages[0].Content[1]
		if txt.Type != "text" || txt.Text != "describe" {
			t.Errorf("Unexpected text block: %+v", txt)
		}

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"description\":\"a cat\"}"}]}`))
	}))
	defer server.Close()

	got, err := New(server.URL, "test-model", "", time.Second).Analyze(context.Background(), providers.Request{
		Credential: "secret",
		MediaType:  "image/png",
		Data:       []byte("hi"),
		Payload:    "aGk=",
		Prompt:     "describe",
		MaxTokens:  1000,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != `{"description":"a cat"}` {
		t.Errorf("Expected verbatim text, got %s", got)
	}
}

func TestAnalyzeResponseMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind providers.ErrorKind
		wantText string
	}{
		{name: "missing content", status: 200, body: `{"id":"msg"}`, wantKind: providers.MalformedResponse},
		{name: "empty content", status: 200, body: `{"content":[]}`, wantKind: providers.MalformedResponse},
		{name: "content without text", status: 200, body: `{"content":[{"type":"image"}]}`, wantKind: providers.MalformedResponse},
		{name: "not json", status: 200, body: `<html>`, wantKind: providers.MalformedResponse},
		{name: "server error", status: 500, body: "overloaded", wantKind: providers.ProviderError, wantText: "500"},
		{name: "bad request", status: 400, body: "too big", wantKind: providers.ProviderError, wantText: "too big"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(server.URL, "", "", time.Second).Analyze(context.Background(), providers.Request{Credential: "k", MaxTokens: 1})
			if got := kindOf(t, err); got != tt.wantKind {
				t.Errorf("Expected %s, got %s", tt.wantKind, got)
			}
			if tt.wantText != "" && !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("Expected %q in %q", tt.wantText, err.Error())
			}
		})
	}
}

func TestAnalyzeTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	_, err := New(server.URL, "", "", 20*time.Millisecond).Analyze(context.Background(), providers.Request{Credential: "k"})
	if got := kindOf(t, err); got != providers.NetworkError {
		t.Errorf("Expected %s, got %s", providers.NetworkError, got)
	}
}
