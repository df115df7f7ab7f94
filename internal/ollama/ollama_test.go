package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/image-analyzer/internal/providers"
)

func kindOf(err error) providers.ErrorKind {
	var perr *providers.Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ""
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		model     string
		wantModel string
		wantErr   bool
	}{
		{name: "with all defaults", wantModel: DefaultModel},
		{name: "with custom model", url: "http://localhost:11434", model: "llava", wantModel: "llava"},
		{name: "with invalid url", url: "http://[::1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := New(tt.url, tt.model, time.Second)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if o.model != tt.wantModel {
				t.Errorf("Expected model %s, got %s", tt.wantModel, o.model)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead || r.URL.Path != "/" {
			t.Errorf("Unexpected heartbeat %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	o, err := New(server.URL, "", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := o.Verify(context.Background(), ""); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestVerifyUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	o, err := New(url, "", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := kindOf(o.Verify(context.Background(), "")); got != providers.NetworkError {
		t.Errorf("Expected %s, got %s", providers.NetworkError, got)
	}
}

func TestAnalyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}

		var body struct {
			Model    string `json:"model"`
			Stream   *bool  `json:"stream"`
			Messages []struct {
				Content string   `json:"content"`
				Images  []string `json:"images"`
			} `json:"messages"`
			Options map[string]any `json:"options"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			return
		}
		if body.Stream == nil || *body.Stream {
			t.Error("Expected a non-streaming request")
		}
		if len(body.Messages) != 1 || body.Messages[0].Content != "describe" || len(body.Messages[0].Images) != 1 {
			t.Errorf("Unexpected messages: %+v", body.Messages)
		}
		if body.Options["num_predict"] != float64(1000) {
			t.Errorf("Expected num_predict 1000, got %v", body.Options["num_predict"])
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte(`{"model":"m","message":{"role":"assistant","content":"{\"description\":\"a cat\"}"},"done":true}` + "\n"))
	}))
	defer server.Close()

	o, err := New(server.URL, "", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := o.Analyze(context.Background(), providers.Request{
		Data:      []byte("hi"),
		Payload:   "aGk=",
		Prompt:    "describe",
		MaxTokens: 1000,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != `{"description":"a cat"}` {
		t.Errorf("Expected verbatim content, got %s", got)
	}
}

func TestAnalyzeFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind providers.ErrorKind
	}{
		{name: "model missing", status: 404, body: `{"error":"model not found"}`, wantKind: providers.ProviderError},
		{name: "empty content", status: 200, body: `{"message":{"role":"assistant","content":""},"done":true}`, wantKind: providers.MalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body + "\n"))
			}))
			defer server.Close()

			o, err := New(server.URL, "", time.Second)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			_, err = o.Analyze(context.Background(), providers.Request{Data: []byte("x"), MaxTokens: 1})
			if got := kindOf(err); got != tt.wantKind {
				t.Errorf("Expected %q, got %q (%v)", tt.wantKind, got, err)
			}
		})
	}
}
