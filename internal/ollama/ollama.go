package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/image-analyzer/internal/providers"
	"github.com/ollama/ollama/api"
)

const (
	DefaultURL   = "http://localhost:11434"
	DefaultModel = "mistral-small3.2:24b"
)

// Ollama is a provider for a local Ollama server. It needs no credential.
type Ollama struct {
	client *api.Client
	model  string
}

// New returns a new Ollama provider
func New(baseURL, model string, timeout time.Duration) (*Ollama, error) {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ollama url: %w", err)
	}

	return &Ollama{
		client: api.NewClient(base, &http.Client{Timeout: timeout}),
		model:  model,
	}, nil
}

func (o *Ollama) ID() providers.ID {
	return providers.Ollama
}

// Verify checks the server answers; the credential is ignored
func (o *Ollama) Verify(ctx context.Context, _ string) error {
	if err := o.client.Heartbeat(ctx); err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return providers.Errorf(providers.InvalidCredential, "received status code %d - %s", statusErr.StatusCode, statusErr.ErrorMessage)
		}
		return providers.Errorf(providers.NetworkError, "ollama is not reachable: %v", err)
	}
	return nil
}

// Analyze sends a single non-streaming chat message with the image attached
func (o *Ollama) Analyze(ctx context.Context, r providers.Request) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model: o.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: r.Prompt,
				Images:  []api.ImageData{r.Data},
			},
		},
		Stream: &stream,
		Options: map[string]any{
			"num_predict": r.MaxTokens,
			"temperature": 0.1,
		},
	}

	var content strings.Builder
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return "", providers.Errorf(providers.ProviderError, "received non-2xx status code: %d - %s", statusErr.StatusCode, statusErr.ErrorMessage)
		}
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return "", providers.Errorf(providers.MalformedResponse, "failed to decode response body: %v", err)
		}
		return "", providers.Errorf(providers.NetworkError, "failed to call Ollama API: %v", err)
	}

	if content.Len() == 0 {
		return "", providers.Errorf(providers.MalformedResponse, "empty message content returned from Ollama")
	}

	return content.String(), nil
}
