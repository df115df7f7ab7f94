package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/image-analyzer/internal/providers"
)

const (
	DefaultURL     = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-20241022"
	DefaultVersion = "2023-06-01"
)

// Anthropic is a provider for the Anthropic messages API
type Anthropic struct {
	baseURL    string
	model      string
	version    string
	httpClient *http.Client
}

// New returns a new Anthropic provider. Empty arguments fall back to the defaults.
func New(baseURL, model, version string, timeout time.Duration) *Anthropic {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	if version == "" {
		version = DefaultVersion
	}
	return &Anthropic{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		version:    version,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (a *Anthropic) ID() providers.ID {
	return providers.Anthropic
}

type source struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type contentBlock struct {
	Type   string  `json:"type"`
	Source *source `json:"source,omitempty"`
	Text   string  `json:"text,omitempty"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Text *string `json:"text"`
	} `json:"content"`
}

func (a *Anthropic) newRequest(ctx context.Context, method, path string, body io.Reader, credential string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", credential)
	req.Header.Set("anthropic-version", a.version)
	return req, nil
}

// Verify lists a single model, which costs nothing and fails on a bad key
func (a *Anthropic) Verify(ctx context.Context, credential string) error {
	if err := providers.RequireCredential(providers.Anthropic, credential); err != nil {
		return err
	}

	req, err := a.newRequest(ctx, http.MethodGet, "/v1/models?limit=1", nil, credential)
	if err != nil {
		return err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return providers.Errorf(providers.NetworkError, "failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return providers.Errorf(providers.InvalidCredential, "received status code %d - %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}

// Analyze sends one message holding the image and the prompt
func (a *Anthropic) Analyze(ctx context.Context, r providers.Request) (string, error) {
	requestBody, err := json.Marshal(messagesRequest{
		Model:     a.model,
		MaxTokens: r.MaxTokens,
		Messages: []message{
			{
				Role: "user",
				Content: []contentBlock{
					{
						Type: "image",
						Source: &source{
							Type:      "base64",
							MediaType: string(r.MediaType),
							Data:      r.Payload,
						},
					},
					{
						Type: "text",
						Text: r.Prompt,
					},
				},
			},
		},
	})
	if err != nil {
		return "", providers.Errorf(providers.EncodingError, "failed to marshal request body: %v", err)
	}

	req, err := a.newRequest(ctx, http.MethodPost, "/v1/messages", bytes.NewBuffer(requestBody), r.Credential)
	if err != nil {
		return "", err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", providers.Errorf(providers.NetworkError, "failed to send request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", providers.Errorf(providers.NetworkError, "failed to read response body: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", providers.Errorf(providers.ProviderError, "received non-2xx status code: %d - %s", resp.StatusCode, string(body))
	}

	var response messagesResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", providers.Errorf(providers.MalformedResponse, "failed to decode response body: %v", err)
	}
	if len(response.Content) == 0 {
		return "", providers.Errorf(providers.MalformedResponse, "no content returned from Anthropic")
	}
	if response.Content[0].Text == nil {
		return "", providers.Errorf(providers.MalformedResponse, "first content block has no text")
	}

	return *response.Content[0].Text, nil
}
