package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/image-analyzer/internal/providers"
	goopenai "github.com/sashabaranov/go-openai"
)

const (
	DefaultURL   = "https://api.openai.com/v1"
	DefaultModel = "gpt-4o"
)

// OpenAI is a provider for OpenAI chat completions with image input
type OpenAI struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// New returns a new OpenAI provider
func New(baseURL, model string, timeout time.Duration) *OpenAI {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAI{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (o *OpenAI) ID() providers.ID {
	return providers.OpenAI
}

func (o *OpenAI) client(credential string) *goopenai.Client {
	cfg := goopenai.DefaultConfig(credential)
	cfg.BaseURL = o.baseURL
	cfg.HTTPClient = o.httpClient
	return goopenai.NewClientWithConfig(cfg)
}

// Verify lists models with the key
func (o *OpenAI) Verify(ctx context.Context, credential string) error {
	if err := providers.RequireCredential(providers.OpenAI, credential); err != nil {
		return err
	}

	if _, err := o.client(credential).ListModels(ctx); err != nil {
		if status, ok := statusOf(err); ok {
			return providers.Errorf(providers.InvalidCredential, "received status code %d - %v", status, err)
		}
		return providers.Errorf(providers.NetworkError, "failed to list models: %v", err)
	}
	return nil
}

// Analyze sends the prompt and a data URL of the image in one user message
func (o *OpenAI) Analyze(ctx context.Context, r providers.Request) (string, error) {
	resp, err := o.client(r.Credential).CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: r.MaxTokens,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role: goopenai.ChatMessageRoleUser,
				MultiContent: []goopenai.ChatMessagePart{
					{
						Type: goopenai.ChatMessagePartTypeImageURL,
						ImageURL: &goopenai.ChatMessageImageURL{
							URL: "data:" + string(r.MediaType) + ";base64," + r.Payload,
						},
					},
					{
						Type: goopenai.ChatMessagePartTypeText,
						Text: r.Prompt,
					},
				},
			},
		},
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", providers.Errorf(providers.MalformedResponse, "no choices returned from OpenAI")
	}
	if resp.Choices[0].Message.Content == "" {
		return "", providers.Errorf(providers.MalformedResponse, "empty message content returned from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

func statusOf(err error) (int, bool) {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, true
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, true
	}
	return 0, false
}

func classify(err error) error {
	if status, ok := statusOf(err); ok {
		return providers.Errorf(providers.ProviderError, "received non-2xx status code: %d - %v", status, err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return providers.Errorf(providers.MalformedResponse, "failed to decode response body: %v", err)
	}

	return providers.Errorf(providers.NetworkError, "failed to send request: %v", err)
}
