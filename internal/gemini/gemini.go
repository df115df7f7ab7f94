package gemini

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/lehigh-university-libraries/image-analyzer/internal/providers"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-1.5-flash"

// Gemini is a provider for Google Gemini
type Gemini struct {
	model   string
	timeout time.Duration
	opts    []option.ClientOption
}

// New returns a new Gemini provider. Extra options are passed to every client, after the API key.
func New(model string, timeout time.Duration, opts ...option.ClientOption) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{model: model, timeout: timeout, opts: opts}
}

func (g *Gemini) newClient(ctx context.Context, credential string) (*genai.Client, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(credential)}, g.opts...)
	return genai.NewClient(ctx, opts...)
}

func (g *Gemini) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *Gemini) ID() providers.ID {
	return providers.Gemini
}

// Verify counts tokens for a one word prompt, which is free
func (g *Gemini) Verify(ctx context.Context, credential string) error {
	if err := providers.RequireCredential(providers.Gemini, credential); err != nil {
		return err
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	client, err := g.newClient(ctx, credential)
	if err != nil {
		return providers.Errorf(providers.NetworkError, "failed to create new gemini client: %v", err)
	}
	defer client.Close()

	if _, err := client.GenerativeModel(g.model).CountTokens(ctx, genai.Text("ping")); err != nil {
		if status, ok := statusOf(err); ok {
			return providers.Errorf(providers.InvalidCredential, "received status code %d - %v", status, err)
		}
		return providers.Errorf(providers.NetworkError, "failed to count tokens: %v", err)
	}
	return nil
}

// Analyze sends the image blob followed by the prompt
func (g *Gemini) Analyze(ctx context.Context, r providers.Request) (string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	client, err := g.newClient(ctx, r.Credential)
	if err != nil {
		return "", providers.Errorf(providers.NetworkError, "failed to create new gemini client: %v", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	model.SetMaxOutputTokens(int32(r.MaxTokens))

	resp, err := model.GenerateContent(ctx, genai.Blob{MIMEType: string(r.MediaType), Data: r.Data}, genai.Text(r.Prompt))
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return "", providers.Errorf(providers.MalformedResponse, "response blocked: %v", blocked)
		}
		if status, ok := statusOf(err); ok {
			return "", providers.Errorf(providers.ProviderError, "received non-2xx status code: %d - %v", status, err)
		}
		return "", providers.Errorf(providers.NetworkError, "failed to generate content: %v", err)
	}

	return textOf(resp)
}

func textOf(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", providers.Errorf(providers.MalformedResponse, "no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", providers.Errorf(providers.MalformedResponse, "empty content returned from Gemini")
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		txt, ok := part.(genai.Text)
		if !ok {
			return "", providers.Errorf(providers.MalformedResponse, "unexpected part %T returned from Gemini", part)
		}
		b.WriteString(string(txt))
	}

	return b.String(), nil
}

func statusOf(err error) (int, bool) {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	return 0, false
}
