package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/image-analyzer/internal/media"
	"github.com/lehigh-university-libraries/image-analyzer/internal/metrics"
	"github.com/lehigh-university-libraries/image-analyzer/internal/prompt"
	"github.com/lehigh-university-libraries/image-analyzer/internal/providers"
)

// MaxTokens bounds the length of the model's answer
const MaxTokens = 1000

// Result is the outcome of one analysis attempt: the model's text, or a failure kind and message
type Result struct {
	OK      bool                `json:"ok"`
	Text    string              `json:"text,omitempty"`
	Kind    providers.ErrorKind `json:"kind,omitempty"`
	Message string              `json:"message,omitempty"`
}

func Success(text string) Result {
	return Result{OK: true, Text: text}
}

func Failure(kind providers.ErrorKind, message string) Result {
	return Result{Kind: kind, Message: message}
}

// Err returns nil for a success and a *providers.Error otherwise
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return &providers.Error{Kind: r.Kind, Message: r.Message}
}

// Orchestrator runs analyses against the registered providers.
// It keeps no state between calls.
type Orchestrator struct {
	providers map[providers.ID]providers.Provider
}

func New(ps ...providers.Provider) *Orchestrator {
	o := &Orchestrator{providers: make(map[providers.ID]providers.Provider, len(ps))}
	for _, p := range ps {
		o.providers[p.ID()] = p
	}
	return o
}

// Has reports whether a provider is registered
func (o *Orchestrator) Has(id providers.ID) bool {
	_, ok := o.providers[id]
	return ok
}

// Analyze verifies the credential and, only if that succeeds, sends one request holding the
// image and the prompt for fields. Readiness is the caller's concern and is not re-checked.
func (o *Orchestrator) Analyze(ctx context.Context, id providers.ID, img *media.Image, fields []prompt.FieldID, credential string) Result {
	start := time.Now()
	result := o.analyze(ctx, id, img, fields, credential)

	outcome := "success"
	if !result.OK {
		outcome = string(result.Kind)
		slog.Error("Image analysis failed", "provider", id, "kind", result.Kind, "error", result.Message)
	} else {
		slog.Info("Image analysis complete", "provider", id, "length", len(result.Text), "elapsed", time.Since(start))
	}
	metrics.ObserveAnalysis(string(id), outcome, time.Since(start))

	return result
}

func (o *Orchestrator) analyze(ctx context.Context, id providers.ID, img *media.Image, fields []prompt.FieldID, credential string) Result {
	p, ok := o.providers[id]
	if !ok {
		return Failure(providers.ProviderError, "unsupported provider: "+string(id))
	}

	if img == nil || len(img.Data) == 0 {
		return Failure(providers.EncodingError, "no image bytes to encode")
	}
	mediaType, payload := media.Encode(img.Data, img.Name)

	slog.Info("Verifying API key", "provider", id, "has_key", credential != "")
	if err := p.Verify(ctx, credential); err != nil {
		kind, message := classify(err)
		if kind != providers.NetworkError {
			kind = providers.InvalidCredential
		}
		return Failure(kind, message)
	}

	req := providers.Request{
		Credential: credential,
		MediaType:  mediaType,
		Data:       img.Data,
		Payload:    payload,
		Prompt:     prompt.Build(fields),
		MaxTokens:  MaxTokens,
	}

	slog.Info("Analyzing image", "provider", id, "filename", img.Name, "media_type", mediaType, "size", img.Size(), "fields", len(fields))
	text, err := p.Analyze(ctx, req)
	if err != nil {
		return Failure(classify(err))
	}

	return Success(text)
}

func classify(err error) (providers.ErrorKind, string) {
	var perr *providers.Error
	if errors.As(err, &perr) {
		return perr.Kind, perr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return providers.NetworkError, err.Error()
	}
	return providers.ProviderError, err.Error()
}
