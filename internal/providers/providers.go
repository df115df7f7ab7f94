package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/image-analyzer/internal/media"
)

// ID identifies a vision model backend
type ID string

const (
	Anthropic ID = "anthropic"
	OpenAI    ID = "openai"
	Ollama    ID = "ollama"
	Gemini    ID = "gemini"
)

// All lists the known providers in preference order
var All = []ID{Anthropic, OpenAI, Ollama, Gemini}

// ParseID validates a provider name
func ParseID(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range All {
		if id == known {
			return id, nil
		}
	}
	return "", fmt.Errorf("unsupported provider: %s", s)
}

// Request is a single multimodal analysis request. It is built fresh for every attempt.
type Request struct {
	Credential string
	MediaType  media.MediaType
	Data       []byte
	Payload    string // base64 of Data
	Prompt     string
	MaxTokens  int
}

// Provider defines the interface for a vision model provider
type Provider interface {
	ID() ID
	// Verify checks the credential with a request that has no side effects
	Verify(ctx context.Context, credential string) error
	// Analyze sends the request and returns the model's text verbatim
	Analyze(ctx context.Context, req Request) (string, error)
}

// ErrorKind classifies a failed analysis attempt
type ErrorKind string

const (
	InvalidCredential ErrorKind = "invalid_credential"
	ProviderError     ErrorKind = "provider_error"
	MalformedResponse ErrorKind = "malformed_response"
	NetworkError      ErrorKind = "network_error"
	EncodingError     ErrorKind = "encoding_error"
)

// Error is returned by providers so callers can tell failure kinds apart
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Errorf builds a provider error of the given kind
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// RequireCredential rejects an empty key before anything goes over the network
func RequireCredential(id ID, credential string) error {
	if strings.TrimSpace(credential) == "" {
		return Errorf(InvalidCredential, "no API key configured for %s", id)
	}
	return nil
}
