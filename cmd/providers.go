package cmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/image-analyzer/internal/analysis"
	"github.com/lehigh-university-libraries/image-analyzer/internal/anthropic"
	"github.com/lehigh-university-libraries/image-analyzer/internal/config"
	"github.com/lehigh-university-libraries/image-analyzer/internal/credentials"
	"github.com/lehigh-university-libraries/image-analyzer/internal/gemini"
	"github.com/lehigh-university-libraries/image-analyzer/internal/ollama"
	"github.com/lehigh-university-libraries/image-analyzer/internal/openai"
	"github.com/lehigh-university-libraries/image-analyzer/internal/providers"
)

// newOrchestrator builds every provider from the current configuration
func newOrchestrator() (*analysis.Orchestrator, error) {
	timeout := config.GetHTTPTimeout()

	a := config.GetProvider(string(providers.Anthropic))
	o := config.GetProvider(string(providers.OpenAI))
	l := config.GetProvider(string(providers.Ollama))
	g := config.GetProvider(string(providers.Gemini))

	ollamaProvider, err := ollama.New(l.URL, l.Model, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to configure ollama: %w", err)
	}

	return analysis.New(
		anthropic.New(a.URL, a.Model, a.Version, timeout),
		openai.New(o.URL, o.Model, timeout),
		ollamaProvider,
		gemini.New(g.Model, timeout),
	), nil
}

func openCredentials() (*credentials.FileStore, error) {
	store, err := credentials.Open(config.GetCredentialsFile())
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	return store, nil
}
