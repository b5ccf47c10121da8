// Package ai wraps text generation providers behind a single completion
// interface. Provider failures are classified so callers can degrade to
// deterministic output instead of failing a clinical session.
package ai

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrUnavailable marks a provider that could not serve the request.
	// Callers should treat this as recoverable and fall back.
	ErrUnavailable = errors.New("ai: provider unavailable")
	// ErrTimeout marks a request that exceeded its deadline.
	ErrTimeout = errors.New("ai: request timed out")
)

// CompletionRequest is a single-shot text generation request.
type CompletionRequest struct {
	System string
	Prompt string

	// Zero values defer to the provider's configured defaults.
	Temperature float32
	MaxTokens   int
}

// CompletionProvider generates text from a prompt.
type CompletionProvider interface {
	// Complete returns the generated text. Errors are ErrTimeout for
	// deadline expiry and ErrUnavailable for everything else.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Name identifies the provider for logging.
	Name() string
}

// NewCompletionProvider creates a provider from config.
func NewCompletionProvider(cfg *Config) (CompletionProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, errors.New("ai: disabled by configuration")
	}

	switch cfg.Provider {
	case "openai", "ollama":
		// Ollama exposes an OpenAI-compatible endpoint under /v1.
		return newOpenAIProvider(cfg)
	}
	return nil, errors.Errorf("ai: unsupported provider %q", cfg.Provider)
}
