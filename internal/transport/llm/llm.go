// Package llm implements the language-model fallback used when structured
// search finds nothing.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/studysearch/internal/domain"
	"github.com/kailas-cloud/studysearch/internal/domain/query"
)

// Supported providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// DefaultTimeout bounds one completion call.
const DefaultTimeout = 30 * time.Second

// Assistant answers a single study question.
type Assistant interface {
	Provider() string
	Answer(ctx context.Context, q query.Query) (string, error)
	HealthCheck(ctx context.Context) error
}

// Config holds the provider settings.
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string // openai-compatible endpoint or gemini API base
	Model    string
	Timeout  time.Duration
	Prompt   Prompt
	Logger   *zap.Logger
}

// New creates the configured assistant.
func New(ctx context.Context, cfg Config) (Assistant, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: assistant api key is required", domain.ErrInvalidConfig)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.Model == "" {
			cfg.Model = "gpt-4o-mini"
		}
		return newOpenAI(cfg), nil
	case ProviderGemini:
		if cfg.Model == "" {
			cfg.Model = "gemini-2.5-flash"
		}
		return newGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown assistant provider %q (valid: %s, %s)",
			domain.ErrInvalidConfig, cfg.Provider, ProviderOpenAI, ProviderGemini)
	}
}

// withTimeout applies the per-call deadline unless ctx already has a sooner one.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < d {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func emptyAnswer(provider string) error {
	return fmt.Errorf("%s returned an empty answer: %w", provider, domain.ErrAssistantUnavailable)
}
