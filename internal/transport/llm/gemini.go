package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/studysearch/internal/domain"
	"github.com/kailas-cloud/studysearch/internal/domain/query"
)

// Gemini is an assistant backed by the Gemini API.
type Gemini struct {
	client  *genai.Client
	model   string
	prompt  Prompt
	timeout time.Duration
	logger  *zap.Logger
}

func newGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Gemini{
		client:  client,
		model:   cfg.Model,
		prompt:  cfg.Prompt,
		timeout: cfg.Timeout,
		logger:  cfg.Logger.With(zap.String("provider", ProviderGemini), zap.String("model", cfg.Model)),
	}, nil
}

// Provider implements Assistant.
func (g *Gemini) Provider() string { return ProviderGemini }

// Answer implements Assistant.
func (g *Gemini) Answer(ctx context.Context, q query.Query) (string, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(g.prompt.User(q.Text())),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(g.prompt.System(), genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.2),
			MaxOutputTokens:   800,
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w: %w", domain.ErrAssistantUnavailable, err)
	}
	g.logger.Debug("generate content done", zap.Duration("latency", time.Since(start)))

	answer := strings.TrimSpace(resp.Text())
	if answer == "" {
		return "", emptyAnswer(ProviderGemini)
	}
	return answer, nil
}

// HealthCheck verifies the configured model is reachable.
func (g *Gemini) HealthCheck(ctx context.Context) error {
	if _, err := g.client.Models.Get(ctx, g.model, nil); err != nil {
		return fmt.Errorf("get model %s: %w", g.model, err)
	}
	return nil
}
