package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/studysearch/internal/domain"
	"github.com/kailas-cloud/studysearch/internal/domain/query"
)

// OpenAI is an assistant backed by an OpenAI-compatible chat completions API.
type OpenAI struct {
	client  *openai.Client
	model   string
	prompt  Prompt
	timeout time.Duration
	logger  *zap.Logger
}

func newOpenAI(cfg Config) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAI{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		prompt:  cfg.Prompt,
		timeout: cfg.Timeout,
		logger:  cfg.Logger.With(zap.String("provider", ProviderOpenAI), zap.String("model", cfg.Model)),
	}
}

// Provider implements Assistant.
func (o *OpenAI) Provider() string { return ProviderOpenAI }

// Answer implements Assistant.
func (o *OpenAI) Answer(ctx context.Context, q query.Query) (string, error) {
	ctx, cancel := withTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: o.prompt.System()},
			{Role: openai.ChatMessageRoleUser, Content: o.prompt.User(q.Text())},
		},
		Temperature: 0.2,
		MaxTokens:   800,
	})
	if err != nil {
		return "", parseAPIError(err)
	}
	o.logger.Debug("chat completion done",
		zap.Duration("latency", time.Since(start)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	if len(resp.Choices) == 0 {
		return "", emptyAnswer(ProviderOpenAI)
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", emptyAnswer(ProviderOpenAI)
	}
	return answer, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (o *OpenAI) HealthCheck(ctx context.Context) error {
	if _, err := o.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a readable error from the API response.
// All errors wrap domain.ErrAssistantUnavailable.
func parseAPIError(err error) error {
	wrap := domain.ErrAssistantUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("chat API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("chat API error %d: %w", reqErr.HTTPStatusCode, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("chat request failed: %w: %w", wrap, err)
}

// extractDetail reads the "detail" field some compatible providers return.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
