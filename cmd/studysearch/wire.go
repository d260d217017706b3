package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/studysearch/internal/config"
	"github.com/kailas-cloud/studysearch/internal/domain/curriculum"
	"github.com/kailas-cloud/studysearch/internal/domain/relevance"
	"github.com/kailas-cloud/studysearch/internal/domain/source"
	"github.com/kailas-cloud/studysearch/internal/transport/llm"
	"github.com/kailas-cloud/studysearch/internal/transport/scrape"
	"github.com/kailas-cloud/studysearch/internal/transport/youtube"
	"github.com/kailas-cloud/studysearch/internal/usecase/classify"
	healthuc "github.com/kailas-cloud/studysearch/internal/usecase/health"
	"github.com/kailas-cloud/studysearch/internal/usecase/render"
	searchuc "github.com/kailas-cloud/studysearch/internal/usecase/search"
)

// loadConfig resolves the environment, loads .env and the YAML config.
func loadConfig() (string, config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return "", config.Config{}, err
	}

	env := flagEnv
	if env == "" {
		env = config.GetEnv()
	}

	var (
		cfg config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return "", config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return env, cfg, nil
}

// app is the assembled pipeline.
type app struct {
	search *searchuc.Service
	health *healthuc.Service
}

// buildApp is the composition root: vocabulary -> filter -> adapters -> pipeline.
func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	vocab, err := curriculum.Load(cfg.VocabularyPath)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	filter := relevance.New(vocab.AllowedSubjects, vocab.BannedTerms)

	order, err := cfg.RenderOrder()
	if err != nil {
		return nil, fmt.Errorf("render order: %w", err)
	}
	keywords, err := cfg.ClassifierKeywords()
	if err != nil {
		return nil, fmt.Errorf("classifier keywords: %w", err)
	}
	if keywords == nil {
		keywords = classify.DefaultKeywords()
	}

	timeout := cfg.SourceTimeout()
	httpClient := &http.Client{Timeout: timeout}

	var adapters []searchuc.Adapter
	sites := []struct {
		kind source.Kind
		site config.SiteConfig
	}{
		{source.ExamBank, cfg.Sources.ExamBank},
		{source.LessonBank, cfg.Sources.LessonBank},
	}
	for _, s := range sites {
		if !s.site.IsEnabled() {
			logger.Info("source disabled", zap.String("source", string(s.kind)))
			continue
		}
		a, err := scrape.New(scrape.Config{
			Kind:       s.kind,
			Label:      s.site.Label,
			BaseURL:    s.site.BaseURL,
			SearchPath: s.site.SearchPath,
			QueryParam: s.site.QueryParam,
			Selectors: scrape.Selectors{
				Result: s.site.ResultSelector,
				Title:  s.site.TitleSelector,
				Link:   s.site.LinkSelector,
			},
			UserAgent:  cfg.Sources.UserAgent,
			Cap:        cfg.Sources.ResultCap,
			Timeout:    timeout,
			HTTPClient: httpClient,
			Relevance:  filter,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}

	if video := cfg.Sources.Video; video.APIKey != "" {
		var level youtube.LevelTagger
		if cfg.LevelSuffixEnabled() {
			level = &vocab
		}
		a, err := youtube.New(ctx, youtube.Config{
			APIKey:            video.APIKey,
			Endpoint:          video.Endpoint,
			MaxResults:        video.MaxResults,
			PopularityFloor:   video.PopularityFloor,
			RelevanceLanguage: video.RelevanceLanguage,
			Cap:               cfg.Sources.ResultCap,
			Timeout:           timeout,
			HTTPClient:        httpClient,
			Relevance:         filter,
			Level:             level,
			Logger:            logger,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	} else {
		logger.Warn("video source disabled: sources.video.api_key is empty")
	}

	formatter := render.New(cfg.Render.ChunkLimit, vocab.Level, vocab.SubjectNames())
	svc := searchuc.New(
		adapters,
		classify.New(order, keywords),
		filter,
		formatter,
		searchuc.Config{
			Order:       order,
			Timeout:     timeout,
			MaxParallel: cfg.Search.MaxParallel,
		},
		logger,
	)
	if cfg.CurriculumFallbackEnabled() {
		svc.WithExpander(&vocab)
	}

	// Pass nil interface (not typed nil pointer) when the assistant is disabled.
	var checker healthuc.AssistantChecker
	if cfg.Assistant.Provider != "" {
		assistant, err := llm.New(ctx, llm.Config{
			Provider: cfg.Assistant.Provider,
			APIKey:   cfg.Assistant.APIKey,
			BaseURL:  cfg.Assistant.BaseURL,
			Model:    cfg.Assistant.Model,
			Timeout:  time.Duration(cfg.Assistant.TimeoutSec) * time.Second,
			Prompt:   llm.Prompt{Level: vocab.Level, Subjects: vocab.SubjectNames()},
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create assistant: %w", err)
		}
		svc.WithAnswerer(assistant)
		checker = assistant
		logger.Info("assistant fallback enabled", zap.String("provider", assistant.Provider()))
	}

	logger.Info("search pipeline ready",
		zap.Int("adapters", len(adapters)),
		zap.Int("allowed_subjects", len(vocab.AllowedSubjects)),
		zap.Int("banned_terms", len(vocab.BannedTerms)),
	)

	return &app{search: svc, health: healthuc.New(checker)}, nil
}
