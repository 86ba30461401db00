package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/ai/gemini"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/failover"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/logger"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/secrets"
)

// aiServices are the model backed collaborators, all sharing one credential pool.
type aiServices struct {
	agent      *gemini.Agent
	iceBreaker *gemini.IceBreaker
	analyzer   *gemini.ResumeAnalyzer
	validator  *gemini.InputValidator
	questions  *gemini.QuestionGenerator
}

func newAI(ctx context.Context, cfg *AIConfig, recorder failover.Recorder, baseLogger *zap.Logger) (*aiServices, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, errors.New("ai configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	keys, err := secrets.LoadAll(credentialSources(cfg.Gemini))
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-files or GEMINI_API_KEY_FILES)", err)
	}

	genLogger := logger.WithCommonFields(baseLogger, "gemini", cfg.Gemini.Model).
		With(zap.Int("credentials", len(keys)))

	generator, err := gemini.NewPooledGenerator(ctx, keys, gemini.PoolOptions{
		Model:       cfg.Gemini.Model,
		Temperature: cfg.Gemini.Temperature,
		Logger:      genLogger,
		Recorder:    recorder,
	})
	if err != nil {
		return nil, err
	}

	return &aiServices{
		agent:      gemini.NewAgent(generator, cfg.Gemini.MaxLogLength, genLogger),
		iceBreaker: gemini.NewIceBreaker(generator, cfg.Gemini.MaxLogLength, genLogger),
		analyzer:   gemini.NewResumeAnalyzer(generator, genLogger),
		validator:  gemini.NewInputValidator(generator, genLogger),
		questions:  gemini.NewQuestionGenerator(generator, genLogger),
	}, nil
}

// credentialSources lists key files first, then inline keys, keeping the configured order.
func credentialSources(cfg *GeminiConfig) []secrets.Source {
	sources := make([]secrets.Source, 0, len(cfg.APIKeyFiles)+len(cfg.APIKeys))
	for i, file := range cfg.APIKeyFiles {
		sources = append(sources, secrets.Source{
			Name: fmt.Sprintf("gemini api key file #%d", i+1),
			File: file,
		})
	}
	for i, key := range cfg.APIKeys {
		sources = append(sources, secrets.Source{
			Name:  fmt.Sprintf("gemini api key #%d", i+1),
			Value: key,
		})
	}
	return sources
}
