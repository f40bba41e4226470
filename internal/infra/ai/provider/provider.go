package provider

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-compliance/internal/config"
	"github.com/bryanwahyu/automaton-compliance/internal/domain/ai"
	"github.com/bryanwahyu/automaton-compliance/internal/infra/ai/gemini"
	"github.com/bryanwahyu/automaton-compliance/internal/infra/ai/openai"
	"github.com/bryanwahyu/automaton-compliance/internal/infra/ai/resilient"
	"github.com/bryanwahyu/automaton-compliance/internal/logging"
)

// ErrMissingAPIKey is returned when the active provider has no key configured.
var ErrMissingAPIKey = errors.New("ai api key is not configured")

// New builds the oracle for cfg.AI.Provider, wrapped with retry and an overall
// deadline of cfg.Engine.CallTimeout.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ai.Oracle, error) {
	logger = logging.OrNop(logger)
	if cfg.AI.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", cfg.AI.Provider, ErrMissingAPIKey)
	}

	var inner ai.Oracle
	switch cfg.AI.Provider {
	case "openai":
		inner = openai.NewClient(cfg.AI.APIKey, openai.Options{
			Model:        cfg.AI.Model,
			SystemPrompt: cfg.AI.SystemPrompt,
			Temperature:  cfg.AI.Temperature,
			MaxTokens:    cfg.AI.MaxTokens,
			BaseURL:      cfg.AI.BaseURL,
		})
	case "gemini":
		c, err := gemini.NewClient(ctx, cfg.AI.APIKey, gemini.Options{
			Model:        cfg.AI.Model,
			SystemPrompt: cfg.AI.SystemPrompt,
			Temperature:  cfg.AI.Temperature,
			MaxTokens:    cfg.AI.MaxTokens,
			BaseURL:      cfg.AI.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		inner = c
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.AI.Provider)
	}

	logger.Info("oracle ready",
		zap.String("provider", cfg.AI.Provider),
		zap.String("model", cfg.AI.Model),
		zap.Int("attempts", cfg.AI.Retries),
	)
	return resilient.New(inner, resilient.Config{
		MaxAttempts: cfg.AI.Retries,
		Timeout:     cfg.Engine.CallTimeout,
	}), nil
}
