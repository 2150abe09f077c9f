package ai

import (
	"context"
	"fmt"
	"strings"

	"talentsearch/internal/config"
	"talentsearch/internal/errors"
	"talentsearch/internal/types"
)

// providerFactory builds a provider for one operation
type providerFactory func(cfg *config.OperationAIConfig, operation string, logger *errors.Logger) (AIProvider, error)

var providers = map[string]providerFactory{
	"gemini": func(cfg *config.OperationAIConfig, operation string, logger *errors.Logger) (AIProvider, error) {
		return NewGeminiProvider(cfg, operation, logger)
	},
}

// Service turns recruiter text into criteria and a filter expression.
type Service struct {
	provider AIProvider
	config   *config.OperationAIConfig
	logger   *errors.Logger
}

// NewService builds the provider named by cfg.Provider for operation
func NewService(cfg *config.OperationAIConfig, operation string, logger *errors.Logger) (*Service, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported AI provider %q", cfg.Provider), nil)
	}

	provider, err := factory(cfg, operation, logger)
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "failed to create AI provider", err)
	}

	logger.Debug("AI service ready",
		"provider", cfg.Provider,
		"operation", operation,
		"model", cfg.Model,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries)

	return NewServiceWithProvider(provider, cfg, logger), nil
}

// NewServiceWithProvider wraps an existing provider.
func NewServiceWithProvider(provider AIProvider, cfg *config.OperationAIConfig, logger *errors.Logger) *Service {
	return &Service{provider: provider, config: cfg, logger: logger}
}

// Generate produces criteria and a filter for rawInputText. Failures are
// always generation_unavailable or generation_parse errors, so nothing
// downstream has to guess whether a result is usable.
func (s *Service) Generate(ctx context.Context, rawInputText string) (*types.GeneratedQuery, *types.TokenUsage, error) {
	text := strings.TrimSpace(rawInputText)
	if text == "" {
		return nil, nil, errors.NewValidationError(errors.ErrCodeEmptyQuery, "search text is empty", nil)
	}

	generated, usage, err := s.provider.GenerateFilter(ctx, text)
	if err != nil {
		if kind := errors.TypeOf(err); kind != errors.ErrorTypeGenerationUnavailable && kind != errors.ErrorTypeGenerationParse {
			err = errors.NewGenerationUnavailableError(errors.ErrCodeGenerationFailed, "criteria generation failed", err)
		}
		return nil, usage, err
	}
	if generated == nil || generated.Filter == nil {
		return nil, usage, errors.NewGenerationParseError(errors.ErrCodeMalformedResponse, "generator returned no filter", nil)
	}

	s.logger.Debug("Generated search filter",
		"criteria_count", len(generated.Criteria),
		"filter", generated.Filter.String())
	return generated, usage, nil
}

// GetModelInfo probes the model for /health
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.provider.GetModelInfo(ctx)
}

// CircuitBreakerStats returns breaker statistics when the provider has any.
func (s *Service) CircuitBreakerStats() map[string]any {
	if p, ok := s.provider.(BreakerStatsProvider); ok {
		return p.GetCircuitBreakerStats()
	}
	return map[string]any{"enabled": false}
}

// Close releases the provider.
func (s *Service) Close() error {
	return s.provider.Close()
}
