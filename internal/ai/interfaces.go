package ai

import (
	"context"

	"talentsearch/internal/types"
)

// AIProvider generates search criteria and filters from recruiter text.
// Token usage is returned alongside results; callers can ignore it.
type AIProvider interface {
	GenerateFilter(ctx context.Context, rawInputText string) (*types.GeneratedQuery, *types.TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// BreakerStatsProvider is implemented by providers that guard calls with
// circuit breakers.
type BreakerStatsProvider interface {
	GetCircuitBreakerStats() map[string]any
}
