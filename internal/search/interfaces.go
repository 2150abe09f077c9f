package search

import (
	"context"
	"time"

	talentErrors "talentsearch/internal/errors"
	"talentsearch/internal/filter"
	"talentsearch/internal/types"
)

// QueryCache stores search requests and their generated filters.
type QueryCache interface {
	CreateSearch(ctx context.Context, ownerID, rawInputText string) (*types.SearchRequest, error)
	GetSearch(ctx context.Context, searchID string) (*types.SearchRequest, error)
	SaveGeneration(ctx context.Context, searchID string, expr *filter.Node, criteria []string) error
}

// PageCache stores frozen result pages. PutPage returns the page that is
// actually stored, which differs from its argument when another writer won.
type PageCache interface {
	GetPage(ctx context.Context, searchID string, pageIndex int) (*types.ResultPage, bool, error)
	PutPage(ctx context.Context, page types.ResultPage) (*types.ResultPage, error)
}

// Generator turns recruiter text into criteria and a filter.
type Generator interface {
	Generate(ctx context.Context, rawInputText string) (*types.GeneratedQuery, *types.TokenUsage, error)
}

// Executor runs a validated filter and returns one page of candidate ids.
type Executor interface {
	SearchPage(ctx context.Context, expr *filter.Validated, pageIndex int) ([]string, error)
}

// Recorder receives pipeline measurements.
type Recorder interface {
	RecordGeneration(ctx context.Context, duration time.Duration, usage *types.TokenUsage, err error)
	RecordExecution(ctx context.Context, duration time.Duration, err error)
	RecordPageServed(ctx context.Context, source string)
	RecordError(ctx context.Context, kind talentErrors.ErrorType, code string)
}

type noopRecorder struct{}

func (noopRecorder) RecordGeneration(context.Context, time.Duration, *types.TokenUsage, error) {}
func (noopRecorder) RecordExecution(context.Context, time.Duration, error)                     {}
func (noopRecorder) RecordPageServed(context.Context, string)                                  {}
func (noopRecorder) RecordError(context.Context, talentErrors.ErrorType, string)               {}
