package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"talentsearch/internal/config"
	talentErrors "talentsearch/internal/errors"
	"talentsearch/internal/types"
)

// SearchRecorder turns search pipeline events into metrics. It satisfies
// the recorder interface of the search service.
type SearchRecorder struct {
	metrics  *Metrics
	settings config.CustomMetricsConfig
}

// NewSearchRecorder creates a recorder over metrics. A nil metrics records
// nothing.
func NewSearchRecorder(metrics *Metrics, settings config.CustomMetricsConfig) *SearchRecorder {
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &SearchRecorder{metrics: metrics, settings: settings}
}

func defaultCustomMetrics() config.CustomMetricsConfig {
	return config.CustomMetricsConfig{
		AIOperations: config.AIOperationsMetricsConfig{
			Enabled:         true,
			TrackDuration:   true,
			TrackTokenUsage: true,
		},
		BusinessMetrics: config.BusinessMetricsConfig{
			Enabled:           true,
			TrackSuccessRates: true,
			TrackPageSources:  true,
		},
		Infrastructure: config.InfrastructureMetricsConfig{
			Enabled:         true,
			TrackRateLimits: true,
			TrackQueryTimes: true,
		},
	}
}

// RecordGeneration records one generation call.
func (r *SearchRecorder) RecordGeneration(ctx context.Context, duration time.Duration, usage *types.TokenUsage, err error) {
	ai := r.settings.AIOperations
	if !ai.Enabled || r.metrics.GenerationRequests == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", "generate_filter"),
		attribute.Bool("success", err == nil),
	}
	opt := metric.WithAttributes(attrs...)

	r.metrics.GenerationRequests.Add(ctx, 1, opt)
	if ai.TrackDuration {
		r.metrics.GenerationDuration.Record(ctx, duration.Seconds(), opt)
	}
	if err != nil {
		errAttrs := append(attrs, attribute.String("kind", string(talentErrors.TypeOf(err))))
		r.metrics.GenerationErrors.Add(ctx, 1, metric.WithAttributes(errAttrs...))
	}
	if usage != nil {
		r.recordTokens(ctx, usage, attrs)
	}
}

func (r *SearchRecorder) recordTokens(ctx context.Context, usage *types.TokenUsage, attrs []attribute.KeyValue) {
	if r.settings.AIOperations.TrackTokenUsage {
		tokenTypes := []struct {
			tokenType string
			value     int64
		}{
			{"input", usage.InputTokens},
			{"output", usage.OutputTokens},
			{"total", usage.TotalTokens},
		}
		for _, tt := range tokenTypes {
			tokenAttrs := append(attrs[:len(attrs):len(attrs)], attribute.String("token_type", tt.tokenType))
			r.metrics.GenerationTokens.Record(ctx, tt.value, metric.WithAttributes(tokenAttrs...))
		}
	}

	// Token counts always go on the span for debugging
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int64("ai.tokens.input", usage.InputTokens),
		attribute.Int64("ai.tokens.output", usage.OutputTokens),
		attribute.Int64("ai.tokens.total", usage.TotalTokens),
	)
}

// RecordExecution records one candidate page query.
func (r *SearchRecorder) RecordExecution(ctx context.Context, duration time.Duration, err error) {
	infra := r.settings.Infrastructure
	if !infra.Enabled || r.metrics.ExecutionDuration == nil {
		return
	}

	opt := metric.WithAttributes(attribute.Bool("success", err == nil))
	if infra.TrackQueryTimes {
		r.metrics.ExecutionDuration.Record(ctx, duration.Seconds(), opt)
	}
	if err != nil {
		r.metrics.ExecutionErrors.Add(ctx, 1, opt)
	}
}

// RecordPageServed counts a served page by where it came from.
func (r *SearchRecorder) RecordPageServed(ctx context.Context, source string) {
	business := r.settings.BusinessMetrics
	if !business.Enabled || !business.TrackPageSources || r.metrics.PagesServed == nil {
		return
	}
	r.metrics.PagesServed.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// RecordError counts a failed search operation by kind and code.
func (r *SearchRecorder) RecordError(ctx context.Context, kind talentErrors.ErrorType, code string) {
	business := r.settings.BusinessMetrics
	if !business.Enabled || r.metrics.SearchErrors == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("code", code),
	)
	if business.TrackSuccessRates {
		r.metrics.SearchErrors.Add(ctx, 1, attrs)
	}
	if kind == talentErrors.ErrorTypeFilterRejected {
		r.metrics.FilterRejection.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
	}
}

// RecordRateLimitHit counts a request refused by the rate limiter.
func (r *SearchRecorder) RecordRateLimitHit(ctx context.Context, limiterType string) {
	infra := r.settings.Infrastructure
	if !infra.TrackRateLimits || r.metrics.RateLimitHits == nil {
		return
	}
	r.metrics.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limiter_type", limiterType)))
}
