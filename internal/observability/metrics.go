package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all custom instruments of the search service. A zero
// Metrics is valid and records nothing.
type Metrics struct {
	// Generation
	GenerationDuration metric.Float64Histogram
	GenerationRequests metric.Int64Counter
	GenerationErrors   metric.Int64Counter
	GenerationTokens   metric.Int64Histogram

	// Execution
	ExecutionDuration metric.Float64Histogram
	ExecutionErrors   metric.Int64Counter

	// Business
	PagesServed     metric.Int64Counter
	SearchErrors    metric.Int64Counter
	FilterRejection metric.Int64Counter

	// Infrastructure
	RateLimitHits metric.Int64Counter
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	creators := []func(metric.Meter) error{
		m.createGenerationMetrics,
		m.createExecutionMetrics,
		m.createBusinessMetrics,
		m.createRateLimitMetrics,
	}
	for _, create := range creators {
		if err := create(meter); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) createGenerationMetrics(meter metric.Meter) error {
	var err error

	m.GenerationDuration, err = meter.Float64Histogram(
		"talentsearch_generation_duration_seconds",
		metric.WithDescription("Time spent generating criteria and filters"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create generation duration metric: %w", err)
	}

	m.GenerationRequests, err = meter.Int64Counter(
		"talentsearch_generation_requests_total",
		metric.WithDescription("Total number of generation requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create generation request metric: %w", err)
	}

	m.GenerationErrors, err = meter.Int64Counter(
		"talentsearch_generation_errors_total",
		metric.WithDescription("Total number of failed generation requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create generation error metric: %w", err)
	}

	m.GenerationTokens, err = meter.Int64Histogram(
		"talentsearch_generation_token_usage",
		metric.WithDescription("Token usage of generation requests (input, output, total)"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return fmt.Errorf("failed to create generation token metric: %w", err)
	}

	return nil
}

func (m *Metrics) createExecutionMetrics(meter metric.Meter) error {
	var err error

	m.ExecutionDuration, err = meter.Float64Histogram(
		"talentsearch_execution_duration_seconds",
		metric.WithDescription("Time spent running candidate page queries"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create execution duration metric: %w", err)
	}

	m.ExecutionErrors, err = meter.Int64Counter(
		"talentsearch_execution_errors_total",
		metric.WithDescription("Total number of failed candidate page queries"),
	)
	if err != nil {
		return fmt.Errorf("failed to create execution error metric: %w", err)
	}

	return nil
}

func (m *Metrics) createBusinessMetrics(meter metric.Meter) error {
	var err error

	m.PagesServed, err = meter.Int64Counter(
		"talentsearch_pages_served_total",
		metric.WithDescription("Result pages served, by source"),
	)
	if err != nil {
		return fmt.Errorf("failed to create pages served metric: %w", err)
	}

	m.SearchErrors, err = meter.Int64Counter(
		"talentsearch_search_errors_total",
		metric.WithDescription("Search pipeline errors, by kind and code"),
	)
	if err != nil {
		return fmt.Errorf("failed to create search error metric: %w", err)
	}

	m.FilterRejection, err = meter.Int64Counter(
		"talentsearch_filter_rejections_total",
		metric.WithDescription("Filters rejected by the validator, by code"),
	)
	if err != nil {
		return fmt.Errorf("failed to create filter rejection metric: %w", err)
	}

	return nil
}

func (m *Metrics) createRateLimitMetrics(meter metric.Meter) error {
	var err error

	m.RateLimitHits, err = meter.Int64Counter(
		"talentsearch_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return nil
}
