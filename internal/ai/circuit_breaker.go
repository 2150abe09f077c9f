package ai

import (
	"context"
	stdErrors "errors"
	"fmt"

	"talentsearch/internal/config"
	"talentsearch/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// breaker guards one kind of provider call. A nil breaker calls straight
// through and always reports healthy.
type breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// tripRule opens a breaker once minRequests calls were seen in the current
// interval and at least ratio of them failed.
type tripRule struct {
	minRequests uint32
	ratio       float64
}

func (r tripRule) ready(counts gobreaker.Counts) bool {
	if counts.Requests == 0 || counts.Requests < r.minRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= r.ratio
}

// modelCheckRule is lenient: model probes only feed /health
var modelCheckRule = tripRule{minRequests: 5, ratio: 0.8}

func generationRule(cfg config.CircuitBreakerConfig) tripRule {
	return tripRule{minRequests: cfg.MinRequests, ratio: cfg.FailureThreshold}
}

func newBreaker[T any](name string, cfg config.CircuitBreakerConfig, rule tripRule, logger *errors.Logger) *breaker[T] {
	if !cfg.Enabled {
		return nil
	}

	return &breaker[T]{cb: gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:         name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		ReadyToTrip:  rule.ready,
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Warn("Circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	})}
}

// countsAsSuccess keeps a caller giving up from counting against the provider
func countsAsSuccess(err error) bool {
	return err == nil || stdErrors.Is(err, context.Canceled)
}

func generationBreakerName(operationType string) string {
	return fmt.Sprintf("generation-%s", operationType)
}

func modelBreakerName(operationType string) string {
	return fmt.Sprintf("model-%s", operationType)
}

func (b *breaker[T]) execute(fn func() (T, error)) (T, error) {
	if b == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

func (b *breaker[T]) stats() map[string]any {
	if b == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"enabled": true,
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
	}
}

// healthy reports whether calls are flowing normally, i.e. the breaker is closed
func (b *breaker[T]) healthy() bool {
	return b == nil || b.cb.State() == gobreaker.StateClosed
}
