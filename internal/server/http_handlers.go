package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"talentsearch/internal/types"
)

const defaultHealthTimeout = 15 * time.Second

func (s *Server) healthTimeout() time.Duration {
	if s.AppConfig != nil && s.AppConfig.Observability.HealthCheck.Timeout > 0 {
		return s.AppConfig.Observability.HealthCheck.Timeout
	}
	return defaultHealthTimeout
}

// healthHandler handles GET /health. A failed dependency makes the service
// unhealthy (503); an unavailable model only degrades it, since stored
// searches and cached pages still serve.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.healthTimeout())
	defer cancel()

	dependencies, healthy := s.checkDependencies(ctx)
	response := map[string]any{
		"status":       "healthy",
		"service":      "talentsearch",
		"version":      s.Version,
		"dependencies": dependencies,
	}

	if gen := s.deps.Generator; gen != nil {
		model := gen.GetModelInfo(ctx)
		response["ai_model"] = model
		response["circuit_breakers"] = gen.CircuitBreakerStats()
		if model != nil && !model.Available {
			response["status"] = "degraded"
		}
	}
	if s.rotator != nil {
		response["api_key_rotation"] = s.rotator.Status()
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	encodeJSON(w, status, response)
}

// checkDependencies runs every probe and reports health and latency for each
func (s *Server) checkDependencies(ctx context.Context) (map[string]any, bool) {
	results := make(map[string]any, len(s.deps.HealthChecks))
	healthy := true
	for _, hc := range s.deps.HealthChecks {
		start := time.Now()
		err := hc.Check(ctx)

		result := map[string]any{"healthy": err == nil, "latency_ms": time.Since(start).Milliseconds()}
		if err != nil {
			healthy = false
			result["error"] = err.Error()
		}
		results[hc.Name] = result
	}
	return results, healthy
}

// statsHandler handles GET /stats: search limits, auth and rate limiting
func (s *Server) statsHandler(w http.ResponseWriter, _ *http.Request) {
	searchStats := map[string]any{"page_size": types.PageSize}
	if s.AppConfig != nil {
		cfg := s.AppConfig.Search
		searchStats["generation_timeout"] = cfg.GenerationTimeout.String()
		searchStats["execution_timeout"] = cfg.ExecutionTimeout.String()
		searchStats["max_page_index"] = cfg.MaxPageIndex
		searchStats["max_filter_depth"] = cfg.MaxDepth
		searchStats["max_filter_atoms"] = cfg.MaxAtoms
	}

	rateLimiting := map[string]any{"enabled": false}
	if s.RateLimiter != nil {
		rateLimiting = s.RateLimiter.Stats()
		rateLimiting["by_ip"] = s.RateLimit.ByIP
		rateLimiting["by_api_key"] = s.RateLimit.ByAPIKey
	}

	encodeJSON(w, http.StatusOK, map[string]any{
		"service": "talentsearch",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"api_keys_configured":    s.apiKeyCount(),
		},
		"search":        searchStats,
		"rate_limiting": rateLimiting,
	})
}

// parseJSONRequest decodes a JSON request body into v
func parseJSONRequest(r *http.Request, v any) error {
	body, err := readJSONBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// writeErrorResponse writes an ErrorResponse without a kind, for failures
// outside the search pipeline such as auth and rate limiting
func writeErrorResponse(w http.ResponseWriter, title, message string, status int) {
	encodeJSON(w, status, ErrorResponse{Error: title, Message: message})
}

func encodeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
