package server

import (
	"context"
	"sync"
	"time"

	"talentsearch/internal/ai"
	"talentsearch/internal/config"
	talentErrors "talentsearch/internal/errors"
	"talentsearch/internal/filter"
	"talentsearch/internal/observability"
	"talentsearch/internal/types"
)

// CreateSearchRequest is the request body of POST /search
type CreateSearchRequest struct {
	OwnerID string `json:"ownerId"`
	Query   string `json:"query"`
}

// SearchPageRequest is the request body of POST /search/page
type SearchPageRequest struct {
	SearchID  string `json:"searchId"`
	PageIndex *int   `json:"pageIndex"`
}

// ErrorResponse represents an error response. Kind carries the error
// category so clients can tell an empty page from a failed one.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Code    string `json:"code,omitempty"`
}

// SearchService is the search pipeline served over HTTP
type SearchService interface {
	CreateSearch(ctx context.Context, ownerID, rawInputText string) (*types.SearchRequest, error)
	GetSearch(ctx context.Context, searchID string) (*types.SearchRequest, error)
	ExecuteSearchPage(ctx context.Context, searchID string, pageIndex int) (*types.PageResult, error)
}

// GeneratorStatus reports on the generation backend for /health
type GeneratorStatus interface {
	GetModelInfo(ctx context.Context) *ai.ModelInfo
	CircuitBreakerStats() map[string]any
}

// HealthCheck is a named dependency probe, such as a database ping
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Dependencies are the collaborators the server routes to
type Dependencies struct {
	Search        SearchService
	Validator     *filter.Validator
	Generator     GeneratorStatus
	HealthChecks  []HealthCheck
	Observability *observability.ObservabilityManager
	Vault         SecretSource
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// API Authentication
	keysMu  sync.RWMutex
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	deps     Dependencies
	om       *observability.ObservabilityManager
	recorder *observability.SearchRecorder
	rotator  *KeyRotator

	// Logger
	Logger *talentErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, deps Dependencies, logger *talentErrors.Logger) *Server {
	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(*cfg.RateLimit, logger)
	}

	om := deps.Observability
	if om == nil {
		om, _ = observability.NewObservabilityManager(observability.ObservabilityConfig{})
	}
	if deps.Validator == nil {
		deps.Validator = filter.NewValidator(filter.Limits{})
	}

	s := &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		deps:           deps,
		om:             om,
		recorder:       om.SearchRecorder(),
		Logger:         logger,
	}
	s.SetAPIKeys(cfg.APIKeys)
	return s
}

// SetAPIKeys replaces the accepted API keys. Empty keys are ignored.
func (s *Server) SetAPIKeys(keys []string) {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	s.keysMu.Lock()
	s.APIKeys = apiKeyMap
	s.keysMu.Unlock()
}

func (s *Server) apiKeyCount() int {
	s.keysMu.RLock()
	defer s.keysMu.RUnlock()
	return len(s.APIKeys)
}

func (s *Server) isValidAPIKey(key string) bool {
	s.keysMu.RLock()
	defer s.keysMu.RUnlock()
	return s.APIKeys[key]
}
