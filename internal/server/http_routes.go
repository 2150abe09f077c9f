package server

import (
	"net/http"
	"strings"
)

// route is one entry of the API surface
type route struct {
	pattern string
	summary string
	public  bool
	handler http.HandlerFunc
}

func (s *Server) routes() []route {
	return []route{
		{"GET /health", "Health check", true, s.healthHandler},
		{"GET /stats", "Server statistics", true, s.statsHandler},
		{"POST /search", "Create a search", false, s.createSearchHandler()},
		{"POST /search/page", "Fetch a result page", false, s.searchPageHandler()},
		{"GET /search/{searchID}", "Show a stored search", false, s.getSearchHandler()},
		{"POST /filter/check", "Validate a filter expression", false, s.checkFilterHandler()},
	}
}

// setupRoutes registers every route. Non-public routes pass through rate
// limiting, then authentication, then the body size cap.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	limit := s.rateLimitMiddleware()
	capBody := s.requestSizeLimitMiddleware()

	for _, r := range s.routes() {
		h := r.handler
		if !r.public {
			h = limit(s.authMiddleware(capBody(h)))
		}
		mux.HandleFunc(r.pattern, h)
	}
	return mux
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if s.apiKeyCount() == 0 {
			next(w, r)
			return
		}

		apiKey := extractAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.isValidAPIKey(apiKey) {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"client_ip", r.RemoteAddr,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// extractAPIKey reads the X-API-Key header, falling back to a Bearer token
func extractAPIKey(r *http.Request) string {
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return apiKey
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
