package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talentsearch/internal/utils"
)

const shutdownTimeout = 30 * time.Second

// Start serves until SIGINT or SIGTERM
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", net.JoinHostPort(s.Host, s.Port))
	if err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is cancelled
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.ReadTimeout,
		WriteTimeout:      s.WriteTimeout,
		IdleTimeout:       s.IdleTimeout,
	}

	s.startAPIKeyRotation(ctx)
	s.printBanner(listener.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		s.Logger.Info("Starting HTTP server", "address", listener.Addr().String())
		serveErr <- httpServer.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		s.stopBackground()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.Logger.Info("Shutdown requested, draining connections", "timeout", shutdownTimeout)
	s.stopBackground()

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(drainCtx); err != nil {
		s.Logger.LogError(err, "Graceful shutdown failed, closing connections")
		return httpServer.Close()
	}
	s.Logger.Info("Server stopped")
	return nil
}

// Handler returns the routes wrapped in HTTP instrumentation
func (s *Server) Handler() http.Handler {
	return s.om.HTTPMiddleware()(s.setupRoutes())
}

// startAPIKeyRotation polls Vault for API key changes when configured
func (s *Server) startAPIKeyRotation(ctx context.Context) {
	if s.deps.Vault == nil || s.AppConfig == nil {
		return
	}
	vaultCfg := s.AppConfig.Vault
	if vaultCfg.Secrets.APIKeys == "" || vaultCfg.APIKeyPollInterval <= 0 {
		return
	}

	s.rotator = NewKeyRotator(s.deps.Vault, vaultCfg.Secrets.APIKeys, vaultCfg.APIKeyPollInterval, s.SetAPIKeys, s.Logger)
	s.rotator.Start(ctx)
}

// stopBackground stops key rotation and the limiter sweeper
func (s *Server) stopBackground() {
	if s.rotator != nil {
		s.rotator.Stop()
	}
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}
}

// printBanner writes the endpoint table and security settings to stdout
func (s *Server) printBanner(addr string) {
	out := os.Stdout
	fmt.Fprintf(out, "talentsearch %s listening on %s\n\nEndpoints:\n", s.Version, addr)
	for _, r := range s.routes() {
		note := ""
		if !r.public {
			note = " (API key)"
		}
		fmt.Fprintf(out, "  %-26s %s%s\n", r.pattern, r.summary, note)
	}
	fmt.Fprintln(out)

	if n := s.apiKeyCount(); n > 0 {
		fmt.Fprintf(out, "API keys:       %d configured\n", n)
	} else {
		fmt.Fprintln(out, "API keys:       none, endpoints are open to anyone who can reach them")
	}
	if s.MaxRequestSize > 0 {
		fmt.Fprintf(out, "Max body size:  %s\n", utils.FormatFileSize(s.MaxRequestSize))
	}
	if s.RateLimiter != nil {
		fmt.Fprintf(out, "Rate limit:     %d requests per %s, burst %d\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.Window, s.RateLimit.BurstCapacity)
	} else {
		fmt.Fprintln(out, "Rate limit:     off")
	}
}
