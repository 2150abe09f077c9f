package server

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"talentsearch/internal/config"
	"talentsearch/internal/errors"
)

// SecretSource reads versioned KV v2 secrets
type SecretSource interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
}

// KeyRotator polls the Vault secret holding the server API keys and applies
// the "keys" value whenever the secret version goes up
type KeyRotator struct {
	source   SecretSource
	path     string
	interval time.Duration
	apply    func(keys []string)
	logger   *errors.Logger

	mu        sync.Mutex
	version   int64
	lastCheck time.Time
	lastErr   error
	rotations int
	stop      context.CancelFunc
	done      chan struct{}
}

func NewKeyRotator(source SecretSource, path string, interval time.Duration, apply func([]string), logger *errors.Logger) *KeyRotator {
	return &KeyRotator{source: source, path: path, interval: interval, apply: apply, logger: logger}
}

// Start remembers the current version, so keys loaded at startup are not
// applied twice, and polls until ctx is done or Stop is called
func (r *KeyRotator) Start(ctx context.Context) {
	if secret, err := r.source.GetSecretV2(r.path); err == nil && secret != nil {
		r.version = secret.Version
	}

	ctx, r.stop = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.Check(); err != nil && r.logger != nil {
					r.logger.LogError(err, "API key rotation check failed", "path", r.path)
				}
			}
		}
	}()

	if r.logger != nil {
		r.logger.Info("API key rotation started", "path", r.path, "interval", r.interval, "version", r.version)
	}
}

// Stop ends polling and waits for the loop to exit
func (r *KeyRotator) Stop() {
	if r.stop == nil {
		return
	}
	r.stop()
	<-r.done
}

// Check reads the secret once and applies its keys if the version is new.
// An empty key set is refused so a bad write cannot lock every client out.
func (r *KeyRotator) Check() error {
	secret, err := r.source.GetSecretV2(r.path)
	if err == nil && secret == nil {
		err = fmt.Errorf("secret %s not found", r.path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastCheck = time.Now()
	r.lastErr = err
	if err != nil || secret.Version <= r.version {
		return err
	}

	keys := keysFromSecret(secret.Data["keys"])
	if len(keys) == 0 {
		r.lastErr = fmt.Errorf("secret %s version %d holds no API keys", r.path, secret.Version)
		return r.lastErr
	}

	r.version = secret.Version
	r.rotations++
	r.apply(keys)
	if r.logger != nil {
		r.logger.Info("API keys rotated from Vault", "count", len(keys), "version", secret.Version)
	}
	return nil
}

// keysFromSecret accepts a comma separated string or a JSON list
func keysFromSecret(raw any) []string {
	var keys []string
	add := func(k string) {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}

	switch v := raw.(type) {
	case string:
		for k := range strings.SplitSeq(v, ",") {
			add(k)
		}
	case []string:
		for _, k := range v {
			add(k)
		}
	case []any:
		for _, k := range v {
			if s, ok := k.(string); ok {
				add(s)
			}
		}
	}
	return keys
}

// Status reports rotation state for /health
func (r *KeyRotator) Status() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := map[string]any{
		"path":      r.path,
		"interval":  r.interval.String(),
		"version":   r.version,
		"rotations": r.rotations,
	}
	if !r.lastCheck.IsZero() {
		status["last_check"] = r.lastCheck
	}
	if r.lastErr != nil {
		status["last_error"] = r.lastErr.Error()
	}
	return status
}
