package config

import (
	"fmt"
	"time"
)

// DatabaseConfig configures the pgx pool backing all three stores
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"maxConns"`
	MinConns        int32         `mapstructure:"minConns"`
	MaxConnLifetime time.Duration `mapstructure:"maxConnLifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"maxConnIdleTime"`
	ConnectTimeout  time.Duration `mapstructure:"connectTimeout"`
}

// RedisConfig enables the Redis page cache in front of Postgres
type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	URL       string        `mapstructure:"url"`
	KeyPrefix string        `mapstructure:"keyPrefix"`
	PageTTL   time.Duration `mapstructure:"pageTTL"` // 0 keeps pages until evicted
}

// Hard limits a SearchConfig may tighten but never exceed
const (
	fixedPageSize  = 10
	maxFilterDepth = 6
	maxFilterAtoms = 40
)

// SearchConfig holds pipeline deadlines and filter limits
type SearchConfig struct {
	PageSize          int           `mapstructure:"pageSize"`
	GenerationTimeout time.Duration `mapstructure:"generationTimeout"`
	ExecutionTimeout  time.Duration `mapstructure:"executionTimeout"`
	MaxPageIndex      int           `mapstructure:"maxPageIndex"` // 0 disables the cap
	MaxDepth          int           `mapstructure:"maxDepth"`
	MaxAtoms          int           `mapstructure:"maxAtoms"`
	MaxLiteralLength  int           `mapstructure:"maxLiteralLength"`
	MaxInputLength    int           `mapstructure:"maxInputLength"`
}

func (s SearchConfig) problems() []error {
	var out []error
	add := func(format string, args ...any) { out = append(out, fmt.Errorf(format, args...)) }

	if s.PageSize != fixedPageSize {
		add("page size is fixed at %d, got %d", fixedPageSize, s.PageSize)
	}
	if s.GenerationTimeout <= 0 {
		add("generation timeout must be positive")
	}
	if s.ExecutionTimeout <= 0 {
		add("execution timeout must be positive")
	}
	if s.MaxPageIndex < 0 {
		add("max page index must not be negative")
	}
	if s.MaxDepth < 1 || s.MaxDepth > maxFilterDepth {
		add("max filter depth must be between 1 and %d, got %d", maxFilterDepth, s.MaxDepth)
	}
	if s.MaxAtoms < 1 || s.MaxAtoms > maxFilterAtoms {
		add("max filter atoms must be between 1 and %d, got %d", maxFilterAtoms, s.MaxAtoms)
	}
	if s.MaxLiteralLength < 1 {
		add("max literal length must be positive")
	}
	if s.MaxInputLength < 1 {
		add("max input length must be positive")
	}
	return out
}
