package config

import (
	"cmp"
	"time"
)

// AIConfig holds the global completion settings. Operation blocks such as
// Parse override them field by field.
type AIConfig struct {
	Provider         string        `mapstructure:"provider"`
	Model            string        `mapstructure:"model"`
	Timeout          time.Duration `mapstructure:"timeout"`
	APIKey           string        `mapstructure:"apiKey"`
	MaxRetries       int           `mapstructure:"maxRetries"`
	Temperature      float32       `mapstructure:"temperature"`
	UseSystemPrompts bool          `mapstructure:"useSystemPrompts"`
	CustomPrompts    PromptConfig  `mapstructure:"customPrompts"`

	Parse        OperationAIConfig  `mapstructure:"parse"`
	PromptReload PromptReloadConfig `mapstructure:"promptReload"`
}

// OperationAIConfig is the per-operation override. Nil pointers and empty
// strings inherit from AIConfig.
type OperationAIConfig struct {
	Provider         string               `mapstructure:"provider"`
	Model            string               `mapstructure:"model"`
	Timeout          *time.Duration       `mapstructure:"timeout"`
	APIKey           string               `mapstructure:"apiKey"`
	MaxRetries       *int                 `mapstructure:"maxRetries"`
	Temperature      *float32             `mapstructure:"temperature"`
	UseSystemPrompts *bool                `mapstructure:"useSystemPrompts"`
	CustomPrompts    PromptConfig         `mapstructure:"customPrompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`

	// MaxFilterDepth bounds the nesting of generated filters. It is copied
	// from search.maxDepth and is not read from the ai section.
	MaxFilterDepth int `mapstructure:"-"`
}

// CircuitBreakerConfig guards completion calls. The breaker opens when at
// least MinRequests calls in Interval failed at FailureThreshold or more,
// and lets MaxRequests probes through after Timeout.
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MinRequests      uint32        `mapstructure:"minRequests"`
	FailureThreshold float64       `mapstructure:"failureThreshold"`
}

// PromptConfig holds inline prompts and prompt file paths
type PromptConfig struct {
	SystemPrompts SystemPrompts `mapstructure:"systemPrompts"`
	UserPrompts   UserPrompts   `mapstructure:"userPrompts"`
}

type SystemPrompts struct {
	ParseQuery     string `mapstructure:"parseQuery"`
	ParseQueryFile string `mapstructure:"parseQueryFile"`
}

// UserPrompts are templates with exactly one %s for the raw query
type UserPrompts struct {
	ParseQuery     string `mapstructure:"parseQuery"`
	ParseQueryFile string `mapstructure:"parseQueryFile"`
}

// PromptReloadConfig controls watching prompt files for changes
type PromptReloadConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`
}

// GetParseConfig returns the parse operation settings with every unset
// field inherited from the global AI block
func (c *Config) GetParseConfig() OperationAIConfig {
	op := c.AI.Parse
	global := c.AI

	op.Provider = cmp.Or(op.Provider, global.Provider)
	op.Model = cmp.Or(op.Model, global.Model)
	op.APIKey = cmp.Or(op.APIKey, global.APIKey)
	op.Timeout = orDefault(op.Timeout, global.Timeout)
	op.MaxRetries = orDefault(op.MaxRetries, global.MaxRetries)
	op.Temperature = orDefault(op.Temperature, global.Temperature)
	op.UseSystemPrompts = orDefault(op.UseSystemPrompts, global.UseSystemPrompts)
	op.MaxFilterDepth = c.Search.MaxDepth

	prompts := &op.CustomPrompts
	prompts.SystemPrompts.ParseQuery = cmp.Or(prompts.SystemPrompts.ParseQuery, global.CustomPrompts.SystemPrompts.ParseQuery)
	prompts.SystemPrompts.ParseQueryFile = cmp.Or(prompts.SystemPrompts.ParseQueryFile, global.CustomPrompts.SystemPrompts.ParseQueryFile)
	prompts.UserPrompts.ParseQuery = cmp.Or(prompts.UserPrompts.ParseQuery, global.CustomPrompts.UserPrompts.ParseQuery)
	prompts.UserPrompts.ParseQueryFile = cmp.Or(prompts.UserPrompts.ParseQueryFile, global.CustomPrompts.UserPrompts.ParseQueryFile)
	return op
}

// orDefault returns p, or a pointer to a copy of fallback when p is nil
func orDefault[T any](p *T, fallback T) *T {
	if p != nil {
		return p
	}
	return &fallback
}
