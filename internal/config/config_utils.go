package config

import (
	"log"
	"net/url"
	"os"
	"strings"
)

// envFallback fills a config value from an unprefixed environment variable
// when the value is still empty after loading
type envFallback struct {
	env   string
	apply func(c *Config, value string)
}

var envFallbacks = []envFallback{
	{"TALENTSEARCH_SERVER_APIKEYS", func(c *Config, v string) {
		if len(c.Server.APIKeys) == 0 {
			c.Server.APIKeys = splitList(v)
		}
	}},
	{"GEMINI_API_KEY", func(c *Config, v string) { c.AI.APIKey = firstNonEmpty(c.AI.APIKey, v) }},
	{"DATABASE_URL", func(c *Config, v string) { c.Database.URL = firstNonEmpty(c.Database.URL, v) }},
	{"REDIS_URL", func(c *Config, v string) { c.Redis.URL = firstNonEmpty(c.Redis.URL, v) }},
}

func (c *Config) applyFallbacks() {
	for _, fb := range envFallbacks {
		if value := strings.TrimSpace(os.Getenv(fb.env)); value != "" {
			fb.apply(c, value)
		}
	}
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = serviceInstanceID(c.Observability.ServiceName)
	}
}

func firstNonEmpty(current, fallback string) string {
	if current != "" {
		return current
	}
	return fallback
}

func serviceInstanceID(serviceName string) string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return serviceName + "-1"
	}
	return serviceName + "-" + hostname
}

// MaskURL replaces the password of a connection URL with xxxxx
func MaskURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "***MASKED***"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

// reportedEnv are echoed at startup when set. Values are masked by maskEnv.
var reportedEnv = []string{
	"TALENTSEARCH_AI_APIKEY",
	"TALENTSEARCH_AI_MODEL",
	"TALENTSEARCH_SERVER_PORT",
	"TALENTSEARCH_APP_LOGLEVEL",
	"TALENTSEARCH_DATABASE_URL",
	"TALENTSEARCH_REDIS_URL",
	"TALENTSEARCH_VAULT_ENABLED",
	"GEMINI_API_KEY",
	"DATABASE_URL",
	"REDIS_URL",
}

func maskEnv(name, value string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "key"):
		return "***MASKED***"
	case strings.HasSuffix(lower, "url"):
		return MaskURL(value)
	default:
		return value
	}
}

// logConfigurationSources prints where configuration came from. It runs
// before the structured logger exists, so it uses the standard logger.
func (c *Config) logConfigurationSources(configFileUsed string) {
	if configFileUsed == "" {
		configFileUsed = "none"
	}
	log.Printf("[CONFIG] config file: %s", configFileUsed)

	for _, name := range reportedEnv {
		if value := os.Getenv(name); value != "" {
			log.Printf("[CONFIG] env %s=%s", name, maskEnv(name, value))
		}
	}

	apiKey := "not set"
	if c.AI.APIKey != "" {
		apiKey = "set"
	}
	log.Printf("[CONFIG] ai: provider=%s model=%s api_key=%s", c.AI.Provider, c.AI.Model, apiKey)
	log.Printf("[CONFIG] server: %s:%s log_level=%s", c.Server.Host, c.Server.Port, c.App.LogLevel)
	log.Printf("[CONFIG] database=%s redis_cache=%t", MaskURL(c.Database.URL), c.Redis.Enabled)
	log.Printf("[CONFIG] search: generation_timeout=%s execution_timeout=%s",
		c.Search.GenerationTimeout, c.Search.ExecutionTimeout)
	log.Printf("[CONFIG] vault=%t observability=%t", c.Vault.Enabled, c.Observability.Enabled)
}
