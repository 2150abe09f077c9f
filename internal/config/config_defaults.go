package config

import (
	"time"

	"github.com/spf13/viper"
)

// defaults maps each config section to its default values
var defaults = map[string]map[string]any{
	"ai": {
		"provider":         "gemini",
		"model":            "gemini-2.0-flash",
		"timeout":          30 * time.Second,
		"apiKey":           "",
		"maxRetries":       2,
		"temperature":      0.1,
		"useSystemPrompts": true,

		"parse.provider":         "gemini",
		"parse.model":            "",
		"parse.timeout":          30 * time.Second,
		"parse.apiKey":           "",
		"parse.maxRetries":       2,
		"parse.temperature":      0.0,
		"parse.useSystemPrompts": true,

		"parse.circuitBreaker.enabled":          true,
		"parse.circuitBreaker.maxRequests":      3,
		"parse.circuitBreaker.interval":         time.Minute,
		"parse.circuitBreaker.timeout":          time.Minute,
		"parse.circuitBreaker.minRequests":      3,
		"parse.circuitBreaker.failureThreshold": 0.6,

		"promptReload.enabled":       false,
		"promptReload.debounceDelay": time.Second,
	},
	"server": {
		"host":         "localhost",
		"port":         "8080",
		"readTimeout":  30 * time.Second,
		"writeTimeout": 60 * time.Second, // generation plus execution
		"idleTimeout":  2 * time.Minute,
		"apiKeys":      []string{},

		"rateLimit.enabled":        false,
		"rateLimit.requestsPerMin": 60,
		"rateLimit.burstCapacity":  10,
		"rateLimit.byIP":           true,
		"rateLimit.byAPIKey":       false,
		"rateLimit.window":         time.Minute,
	},
	"app": {
		"logLevel":         "info",
		"defaultFormat":    "json",
		"supportedFormats": []string{"json", "text", "markdown"},
		"maxFileSize":      64 * 1024,
	},
	"database": {
		"url":             "",
		"maxConns":        10,
		"minConns":        2,
		"maxConnLifetime": time.Hour,
		"maxConnIdleTime": 30 * time.Minute,
		"connectTimeout":  5 * time.Second,
	},
	"redis": {
		"enabled":   false,
		"url":       "",
		"keyPrefix": "talentsearch",
		"pageTTL":   time.Duration(0),
	},
	"search": {
		"pageSize":          fixedPageSize,
		"generationTimeout": 30 * time.Second,
		"executionTimeout":  10 * time.Second,
		"maxPageIndex":      50,
		"maxDepth":          maxFilterDepth,
		"maxAtoms":          maxFilterAtoms,
		"maxLiteralLength":  100,
		"maxInputLength":    2000,
	},
	"vault": {
		"enabled":             false,
		"address":             "",
		"token":               "",
		"tokenFile":           "",
		"namespace":           "",
		"apiKeyPollInterval":  time.Duration(0),
		"secrets.apiKeys":     "",
		"secrets.geminiKey":   "",
		"secrets.databaseURL": "",
		"secrets.redisURL":    "",
	},
	"observability": {
		"enabled":         true,
		"serviceName":     "talentsearch",
		"serviceVersion":  "", // the build version when empty
		"serviceInstance": "", // derived from the hostname when empty
		"consoleOutput":   false,
		"sampleRate":      1.0,

		"tracing.enabled":            true,
		"tracing.sampleRate":         1.0,
		"metrics.enabled":            true,
		"metrics.collectionInterval": 15 * time.Second,

		"customMetrics.aiOperations.enabled":              true,
		"customMetrics.aiOperations.trackDuration":        true,
		"customMetrics.aiOperations.trackTokenUsage":      true,
		"customMetrics.businessMetrics.enabled":           true,
		"customMetrics.businessMetrics.trackSuccessRates": true,
		"customMetrics.businessMetrics.trackPageSources":  true,
		"customMetrics.infrastructure.enabled":            true,
		"customMetrics.infrastructure.trackRateLimits":    true,
		"customMetrics.infrastructure.trackQueryTimes":    true,

		"console.enabled":     false,
		"console.prettyPrint": true,

		"prometheus.enabled":  true,
		"prometheus.endpoint": "/metrics",
		"prometheus.port":     "9090",

		"otlp.enabled":  false,
		"otlp.endpoint": "http://localhost:4318",
		"otlp.insecure": true,
		"otlp.headers":  map[string]string{},

		"healthCheck.timeout": 15 * time.Second,
	},
}

// setDefaults registers every entry of defaults on v
func setDefaults(v *viper.Viper) {
	for section, values := range defaults {
		for key, value := range values {
			v.SetDefault(section+"."+key, value)
		}
	}
}
