package config

import (
	stdErrors "errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"talentsearch/internal/errors"
)

// Config is the full application configuration. Values resolve in this
// order, highest first: Vault secrets (applied after loading), the config
// file, TALENTSEARCH_* environment variables, unprefixed fallbacks such as
// DATABASE_URL, then built-in defaults.
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Search        SearchConfig        `mapstructure:"search"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// configSearchPaths are tried in order for config.yaml
var configSearchPaths = []string{"/etc/talentsearch/", "$HOME/.talentsearch", "."}

// LoadConfig reads defaults, environment and the first config.yaml found on
// configSearchPaths, then validates the result
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TALENTSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, path := range configSearchPaths {
		v.AddConfigPath(path)
	}

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		log.Printf("[CONFIG] Loaded config file %s", v.ConfigFileUsed())
	case stdErrors.As(err, &notFound):
		log.Printf("[CONFIG] No config file in %s, using defaults and environment", strings.Join(configSearchPaths, ", "))
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to read config file", err)
	}

	return finishLoading(v, v.ConfigFileUsed())
}

// finishLoading unmarshals v, fills fallbacks, loads prompt files and validates
func finishLoading(v *viper.Viper, configFileUsed string) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to decode configuration", err)
	}

	cfg.applyFallbacks()
	cfg.logConfigurationSources(configFileUsed)

	if err := cfg.validatePromptFiles(); err != nil {
		return nil, fmt.Errorf("prompt file validation failed: %w", err)
	}
	if err := cfg.loadPromptsFromFiles(); err != nil {
		return nil, fmt.Errorf("failed to load custom prompts from files: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem found, not just the first
func (c *Config) Validate() error {
	var problems []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Errorf(format, args...))
		}
	}

	check(c.AI.APIKey != "" || c.Vault.Enabled, "AI API key is required (set TALENTSEARCH_AI_APIKEY or GEMINI_API_KEY)")
	check(c.AI.Timeout > 0, "AI timeout must be positive")
	check(c.Server.Port != "", "server port is required")
	check(c.Database.URL != "" || c.Vault.Secrets.DatabaseURL != "",
		"database URL is required (set TALENTSEARCH_DATABASE_URL or DATABASE_URL)")
	check(!c.Redis.Enabled || c.Redis.URL != "" || c.Vault.Secrets.RedisURL != "",
		"redis URL is required when redis is enabled")
	check(slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat),
		"invalid default format %q, supported: %v", c.App.DefaultFormat, c.App.SupportedFormats)
	problems = append(problems, c.Search.problems()...)

	if len(problems) == 0 {
		return nil
	}
	return errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid configuration", stdErrors.Join(problems...))
}
