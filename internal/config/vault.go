package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"

	"talentsearch/internal/errors"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	// APIKeyPollInterval enables API key rotation: the server polls the
	// apiKeys secret at this interval. Zero disables polling.
	APIKeyPollInterval time.Duration `mapstructure:"apiKeyPollInterval"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets holds KVv2 read paths. Empty paths are skipped.
type VaultSecrets struct {
	APIKeys     string `mapstructure:"apiKeys"`     // key "keys", comma separated
	GeminiKey   string `mapstructure:"geminiKey"`   // key "api_key"
	DatabaseURL string `mapstructure:"databaseURL"` // key "url"
	RedisURL    string `mapstructure:"redisURL"`    // key "url"
}

// VaultClient reads KVv2 secrets
type VaultClient struct {
	client *api.Client
	logger *errors.Logger
}

// VaultSecret represents a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// NewVaultClient connects to Vault and checks its health. It returns nil
// without error when Vault is disabled.
func NewVaultClient(cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	apiConfig := api.DefaultConfig()
	if cfg.Address != "" {
		apiConfig.Address = cfg.Address
	}
	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to create vault client", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := resolveVaultToken(cfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, errors.NewNetworkError("VAULT_UNREACHABLE",
			fmt.Sprintf("failed to connect to vault at %s", apiConfig.Address), err)
	}
	if logger != nil {
		logger.Info("Connected to Vault",
			"address", apiConfig.Address,
			"version", health.Version,
			"sealed", health.Sealed)
	}

	return &VaultClient{client: client, logger: logger}, nil
}

// resolveVaultToken prefers the inline token and falls back to the token file
func resolveVaultToken(cfg VaultConfig) (string, error) {
	token := cfg.Token
	if token == "" && cfg.TokenFile != "" {
		raw, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return "", errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to read vault token file", err).
				WithContext("file", cfg.TokenFile)
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return "", errors.NewConfigError(errors.ErrCodeInvalidConfig, "vault token is required when vault is enabled", nil)
	}
	return token, nil
}

// GetSecretV2 reads a KVv2 secret and its version
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	raw, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if raw == nil || raw.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	return decodeKVv2(raw.Data, path)
}

// decodeKVv2 splits a KVv2 response body into data and version
func decodeKVv2(body map[string]any, path string) (*VaultSecret, error) {
	data, ok := body["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	metadata, ok := body["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	version, err := parseVersionValue(metadata["version"], path)
	if err != nil {
		return nil, err
	}
	return &VaultSecret{Data: data, Version: version}, nil
}

// parseVersionValue accepts the number encodings the Vault client produces
func parseVersionValue(raw any, path string) (int64, error) {
	switch v := raw.(type) {
	case json.Number:
		return v.Int64()
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	case nil:
		return 0, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, raw)
	}
}

// GetStringSecret reads one string value from a secret
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	return str, nil
}

// GetStringSliceSecret reads a comma separated value as a slice. Blank
// entries are dropped.
func (vc *VaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	value, err := vc.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	return splitList(value), nil
}

func splitList(value string) []string {
	result := []string{}
	for part := range strings.SplitSeq(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// vaultBinding maps one Vault secret onto a config field
type vaultBinding struct {
	name  string
	path  string
	key   string
	apply func(cfg *Config, value string) bool
}

func vaultBindings(cfg *Config) []vaultBinding {
	return []vaultBinding{
		{"api keys", cfg.Vault.Secrets.APIKeys, "keys", applyAPIKeys},
		{"gemini key", cfg.Vault.Secrets.GeminiKey, "api_key", applyGeminiKey},
		{"database url", cfg.Vault.Secrets.DatabaseURL, "url", func(c *Config, v string) bool {
			return applyConnectionURL(&c.Database.URL, v)
		}},
		{"redis url", cfg.Vault.Secrets.RedisURL, "url", func(c *Config, v string) bool {
			return applyConnectionURL(&c.Redis.URL, v)
		}},
	}
}

// ApplyVaultSecrets overrides config values with the secrets configured in
// cfg.Vault.Secrets. It is a no-op when Vault is disabled.
func ApplyVaultSecrets(cfg *Config, logger *errors.Logger) error {
	if !cfg.Vault.Enabled {
		return nil
	}

	client, err := NewVaultClient(cfg.Vault, logger)
	if err != nil {
		return err
	}
	return applySecrets(client, cfg, logger)
}

// secretReader is the part of VaultClient used to apply secrets
type secretReader interface {
	GetStringSecret(path, key string) (string, error)
}

func applySecrets(client secretReader, cfg *Config, logger *errors.Logger) error {
	for _, b := range vaultBindings(cfg) {
		if b.path == "" {
			continue
		}
		value, err := client.GetStringSecret(b.path, b.key)
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("failed to load %s from vault", b.name), err).WithContext("path", b.path)
		}
		if !b.apply(cfg, value) {
			if logger != nil {
				logger.Warn("Empty secret in Vault, keeping configured value", "name", b.name, "path", b.path)
			}
			continue
		}
		if logger != nil {
			logger.Info("Secret loaded from Vault", "name", b.name, "path", b.path)
		}
	}
	return nil
}

func applyAPIKeys(cfg *Config, value string) bool {
	keys := splitList(value)
	if len(keys) == 0 {
		return false
	}
	cfg.Server.APIKeys = keys
	return true
}

// applyGeminiKey sets the global key and fills the parse override when it
// has none of its own
func applyGeminiKey(cfg *Config, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	cfg.AI.APIKey = value
	if cfg.AI.Parse.APIKey == "" {
		cfg.AI.Parse.APIKey = value
	}
	return true
}

// applyConnectionURL overwrites target when value is set and reports whether it did
func applyConnectionURL(target *string, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	*target = value
	return true
}
