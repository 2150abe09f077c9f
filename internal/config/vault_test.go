package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentsearch/internal/errors"
)

func newMockLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

// fakeVault serves sys/health and KVv2 reads for the secrets it holds
func fakeVault(t *testing.T, token string, secrets map[string]map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1/sys/health" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"initialized": true, "sealed": false, "standby": false, "version": "1.17.0",
			})
			return
		}
		if r.Header.Get("X-Vault-Token") != token {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"errors":["permission denied"]}`))
			return
		}
		data, ok := secrets[strings.TrimPrefix(r.URL.Path, "/v1/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data":     data,
				"metadata": map[string]any{"version": 3},
			},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    int64
		wantErr bool
	}{
		{"json number", json.Number("7"), 7, false},
		{"int64", int64(4), 4, false},
		{"float64", float64(2), 2, false},
		{"string", "12", 12, false},
		{"bad string", "v1", 0, true},
		{"missing", nil, 0, true},
		{"wrong type", []string{"1"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVersionValue(tt.raw, "secret/data/x")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeKVv2(t *testing.T) {
	secret, err := decodeKVv2(map[string]any{
		"data":     map[string]any{"url": "postgres://db"},
		"metadata": map[string]any{"version": json.Number("2")},
	}, "secret/data/db")
	require.NoError(t, err)
	assert.Equal(t, int64(2), secret.Version)
	assert.Equal(t, "postgres://db", secret.Data["url"])

	_, err = decodeKVv2(map[string]any{"url": "postgres://db"}, "secret/db")
	assert.ErrorContains(t, err, "missing 'data' field")

	_, err = decodeKVv2(map[string]any{"data": map[string]any{}}, "secret/db")
	assert.ErrorContains(t, err, "missing 'metadata' field")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
	assert.Empty(t, splitList(""))
}

func TestApplyConnectionURL(t *testing.T) {
	target := "postgres://old"
	assert.False(t, applyConnectionURL(&target, "   "))
	assert.Equal(t, "postgres://old", target)

	assert.True(t, applyConnectionURL(&target, " postgres://new "))
	assert.Equal(t, "postgres://new", target)
}

func TestApplyGeminiKeyKeepsParseOverride(t *testing.T) {
	cfg := &Config{AI: AIConfig{Parse: OperationAIConfig{APIKey: "parse-key"}}}
	assert.True(t, applyGeminiKey(cfg, "global-key"))
	assert.Equal(t, "global-key", cfg.AI.APIKey)
	assert.Equal(t, "parse-key", cfg.AI.Parse.APIKey)

	cfg = &Config{}
	assert.True(t, applyGeminiKey(cfg, "global-key"))
	assert.Equal(t, "global-key", cfg.AI.Parse.APIKey)
	assert.False(t, applyGeminiKey(cfg, ""))
}

func TestMaskURL(t *testing.T) {
	assert.Equal(t, "postgres://app:xxxxx@db:5432/talent", MaskURL("postgres://app:secret@db:5432/talent"))
	assert.Equal(t, "redis://localhost:6379/0", MaskURL("redis://localhost:6379/0"))
	assert.Equal(t, "", MaskURL(""))
}

func TestResolveVaultToken(t *testing.T) {
	token, err := resolveVaultToken(VaultConfig{Token: "inline"})
	require.NoError(t, err)
	assert.Equal(t, "inline", token)

	file := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(file, []byte(" from-file\n"), 0600))
	token, err = resolveVaultToken(VaultConfig{TokenFile: file})
	require.NoError(t, err)
	assert.Equal(t, "from-file", token)

	_, err = resolveVaultToken(VaultConfig{TokenFile: filepath.Join(t.TempDir(), "missing")})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = resolveVaultToken(VaultConfig{})
	assert.ErrorContains(t, err, "vault token is required")
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{URL: "postgres://local"}}
	require.NoError(t, ApplyVaultSecrets(cfg, newMockLogger()))
	assert.Equal(t, "postgres://local", cfg.Database.URL)
}

func TestApplyVaultSecrets(t *testing.T) {
	server := fakeVault(t, "root", map[string]map[string]any{
		"secret/data/talentsearch/api":    {"keys": "k1, k2"},
		"secret/data/talentsearch/gemini": {"api_key": "gemini-from-vault"},
		"secret/data/talentsearch/db":     {"url": "postgres://app:pw@db/talent"},
	})

	cfg := &Config{
		Database: DatabaseConfig{URL: "postgres://local"},
		Redis:    RedisConfig{URL: "redis://local"},
		Vault: VaultConfig{
			Enabled: true,
			Address: server.URL,
			Token:   "root",
			Secrets: VaultSecrets{
				APIKeys:     "secret/data/talentsearch/api",
				GeminiKey:   "secret/data/talentsearch/gemini",
				DatabaseURL: "secret/data/talentsearch/db",
			},
		},
	}

	require.NoError(t, ApplyVaultSecrets(cfg, newMockLogger()))
	assert.Equal(t, []string{"k1", "k2"}, cfg.Server.APIKeys)
	assert.Equal(t, "gemini-from-vault", cfg.AI.APIKey)
	assert.Equal(t, "postgres://app:pw@db/talent", cfg.Database.URL)
	assert.Equal(t, "redis://local", cfg.Redis.URL, "unset paths leave values alone")
}

func TestApplyVaultSecretsMissingSecret(t *testing.T) {
	server := fakeVault(t, "root", nil)
	cfg := &Config{Vault: VaultConfig{
		Enabled: true,
		Address: server.URL,
		Token:   "root",
		Secrets: VaultSecrets{RedisURL: "secret/data/talentsearch/redis"},
	}}

	err := ApplyVaultSecrets(cfg, newMockLogger())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Contains(t, err.Error(), "redis url")
}

func TestVaultClientReadsVersionedSecret(t *testing.T) {
	server := fakeVault(t, "root", map[string]map[string]any{
		"secret/data/talentsearch/api": {"keys": "a,b", "count": 2},
	})

	client, err := NewVaultClient(VaultConfig{Enabled: true, Address: server.URL, Token: "root"}, newMockLogger())
	require.NoError(t, err)

	secret, err := client.GetSecretV2("secret/data/talentsearch/api")
	require.NoError(t, err)
	assert.Equal(t, int64(3), secret.Version)

	keys, err := client.GetStringSliceSecret("secret/data/talentsearch/api", "keys")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	_, err = client.GetStringSecret("secret/data/talentsearch/api", "count")
	assert.ErrorContains(t, err, "is not a string")

	_, err = client.GetStringSecret("secret/data/talentsearch/api", "missing")
	assert.ErrorContains(t, err, "not found")
}

func TestNewVaultClientDisabled(t *testing.T) {
	client, err := NewVaultClient(VaultConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, client)
}
