package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentsearch/internal/config"
)

type fakeSecrets struct {
	mu     sync.Mutex
	secret *config.VaultSecret
	err    error
}

func (f *fakeSecrets) GetSecretV2(string) (*config.VaultSecret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.secret == nil {
		return nil, f.err
	}
	copied := *f.secret
	return &copied, f.err
}

func (f *fakeSecrets) set(version int64, keys any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secret = &config.VaultSecret{Version: version, Data: map[string]any{"keys": keys}}
}

func TestKeyRotatorAppliesNewVersions(t *testing.T) {
	source := &fakeSecrets{}
	source.set(1, "startup-key")

	var applied [][]string
	r := NewKeyRotator(source, "secret/data/api", time.Hour, func(keys []string) { applied = append(applied, keys) }, nil)
	r.Start(context.Background())
	defer r.Stop()

	require.NoError(t, r.Check())
	assert.Empty(t, applied, "the version seen at start is not applied again")

	source.set(2, "new-key, second-key")
	require.NoError(t, r.Check())
	require.Len(t, applied, 1)
	assert.Equal(t, []string{"new-key", "second-key"}, applied[0])

	status := r.Status()
	assert.Equal(t, int64(2), status["version"])
	assert.Equal(t, 1, status["rotations"])
}

func TestKeyRotatorRefusesEmptyKeySet(t *testing.T) {
	source := &fakeSecrets{}
	source.set(3, " , ")

	called := false
	r := NewKeyRotator(source, "secret/data/api", time.Hour, func([]string) { called = true }, nil)

	err := r.Check()
	require.Error(t, err)
	assert.False(t, called)
	assert.Contains(t, r.Status()["last_error"], "holds no API keys")
}

func TestKeyRotatorReadFailure(t *testing.T) {
	r := NewKeyRotator(&fakeSecrets{err: errors.New("sealed")}, "p", time.Hour, func([]string) {}, nil)
	assert.EqualError(t, r.Check(), "sealed")

	r = NewKeyRotator(&fakeSecrets{}, "missing", time.Hour, func([]string) {}, nil)
	assert.ErrorContains(t, r.Check(), "not found")
}

func TestKeyRotatorStopsWithContext(t *testing.T) {
	source := &fakeSecrets{}
	source.set(1, "k")

	ctx, cancel := context.WithCancel(context.Background())
	r := NewKeyRotator(source, "p", time.Millisecond, func([]string) {}, nil)
	r.Start(ctx)
	cancel()

	select {
	case <-r.done:
	case <-time.After(time.Second):
		t.Fatal("rotation loop did not exit after cancel")
	}
	r.Stop()
}

func TestKeysFromSecret(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, keysFromSecret("a,,b "))
	assert.Equal(t, []string{"a"}, keysFromSecret([]any{"a", 3, ""}))
	assert.Equal(t, []string{"x"}, keysFromSecret([]string{"x"}))
	assert.Nil(t, keysFromSecret(42))
}
