package cli

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vbudget/internal/config"
	"vbudget/internal/log"
)

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://api.local:8080")
	t.Setenv("PORT", "9090")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "vbudget.db"))
	cfg, err := LoadAndValidateConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)

	cfg, err = LoadAndValidateConfig(func(c *config.Config) { c.RulesBackend = "sqlite" })
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.RulesBackend)

	t.Setenv("PORT", "not-a-port")
	_, err = LoadAndValidateConfig()
	assert.Error(t, err)
}

func TestWaitForShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := WaitForShutdown(ctx, log.Discard(), time.Second, func(ctx context.Context) error {
		called = true
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	boom := errors.New("boom")
	err = WaitForShutdown(ctx, log.Discard(), time.Second, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestGracefulShutdownCancel(t *testing.T) {
	ctx, cancel := GracefulShutdown(context.Background(), log.Discard())
	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled")
	}
}
