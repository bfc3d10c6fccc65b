package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/modactivator/feeders"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestLoader(t *testing.T) {
	ctx := context.Background()

	t.Run("later_feeders_win", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "modactivator.yaml")
		require.NoError(t, os.WriteFile(path, []byte(
			"start_failure_policy: attempt-dependents\nlog_level: debug\ndiagnostics:\n  addr: \":9000\"\n"), 0o600))
		t.Setenv("MODACTIVATOR_LOG_LEVEL", "warn")

		cfg := Default()
		err := NewLoader(feeders.NewYamlFeeder(path)).
			AddFeeder(feeders.NewEnvFeeder("MODACTIVATOR")).
			Load(ctx, cfg)
		require.NoError(t, err)

		assert.Equal(t, PolicyAttemptDependents, cfg.StartFailurePolicy)
		assert.Equal(t, LogLevelWarn, cfg.LogLevel)
		assert.Equal(t, ":9000", cfg.Diagnostics.Addr)
		assert.Equal(t, "@every 30s", cfg.Diagnostics.SnapshotSchedule, "unset values keep defaults")
	})

	t.Run("feeder_error_is_wrapped", func(t *testing.T) {
		cfg := Default()
		err := NewLoader(feeders.NewTomlFeeder(filepath.Join(t.TempDir(), "missing.toml"))).Load(ctx, cfg)
		assert.ErrorIs(t, err, feeders.ErrFileNotFound)
	})

	t.Run("nil_config", func(t *testing.T) {
		assert.ErrorIs(t, NewLoader().Load(ctx, nil), ErrConfigNil)
	})

	t.Run("cancelled_context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := NewLoader(feeders.NewEnvFeeder("X")).Load(cancelled, Default())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.StartFailurePolicy = "retry-forever"
	cfg.LogLevel = "loud"
	cfg.EventSource = ""
	cfg.Diagnostics.Addr = ""
	cfg.Diagnostics.SnapshotSchedule = "every now and then"

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPolicy)
	assert.ErrorIs(t, err, ErrInvalidLogLevel)
	assert.ErrorIs(t, err, ErrEmptyEventSource)
	assert.ErrorIs(t, err, ErrEmptyDiagnosticsAddr)
	assert.ErrorIs(t, err, ErrInvalidSnapshotSchedule)

	cfg = Default()
	cfg.Diagnostics.Enabled = false
	cfg.Diagnostics.Addr = ""
	assert.NoError(t, Validate(cfg), "diagnostics settings are ignored when disabled")
}
