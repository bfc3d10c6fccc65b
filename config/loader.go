package config

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/robfig/cron/v3"

	"github.com/GoCodeAlone/modactivator/feeders"
)

// Static errors for configuration package
var (
	ErrConfigNil               = errors.New("config is nil")
	ErrInvalidPolicy           = errors.New("invalid start failure policy")
	ErrInvalidLogLevel         = errors.New("invalid log level")
	ErrEmptyEventSource        = errors.New("event source is empty")
	ErrEmptyDiagnosticsAddr    = errors.New("diagnostics address is empty")
	ErrInvalidSnapshotSchedule = errors.New("invalid snapshot schedule")
)

// Loader feeds a Config from its sources in order (later sources win) and
// validates the result.
type Loader struct {
	feeders []feeders.Feeder
}

// NewLoader creates a loader over the given feeders.
func NewLoader(fs ...feeders.Feeder) *Loader {
	return &Loader{feeders: fs}
}

// AddFeeder appends a feeder; it takes precedence over earlier ones.
func (l *Loader) AddFeeder(f feeders.Feeder) *Loader {
	l.feeders = append(l.feeders, f)
	return l
}

// Load feeds cfg from every source and validates it.
func (l *Loader) Load(ctx context.Context, cfg *Config) error {
	if cfg == nil {
		return ErrConfigNil
	}
	for i, f := range l.feeders {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f.Feed(cfg); err != nil {
			return fmt.Errorf("config feeder %d (%T) failed: %w", i, f, err)
		}
	}
	return Validate(cfg)
}

// Validate checks that cfg holds usable values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return ErrConfigNil
	}
	var errs []error
	if !slices.Contains([]string{PolicySkipDependents, PolicyAttemptDependents}, cfg.StartFailurePolicy) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidPolicy, cfg.StartFailurePolicy))
	}
	if !slices.Contains([]string{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError}, cfg.LogLevel) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.LogLevel))
	}
	if cfg.EmitEvents && cfg.EventSource == "" {
		errs = append(errs, ErrEmptyEventSource)
	}
	if cfg.Diagnostics.Enabled {
		if cfg.Diagnostics.Addr == "" {
			errs = append(errs, ErrEmptyDiagnosticsAddr)
		}
		if cfg.Diagnostics.SnapshotSchedule != "" {
			if _, err := cron.ParseStandard(cfg.Diagnostics.SnapshotSchedule); err != nil {
				errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidSnapshotSchedule, err))
			}
		}
	}
	return errors.Join(errs...)
}
