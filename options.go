package modactivator

import (
	"errors"
	"fmt"
	"time"

	"github.com/GoCodeAlone/modactivator/config"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// Option errors
var (
	ErrLoggerNil             = errors.New("logger is nil")
	ErrClockNil              = errors.New("clock is nil")
	ErrObserverNil           = errors.New("observer is nil")
	ErrConfigNil             = errors.New("config is nil")
	ErrInvalidFailurePolicy  = errors.New("invalid start failure policy")
	ErrObserverAlreadyExists = errors.New("observer already registered")
)

// StartFailurePolicy decides what StartAll does with a module whose
// prerequisite did not reach Started.
type StartFailurePolicy string

const (
	// SkipDependents leaves the module Stopped and records it as skipped.
	SkipDependents StartFailurePolicy = config.PolicySkipDependents
	// AttemptDependents starts the module anyway.
	AttemptDependents StartFailurePolicy = config.PolicyAttemptDependents
)

func (p StartFailurePolicy) valid() bool {
	return p == SkipDependents || p == AttemptDependents
}

// WithLogger sets the logger. *slog.Logger satisfies Logger.
func WithLogger(logger Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			return ErrLoggerNil
		}
		o.logger = logger
		return nil
	}
}

// WithStartFailurePolicy sets the start failure policy. The default is
// SkipDependents.
func WithStartFailurePolicy(p StartFailurePolicy) Option {
	return func(o *Orchestrator) error {
		if !p.valid() {
			return fmt.Errorf("%w: %q", ErrInvalidFailurePolicy, p)
		}
		o.policy = p
		return nil
	}
}

// WithObserver registers an observer for the given event types, or for all
// events when none are given.
func WithObserver(observer Observer, eventTypes ...string) Option {
	return func(o *Orchestrator) error {
		return o.RegisterObserver(observer, eventTypes...)
	}
}

// WithObservers registers observers for all events.
func WithObservers(observers ...Observer) Option {
	return func(o *Orchestrator) error {
		for _, observer := range observers {
			if err := o.RegisterObserver(observer); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithClock replaces time.Now for call records, results and events.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) error {
		if now == nil {
			return ErrClockNil
		}
		o.now = now
		return nil
	}
}

// WithEventSource sets the CloudEvents source attribute.
func WithEventSource(source string) Option {
	return func(o *Orchestrator) error {
		o.source = source
		return nil
	}
}

// WithEvents turns event emission on or off. It is on by default.
func WithEvents(enabled bool) Option {
	return func(o *Orchestrator) error {
		o.emitEvents = enabled
		return nil
	}
}

// WithConfig applies a loaded configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *Orchestrator) error {
		if cfg == nil {
			return ErrConfigNil
		}
		if cfg.StartFailurePolicy != "" {
			if err := WithStartFailurePolicy(StartFailurePolicy(cfg.StartFailurePolicy))(o); err != nil {
				return err
			}
		}
		if cfg.EventSource != "" {
			o.source = cfg.EventSource
		}
		o.emitEvents = cfg.EmitEvents
		return nil
	}
}
