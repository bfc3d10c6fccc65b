// Package modactivator orchestrates the lifecycle of pluggable modules.
//
// Modules declare the ids of the modules they depend on and supply an
// Activator with four hooks. The Orchestrator starts modules in dependency
// order, stops them in the exact reverse order, cascades a stop to every
// module that (transitively) depends on the stopped one, and never fires a
// hook twice for the same transition.
//
// Basic usage:
//
//	orch := modactivator.New(modactivator.WithLogger(logger))
//	orch.Register(modactivator.ModuleDescriptor{ID: "db"}, dbActivator)
//	orch.Register(modactivator.ModuleDescriptor{ID: "api", Dependencies: []string{"db"}}, apiActivator)
//	result, err := orch.StartAll(ctx)
//	...
//	orch.Shutdown(ctx)
package modactivator

import (
	"context"
	"slices"
)

// ModuleDescriptor identifies a module and the modules it requires to be
// present and started before it. Descriptors are copied on registration and
// never change afterwards.
type ModuleDescriptor struct {
	// ID is the unique module identifier.
	ID string `json:"id" yaml:"id" toml:"id"`

	// Dependencies are the ids this module depends on, in declared order.
	Dependencies []string `json:"dependencies,omitempty" yaml:"depends_on,omitempty" toml:"depends_on,omitempty"`
}

func (d ModuleDescriptor) clone() ModuleDescriptor {
	return ModuleDescriptor{ID: d.ID, Dependencies: slices.Clone(d.Dependencies)}
}

// Activator is implemented by a module to take part in its own lifecycle.
// The orchestrator calls the hooks synchronously and one module at a time.
//
// Hooks must not call back into the orchestrator's lifecycle operations
// (StartAll, StopModule, UnloadModule, Shutdown); query methods are fine.
type Activator interface {
	// WillStart is called before the module is started.
	WillStart(ctx context.Context) error

	// Started is called once the module is started, after WillStart.
	Started(ctx context.Context) error

	// WillStop is called before the module is stopped.
	WillStop(ctx context.Context) error

	// Stopped is called after WillStop, once the module is stopped. No other
	// module's hooks run between a module's WillStop and Stopped.
	Stopped(ctx context.Context) error
}

// BaseActivator implements every hook as a no-op. Embed it to implement only
// the hooks a module cares about.
type BaseActivator struct{}

func (BaseActivator) WillStart(context.Context) error { return nil }
func (BaseActivator) Started(context.Context) error   { return nil }
func (BaseActivator) WillStop(context.Context) error  { return nil }
func (BaseActivator) Stopped(context.Context) error   { return nil }

// ActivatorFuncs adapts plain functions to the Activator interface. Nil
// functions are no-ops.
type ActivatorFuncs struct {
	WillStartFunc func(ctx context.Context) error
	StartedFunc   func(ctx context.Context) error
	WillStopFunc  func(ctx context.Context) error
	StoppedFunc   func(ctx context.Context) error
}

func (f ActivatorFuncs) WillStart(ctx context.Context) error { return call(ctx, f.WillStartFunc) }
func (f ActivatorFuncs) Started(ctx context.Context) error   { return call(ctx, f.StartedFunc) }
func (f ActivatorFuncs) WillStop(ctx context.Context) error  { return call(ctx, f.WillStopFunc) }
func (f ActivatorFuncs) Stopped(ctx context.Context) error   { return call(ctx, f.StoppedFunc) }

func call(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Hook names one of the four activator hooks.
type Hook string

const (
	HookWillStart Hook = "willStart"
	HookStarted   Hook = "started"
	HookWillStop  Hook = "willStop"
	HookStopped   Hook = "stopped"
)

// Hooks lists every hook in lifecycle order.
var Hooks = []Hook{HookWillStart, HookStarted, HookWillStop, HookStopped}

func (h Hook) call(ctx context.Context, a Activator) error {
	switch h {
	case HookWillStart:
		return a.WillStart(ctx)
	case HookStarted:
		return a.Started(ctx)
	case HookWillStop:
		return a.WillStop(ctx)
	case HookStopped:
		return a.Stopped(ctx)
	default:
		return ErrUnknownHook
	}
}
