package modactivator

import (
	"context"
	"fmt"
)

// ActivatorInvoker calls module hooks. Every call is recorded before it
// runs, runs synchronously to completion, and is never retried. Errors and
// panics come back as *HookFailure.
type ActivatorInvoker struct {
	recorder *CallRecorder
	logger   Logger
}

// NewActivatorInvoker creates an invoker recording into recorder.
func NewActivatorInvoker(recorder *CallRecorder, logger Logger) *ActivatorInvoker {
	if recorder == nil {
		recorder = NewCallRecorder(nil)
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &ActivatorInvoker{recorder: recorder, logger: logger}
}

// Invoke runs a single hook of module id.
func (inv *ActivatorInvoker) Invoke(ctx context.Context, id string, a Activator, hook Hook) (err error) {
	inv.recorder.record(id, hook)
	log := NewModuleLogger(inv.logger, id)

	defer func() {
		if r := recover(); r != nil {
			err = &HookFailure{Module: id, Hook: hook, Cause: fmt.Errorf("%w: %v", ErrHookPanicked, r)}
			log.Error("Lifecycle hook panicked", "hook", hook, "panic", r)
		}
	}()

	log.Debug("Invoking lifecycle hook", "hook", hook)
	if hookErr := hook.call(ctx, a); hookErr != nil {
		log.Error("Lifecycle hook failed", "hook", hook, "error", hookErr)
		return &HookFailure{Module: id, Hook: hook, Cause: hookErr}
	}
	return nil
}

// InvokePair runs first and then second. If first fails, second is not
// invoked, so a module never receives Started without a successful
// WillStart, or Stopped without a successful WillStop.
func (inv *ActivatorInvoker) InvokePair(ctx context.Context, id string, a Activator, first, second Hook) error {
	if err := inv.Invoke(ctx, id, a, first); err != nil {
		return err
	}
	return inv.Invoke(ctx, id, a, second)
}
