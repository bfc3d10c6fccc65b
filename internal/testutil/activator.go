package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Hook names as recorded in a Trace.
const (
	WillStart = "willStart"
	Started   = "started"
	WillStop  = "willStop"
	Stopped   = "stopped"
)

// Call is one recorded hook invocation.
type Call struct {
	Module string
	Hook   string
}

func (c Call) String() string {
	return c.Module + "." + c.Hook
}

// Trace records hook invocations of many activators in global order.
type Trace struct {
	mu    sync.Mutex
	calls []Call
}

// NewTrace creates an empty trace.
func NewTrace() *Trace {
	return &Trace{}
}

func (t *Trace) add(module, hook string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, Call{Module: module, Hook: hook})
}

// Calls returns every recorded call in order.
func (t *Trace) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.calls)
}

// Strings returns every call formatted as "module.hook".
func (t *Trace) Strings() []string {
	calls := t.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

// Modules returns the modules that received hook, in call order.
func (t *Trace) Modules(hook string) []string {
	out := make([]string, 0)
	for _, c := range t.Calls() {
		if c.Hook == hook {
			out = append(out, c.Module)
		}
	}
	return out
}

// Count returns how many times module received hook.
func (t *Trace) Count(module, hook string) int {
	n := 0
	for _, c := range t.Calls() {
		if c.Module == module && c.Hook == hook {
			n++
		}
	}
	return n
}

// Reset forgets every recorded call.
func (t *Trace) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = nil
}

// Activator creates an activator for module that records into t.
func (t *Trace) Activator(module string) *RecordingActivator {
	return &RecordingActivator{module: module, trace: t, fail: map[string]error{}, panics: map[string]bool{}}
}

// RecordingActivator records each hook into its Trace. Hooks can be made to
// fail or panic.
type RecordingActivator struct {
	module string
	trace  *Trace

	mu     sync.Mutex
	fail   map[string]error
	panics map[string]bool
	onCall func(hook string)
}

// FailOn makes hook return err.
func (a *RecordingActivator) FailOn(hook string, err error) *RecordingActivator {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fail[hook] = err
	return a
}

// PanicOn makes hook panic.
func (a *RecordingActivator) PanicOn(hook string) *RecordingActivator {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.panics[hook] = true
	return a
}

// Heal clears every configured failure.
func (a *RecordingActivator) Heal() *RecordingActivator {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fail = map[string]error{}
	a.panics = map[string]bool{}
	return a
}

// OnCall registers fn to run inside every hook after it is recorded.
func (a *RecordingActivator) OnCall(fn func(hook string)) *RecordingActivator {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onCall = fn
	return a
}

func (a *RecordingActivator) invoke(hook string) error {
	a.trace.add(a.module, hook)

	a.mu.Lock()
	err, shouldPanic, onCall := a.fail[hook], a.panics[hook], a.onCall
	a.mu.Unlock()

	if onCall != nil {
		onCall(hook)
	}
	if shouldPanic {
		panic(fmt.Sprintf("%s.%s panicked", a.module, hook))
	}
	return err
}

func (a *RecordingActivator) WillStart(context.Context) error { return a.invoke(WillStart) }
func (a *RecordingActivator) Started(context.Context) error   { return a.invoke(Started) }
func (a *RecordingActivator) WillStop(context.Context) error  { return a.invoke(WillStop) }
func (a *RecordingActivator) Stopped(context.Context) error   { return a.invoke(Stopped) }
