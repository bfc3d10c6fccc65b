package modactivator

import (
	"time"

	"github.com/GoCodeAlone/modactivator/lifecycle"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Operation names a public lifecycle operation.
type Operation string

const (
	OperationStartAll Operation = "startAll"
	OperationStop     Operation = "stopModule"
	OperationUnload   Operation = "unloadModule"
	OperationShutdown Operation = "shutdown"
)

// SkippedModule is a module an operation deliberately left alone.
type SkippedModule struct {
	Module string          `json:"module"`
	State  lifecycle.State `json:"state"`
	Reason string          `json:"reason"`
}

// Result is the aggregate outcome of one lifecycle operation. Hook failures
// are collected here instead of being returned as the operation's error so
// the host can decide whether the outcome is degraded or failed.
type Result struct {
	ID        string    `json:"id"`
	Operation Operation `json:"operation"`

	// Transitioned lists the modules that completed the operation's
	// transition, in the order it happened.
	Transitioned []string        `json:"transitioned"`
	Skipped      []SkippedModule `json:"skipped,omitempty"`
	Failures     []*HookFailure  `json:"-"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func newResult(op Operation, at time.Time) *Result {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &Result{
		ID:           id.String(),
		Operation:    op,
		Transitioned: make([]string, 0),
		StartedAt:    at,
	}
}

func (r *Result) skip(id string, state lifecycle.State, reason string) {
	r.Skipped = append(r.Skipped, SkippedModule{Module: id, State: state, Reason: reason})
}

// OK reports whether no hook failed.
func (r *Result) OK() bool {
	return len(r.Failures) == 0
}

// Err combines every hook failure into one error, or nil.
func (r *Result) Err() error {
	var err error
	for _, f := range r.Failures {
		err = multierr.Append(err, f)
	}
	return err
}

// FailedModules returns the ids of modules with a failed hook, in failure
// order.
func (r *Result) FailedModules() []string {
	out := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.Module)
	}
	return out
}

// SkippedModules returns the ids of skipped modules.
func (r *Result) SkippedModules() []string {
	out := make([]string, 0, len(r.Skipped))
	for _, s := range r.Skipped {
		out = append(out, s.Module)
	}
	return out
}
