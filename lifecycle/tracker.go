package lifecycle

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Static errors for lifecycle package
var (
	ErrIllegalTransition = errors.New("illegal lifecycle transition")
	ErrAlreadyTracked    = errors.New("module is already tracked")
	ErrNotTracked        = errors.New("module is not tracked")
	ErrUnknownState      = errors.New("unknown lifecycle state")
)

// IllegalTransitionError is an internal-consistency failure: a caller asked
// to move a module along an edge that is not legal from its current state.
type IllegalTransitionError struct {
	Module   string
	Current  State
	Expected State
	To       State
}

func (e *IllegalTransitionError) Error() string {
	if e.Current != e.Expected {
		return fmt.Sprintf("%s: module %q is %s, expected %s before moving to %s",
			ErrIllegalTransition, e.Module, e.Current, e.Expected, e.To)
	}
	return fmt.Sprintf("%s: module %q cannot move from %s to %s", ErrIllegalTransition, e.Module, e.Current, e.To)
}

func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// Tracker is the single source of truth for module states.
type Tracker struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{states: make(map[string]State)}
}

// Add starts tracking id in the Stopped state.
func (t *Tracker) Add(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.states[id]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyTracked, id)
	}
	t.states[id] = Stopped
	return nil
}

// Get returns the current state of id. Untracked modules report Unloaded.
func (t *Tracker) Get(id string) (State, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.states[id]
	if !ok {
		return Unloaded, false
	}
	return s, true
}

// Is reports whether id is tracked and currently in state s.
func (t *Tracker) Is(id string, s State) bool {
	current, ok := t.Get(id)
	return ok && current == s
}

// Transition moves id from expected to to. It fails without changing anything
// when the module is not in expected or the edge is not legal.
func (t *Tracker) Transition(id string, expected, to State) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.states[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotTracked, id)
	}
	if current != expected || !CanTransition(current, to) {
		return &IllegalTransitionError{Module: id, Current: current, Expected: expected, To: to}
	}
	if to == Unloaded {
		delete(t.states, id)
		return nil
	}
	t.states[id] = to
	return nil
}

// Remove unloads id. Only Stopped or Failed modules may be removed.
func (t *Tracker) Remove(id string) error {
	current, ok := t.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotTracked, id)
	}
	return t.Transition(id, current, Unloaded)
}

// Snapshot returns a copy of every tracked state.
func (t *Tracker) Snapshot() map[string]State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]State, len(t.states))
	for id, s := range t.states {
		out[id] = s
	}
	return out
}

// InState returns the sorted ids of modules currently in state s.
func (t *Tracker) InState(s State) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0)
	for id, current := range t.states {
		if current == s {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
