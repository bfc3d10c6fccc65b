// Package lifecycle tracks the lifecycle state of every registered module and
// enforces the legal transitions between states.
package lifecycle

import "fmt"

// State is the lifecycle state of a single module.
type State int

const (
	// Unloaded is not an entry state: a module is Unloaded only before it is
	// registered and after it has been removed.
	Unloaded State = iota
	// Stopped means loaded but not running. Freshly registered modules start here.
	Stopped
	Starting
	Started
	Stopping
	// Failed is entered when a hook fails during Starting or Stopping.
	Failed
)

var stateNames = [...]string{
	Unloaded: "unloaded",
	Stopped:  "stopped",
	Starting: "starting",
	Started:  "started",
	Stopping: "stopping",
	Failed:   "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText renders the state by name so JSON output is readable.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownState, string(text))
}

// transitions lists every legal edge of the state machine.
var transitions = map[State][]State{
	Stopped:  {Starting, Unloaded},
	Starting: {Started, Failed},
	Started:  {Stopping},
	Stopping: {Stopped, Failed},
	Failed:   {Stopping, Unloaded},
}

// CanTransition reports whether from -> to is a legal transition.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
