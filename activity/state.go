package activity

import (
	"fmt"
	"strings"
)

// State is the lifecycle state of an activity instance.
type State int

const (
	// Pending is the initial state. The instance is loading or running.
	Pending State = iota

	// Completed means the module called finish.
	Completed

	// Cancelled means cancel won the race, either from the module or the launcher.
	Cancelled

	// Failed means fail was called, or loading, compiling or a hook failed.
	Failed
)

// String returns a human-readable representation of the State
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal returns true for Completed, Cancelled and Failed.
func (s State) IsTerminal() bool {
	return s == Completed || s == Cancelled || s == Failed
}

// MarshalText encodes the state as its string form.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state from its string form. Matching ignores case,
// so both "completed" and "Completed" are accepted.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Pending, Completed, Cancelled, Failed} {
		if strings.EqualFold(string(text), st.String()) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown activity state %q", text)
}

// Label is the name module code sees, such as "Pending".
func (s State) Label() string {
	name := s.String()
	return strings.ToUpper(name[:1]) + name[1:]
}
