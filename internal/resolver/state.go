package resolver

import (
	"errors"
	"fmt"
)

// State is the execution state of a job as seen by an orchestrator.
type State int

const (
	Pending State = iota
	Ready
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ParseState maps a state name back to its State.
func ParseState(s string) (State, error) {
	for st := Pending; st <= Failed; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return Pending, fmt.Errorf("unknown job state %q", s)
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}

// ErrInvalidTransition is returned by Transition for moves the state
// machine does not allow.
var ErrInvalidTransition = errors.New("invalid state transition")

var transitions = map[State][]State{
	Pending: {Ready},
	Ready:   {Running},
	Running: {Completed, Failed},
}

// Transition validates a state change: Pending -> Ready -> Running ->
// Completed | Failed. Only Pending -> Ready is computed by this package;
// the rest is offered to orchestrators that model execution.
func Transition(from, to State) error {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
