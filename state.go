package recordfsm

// State is the value held by a state field. Any string is a legal state
// value; only declared transitions are legal moves between values.
type State string

const (
	// Any is a wildcard source: a transition declared with Any in its
	// source set matches every current state. Transitions with an explicit
	// source match take precedence over wildcard ones.
	Any State = "*"

	// Same is a target marker: the transition completes in whatever state
	// it started from. Same is only valid as a target, never as a source.
	Same State = "+"
)

func (s State) String() string {
	return string(s)
}

// Sources builds a source-state set for WithTransition.
func Sources(states ...State) []State {
	return states
}
