package recordfsm

import (
	"context"
	"slices"
)

// Transition is an immutable declaration of a legal move on a state field:
// one target reachable from a set of source states, optionally narrowed by
// conditions. Transitions are registered during model construction and
// shared read-only across all records of the model.
type Transition struct {
	// Op is the operation name the transition is invoked by.
	Op string
	// Field names the state field the transition governs.
	Field string
	// Sources lists the states the transition may start from. Any acts as
	// a wildcard matched only after every explicit source declaration.
	Sources []State
	// Target is the state the transition ends in. Same keeps the source.
	Target State

	conditions []Condition
}

// TargetFor resolves the concrete target for a given source state,
// collapsing the Same marker.
func (t *Transition) TargetFor(current State) State {
	if t.Target == Same {
		return current
	}
	return t.Target
}

func (t *Transition) hasSource(s State) bool {
	return slices.Contains(t.Sources, s)
}

func (t *Transition) wildcard() bool {
	return slices.Contains(t.Sources, Any)
}

// conditionsPass runs the declared conditions in order, short-circuiting on
// the first failure.
func (t *Transition) conditionsPass(ctx context.Context, rec *Record) bool {
	for _, cond := range t.conditions {
		if cond != nil && !cond(ctx, rec) {
			return false
		}
	}
	return true
}
