package recordfsm

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrymomot/recordfsm/event"
)

// Fire executes the named transition operation on the record. The sequence
// is strict: resolve against the current in-memory state, evaluate
// conditions, publish PreTransition (a subscriber error aborts), apply the
// state change, publish PostTransition. Failures before the state change
// leave the record untouched with no events delivered.
//
// Because resolution uses the in-memory value, several transitions can be
// chained before a single save.
func (r *Record) Fire(ctx context.Context, op string) error {
	return r.FireFunc(ctx, op, nil)
}

// FireFunc is Fire with a caller-supplied body executed between the
// PreTransition event and the state change. A body error aborts the
// transition before any mutation.
func (r *Record) FireFunc(ctx context.Context, op string, body func(context.Context, *Record) error) error {
	field, ok := r.model.opField[op]
	if !ok {
		return &InvalidTransitionError{Op: op, Reason: ReasonNotRegistered}
	}
	current := r.State(field)

	t, err := r.model.reg.resolve(field, op, current)
	if err != nil {
		r.model.logger.DebugContext(ctx, "transition rejected",
			"model", r.model.name, "op", op, "field", field, "state", current)
		return err
	}
	if !t.conditionsPass(ctx, r) {
		r.model.logger.DebugContext(ctx, "transition condition failed",
			"model", r.model.name, "op", op, "field", field, "state", current)
		return &InvalidTransitionError{Field: field, Op: op, Current: current, Reason: ReasonConditionFailed}
	}

	target := t.TargetFor(current)
	pre := PreTransition{Record: r, Op: op, Field: field, Source: current, Target: target}
	if err := event.Publish(ctx, r.model.bus, pre); err != nil {
		return fmt.Errorf("transition %q vetoed: %w", op, err)
	}
	if body != nil {
		if err := body(ctx, r); err != nil {
			return fmt.Errorf("transition %q body: %w", op, err)
		}
	}

	r.setState(field, target)
	r.model.logger.DebugContext(ctx, "transition applied",
		"model", r.model.name, "op", op, "field", field, "from", current, "to", target)

	post := PostTransition{Record: r, Op: op, Field: field, Source: current, Target: target}
	return event.Publish(ctx, r.model.bus, post)
}

// CanFire reports whether the named operation would currently run: a
// transition resolves from the current state and its conditions pass.
func (r *Record) CanFire(ctx context.Context, op string) bool {
	field, ok := r.model.opField[op]
	if !ok {
		return false
	}
	t, err := r.model.reg.resolve(field, op, r.State(field))
	if err != nil {
		return false
	}
	return t.conditionsPass(ctx, r)
}

// AvailableTransitions returns the transitions currently legal on a field,
// ordered by operation name. Each entry is the declaration that Fire would
// use for its operation.
func (r *Record) AvailableTransitions(ctx context.Context, field string) []*Transition {
	current := r.State(field)
	ops := r.model.reg.operations(field)
	sort.Strings(ops)

	var out []*Transition
	for _, op := range ops {
		t, err := r.model.reg.resolve(field, op, current)
		if err != nil {
			continue
		}
		if t.conditionsPass(ctx, r) {
			out = append(out, t)
		}
	}
	return out
}
