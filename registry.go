package recordfsm

// registry maps (field, operation) pairs to transition declarations. It is
// populated during model construction and read-only afterwards, so records
// resolve against it concurrently without locking.
type registry struct {
	// field -> op -> declarations in registration order
	defs map[string]map[string][]*Transition
	// (field, op) pairs copied from a parent model; the first re-registration
	// in a child replaces the inherited declarations instead of appending.
	inherited map[string]bool
}

func newRegistry() *registry {
	return &registry{
		defs:      make(map[string]map[string][]*Transition),
		inherited: make(map[string]bool),
	}
}

func registryKey(field, op string) string {
	return field + "\x00" + op
}

func (r *registry) register(t *Transition) {
	ops, ok := r.defs[t.Field]
	if !ok {
		ops = make(map[string][]*Transition)
		r.defs[t.Field] = ops
	}
	key := registryKey(t.Field, t.Op)
	if r.inherited[key] {
		delete(r.inherited, key)
		ops[t.Op] = nil
	}
	ops[t.Op] = append(ops[t.Op], t)
}

// clone deep-copies the registration map for a child model. Every copied
// (field, op) pair is marked inherited so child declarations override rather
// than append.
func (r *registry) clone() *registry {
	child := newRegistry()
	for field, ops := range r.defs {
		child.defs[field] = make(map[string][]*Transition, len(ops))
		for op, defs := range ops {
			copied := make([]*Transition, len(defs))
			copy(copied, defs)
			child.defs[field][op] = copied
			child.inherited[registryKey(field, op)] = true
		}
	}
	return child
}

// resolve picks the transition for (field, op) given the current state:
// declarations with an explicit source match win over wildcard ones; within
// each group registration order decides. The chosen declaration's conditions
// are evaluated later by the executor, with no fallback to another
// declaration on condition failure.
func (r *registry) resolve(field, op string, current State) (*Transition, error) {
	defs := r.defs[field][op]
	if len(defs) == 0 {
		return nil, &InvalidTransitionError{Field: field, Op: op, Current: current, Reason: ReasonNotRegistered}
	}
	for _, t := range defs {
		if t.hasSource(current) {
			return t, nil
		}
	}
	for _, t := range defs {
		if t.wildcard() {
			return t, nil
		}
	}
	return nil, &InvalidTransitionError{Field: field, Op: op, Current: current, Reason: ReasonSourceMismatch}
}

// operations returns the operation names declared for a field.
func (r *registry) operations(field string) []string {
	ops := make([]string, 0, len(r.defs[field]))
	for op := range r.defs[field] {
		ops = append(ops, op)
	}
	return ops
}

// transitions returns every declaration for a field in an unspecified order.
func (r *registry) transitions(field string) []*Transition {
	var out []*Transition
	for _, defs := range r.defs[field] {
		out = append(out, defs...)
	}
	return out
}
