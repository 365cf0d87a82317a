package recordfsm

import (
	"fmt"
)

// Record is one in-memory instance of a Model. Records are not safe for
// concurrent use; the expected pattern is one record per call path, with
// independent copies of the same stored row reconciled through the
// Repository's conditional save.
type Record struct {
	model *Model
	key   string
	// values holds every column; state fields are kept as State, plain
	// columns as whatever the caller or store put there.
	values map[string]any
	// snapshot is the concurrency guard baseline: the state-field values
	// observed at load time, re-captured after every successful save.
	snapshot map[string]State
	saved    bool
}

// New creates an unsaved record with every state field at its default and
// plain columns unset. The record has no key until its first save.
func (m *Model) New() *Record {
	values := make(map[string]any, len(m.fields)+len(m.columns))
	for _, f := range m.fields {
		values[f.Name] = f.Default
	}
	for _, c := range m.columns {
		values[c] = nil
	}
	return &Record{model: m, values: values}
}

// Hydrate builds a saved record from a storage snapshot, capturing the
// concurrency guard baseline from the freshly read values. Store adapters
// and custom persistence layers use it to materialize loaded rows.
func (m *Model) Hydrate(key string, values map[string]any) (*Record, error) {
	if key == "" {
		return nil, fmt.Errorf("cannot hydrate model %q without a key", m.name)
	}
	rec := m.New()
	if err := rec.apply(values); err != nil {
		return nil, err
	}
	rec.key = key
	rec.saved = true
	rec.resetSnapshot()
	return rec, nil
}

// Model returns the model the record belongs to.
func (r *Record) Model() *Model {
	return r.model
}

// Key returns the storage key, empty until the first successful save.
func (r *Record) Key() string {
	return r.key
}

// Saved reports whether the record has a stored row behind it.
func (r *Record) Saved() bool {
	return r.saved
}

// State returns the current in-memory value of a state field, or the empty
// state if the field is not declared on the model.
func (r *Record) State(field string) State {
	if _, ok := r.model.field(field); !ok {
		return ""
	}
	s, _ := r.values[field].(State)
	return s
}

// Get returns the current value of a column.
func (r *Record) Get(name string) any {
	v := r.values[name]
	if s, ok := v.(State); ok {
		return string(s)
	}
	return v
}

// Set assigns a column value. Protected state fields refuse direct
// assignment with ProtectedFieldError; non-protected state fields accept
// string or State values. Unknown columns are rejected.
func (r *Record) Set(name string, value any) error {
	if f, ok := r.model.field(name); ok {
		if f.Protected {
			return &ProtectedFieldError{Field: name}
		}
		switch v := value.(type) {
		case State:
			r.values[name] = v
		case string:
			r.values[name] = State(v)
		default:
			return fmt.Errorf("%w: %q got %T", ErrInvalidStateValue, name, value)
		}
		return nil
	}
	if !r.model.colset[name] {
		return fmt.Errorf("%w: %q on model %q", ErrUnknownColumn, name, r.model.name)
	}
	r.values[name] = value
	return nil
}

// Values returns a copy of every column value with state fields flattened to
// plain strings, in the shape Store implementations persist.
func (r *Record) Values() map[string]any {
	out := make(map[string]any, len(r.values))
	for name, v := range r.values {
		if s, ok := v.(State); ok {
			out[name] = string(s)
			continue
		}
		out[name] = v
	}
	return out
}

// Snapshot returns a copy of the concurrency guard baseline: the state-field
// values the next conditional save will expect to still be stored.
func (r *Record) Snapshot() map[string]State {
	out := make(map[string]State, len(r.snapshot))
	for name, s := range r.snapshot {
		out[name] = s
	}
	return out
}

// Env returns the expression environment conditions evaluate against: every
// column value plus "key".
func (r *Record) Env() map[string]any {
	env := r.Values()
	env["key"] = r.key
	return env
}

// apply overlays a storage snapshot onto the record, coercing state-field
// values and rejecting unknown columns.
func (r *Record) apply(values map[string]any) error {
	for name, v := range values {
		if _, ok := r.model.field(name); ok {
			switch tv := v.(type) {
			case State:
				r.values[name] = tv
			case string:
				r.values[name] = State(tv)
			default:
				return fmt.Errorf("%w: %q got %T", ErrInvalidStateValue, name, v)
			}
			continue
		}
		if !r.model.colset[name] {
			return fmt.Errorf("%w: %q on model %q", ErrUnknownColumn, name, r.model.name)
		}
		r.values[name] = v
	}
	return nil
}

// refresh replaces the record's values with a freshly loaded snapshot and
// re-arms the concurrency guard, so a subsequent transition and save compare
// against the stored values rather than stale pre-reload ones.
func (r *Record) refresh(values map[string]any) error {
	if err := r.apply(values); err != nil {
		return err
	}
	r.saved = true
	r.resetSnapshot()
	return nil
}

// markSaved records a successful first insert.
func (r *Record) markSaved(key string) {
	r.key = key
	r.saved = true
	r.resetSnapshot()
}

// markDeleted detaches the record from its stored row.
func (r *Record) markDeleted() {
	r.key = ""
	r.saved = false
	r.snapshot = nil
}

// resetSnapshot re-captures the guard baseline from the current values.
func (r *Record) resetSnapshot() {
	snap := make(map[string]State, len(r.model.fields))
	for _, f := range r.model.fields {
		s, _ := r.values[f.Name].(State)
		snap[f.Name] = s
	}
	r.snapshot = snap
}

// setState is the single mutation entry for state fields, reserved for the
// transition executor.
func (r *Record) setState(field string, s State) {
	r.values[field] = s
}
