package recordfsm

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/dmitrymomot/recordfsm/event"
)

// Model describes a record type: its state fields, plain columns, declared
// transitions and the event bus transition notifications go through. Build
// it once at startup; it is immutable afterwards and shared read-only by
// every record and every goroutine.
type Model struct {
	name    string
	fields  []Field
	index   map[string]int // field name -> position in fields
	columns []string       // plain (non-state) columns in declaration order
	colset  map[string]bool
	opField map[string]string // operation name -> owning field
	reg     *registry
	bus     *event.Bus
	logger  *slog.Logger
}

// Option configures a model during construction.
type Option func(*Model) error

// TransitionOption configures a single transition declaration.
type TransitionOption func(*Transition)

// New builds a model. State fields must be declared before the transitions
// that reference them.
func New(name string, opts ...Option) (*Model, error) {
	if name == "" {
		return nil, errors.New("model name cannot be empty")
	}
	m := &Model{
		name:    name,
		index:   make(map[string]int),
		colset:  make(map[string]bool),
		opField: make(map[string]string),
		reg:     newRegistry(),
		bus:     event.New(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is New that panics on a declaration error, for package-level model
// construction where misdeclaration should prevent startup.
func MustNew(name string, opts ...Option) *Model {
	m, err := New(name, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to build model: %v", err))
	}
	return m
}

// WithField declares a state field.
func WithField(f Field) Option {
	return func(m *Model) error {
		if f.Name == "" {
			return errors.New("state field name cannot be empty")
		}
		if _, exists := m.index[f.Name]; exists || m.colset[f.Name] {
			return fmt.Errorf("duplicate column %q on model %q", f.Name, m.name)
		}
		m.index[f.Name] = len(m.fields)
		m.fields = append(m.fields, f)
		return nil
	}
}

// WithColumn declares plain columns that ride along on save but take no part
// in transition resolution or the concurrency guard.
func WithColumn(names ...string) Option {
	return func(m *Model) error {
		for _, name := range names {
			if name == "" {
				return errors.New("column name cannot be empty")
			}
			if _, exists := m.index[name]; exists || m.colset[name] {
				return fmt.Errorf("duplicate column %q on model %q", name, m.name)
			}
			m.colset[name] = true
			m.columns = append(m.columns, name)
		}
		return nil
	}
}

// WithTransition declares a transition operation on a state field. Declaring
// the same operation again on the same field adds an alternative declaration
// (matched by source set); in a child model the first re-declaration replaces
// the inherited one instead.
func WithTransition(op, field string, sources []State, target State, opts ...TransitionOption) Option {
	return func(m *Model) error {
		if op == "" {
			return errors.New("transition operation name cannot be empty")
		}
		if _, ok := m.index[field]; !ok {
			return fmt.Errorf("%w: %q in transition %q on model %q", ErrUnknownField, field, op, m.name)
		}
		if len(sources) == 0 {
			return fmt.Errorf("transition %q on model %q has no source states", op, m.name)
		}
		if slices.Contains(sources, Same) {
			return fmt.Errorf("transition %q on model %q uses Same as a source", op, m.name)
		}
		if target == Any {
			return fmt.Errorf("transition %q on model %q uses Any as a target", op, m.name)
		}
		if owner, ok := m.opField[op]; ok && owner != field {
			return fmt.Errorf("operation %q already declared on field %q of model %q", op, owner, m.name)
		}
		t := &Transition{
			Op:      op,
			Field:   field,
			Sources: slices.Clone(sources),
			Target:  target,
		}
		for _, opt := range opts {
			if opt != nil {
				opt(t)
			}
		}
		m.opField[op] = field
		m.reg.register(t)
		return nil
	}
}

// WithCondition adds a condition predicate to a transition.
func WithCondition(cond Condition) TransitionOption {
	return func(t *Transition) {
		if cond != nil {
			t.conditions = append(t.conditions, cond)
		}
	}
}

// WithConditions adds several condition predicates, evaluated in order.
func WithConditions(conds ...Condition) TransitionOption {
	return func(t *Transition) {
		for _, cond := range conds {
			if cond != nil {
				t.conditions = append(t.conditions, cond)
			}
		}
	}
}

// WithBus replaces the model's event bus, e.g. to share one bus between
// related models.
func WithBus(bus *event.Bus) Option {
	return func(m *Model) error {
		if bus == nil {
			return errors.New("event bus cannot be nil")
		}
		m.bus = bus
		return nil
	}
}

// WithLogger sets the logger used for transition and save traces. The
// default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) error {
		if logger != nil {
			m.logger = logger
		}
		return nil
	}
}

// Extend derives a child model inheriting the parent's fields, columns and
// transition declarations. Re-declaring an inherited operation on the same
// field overrides it. The child gets its own event bus unless WithBus is
// given; the parent's logger carries over.
func (m *Model) Extend(name string, opts ...Option) (*Model, error) {
	if name == "" {
		return nil, errors.New("model name cannot be empty")
	}
	child := &Model{
		name:    name,
		fields:  slices.Clone(m.fields),
		index:   maps.Clone(m.index),
		columns: slices.Clone(m.columns),
		colset:  maps.Clone(m.colset),
		opField: maps.Clone(m.opField),
		reg:     m.reg.clone(),
		bus:     event.New(),
		logger:  m.logger,
	}
	for _, opt := range opts {
		if err := opt(child); err != nil {
			return nil, err
		}
	}
	return child, nil
}

// MustExtend is Extend that panics on a declaration error.
func (m *Model) MustExtend(name string, opts ...Option) *Model {
	child, err := m.Extend(name, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to extend model: %v", err))
	}
	return child
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.name
}

// Bus returns the event bus transition notifications are published on.
func (m *Model) Bus() *event.Bus {
	return m.bus
}

// Fields returns the declared state fields.
func (m *Model) Fields() []Field {
	return slices.Clone(m.fields)
}

// Columns returns the declared plain columns.
func (m *Model) Columns() []string {
	return slices.Clone(m.columns)
}

// Resolve looks up the transition that operation op would use on field given
// the current state. Resolution is deterministic: the same inputs always
// yield the same declaration.
func (m *Model) Resolve(field, op string, current State) (*Transition, error) {
	if _, ok := m.index[field]; !ok {
		return nil, fmt.Errorf("%w: %q on model %q", ErrUnknownField, field, m.name)
	}
	return m.reg.resolve(field, op, current)
}

// Transitions returns every transition declared for a field.
func (m *Model) Transitions(field string) []*Transition {
	return m.reg.transitions(field)
}

func (m *Model) field(name string) (Field, bool) {
	i, ok := m.index[name]
	if !ok {
		return Field{}, false
	}
	return m.fields[i], true
}
