package recordfsm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Repository binds a Model to a Store and enforces the optimistic
// concurrency guard on save. Two independently loaded copies of the same
// stored record are never synchronized with each other except through the
// store's atomic conditional write.
type Repository struct {
	model  *Model
	store  Store
	logger *slog.Logger
	newKey func() string
}

// RepositoryOption configures a repository.
type RepositoryOption func(*Repository)

// WithRepositoryLogger sets the logger for save and conflict traces.
func WithRepositoryLogger(logger *slog.Logger) RepositoryOption {
	return func(p *Repository) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithKeyFunc replaces the key generator used for first saves. The default
// issues UUID strings.
func WithKeyFunc(fn func() string) RepositoryOption {
	return func(p *Repository) {
		if fn != nil {
			p.newKey = fn
		}
	}
}

// NewRepository builds a repository for one model over one store.
func NewRepository(model *Model, store Store, opts ...RepositoryOption) *Repository {
	p := &Repository{
		model:  model,
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		newKey: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Save persists the record. A never-before-saved record gets a key and an
// unconditional insert; the guard activates from the first update after
// load. For saved records Save issues one conditional update keyed on the
// snapshot captured at load time: zero affected rows means another writer
// already transitioned the stored record, Save returns
// ConcurrentTransitionError and storage keeps the other writer's state. On
// success the snapshot is re-captured so the next save compares against the
// freshly written values.
func (p *Repository) Save(ctx context.Context, rec *Record) error {
	if rec.Model() != p.model {
		return fmt.Errorf("%w: repository is bound to %q, record belongs to %q",
			ErrModelMismatch, p.model.name, rec.Model().name)
	}

	if !rec.Saved() {
		key := rec.Key()
		if key == "" {
			key = p.newKey()
		}
		if err := p.store.Insert(ctx, key, rec.Values()); err != nil {
			return err
		}
		rec.markSaved(key)
		p.logger.DebugContext(ctx, "record inserted", "model", p.model.name, "key", key)
		return nil
	}

	expected := make(map[string]any, len(rec.snapshot))
	for field, s := range rec.snapshot {
		expected[field] = string(s)
	}
	affected, err := p.store.ConditionalUpdate(ctx, rec.Key(), expected, rec.Values())
	if err != nil {
		return err
	}
	if affected == 0 {
		p.logger.DebugContext(ctx, "conditional save rejected",
			"model", p.model.name, "key", rec.Key(), "expected", expected)
		return &ConcurrentTransitionError{Key: rec.Key(), Expected: rec.Snapshot()}
	}
	rec.resetSnapshot()
	p.logger.DebugContext(ctx, "record updated", "model", p.model.name, "key", rec.Key())
	return nil
}

// Load materializes the stored record under key, capturing the concurrency
// guard snapshot from the freshly read values.
func (p *Repository) Load(ctx context.Context, key string) (*Record, error) {
	values, err := p.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return p.model.Hydrate(key, values)
}

// Reload refreshes an in-memory record from storage and re-arms its guard
// snapshot, so a subsequent transition and save compare against the stored
// values instead of stale pre-reload ones.
func (p *Repository) Reload(ctx context.Context, rec *Record) error {
	if rec.Model() != p.model {
		return fmt.Errorf("%w: repository is bound to %q, record belongs to %q",
			ErrModelMismatch, p.model.name, rec.Model().name)
	}
	if !rec.Saved() {
		return fmt.Errorf("%w: record has never been saved", ErrNotFound)
	}
	values, err := p.store.Load(ctx, rec.Key())
	if err != nil {
		return err
	}
	return rec.refresh(values)
}

// Delete removes the stored record and detaches the in-memory instance from
// its row; a later Save inserts it anew under a fresh key.
func (p *Repository) Delete(ctx context.Context, rec *Record) error {
	if rec.Model() != p.model {
		return fmt.Errorf("%w: repository is bound to %q, record belongs to %q",
			ErrModelMismatch, p.model.name, rec.Model().name)
	}
	if !rec.Saved() {
		return fmt.Errorf("%w: record has never been saved", ErrNotFound)
	}
	if err := p.store.Delete(ctx, rec.Key()); err != nil {
		return err
	}
	rec.markDeleted()
	return nil
}
