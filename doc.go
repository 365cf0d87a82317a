// Package recordfsm attaches finite-state-machine behavior to persistent
// records: declarative state transitions with guarded preconditions,
// synchronous pre/post transition events, protected state fields, and an
// optimistic-concurrency guard that rejects saves which would silently
// overwrite another writer's state change.
//
// The package revolves around three pieces:
//
//  1. Model – a per-record-type declaration of state fields, plain columns
//     and legal transitions, built once and read-only afterwards.
//  2. Record – one in-memory instance of a Model with Fire/CanFire methods
//     that execute declared transitions.
//  3. Repository – binds a Model to a Store and enforces the concurrency
//     guard on Save via a single atomic conditional update.
//
// # Declaring a model
//
//	post := recordfsm.MustNew("blog_post",
//	    recordfsm.WithField(recordfsm.Field{Name: "state", Default: "new"}),
//	    recordfsm.WithColumn("text"),
//	    recordfsm.WithTransition("publish", "state", recordfsm.Sources("new"), "published"),
//	    recordfsm.WithTransition("remove", "state", recordfsm.Sources("published"), "removed"),
//	)
//
// Transitions are resolved against the record's current in-memory state, so
// several transitions can be chained before a single save. The wildcard
// source Any matches every state; the target Same keeps the source state.
//
// # Firing transitions
//
//	rec := post.New()
//	if err := rec.Fire(ctx, "publish"); err != nil {
//	    // recordfsm.IsInvalidTransitionError(err)
//	}
//
// A transition that does not match the current state, or whose conditions
// fail, returns InvalidTransitionError before any mutation or event. Fields
// declared with Protected: true refuse direct Set calls with
// ProtectedFieldError; the transition path is their only mutation entry.
//
// # Transition events
//
// Each model owns an event.Bus. PreTransition is published before the body
// runs; a subscriber error vetoes the transition. PostTransition is published
// after the state change and its handlers may fire further transitions on the
// same record, synchronously and re-entrantly, before the caller saves.
//
// # Optimistic concurrency
//
// A Repository captures a snapshot of every governed state field at load
// time. Save issues one conditional update: the write applies only if each
// state column still holds its snapshot value. Zero affected rows means
// another writer transitioned the record first; Save returns
// ConcurrentTransitionError and storage is left untouched. Reload re-reads
// the record and re-arms the snapshot. Save is intended to be called once,
// by the outermost caller; calling Save from inside a transition event
// handler is not supported.
//
// Store implementations live in the stores/ subdirectories (PostgreSQL over
// pgx, Redis over go-redis); MemoryStore is provided here for embedding and
// tests.
package recordfsm
