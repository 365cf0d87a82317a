package recordfsm

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateKey      = errors.New("record already exists")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrUnknownField      = errors.New("unknown state field")
	ErrInvalidStateValue = errors.New("state field requires a string value")
	ErrModelMismatch     = errors.New("record belongs to a different model")
)

// Reason classifies why a transition was refused.
type Reason string

const (
	// ReasonNotRegistered: no transition is registered for the operation.
	ReasonNotRegistered Reason = "operation not registered"
	// ReasonSourceMismatch: the current state is outside every source set.
	ReasonSourceMismatch Reason = "current state not in source set"
	// ReasonConditionFailed: a declared condition predicate returned false.
	ReasonConditionFailed Reason = "condition failed"
)

// InvalidTransitionError indicates that a transition operation could not run:
// either nothing is registered for it, the record's current state is not in
// the resolved source set, or a condition predicate failed. The record is
// left untouched and no events were published.
type InvalidTransitionError struct {
	Field   string
	Op      string
	Current State
	Reason  Reason
}

func (e *InvalidTransitionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid transition %q: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("invalid transition %q on field %q from state %q: %s", e.Op, e.Field, e.Current, e.Reason)
}

// ProtectedFieldError indicates a direct assignment to a protected state
// field. Protected fields change only through the transition path; hitting
// this error is a usage bug, not a retryable condition.
type ProtectedFieldError struct {
	Field string
}

func (e *ProtectedFieldError) Error() string {
	return fmt.Sprintf("field %q is protected and can only change through a transition", e.Field)
}

// ConcurrentTransitionError indicates the conditional save was rejected
// because the stored state no longer matches the snapshot captured at load
// time: another writer already transitioned the record. Storage is left at
// the other writer's state. Recover by reloading and re-applying the
// intended transitions.
type ConcurrentTransitionError struct {
	Key      string
	Expected map[string]State
}

func (e *ConcurrentTransitionError) Error() string {
	return fmt.Sprintf("record %q was updated by another writer, stored state diverged from %v", e.Key, e.Expected)
}

func IsInvalidTransitionError(err error) bool {
	var e *InvalidTransitionError
	return errors.As(err, &e)
}

func IsProtectedFieldError(err error) bool {
	var e *ProtectedFieldError
	return errors.As(err, &e)
}

func IsConcurrentTransitionError(err error) bool {
	var e *ConcurrentTransitionError
	return errors.As(err, &e)
}
