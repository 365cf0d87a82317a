package recordfsm

// PreTransition is published on the model's bus after a transition has been
// resolved and its conditions have passed, but before the body runs and the
// state changes. A subscriber returning an error vetoes the transition:
// nothing is mutated and no PostTransition follows.
type PreTransition struct {
	Record *Record
	Op     string
	Field  string
	Source State
	Target State
}

// PostTransition is published after the state change. Handlers may fire
// further transitions on the same record; those run synchronously on the
// same call stack and complete before the outer Fire returns, all in memory
// ahead of the caller's eventual save.
type PostTransition struct {
	Record *Record
	Op     string
	Field  string
	Source State
	Target State
}
