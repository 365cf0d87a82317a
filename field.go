package recordfsm

// Field declares a state attribute on a model. The field name doubles as the
// storage column name.
type Field struct {
	// Name identifies the field on the record and in storage.
	Name string

	// Default is the state assigned to freshly created records.
	Default State

	// Protected forbids direct assignment through Record.Set. A protected
	// field changes only through the transition execution path.
	Protected bool
}
