package recordfsm

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Condition is an extra predicate a transition must satisfy beyond source
// state matching, e.g. a permission check. Conditions run in declaration
// order; the first failure refuses the transition before any mutation or
// event, on the same error path as an unmatched source state.
type Condition func(ctx context.Context, rec *Record) bool

// Expr compiles an expr-lang expression into a Condition evaluated against
// the record's column values plus the "key" variable. The expression must
// produce a bool. A runtime evaluation error counts as a failed condition.
//
//	cond, err := recordfsm.Expr(`text != "" && state == "new"`)
func Expr(expression string) (Condition, error) {
	program, err := expr.Compile(expression, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile condition %q: %w", expression, err)
	}
	return func(_ context.Context, rec *Record) bool {
		out, err := vm.Run(program, rec.Env())
		if err != nil {
			return false
		}
		ok, _ := out.(bool)
		return ok
	}, nil
}

// MustExpr is Expr that panics on a compile error, for use in model
// declarations where misconfiguration should prevent startup.
func MustExpr(expression string) Condition {
	cond, err := Expr(expression)
	if err != nil {
		panic(err)
	}
	return cond
}
