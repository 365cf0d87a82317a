package recordfsm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/recordfsm"
)

func TestExpr(t *testing.T) {
	t.Parallel()

	m := recordfsm.MustNew("expr_post",
		recordfsm.WithField(recordfsm.Field{Name: "state", Default: "new"}),
		recordfsm.WithColumn("text"),
		recordfsm.WithTransition("publish", "state", recordfsm.Sources("new"), "published",
			recordfsm.WithCondition(recordfsm.MustExpr(`text != nil && text != ""`)),
		),
	)

	t.Run("condition blocks empty text", func(t *testing.T) {
		t.Parallel()
		rec := m.New()
		err := rec.Fire(context.Background(), "publish")
		require.True(t, recordfsm.IsInvalidTransitionError(err))
		assert.Equal(t, recordfsm.State("new"), rec.State("state"))
	})

	t.Run("condition passes once text is set", func(t *testing.T) {
		t.Parallel()
		rec := m.New()
		require.NoError(t, rec.Set("text", "hello"))
		require.NoError(t, rec.Fire(context.Background(), "publish"))
		assert.Equal(t, recordfsm.State("published"), rec.State("state"))
	})
}

func TestExpr_StateAndKeyInEnvironment(t *testing.T) {
	t.Parallel()

	cond, err := recordfsm.Expr(`state == "new" && key == ""`)
	require.NoError(t, err)

	m := recordfsm.MustNew("env_post",
		recordfsm.WithField(recordfsm.Field{Name: "state", Default: "new"}),
	)
	assert.True(t, cond(context.Background(), m.New()))
}

func TestExpr_CompileError(t *testing.T) {
	t.Parallel()

	_, err := recordfsm.Expr(`text ==`)
	require.Error(t, err)
}

func TestExpr_NonBoolExpressionFails(t *testing.T) {
	t.Parallel()

	// expr.AsBool rejects expressions that cannot produce a bool.
	_, err := recordfsm.Expr(`1 + 1`)
	require.Error(t, err)
}

func TestMustExpr_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		recordfsm.MustExpr(`((`)
	})
}
