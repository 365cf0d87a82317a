package postgres_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/recordfsm"
	"github.com/dmitrymomot/recordfsm/stores/postgres"
)

// fakeDB records every statement and plays back canned results, keeping pgx
// out of the test doubles while exercising the exact SQL the store builds.
type fakeDB struct {
	execSQL  []string
	execArgs [][]any
	execTag  pgconn.CommandTag
	execErr  error

	querySQL  []string
	queryArgs [][]any
	rows      *fakeRows
	queryErr  error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	return f.execTag, f.execErr
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.querySQL = append(f.querySQL, sql)
	f.queryArgs = append(f.queryArgs, args)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if f.rows == nil {
		f.rows = &fakeRows{}
	}
	return f.rows, nil
}

type fakeRows struct {
	fields []pgconn.FieldDescription
	values [][]any
	pos    int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *fakeRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}
func (r *fakeRows) Scan(...any) error { return nil }
func (r *fakeRows) Values() ([]any, error) {
	return r.values[r.pos-1], nil
}
func (r *fakeRows) RawValues() [][]byte { return nil }
func (r *fakeRows) Conn() *pgx.Conn     { return nil }

func TestNew_RequiresTable(t *testing.T) {
	t.Parallel()
	_, err := postgres.New(&fakeDB{}, "")
	require.ErrorIs(t, err, postgres.ErrTableNotConfigured)
}

func TestStore_Insert(t *testing.T) {
	t.Parallel()
	db := &fakeDB{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	store, err := postgres.New(db, "blog_posts")
	require.NoError(t, err)

	err = store.Insert(context.Background(), "k1", map[string]any{
		"text":  "hello",
		"state": "new",
	})
	require.NoError(t, err)

	require.Len(t, db.execSQL, 1)
	// Value columns appear in sorted order after the key column.
	assert.Equal(t,
		`INSERT INTO "blog_posts" ("id", "state", "text") VALUES ($1, $2, $3)`,
		db.execSQL[0])
	assert.Equal(t, []any{"k1", "new", "hello"}, db.execArgs[0])
}

func TestStore_InsertDuplicate(t *testing.T) {
	t.Parallel()
	db := &fakeDB{execErr: &pgconn.PgError{Code: "23505"}}
	store, err := postgres.New(db, "blog_posts")
	require.NoError(t, err)

	err = store.Insert(context.Background(), "k1", map[string]any{"state": "new"})
	require.ErrorIs(t, err, recordfsm.ErrDuplicateKey)
}

func TestStore_Load(t *testing.T) {
	t.Parallel()
	db := &fakeDB{rows: &fakeRows{
		fields: []pgconn.FieldDescription{
			{Name: "id"}, {Name: "state"}, {Name: "text"},
		},
		values: [][]any{{"k1", "published", "hello"}},
	}}
	store, err := postgres.New(db, "blog_posts")
	require.NoError(t, err)

	values, err := store.Load(context.Background(), "k1")
	require.NoError(t, err)

	assert.Equal(t, `SELECT * FROM "blog_posts" WHERE "id" = $1`, db.querySQL[0])
	assert.Equal(t, []any{"k1"}, db.queryArgs[0])
	// The key column stays out of the value map.
	assert.Equal(t, map[string]any{"state": "published", "text": "hello"}, values)
}

func TestStore_LoadMissing(t *testing.T) {
	t.Parallel()
	db := &fakeDB{rows: &fakeRows{}}
	store, err := postgres.New(db, "blog_posts")
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "ghost")
	require.ErrorIs(t, err, recordfsm.ErrNotFound)
}

func TestStore_ConditionalUpdate(t *testing.T) {
	t.Parallel()

	t.Run("builds a single guarded statement", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 1")}
		store, err := postgres.New(db, "blog_posts")
		require.NoError(t, err)

		n, err := store.ConditionalUpdate(context.Background(), "k1",
			map[string]any{"state": "new"},
			map[string]any{"text": "hello", "state": "published"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		// One statement: the compare lives in the WHERE clause next to the key.
		assert.Equal(t,
			`UPDATE "blog_posts" SET "state" = $1, "text" = $2 WHERE "id" = $3 AND "state" = $4`,
			db.execSQL[0])
		assert.Equal(t, []any{"published", "hello", "k1", "new"}, db.execArgs[0])
	})

	t.Run("stale snapshot reports zero rows", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 0")}
		store, err := postgres.New(db, "blog_posts")
		require.NoError(t, err)

		n, err := store.ConditionalUpdate(context.Background(), "k1",
			map[string]any{"state": "new"},
			map[string]any{"state": "published"})
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)
	})

	t.Run("several guarded columns", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 1")}
		store, err := postgres.New(db, "blog_posts")
		require.NoError(t, err)

		_, err = store.ConditionalUpdate(context.Background(), "k1",
			map[string]any{"state": "published", "review_state": "waiting"},
			map[string]any{"review_state": "rejected"})
		require.NoError(t, err)

		assert.Equal(t,
			`UPDATE "blog_posts" SET "review_state" = $1 WHERE "id" = $2 AND "review_state" = $3 AND "state" = $4`,
			db.execSQL[0])
		assert.Equal(t, []any{"rejected", "k1", "waiting", "published"}, db.execArgs[0])
	})
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	t.Run("removes the row", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{execTag: pgconn.NewCommandTag("DELETE 1")}
		store, err := postgres.New(db, "blog_posts")
		require.NoError(t, err)

		require.NoError(t, store.Delete(context.Background(), "k1"))
		assert.Equal(t, `DELETE FROM "blog_posts" WHERE "id" = $1`, db.execSQL[0])
	})

	t.Run("missing row maps to ErrNotFound", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{execTag: pgconn.NewCommandTag("DELETE 0")}
		store, err := postgres.New(db, "blog_posts")
		require.NoError(t, err)

		require.ErrorIs(t, store.Delete(context.Background(), "ghost"), recordfsm.ErrNotFound)
	})
}

func TestStore_KeyColumnOption(t *testing.T) {
	t.Parallel()
	db := &fakeDB{execTag: pgconn.NewCommandTag("DELETE 1")}
	store, err := postgres.New(db, "blog_posts", postgres.WithKeyColumn("post_id"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), "k1"))
	assert.Equal(t, `DELETE FROM "blog_posts" WHERE "post_id" = $1`, db.execSQL[0])
}
