package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/recordfsm"
)

// DB is the narrow pgx surface the store needs. *pgxpool.Pool, *pgx.Conn
// and pgx.Tx all satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store persists records of one model in a single table. Column names come
// from the model's field and column declarations; the key column defaults
// to "id".
type Store struct {
	db     DB
	table  string
	keyCol string
	logger *slog.Logger
}

var _ recordfsm.Store = (*Store)(nil)

// Option configures a store.
type Option func(*Store)

// WithKeyColumn overrides the primary key column name.
func WithKeyColumn(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.keyCol = name
		}
	}
}

// WithLogger sets the logger for statement traces.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a store over an existing table.
func New(db DB, table string, opts ...Option) (*Store, error) {
	if table == "" {
		return nil, ErrTableNotConfigured
	}
	s := &Store{
		db:     db,
		table:  table,
		keyCol: "id",
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Insert(ctx context.Context, key string, values map[string]any) error {
	columns := []string{ident(s.keyCol)}
	placeholders := []string{"$1"}
	args := []any{key}
	for i, column := range sortedKeys(values) {
		columns = append(columns, ident(column))
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
		args = append(args, values[column])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ident(s.table), strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	s.logger.DebugContext(ctx, "insert", "table", s.table, "key", key)

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		if IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %q", recordfsm.ErrDuplicateKey, key)
		}
		return fmt.Errorf("insert into %s: %w", s.table, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, key string) (map[string]any, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1", ident(s.table), ident(s.keyCol))

	rows, err := s.db.Query(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("load from %s: %w", s.table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("load from %s: %w", s.table, err)
		}
		return nil, fmt.Errorf("%w: %q", recordfsm.ErrNotFound, key)
	}

	rowValues, err := rows.Values()
	if err != nil {
		return nil, fmt.Errorf("load from %s: %w", s.table, err)
	}

	values := make(map[string]any, len(rowValues))
	for i, fd := range rows.FieldDescriptions() {
		if fd.Name == s.keyCol {
			continue
		}
		values[fd.Name] = rowValues[i]
	}
	return values, nil
}

// ConditionalUpdate issues the single atomic statement the concurrency
// guard relies on: the WHERE clause matches the key and every expected
// column, so a stale snapshot affects zero rows and storage stays untouched.
func (s *Store) ConditionalUpdate(ctx context.Context, key string, expected, update map[string]any) (int64, error) {
	var (
		sets  []string
		where []string
		args  []any
	)
	for _, column := range sortedKeys(update) {
		args = append(args, update[column])
		sets = append(sets, fmt.Sprintf("%s = $%d", ident(column), len(args)))
	}
	args = append(args, key)
	where = append(where, fmt.Sprintf("%s = $%d", ident(s.keyCol), len(args)))
	for _, column := range sortedKeys(expected) {
		args = append(args, expected[column])
		where = append(where, fmt.Sprintf("%s = $%d", ident(column), len(args)))
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		ident(s.table), strings.Join(sets, ", "), strings.Join(where, " AND "))
	s.logger.DebugContext(ctx, "conditional update", "table", s.table, "key", key)

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("conditional update of %s: %w", s.table, err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", ident(s.table), ident(s.keyCol))

	tag, err := s.db.Exec(ctx, query, key)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", s.table, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q", recordfsm.ErrNotFound, key)
	}
	return nil
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
