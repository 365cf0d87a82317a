package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/recordfsm"
)

// insertScript creates the record hash only if the key is free.
var insertScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
for i = 1, #ARGV, 2 do
  redis.call("HSET", KEYS[1], ARGV[i], ARGV[i + 1])
end
return 1
`)

// casScript is the conditional update: ARGV[1] is the number of expected
// field/value pairs that follow; the remaining pairs are the update. The
// whole script executes atomically, so the compare and the writes cannot
// interleave with another writer.
var casScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
local ncond = tonumber(ARGV[1])
local i = 2
for n = 1, ncond do
  if redis.call("HGET", KEYS[1], ARGV[i]) ~= ARGV[i + 1] then
    return 0
  end
  i = i + 2
end
while i < #ARGV do
  redis.call("HSET", KEYS[1], ARGV[i], ARGV[i + 1])
  i = i + 2
end
return 1
`)

// Store persists records as hashes under "<prefix>:<key>".
type Store struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

var _ recordfsm.Store = (*Store)(nil)

// Option configures a store.
type Option func(*Store)

// WithKeyPrefix overrides the hash key prefix, typically the model name.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithLogger sets the logger for command traces.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a store over an existing client.
func NewStore(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: "recordfsm",
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Insert(ctx context.Context, key string, values map[string]any) error {
	args, err := encodePairs(values)
	if err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "insert", "prefix", s.prefix, "key", key)

	created, err := insertScript.Run(ctx, s.client, []string{s.hashKey(key)}, args...).Int()
	if err != nil {
		return fmt.Errorf("redis insert: %w", err)
	}
	if created == 0 {
		return fmt.Errorf("%w: %q", recordfsm.ErrDuplicateKey, key)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, key string) (map[string]any, error) {
	fields, err := s.client.HGetAll(ctx, s.hashKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %q", recordfsm.ErrNotFound, key)
	}

	values := make(map[string]any, len(fields))
	for field, raw := range fields {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("redis load: decode field %q: %w", field, err)
		}
		values[field] = v
	}
	return values, nil
}

func (s *Store) ConditionalUpdate(ctx context.Context, key string, expected, update map[string]any) (int64, error) {
	expectedPairs, err := encodePairs(expected)
	if err != nil {
		return 0, err
	}
	updatePairs, err := encodePairs(update)
	if err != nil {
		return 0, err
	}

	args := make([]any, 0, 1+len(expectedPairs)+len(updatePairs))
	args = append(args, len(expected))
	args = append(args, expectedPairs...)
	args = append(args, updatePairs...)
	s.logger.DebugContext(ctx, "conditional update", "prefix", s.prefix, "key", key)

	written, err := casScript.Run(ctx, s.client, []string{s.hashKey(key)}, args...).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis conditional update: %w", err)
	}
	return written, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	removed, err := s.client.Del(ctx, s.hashKey(key)).Result()
	if err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("%w: %q", recordfsm.ErrNotFound, key)
	}
	return nil
}

func (s *Store) hashKey(key string) string {
	return s.prefix + ":" + key
}

// encodePairs flattens a value map into alternating field/JSON-value
// arguments in deterministic column order.
func encodePairs(values map[string]any) ([]any, error) {
	columns := make([]string, 0, len(values))
	for column := range values {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	pairs := make([]any, 0, len(values)*2)
	for _, column := range columns {
		raw, err := json.Marshal(values[column])
		if err != nil {
			return nil, fmt.Errorf("redis encode field %q: %w", column, err)
		}
		pairs = append(pairs, column, string(raw))
	}
	return pairs, nil
}
