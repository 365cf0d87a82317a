// Package redis persists recordfsm records as Redis hashes through
// go-redis/v9.
//
// The conditional update backing the optimistic concurrency guard runs as a
// Lua script: the expected-value comparison and the hash writes execute in
// one script invocation, which Redis runs atomically, so the lost-update
// window stays closed without locks.
//
// Column values are JSON-encoded into hash fields. Numeric values therefore
// round-trip as float64, the usual encoding/json behavior.
//
// # Usage
//
//	cfg, err := redis.LoadConfig()
//	client, err := redis.Connect(ctx, cfg)
//	store := redis.NewStore(client, redis.WithKeyPrefix("blog_post"))
//	repo := recordfsm.NewRepository(model, store)
package redis
