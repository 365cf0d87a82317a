// Package postgres persists recordfsm records in a single PostgreSQL table
// through pgx/v5.
//
// The conditional update backing the optimistic concurrency guard is one
// UPDATE statement whose WHERE clause matches the key plus every expected
// state column, so the compare and the write happen atomically inside the
// database.
//
// The package does no schema management; the target table with its key and
// value columns must already exist (migrations are a deliberate non-goal).
//
// # Usage
//
//	cfg, err := postgres.LoadConfig()
//	pool, err := postgres.Connect(ctx, cfg)
//	store, err := postgres.New(pool, "blog_posts")
//	repo := recordfsm.NewRepository(model, store)
//
// Configuration is described by the Config struct whose fields are populated
// from environment variables via github.com/caarlos0/env.
package postgres
