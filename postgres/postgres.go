// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package postgres binds jackc/pgx resources to a [closer.Closer].
//
// pgx close signatures vary between resource types: pools and row sets
// close without an error while connections close with a context. The
// helpers in this package adapt each of them so every acquired database
// resource flows through the same teardown path as everything else in
// the unit of work.
package postgres

import (
	"context"

	"github.com/z5labs/closer"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool registers the given pool to be closed when guard is closed and
// returns it unchanged. A nil pool is a no-op.
func Pool(guard *closer.Closer, pool *pgxpool.Pool) *pgxpool.Pool {
	if pool == nil {
		return nil
	}

	closer.Register(guard, closer.VoidFunc(pool.Close))
	return pool
}

// Conn registers the given connection to be closed when guard is
// closed and returns it unchanged. The given context is used for the
// close itself so it should outlive the unit of work. A nil connection
// is a no-op.
func Conn(ctx context.Context, guard *closer.Closer, conn *pgx.Conn) *pgx.Conn {
	if conn == nil {
		return nil
	}

	closer.Register(guard, closer.CloseFunc(func() error {
		return conn.Close(ctx)
	}))
	return conn
}

// Rows registers the given row set to be closed when guard is closed
// and returns it unchanged. Closing an already drained row set is a
// no-op in pgx so it is always safe to register rows even when they
// are fully consumed before the guard closes.
func Rows(guard *closer.Closer, rows pgx.Rows) pgx.Rows {
	if rows == nil {
		return nil
	}

	closer.Register(guard, closer.VoidFunc(rows.Close))
	return rows
}

// Connect opens a connection pool for the given connection string and
// registers it with guard.
func Connect(ctx context.Context, guard *closer.Closer, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return Pool(guard, pool), nil
}
