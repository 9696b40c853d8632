package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/idia-astro/ilifudb/internal/db"
)

// FailOnNthExecUoW is a test UoW that injects an error on the Nth write
// within a transaction. Inserts that return ids go through QueryRowContext,
// so both ExecContext and INSERT ... RETURNING statements are counted,
// starting at 1. Plain reads pass through normally.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int32
	Err    error
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	wrapped := &failOnNthExec{DBTX: tx, failOn: u.FailOn, err: u.Err}
	if fnErr := fn(ctx, wrapped); fnErr != nil {
		_ = tx.Rollback()
		return fnErr
	}
	return tx.Commit()
}

type failOnNthExec struct {
	db.DBTX
	count  atomic.Int32
	failOn int32
	err    error
}

func (f *failOnNthExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.tick() {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}

func (f *failOnNthExec) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	if isInsert(query) && f.tick() {
		// A cancelled context makes the returned *sql.Row carry an error.
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		return f.DBTX.QueryRowContext(cancelled, query, args...)
	}
	return f.DBTX.QueryRowContext(ctx, query, args...)
}

func (f *failOnNthExec) tick() bool {
	return f.count.Add(1) == f.failOn
}

func isInsert(query string) bool {
	for i := 0; i < len(query); i++ {
		switch query[i] {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return len(query)-i >= 6 && (query[i:i+6] == "INSERT" || query[i:i+6] == "insert")
	}
	return false
}
