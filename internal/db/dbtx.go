package db

import (
	"context"
	"database/sql"
)

// DBTX is the common interface satisfied by both *sql.DB and *sql.Tx.
// Repository implementations depend on this interface instead of the
// concrete *sql.DB, enabling transactional composition.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Compile-time verification that *sql.DB and *sql.Tx satisfy DBTX.
var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
	_ DBTX = (*boundConn)(nil)
)

// Bind returns a DBTX that rewrites '?' placeholders for the dialect before
// delegating to conn. SQLite connections are returned unchanged.
func Bind(conn DBTX, dialect Dialect) DBTX {
	if dialect != DialectPostgres {
		return conn
	}
	return &boundConn{conn: conn, dialect: dialect}
}

type boundConn struct {
	conn    DBTX
	dialect Dialect
}

func (b *boundConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return b.conn.ExecContext(ctx, b.dialect.Rebind(query), args...)
}

func (b *boundConn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return b.conn.QueryContext(ctx, b.dialect.Rebind(query), args...)
}

func (b *boundConn) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return b.conn.QueryRowContext(ctx, b.dialect.Rebind(query), args...)
}
