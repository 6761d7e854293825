// Package store defines the persistence ports of the application: the task
// and image registries, their shared error taxonomy, and the query interface
// their implementations are built on.
package store

import (
	"context"
	"database/sql"
)

// DBTX is the subset of *sql.DB the store implementations query through.
// Keeping the stores behind this interface keeps them independent of how the
// connection is owned and wired.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
