package db

import "context"

type Row interface {
	Scan(dest ...any) error
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Client is the storage surface the repositories use. Exec reports the
// number of affected rows so callers can implement compare-and-set updates.
type Client interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	QueryRow(ctx context.Context, query string, args ...any) (Row, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}
