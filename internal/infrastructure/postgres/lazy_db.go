package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// LazyDB is a DBTX that resolves the shared pool through the connection
// cache on every call. The first query triggers the dial, so an empty DSN
// surfaces as ErrMissingDSN at use time rather than at startup.
type LazyDB struct {
	cache *ConnCache
}

// NewLazyDB creates a LazyDB backed by the given connection cache.
func NewLazyDB(cache *ConnCache) *LazyDB {
	return &LazyDB{cache: cache}
}

var _ DBTX = (*LazyDB)(nil)

func (l *LazyDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	pool, err := l.cache.Connect(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return pool.Exec(ctx, sql, arguments...)
}

func (l *LazyDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	pool, err := l.cache.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return pool.Query(ctx, sql, args...)
}

func (l *LazyDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	pool, err := l.cache.Connect(ctx)
	if err != nil {
		return errRow{err: err}
	}
	return pool.QueryRow(ctx, sql, args...)
}

// errRow carries a connection failure into the caller's Scan.
type errRow struct {
	err error
}

func (r errRow) Scan(dest ...any) error { return r.err }
