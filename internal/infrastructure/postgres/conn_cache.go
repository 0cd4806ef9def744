package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"

	"github.com/reelvault/reelvault/internal/infrastructure/metrics"
)

var (
	// ErrMissingDSN is returned when no connection string is configured.
	// This is a configuration error and is never retried automatically.
	ErrMissingDSN = errors.New("database connection string is not configured")

	// ErrConnect wraps failures to establish the connection.
	ErrConnect = errors.New("failed to connect to database")
)

// ClientConfig holds configuration for the PostgreSQL connection.
type ClientConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultClientConfig returns a ClientConfig with sensible defaults.
func DefaultClientConfig(dsn string) ClientConfig {
	return ClientConfig{
		DSN:             dsn,
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// dialFunc establishes a connection pool. Injectable for tests.
type dialFunc func(ctx context.Context, cfg ClientConfig) (*pgxpool.Pool, error)

// ConnCache lazily establishes and memoizes one connection pool for the
// lifetime of the process. Concurrent first demands share a single dial
// attempt; a failed attempt is forgotten so a later call can retry.
type ConnCache struct {
	cfg  ClientConfig
	dial dialFunc

	mu   sync.RWMutex
	pool *pgxpool.Pool

	group singleflight.Group
}

// NewConnCache creates a ConnCache. No connection is attempted until the
// first Connect call.
func NewConnCache(cfg ClientConfig) *ConnCache {
	return &ConnCache{cfg: cfg, dial: dialPool}
}

// newConnCacheWithDial is used for dependency injection in tests.
func newConnCacheWithDial(cfg ClientConfig, dial dialFunc) *ConnCache {
	return &ConnCache{cfg: cfg, dial: dial}
}

// Connect returns the shared connection pool, establishing it on first
// demand. While an attempt is outstanding, concurrent callers await the
// same attempt instead of opening a second connection.
func (c *ConnCache) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	c.mu.RLock()
	pool := c.pool
	c.mu.RUnlock()
	if pool != nil {
		return pool, nil
	}

	if c.cfg.DSN == "" {
		return nil, ErrMissingDSN
	}

	result, err, shared := c.group.Do("connect", func() (any, error) {
		metrics.ConnCacheAttemptsTotal.WithLabelValues(metrics.ConnCacheInitiated).Inc()

		pool, err := c.dial(ctx, c.cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnect, err)
		}

		c.mu.Lock()
		c.pool = pool
		c.mu.Unlock()
		return pool, nil
	})
	if shared {
		metrics.ConnCacheAttemptsTotal.WithLabelValues(metrics.ConnCacheShared).Inc()
	}
	if err != nil {
		// Forget the failed attempt so the next demand retries.
		c.group.Forget("connect")
		return nil, err
	}

	return result.(*pgxpool.Pool), nil
}

// Close tears down the cached pool. Intended only for process shutdown.
func (c *ConnCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
}

// dialPool opens and pings a pgx connection pool.
func dialPool(ctx context.Context, cfg ClientConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
