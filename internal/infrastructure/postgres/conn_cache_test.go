package postgres

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// fakePool builds a lazily-connecting pool that never touches a server.
func fakePool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	cfg, err := pgxpool.ParseConfig("postgres://localhost:5432/test")
	if err != nil {
		t.Fatalf("failed to parse test DSN: %v", err)
	}
	cfg.MinConns = 0
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to create test pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestConnCache_MissingDSN(t *testing.T) {
	cache := NewConnCache(DefaultClientConfig(""))

	_, err := cache.Connect(context.Background())
	if !errors.Is(err, ErrMissingDSN) {
		t.Errorf("Connect() error = %v, want %v", err, ErrMissingDSN)
	}
}

func TestConnCache_SingleAttemptUnderConcurrentDemand(t *testing.T) {
	const callers = 10

	var dialCount atomic.Int32
	release := make(chan struct{})
	pool := fakePool(t)

	cache := newConnCacheWithDial(DefaultClientConfig("postgres://localhost:5432/test"),
		func(ctx context.Context, cfg ClientConfig) (*pgxpool.Pool, error) {
			dialCount.Add(1)
			<-release // hold the attempt open until all callers have arrived
			return pool, nil
		})

	var wg sync.WaitGroup
	results := make([]*pgxpool.Pool, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Connect(context.Background())
		}(i)
	}

	close(release)
	wg.Wait()

	if got := dialCount.Load(); got != 1 {
		t.Errorf("dial count = %d, want exactly 1", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Errorf("caller %d: unexpected error: %v", i, errs[i])
		}
		if results[i] != pool {
			t.Errorf("caller %d: did not observe the shared pool", i)
		}
	}

	// Subsequent calls hit the memoized pool without dialing again.
	got, err := cache.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect() after establishment: %v", err)
	}
	if got != pool {
		t.Error("expected the already-open pool")
	}
	if dialCount.Load() != 1 {
		t.Errorf("dial count after reuse = %d, want 1", dialCount.Load())
	}
}

func TestConnCache_RetriesAfterFailure(t *testing.T) {
	pool := fakePool(t)
	var dialCount atomic.Int32

	cache := newConnCacheWithDial(DefaultClientConfig("postgres://localhost:5432/test"),
		func(ctx context.Context, cfg ClientConfig) (*pgxpool.Pool, error) {
			if dialCount.Add(1) == 1 {
				return nil, errors.New("connection refused")
			}
			return pool, nil
		})

	_, err := cache.Connect(context.Background())
	if !errors.Is(err, ErrConnect) {
		t.Fatalf("first Connect() error = %v, want %v", err, ErrConnect)
	}

	// The failed attempt was cleared, so a later call retries.
	got, err := cache.Connect(context.Background())
	if err != nil {
		t.Fatalf("second Connect() unexpected error: %v", err)
	}
	if got != pool {
		t.Error("expected the retried pool")
	}
	if dialCount.Load() != 2 {
		t.Errorf("dial count = %d, want 2", dialCount.Load())
	}
}
