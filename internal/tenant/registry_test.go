package tenant

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront-service/pkg/xerrors"
)

// lazyPool builds a real pool object without connecting; pgxpool dials only
// on first acquire.
func lazyPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pool, err := pgxpool.New(context.Background(), "postgres://u:p@127.0.0.1:5432/unused")
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestRegistryGetCachesPool(t *testing.T) {
	var opens atomic.Int32
	pool := lazyPool(t)

	r := NewRegistry("postgres://u:p@127.0.0.1:5432/db_{tenant}", zap.NewNop(),
		WithOpenFunc(func(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
			opens.Add(1)
			assert.Equal(t, "postgres://u:p@127.0.0.1:5432/db_t1", dsn)
			return pool, nil
		}))

	first, err := r.Get(context.Background(), "t1")
	require.NoError(t, err)
	second, err := r.Get(context.Background(), "t1")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), opens.Load())
	assert.Equal(t, 1, r.Len())
}

func TestRegistryGetSingleFlight(t *testing.T) {
	var opens atomic.Int32
	pool := lazyPool(t)
	release := make(chan struct{})

	r := NewRegistry("postgres://u:p@127.0.0.1:5432/db_{tenant}", zap.NewNop(),
		WithOpenFunc(func(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
			opens.Add(1)
			<-release
			return pool, nil
		}))

	const callers = 16
	var wg sync.WaitGroup
	results := make([]*pgxpool.Pool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := r.Get(context.Background(), "t1")
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), opens.Load(), "concurrent first callers must share one open")
	for _, p := range results {
		assert.Same(t, pool, p)
	}
}

func TestRegistryGetFailureNotCached(t *testing.T) {
	var opens atomic.Int32
	pool := lazyPool(t)

	r := NewRegistry("postgres://u:p@127.0.0.1:5432/db_{tenant}", zap.NewNop(),
		WithOpenFunc(func(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
			if opens.Add(1) == 1 {
				return nil, errors.New("connection refused")
			}
			return pool, nil
		}))

	_, err := r.Get(context.Background(), "t1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, xerrors.ErrConnectivity))
	assert.Equal(t, 0, r.Len())

	// The next caller retries and succeeds.
	p, err := r.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Same(t, pool, p)
	assert.Equal(t, int32(2), opens.Load())
}

func TestRegistryPoolsAreIndependentPerTenant(t *testing.T) {
	p1 := lazyPool(t)
	p2 := lazyPool(t)

	r := NewRegistry("postgres://u:p@127.0.0.1:5432/db_{tenant}", zap.NewNop(),
		WithOpenFunc(func(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
			if dsn == "postgres://u:p@127.0.0.1:5432/db_a" {
				return p1, nil
			}
			return p2, nil
		}))

	got1, err := r.Get(context.Background(), "a")
	require.NoError(t, err)
	got2, err := r.Get(context.Background(), "b")
	require.NoError(t, err)

	assert.Same(t, p1, got1)
	assert.Same(t, p2, got2)
	assert.NotSame(t, got1, got2)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryClose(t *testing.T) {
	pool := lazyPool(t)
	r := NewRegistry("dsn_{tenant}", zap.NewNop(),
		WithOpenFunc(func(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
			return pool, nil
		}))

	_, err := r.Get(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, 1, r.Len())

	r.Close()
	assert.Equal(t, 0, r.Len())
}
