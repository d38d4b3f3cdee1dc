package tenant

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"storefront-service/pkg/xerrors"
)

// TenantPlaceholder is substituted with the tenant id in the DSN template.
const TenantPlaceholder = "{tenant}"

// OpenFunc opens and health-checks a pool for one tenant DSN.
type OpenFunc func(ctx context.Context, dsn string) (*pgxpool.Pool, error)

// Registry hands out one pool per tenant id. Creation is single-flight per
// key: concurrent first callers share one attempt and never open a duplicate.
// A failed attempt is not cached, so the next caller retries. Cached pools
// live until Close.
type Registry struct {
	template string
	open     OpenFunc
	logger   *zap.Logger

	mu    sync.RWMutex
	pools map[string]*pgxpool.Pool
	group singleflight.Group
}

type RegistryOption func(*Registry)

// WithOpenFunc overrides pool creation; tests use it to count and fake opens.
func WithOpenFunc(open OpenFunc) RegistryOption {
	return func(r *Registry) { r.open = open }
}

func NewRegistry(template string, logger *zap.Logger, opts ...RegistryOption) *Registry {
	r := &Registry{
		template: template,
		open:     openPool,
		logger:   logger,
		pools:    make(map[string]*pgxpool.Pool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func openPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Get returns the pool for tenantID, opening it on first use.
func (r *Registry) Get(ctx context.Context, tenantID string) (*pgxpool.Pool, error) {
	r.mu.RLock()
	pool, ok := r.pools[tenantID]
	r.mu.RUnlock()
	if ok {
		return pool, nil
	}

	v, err, _ := r.group.Do(tenantID, func() (interface{}, error) {
		// A previous flight may have finished between the fast path and here.
		r.mu.RLock()
		pool, ok := r.pools[tenantID]
		r.mu.RUnlock()
		if ok {
			return pool, nil
		}

		dsn := strings.ReplaceAll(r.template, TenantPlaceholder, tenantID)
		pool, err := r.open(ctx, dsn)
		if err != nil {
			r.logger.Error("tenant pool open failed",
				zap.String("tenant_id", tenantID),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%w: tenant %s", xerrors.ErrConnectivity, tenantID)
		}

		r.mu.Lock()
		r.pools[tenantID] = pool
		r.mu.Unlock()

		r.logger.Info("tenant pool opened", zap.String("tenant_id", tenantID))
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pgxpool.Pool), nil
}

// Len reports how many tenant pools are currently open.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pools)
}

// Close shuts every pool down. Only meant for process shutdown; there is no
// per-tenant eviction.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, pool := range r.pools {
		pool.Close()
		delete(r.pools, id)
	}
}
