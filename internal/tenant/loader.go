package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront-service/internal/domain"
	"storefront-service/pkg/xerrors"
)

// RequestContext carries everything downstream handlers need for one request:
// the resolved tenant, its pool and the settings snapshot. It lives for the
// duration of a single request and is attached exactly once.
type RequestContext struct {
	TenantID  string
	Subdomain string
	Pool      *pgxpool.Pool
	Store     *domain.Store
	Settings  *domain.StoreSettings
}

// Directory resolves a public subdomain label to the store record in the main
// directory database.
type Directory interface {
	GetBySubdomain(ctx context.Context, subdomain string) (*domain.Store, error)
}

// PoolSource hands out per-tenant pools; satisfied by *Registry.
type PoolSource interface {
	Get(ctx context.Context, tenantID string) (*pgxpool.Pool, error)
}

// SettingsSource reads the settings row from a tenant database.
type SettingsSource interface {
	Get(ctx context.Context, pool *pgxpool.Pool, storeID string) (*domain.StoreSettings, error)
}

type Loader struct {
	directory Directory
	pools     PoolSource
	settings  SettingsSource
	logger    *zap.Logger
}

func NewLoader(directory Directory, pools PoolSource, settings SettingsSource, logger *zap.Logger) *Loader {
	return &Loader{
		directory: directory,
		pools:     pools,
		settings:  settings,
		logger:    logger,
	}
}

// Load resolves a subdomain into a ready RequestContext. The subdomain label
// and the internal tenant id may differ; the directory record is canonical.
func (l *Loader) Load(ctx context.Context, subdomain string) (*RequestContext, error) {
	store, err := l.directory.GetBySubdomain(ctx, subdomain)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) || errors.Is(err, xerrors.ErrTenantNotFound) {
			return nil, xerrors.ErrTenantNotFound
		}
		return nil, fmt.Errorf("%w: store directory lookup", xerrors.ErrConnectivity)
	}
	switch store.Status {
	case domain.StoreStatusActive:
	case domain.StoreStatusSuspended:
		return nil, xerrors.ErrStoreSuspended
	default:
		return nil, xerrors.ErrTenantNotFound
	}

	pool, err := l.pools.Get(ctx, store.ID)
	if err != nil {
		return nil, err
	}

	settings, err := l.settings.Get(ctx, pool, store.ID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			l.logger.Warn("store has no settings row",
				zap.String("tenant_id", store.ID),
				zap.String("subdomain", subdomain),
			)
			return nil, xerrors.ErrTenantNotFound
		}
		return nil, fmt.Errorf("%w: load store settings", xerrors.ErrConnectivity)
	}

	return &RequestContext{
		TenantID:  store.ID,
		Subdomain: subdomain,
		Pool:      pool,
		Store:     store,
		Settings:  settings,
	}, nil
}
