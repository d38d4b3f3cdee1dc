package tenant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront-service/internal/domain"
	"storefront-service/pkg/xerrors"
)

type fakeDirectory struct {
	stores map[string]*domain.Store
	err    error
}

func (f *fakeDirectory) GetBySubdomain(_ context.Context, subdomain string) (*domain.Store, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.stores[subdomain]
	if !ok {
		return nil, xerrors.ErrTenantNotFound
	}
	return s, nil
}

type fakePoolSource struct {
	pool *pgxpool.Pool
	err  error
}

func (f *fakePoolSource) Get(context.Context, string) (*pgxpool.Pool, error) {
	return f.pool, f.err
}

type fakeSettingsSource struct {
	settings *domain.StoreSettings
	err      error
}

func (f *fakeSettingsSource) Get(context.Context, *pgxpool.Pool, string) (*domain.StoreSettings, error) {
	return f.settings, f.err
}

func activeStore() *domain.Store {
	return &domain.Store{
		ID:        "store-1",
		Subdomain: "acme",
		Name:      "Acme",
		Status:    domain.StoreStatusActive,
		CreatedAt: time.Now(),
	}
}

func TestLoaderLoad(t *testing.T) {
	store := activeStore()
	pool := lazyPool(t)
	settings := &domain.StoreSettings{StoreID: "store-1", DisplayName: "Acme Shop"}

	l := NewLoader(
		&fakeDirectory{stores: map[string]*domain.Store{"acme": store}},
		&fakePoolSource{pool: pool},
		&fakeSettingsSource{settings: settings},
		zap.NewNop(),
	)

	rc, err := l.Load(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "store-1", rc.TenantID)
	assert.Equal(t, "acme", rc.Subdomain)
	assert.Same(t, pool, rc.Pool)
	assert.Same(t, store, rc.Store)
	assert.Same(t, settings, rc.Settings)
}

func TestLoaderLoadUnknownSubdomain(t *testing.T) {
	l := NewLoader(
		&fakeDirectory{stores: map[string]*domain.Store{}},
		&fakePoolSource{},
		&fakeSettingsSource{},
		zap.NewNop(),
	)

	_, err := l.Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, xerrors.ErrTenantNotFound)
}

func TestLoaderLoadSuspendedStore(t *testing.T) {
	store := activeStore()
	store.Status = domain.StoreStatusSuspended

	l := NewLoader(
		&fakeDirectory{stores: map[string]*domain.Store{"acme": store}},
		&fakePoolSource{},
		&fakeSettingsSource{},
		zap.NewNop(),
	)

	_, err := l.Load(context.Background(), "acme")
	assert.ErrorIs(t, err, xerrors.ErrStoreSuspended)
}

func TestLoaderLoadDeletedStoreLooksAbsent(t *testing.T) {
	store := activeStore()
	store.Status = domain.StoreStatusDeleted

	l := NewLoader(
		&fakeDirectory{stores: map[string]*domain.Store{"acme": store}},
		&fakePoolSource{},
		&fakeSettingsSource{},
		zap.NewNop(),
	)

	_, err := l.Load(context.Background(), "acme")
	assert.ErrorIs(t, err, xerrors.ErrTenantNotFound)
}

func TestLoaderLoadDirectoryFailure(t *testing.T) {
	l := NewLoader(
		&fakeDirectory{err: errors.New("connection reset")},
		&fakePoolSource{},
		&fakeSettingsSource{},
		zap.NewNop(),
	)

	_, err := l.Load(context.Background(), "acme")
	assert.ErrorIs(t, err, xerrors.ErrConnectivity)
}

func TestLoaderLoadPoolFailurePassesThrough(t *testing.T) {
	want := xerrors.ErrConnectivity
	l := NewLoader(
		&fakeDirectory{stores: map[string]*domain.Store{"acme": activeStore()}},
		&fakePoolSource{err: want},
		&fakeSettingsSource{},
		zap.NewNop(),
	)

	_, err := l.Load(context.Background(), "acme")
	assert.ErrorIs(t, err, want)
}

func TestLoaderLoadMissingSettings(t *testing.T) {
	l := NewLoader(
		&fakeDirectory{stores: map[string]*domain.Store{"acme": activeStore()}},
		&fakePoolSource{pool: lazyPool(t)},
		&fakeSettingsSource{err: xerrors.ErrNotFound},
		zap.NewNop(),
	)

	_, err := l.Load(context.Background(), "acme")
	assert.ErrorIs(t, err, xerrors.ErrTenantNotFound)
}
