package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-service/internal/domain"
	"storefront-service/pkg/xerrors"
)

// StoresRepository reads the store directory in the main database. One static
// schema; this repository never touches tenant databases.
type StoresRepository struct {
	db *pgxpool.Pool
}

func NewStoresRepository(db *pgxpool.Pool) *StoresRepository {
	return &StoresRepository{db: db}
}

func (r *StoresRepository) GetBySubdomain(ctx context.Context, subdomain string) (*domain.Store, error) {
	var s domain.Store
	err := r.db.QueryRow(ctx, `
		SELECT id, subdomain, name, status, created_at
		FROM stores
		WHERE subdomain=$1
	`, subdomain).Scan(&s.ID, &s.Subdomain, &s.Name, &s.Status, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StoresRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	var s domain.Store
	err := r.db.QueryRow(ctx, `
		SELECT id, subdomain, name, status, created_at
		FROM stores
		WHERE id=$1
	`, id).Scan(&s.ID, &s.Subdomain, &s.Name, &s.Status, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SettingsRepository loads the single settings row from a tenant database.
// The pool is injected per call because every tenant shares the one schema.
type SettingsRepository struct{}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

func (r *SettingsRepository) Get(ctx context.Context, pool *pgxpool.Pool, storeID string) (*domain.StoreSettings, error) {
	var s domain.StoreSettings
	var updatedAt time.Time
	err := pool.QueryRow(ctx, `
		SELECT store_id, display_name, support_email, support_phone, currency,
		       COALESCE(otp_template_id, ''), updated_at
		FROM store_settings
		WHERE store_id=$1
	`, storeID).Scan(&s.StoreID, &s.DisplayName, &s.SupportEmail, &s.SupportPhone,
		&s.Currency, &s.OTPTemplateID, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.UpdatedAt = updatedAt
	return &s, nil
}
