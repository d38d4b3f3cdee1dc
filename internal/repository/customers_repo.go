package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-service/internal/domain"
	"storefront-service/pkg/xerrors"
)

// CustomerStore is the tenant-scoped customer persistence contract. The
// Postgres implementation below is what handlers construct per request from
// the tenant pool; tests fake it in memory.
type CustomerStore interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	Create(ctx context.Context, c *domain.Customer) error
	AttachEmail(ctx context.Context, id, email string) error
	AttachPhone(ctx context.Context, id, phone string) error
	TouchLastLogin(ctx context.Context, id string) error
	RecordFailedLogin(ctx context.Context, id string) (int, error)
	ResetLoginAttempts(ctx context.Context, id string) error
	Lock(ctx context.Context, id string, until time.Time) error
	SetPassword(ctx context.Context, id, hash string, changedAt time.Time) error
}

const customerColumns = `
	id, name, email, phone, password_hash, email_verified, phone_verified,
	login_attempts, locked_until, password_changed_at, last_login_at,
	marketing_opt_in, order_count, total_spent, created_at, updated_at`

type CustomersRepository struct {
	db *pgxpool.Pool
}

func NewCustomersRepository(db *pgxpool.Pool) *CustomersRepository {
	return &CustomersRepository{db: db}
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.PasswordHash,
		&c.EmailVerified, &c.PhoneVerified,
		&c.LoginAttempts, &c.LockedUntil, &c.PasswordChangedAt, &c.LastLoginAt,
		&c.MarketingOptIn, &c.OrderCount, &c.TotalSpent,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomersRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	return scanCustomer(r.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id=$1`, id))
}

func (r *CustomersRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return scanCustomer(r.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE email=$1`, email))
}

func (r *CustomersRepository) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	return scanCustomer(r.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE phone=$1`, phone))
}

func (r *CustomersRepository) Create(ctx context.Context, c *domain.Customer) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO customers (
			id, name, email, phone, password_hash, email_verified, phone_verified,
			login_attempts, marketing_opt_in, order_count, total_spent,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,0,$8,0,0,$9,$9)
	`, c.ID, c.Name, c.Email, c.Phone, c.PasswordHash,
		c.EmailVerified, c.PhoneVerified, c.MarketingOptIn, c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "customers_email_key":
				return xerrors.ErrEmailAlreadyInUse
			case "customers_phone_key":
				return xerrors.ErrPhoneAlreadyInUse
			}
		}
		return err
	}
	return nil
}

func (r *CustomersRepository) AttachEmail(ctx context.Context, id, email string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE customers SET email=$2, email_verified=TRUE, updated_at=NOW()
		WHERE id=$1
	`, id, email)
	return err
}

func (r *CustomersRepository) AttachPhone(ctx context.Context, id, phone string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE customers SET phone=$2, phone_verified=TRUE, updated_at=NOW()
		WHERE id=$1
	`, id, phone)
	return err
}

func (r *CustomersRepository) TouchLastLogin(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE customers SET last_login_at=NOW(), updated_at=NOW() WHERE id=$1`, id)
	return err
}

// RecordFailedLogin bumps the counter atomically and returns the new value so
// the caller can decide whether to lock.
func (r *CustomersRepository) RecordFailedLogin(ctx context.Context, id string) (int, error) {
	var attempts int
	err := r.db.QueryRow(ctx, `
		UPDATE customers SET login_attempts = login_attempts + 1, updated_at=NOW()
		WHERE id=$1
		RETURNING login_attempts
	`, id).Scan(&attempts)
	return attempts, err
}

func (r *CustomersRepository) ResetLoginAttempts(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE customers SET login_attempts=0, locked_until=NULL, updated_at=NOW()
		WHERE id=$1
	`, id)
	return err
}

func (r *CustomersRepository) Lock(ctx context.Context, id string, until time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE customers SET locked_until=$2, updated_at=NOW() WHERE id=$1`, id, until)
	return err
}

func (r *CustomersRepository) SetPassword(ctx context.Context, id, hash string, changedAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE customers
		SET password_hash=$2, password_changed_at=$3,
		    login_attempts=0, locked_until=NULL, updated_at=NOW()
		WHERE id=$1
	`, id, hash, changedAt)
	return err
}
