package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-service/internal/domain"
	"storefront-service/pkg/xerrors"
)

// ChallengeStore persists one-time-passcode challenges for a tenant. The
// attempt counter is read-modify-written by the database itself, which is the
// serialization point for concurrent verification attempts on one contact.
type ChallengeStore interface {
	Create(ctx context.Context, ch *domain.OTPChallenge) error
	FindActive(ctx context.Context, contact, purpose string) (*domain.OTPChallenge, error)
	IncrementAttempts(ctx context.Context, id string) (int, error)
	MarkUsed(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DeleteForContact(ctx context.Context, contact, purpose string) error
}

type OTPRepository struct {
	db *pgxpool.Pool
}

func NewOTPRepository(db *pgxpool.Pool) *OTPRepository {
	return &OTPRepository{db: db}
}

func (r *OTPRepository) Create(ctx context.Context, ch *domain.OTPChallenge) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO otp_challenges (id, contact, purpose, code, attempts, is_used, expires_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, ch.ID, ch.Contact, ch.Purpose, ch.Code, ch.Attempts, ch.IsUsed, ch.ExpiresAt, ch.CreatedAt)
	return err
}

// FindActive returns the newest unused challenge for the contact+purpose pair.
// Expiry is checked by the caller so it can report a distinct error.
func (r *OTPRepository) FindActive(ctx context.Context, contact, purpose string) (*domain.OTPChallenge, error) {
	var ch domain.OTPChallenge
	err := r.db.QueryRow(ctx, `
		SELECT id, contact, purpose, code, attempts, is_used, expires_at, created_at
		FROM otp_challenges
		WHERE contact=$1 AND purpose=$2 AND is_used=FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`, contact, purpose).Scan(&ch.ID, &ch.Contact, &ch.Purpose, &ch.Code,
		&ch.Attempts, &ch.IsUsed, &ch.ExpiresAt, &ch.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrChallengeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *OTPRepository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	var attempts int
	err := r.db.QueryRow(ctx, `
		UPDATE otp_challenges SET attempts = attempts + 1
		WHERE id=$1
		RETURNING attempts
	`, id).Scan(&attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, xerrors.ErrChallengeNotFound
	}
	return attempts, err
}

func (r *OTPRepository) MarkUsed(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE otp_challenges SET is_used=TRUE WHERE id=$1`, id)
	return err
}

func (r *OTPRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM otp_challenges WHERE id=$1`, id)
	return err
}

// DeleteForContact supersedes outstanding codes when a new one is requested.
func (r *OTPRepository) DeleteForContact(ctx context.Context, contact, purpose string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM otp_challenges WHERE contact=$1 AND purpose=$2 AND is_used=FALSE`,
		contact, purpose)
	return err
}
