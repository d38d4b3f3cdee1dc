package verify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/domain"
	"storefront-service/pkg/xerrors"
)

// memChallengeStore is the in-memory ChallengeStore used across this package's
// tests.
type memChallengeStore struct {
	challenges map[string]*domain.OTPChallenge
}

func newMemChallengeStore() *memChallengeStore {
	return &memChallengeStore{challenges: make(map[string]*domain.OTPChallenge)}
}

func (s *memChallengeStore) Create(_ context.Context, ch *domain.OTPChallenge) error {
	cp := *ch
	s.challenges[ch.ID] = &cp
	return nil
}

func (s *memChallengeStore) FindActive(_ context.Context, contact, purpose string) (*domain.OTPChallenge, error) {
	var newest *domain.OTPChallenge
	for _, ch := range s.challenges {
		if ch.Contact != contact || ch.Purpose != purpose || ch.IsUsed {
			continue
		}
		if newest == nil || ch.CreatedAt.After(newest.CreatedAt) {
			newest = ch
		}
	}
	if newest == nil {
		return nil, xerrors.ErrChallengeNotFound
	}
	cp := *newest
	return &cp, nil
}

func (s *memChallengeStore) IncrementAttempts(_ context.Context, id string) (int, error) {
	ch, ok := s.challenges[id]
	if !ok {
		return 0, xerrors.ErrChallengeNotFound
	}
	ch.Attempts++
	return ch.Attempts, nil
}

func (s *memChallengeStore) MarkUsed(_ context.Context, id string) error {
	if ch, ok := s.challenges[id]; ok {
		ch.IsUsed = true
	}
	return nil
}

func (s *memChallengeStore) Delete(_ context.Context, id string) error {
	delete(s.challenges, id)
	return nil
}

func (s *memChallengeStore) DeleteForContact(_ context.Context, contact, purpose string) error {
	for id, ch := range s.challenges {
		if ch.Contact == contact && ch.Purpose == purpose && !ch.IsUsed {
			delete(s.challenges, id)
		}
	}
	return nil
}

func seedChallenge(s *memChallengeStore, contact, purpose, code string, now time.Time) *domain.OTPChallenge {
	ch := &domain.OTPChallenge{
		ID:        "ch-" + contact + "-" + purpose,
		Contact:   contact,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: now.Add(5 * time.Minute),
		CreatedAt: now,
	}
	s.challenges[ch.ID] = ch
	return ch
}

func TestVerifyStoredChallengeSuccess(t *testing.T) {
	now := time.Now()
	store := newMemChallengeStore()
	seedChallenge(store, "+254700000001", domain.PurposeLogin, "123456", now)

	res, err := VerifyStoredChallenge(context.Background(), store, "+254700000001", "123456", domain.PurposeLogin, now)
	require.NoError(t, err)
	assert.Equal(t, "+254700000001", res.Phone)
	assert.Empty(t, res.Email)

	// The challenge is gone; the code cannot be replayed.
	_, err = VerifyStoredChallenge(context.Background(), store, "+254700000001", "123456", domain.PurposeLogin, now)
	assert.ErrorIs(t, err, xerrors.ErrChallengeNotFound)
}

func TestVerifyStoredChallengeEmailContact(t *testing.T) {
	now := time.Now()
	store := newMemChallengeStore()
	seedChallenge(store, "jane@example.com", domain.PurposePasswordReset, "654321", now)

	res, err := VerifyStoredChallenge(context.Background(), store, "jane@example.com", "654321", domain.PurposePasswordReset, now)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", res.Email)
	assert.Empty(t, res.Phone)
}

func TestVerifyStoredChallengePasswordResetKeptAsUsed(t *testing.T) {
	now := time.Now()
	store := newMemChallengeStore()
	ch := seedChallenge(store, "jane@example.com", domain.PurposePasswordReset, "654321", now)

	_, err := VerifyStoredChallenge(context.Background(), store, "jane@example.com", "654321", domain.PurposePasswordReset, now)
	require.NoError(t, err)

	kept, ok := store.challenges[ch.ID]
	require.True(t, ok, "reset challenge row stays behind")
	assert.True(t, kept.IsUsed)

	// But it cannot be consumed twice.
	_, err = VerifyStoredChallenge(context.Background(), store, "jane@example.com", "654321", domain.PurposePasswordReset, now)
	assert.ErrorIs(t, err, xerrors.ErrChallengeNotFound)
}

func TestVerifyStoredChallengeWrongCode(t *testing.T) {
	now := time.Now()
	store := newMemChallengeStore()
	ch := seedChallenge(store, "+254700000001", domain.PurposeLogin, "123456", now)

	_, err := VerifyStoredChallenge(context.Background(), store, "+254700000001", "000000", domain.PurposeLogin, now)
	assert.ErrorIs(t, err, xerrors.ErrVerificationFailed)
	assert.Equal(t, 1, store.challenges[ch.ID].Attempts)

	// The right code still works after one miss.
	_, err = VerifyStoredChallenge(context.Background(), store, "+254700000001", "123456", domain.PurposeLogin, now)
	assert.NoError(t, err)
}

func TestVerifyStoredChallengeThirdFailureExhausts(t *testing.T) {
	now := time.Now()
	store := newMemChallengeStore()
	ch := seedChallenge(store, "+254700000001", domain.PurposeLogin, "123456", now)

	for i := 0; i < 2; i++ {
		_, err := VerifyStoredChallenge(context.Background(), store, "+254700000001", "000000", domain.PurposeLogin, now)
		assert.ErrorIs(t, err, xerrors.ErrVerificationFailed)
	}

	_, err := VerifyStoredChallenge(context.Background(), store, "+254700000001", "000000", domain.PurposeLogin, now)
	assert.ErrorIs(t, err, xerrors.ErrAttemptsExhausted)

	// The challenge is destroyed; even the right code fails now.
	_, ok := store.challenges[ch.ID]
	assert.False(t, ok)
	_, err = VerifyStoredChallenge(context.Background(), store, "+254700000001", "123456", domain.PurposeLogin, now)
	assert.ErrorIs(t, err, xerrors.ErrChallengeNotFound)
}

func TestVerifyStoredChallengeExpired(t *testing.T) {
	now := time.Now()
	store := newMemChallengeStore()
	seedChallenge(store, "+254700000001", domain.PurposeLogin, "123456", now)

	_, err := VerifyStoredChallenge(context.Background(), store, "+254700000001", "123456", domain.PurposeLogin, now.Add(6*time.Minute))
	assert.ErrorIs(t, err, xerrors.ErrChallengeExpired)
}

func TestVerifyStoredChallengeNone(t *testing.T) {
	store := newMemChallengeStore()
	_, err := VerifyStoredChallenge(context.Background(), store, "+254700000001", "123456", domain.PurposeLogin, time.Now())
	assert.ErrorIs(t, err, xerrors.ErrChallengeNotFound)
}

func TestRandomCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := RandomCode(6)
		assert.Len(t, code, 6)
		assert.Regexp(t, `^[0-9]{6}$`, code)
	}
}
