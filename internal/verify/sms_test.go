package verify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront-service/internal/domain"
	"storefront-service/pkg/xerrors"
)

type fakeSMSSender struct {
	sent []struct{ phone, message string }
	err  error
}

func (f *fakeSMSSender) Send(_ context.Context, phone, message string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, struct{ phone, message string }{phone, message})
	return "req-1", nil
}

func smsDeps(store *memChallengeStore) Deps {
	return Deps{
		Challenges: store,
		Settings:   &domain.StoreSettings{StoreID: "store-1", DisplayName: "Acme Shop"},
	}
}

func TestSMSProviderStart(t *testing.T) {
	store := newMemChallengeStore()
	sender := &fakeSMSSender{}
	p := NewSMSProvider(sender, 5*time.Minute, zap.NewNop())

	res, err := p.Start(context.Background(), smsDeps(store), "+254700000001", domain.PurposeLogin)
	require.NoError(t, err)
	assert.Equal(t, "sms", res.Provider)
	assert.Equal(t, 300, res.ExpiresIn)
	assert.Nil(t, res.Connection)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "+254700000001", sender.sent[0].phone)
	assert.Contains(t, sender.sent[0].message, "Acme Shop")

	ch, err := store.FindActive(context.Background(), "+254700000001", domain.PurposeLogin)
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9]{6}$`, ch.Code)
	assert.Contains(t, sender.sent[0].message, ch.Code)
}

func TestSMSProviderStartRejectsEmail(t *testing.T) {
	p := NewSMSProvider(&fakeSMSSender{}, 5*time.Minute, zap.NewNop())

	_, err := p.Start(context.Background(), smsDeps(newMemChallengeStore()), "jane@example.com", domain.PurposeLogin)
	assert.ErrorIs(t, err, xerrors.ErrInvalidRequest)
}

func TestSMSProviderStartSupersedesOutstandingCode(t *testing.T) {
	store := newMemChallengeStore()
	sender := &fakeSMSSender{}
	p := NewSMSProvider(sender, 5*time.Minute, zap.NewNop())

	_, err := p.Start(context.Background(), smsDeps(store), "+254700000001", domain.PurposeLogin)
	require.NoError(t, err)
	first, err := store.FindActive(context.Background(), "+254700000001", domain.PurposeLogin)
	require.NoError(t, err)

	_, err = p.Start(context.Background(), smsDeps(store), "+254700000001", domain.PurposeLogin)
	require.NoError(t, err)

	// Only the newest code survives.
	assert.Len(t, store.challenges, 1)
	_, ok := store.challenges[first.ID]
	assert.False(t, ok)
}

func TestSMSProviderStartSendFailureLeavesNoCode(t *testing.T) {
	store := newMemChallengeStore()
	p := NewSMSProvider(&fakeSMSSender{err: errors.New("vendor down")}, 5*time.Minute, zap.NewNop())

	_, err := p.Start(context.Background(), smsDeps(store), "+254700000001", domain.PurposeLogin)
	require.Error(t, err)
	assert.Empty(t, store.challenges)
}

func TestSMSProviderVerifyRoundTrip(t *testing.T) {
	store := newMemChallengeStore()
	sender := &fakeSMSSender{}
	p := NewSMSProvider(sender, 5*time.Minute, zap.NewNop())

	_, err := p.Start(context.Background(), smsDeps(store), "+254700000001", domain.PurposeLogin)
	require.NoError(t, err)
	ch, err := store.FindActive(context.Background(), "+254700000001", domain.PurposeLogin)
	require.NoError(t, err)

	res, err := p.Verify(context.Background(), smsDeps(store), "+254700000001", ch.Code, domain.PurposeLogin)
	require.NoError(t, err)
	assert.Equal(t, "+254700000001", res.Phone)
}

func TestLocalProviderVerify(t *testing.T) {
	p := NewLocalProvider(5*time.Minute, zap.NewNop())
	deps := smsDeps(newMemChallengeStore())

	res, err := p.Verify(context.Background(), deps, "+254700000001", "1234", "login")
	require.NoError(t, err)
	assert.Equal(t, "+254700000001", res.Phone)

	res, err = p.Verify(context.Background(), deps, "jane@example.com", "12345678", "login")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", res.Email)

	for _, bad := range []string{"", "123", "123456789", "12a456", "code"} {
		_, err := p.Verify(context.Background(), deps, "+254700000001", bad, "login")
		assert.ErrorIs(t, err, xerrors.ErrVerificationFailed, "code %q", bad)
	}
}

func TestLocalProviderStart(t *testing.T) {
	p := NewLocalProvider(5*time.Minute, zap.NewNop())

	res, err := p.Start(context.Background(), Deps{}, "+254700000001", "login")
	require.NoError(t, err)
	assert.Equal(t, "local", res.Provider)
	assert.Equal(t, 300, res.ExpiresIn)
}
