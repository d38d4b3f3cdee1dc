package verify

import (
	"context"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront-service/internal/config"
	"storefront-service/internal/domain"
	"storefront-service/pkg/xerrors"
)

func phoneAuthTestConfig() config.PhoneAuthConfig {
	return config.PhoneAuthConfig{
		AppID:      testAppID,
		IssuerURL:  testIssuer,
		JWKSURL:    "https://phone-auth.example.com/.well-known/jwks.json",
		AuthDomain: "auth.example.com",
		APIKey:     "public-api-key",
	}
}

func baseConfig() config.AppConfig {
	return config.AppConfig{OTPTTL: 5 * time.Minute}
}

func TestGatewayChainPicksSMS(t *testing.T) {
	cfg := baseConfig()
	cfg.SMS.AuthKey = "key"
	cfg.SMS.TemplateID = "tmpl"

	g, err := NewGateway(cfg, &fakeSMSSender{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "sms", g.ProviderName())
}

func TestGatewayChainFallsBackToLocal(t *testing.T) {
	g, err := NewGateway(baseConfig(), nil, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "local", g.ProviderName())
}

func TestGatewayChainPrefersPhoneTokenOverSMS(t *testing.T) {
	cfg := baseConfig()
	cfg.PhoneAuth = phoneAuthTestConfig()
	cfg.SMS.AuthKey = "key"
	cfg.SMS.TemplateID = "tmpl"

	g, err := NewGateway(cfg, &fakeSMSSender{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "phone_token", g.ProviderName())
}

func TestGatewayPhoneTokenWithoutSMSDisablesResets(t *testing.T) {
	cfg := baseConfig()
	cfg.PhoneAuth = phoneAuthTestConfig()

	g, err := NewGateway(cfg, nil, zap.NewNop())
	require.NoError(t, err)

	_, err = g.StartReset(context.Background(), smsDeps(newMemChallengeStore()), "+254700000001")
	assert.ErrorIs(t, err, xerrors.ErrConfiguration)

	_, err = g.VerifyReset(context.Background(), smsDeps(newMemChallengeStore()), "+254700000001", "123456")
	assert.ErrorIs(t, err, xerrors.ErrConfiguration)
}

func TestGatewayPhoneTokenResetsFallBackToSMS(t *testing.T) {
	cfg := baseConfig()
	cfg.PhoneAuth = phoneAuthTestConfig()
	cfg.SMS.AuthKey = "key"
	cfg.SMS.TemplateID = "tmpl"

	sender := &fakeSMSSender{}
	g, err := NewGateway(cfg, sender, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, "phone_token", g.ProviderName())

	store := newMemChallengeStore()
	res, err := g.StartReset(context.Background(), smsDeps(store), "+254700000001")
	require.NoError(t, err)
	assert.Equal(t, "sms", res.Provider)
	require.Len(t, sender.sent, 1)

	ch, err := store.FindActive(context.Background(), "+254700000001", domain.PurposePasswordReset)
	require.NoError(t, err)

	vr, err := g.VerifyReset(context.Background(), smsDeps(store), "+254700000001", ch.Code)
	require.NoError(t, err)
	assert.Equal(t, "+254700000001", vr.Phone)
}

func TestGatewayVerifyExternalTokenUnconfigured(t *testing.T) {
	g := NewGatewayWithProvider(NewLocalProvider(time.Minute, zap.NewNop()), nil, zap.NewNop())

	_, err := g.VerifyExternalToken(context.Background(), "whatever")
	assert.ErrorIs(t, err, xerrors.ErrConfiguration)
}

func TestGatewayVerifyExternalToken(t *testing.T) {
	s := newTokenSigner(t)
	g := NewGatewayWithProvider(NewPhoneTokenProvider(phoneAuthTestConfig()), s.verifier(), zap.NewNop())

	raw := s.sign(t, func(b *jwt.Builder) {
		b.Claim("phone_number", "+254700000001")
	})

	res, err := g.VerifyExternalToken(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "+254700000001", res.Phone)
}
