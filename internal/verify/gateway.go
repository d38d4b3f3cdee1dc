package verify

import (
	"context"

	"go.uber.org/zap"

	"storefront-service/internal/config"
	"storefront-service/internal/domain"
	"storefront-service/pkg/sms"
	"storefront-service/pkg/xerrors"
)

// Gateway fronts the verification provider chain. The provider is picked once
// here, by priority and configuration presence: phone-token flow, then SMS
// OTP, then the local development fallback.
//
// Password resets always need a code the customer can type back, so they run
// on a separate code-based provider. The phone-token flow cannot serve them:
// its Start hands out client connection parameters and no endpoint accepts a
// vendor token for a reset.
type Gateway struct {
	provider Provider
	reset    Provider            // code-based provider for password resets; nil when none is configured
	tokens   *PhoneTokenVerifier // nil unless the phone-token flow is configured
	logger   *zap.Logger
}

func NewGateway(cfg config.AppConfig, sender sms.Sender, logger *zap.Logger) (*Gateway, error) {
	g := &Gateway{logger: logger}

	switch {
	case cfg.PhoneAuthEnabled():
		verifier, err := NewPhoneTokenVerifier(cfg.PhoneAuth, logger)
		if err != nil {
			return nil, err
		}
		g.tokens = verifier
		g.provider = NewPhoneTokenProvider(cfg.PhoneAuth)
		if cfg.SMSEnabled() {
			g.reset = NewSMSProvider(sender, cfg.OTPTTL, logger)
		} else {
			logger.Warn("phone-token flow has no SMS fallback; phone password resets disabled")
		}
	case cfg.SMSEnabled():
		g.provider = NewSMSProvider(sender, cfg.OTPTTL, logger)
		g.reset = g.provider
	default:
		logger.Warn("no verification provider configured; using local fallback")
		g.provider = NewLocalProvider(cfg.OTPTTL, logger)
		g.reset = g.provider
	}

	logger.Info("verification provider selected", zap.String("provider", g.provider.Name()))
	return g, nil
}

// NewGatewayWithProvider wires an explicit provider; used by tests and by
// flows that bypass the chain.
func NewGatewayWithProvider(p Provider, tokens *PhoneTokenVerifier, logger *zap.Logger) *Gateway {
	return &Gateway{provider: p, reset: p, tokens: tokens, logger: logger}
}

func (g *Gateway) ProviderName() string { return g.provider.Name() }

func (g *Gateway) Start(ctx context.Context, deps Deps, contact, purpose string) (*StartResult, error) {
	return g.provider.Start(ctx, deps, contact, purpose)
}

func (g *Gateway) Verify(ctx context.Context, deps Deps, contact, code, purpose string) (*Result, error) {
	return g.provider.Verify(ctx, deps, contact, code, purpose)
}

// StartReset issues a password-reset code through the code-based provider,
// independent of which provider handles logins. Fails fast when no code-based
// provider is configured rather than pretending a code was sent.
func (g *Gateway) StartReset(ctx context.Context, deps Deps, contact string) (*StartResult, error) {
	if g.reset == nil {
		return nil, xerrors.ErrConfiguration
	}
	return g.reset.Start(ctx, deps, contact, domain.PurposePasswordReset)
}

// VerifyReset checks a password-reset code against the stored challenge.
func (g *Gateway) VerifyReset(ctx context.Context, deps Deps, contact, code string) (*Result, error) {
	if g.reset == nil {
		return nil, xerrors.ErrConfiguration
	}
	return g.reset.Verify(ctx, deps, contact, code, domain.PurposePasswordReset)
}

// VerifyExternalToken handles the opaque vendor token submitted after a
// client-side phone flow. Fails fast when that flow is not configured.
func (g *Gateway) VerifyExternalToken(ctx context.Context, raw string) (*Result, error) {
	if g.tokens == nil {
		return nil, xerrors.ErrConfiguration
	}
	return g.tokens.VerifyToken(ctx, raw)
}
