package verify

import (
	"context"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"

	"storefront-service/internal/config"
	"storefront-service/pkg/xerrors"
)

// KeySetFunc resolves the trusted issuer's current signing keys. Production
// uses a refreshing JWKS cache; tests supply a static set.
type KeySetFunc func(ctx context.Context) (jwk.Set, error)

// PhoneTokenVerifier checks ID tokens minted by the third-party phone
// verification vendor. The client runs the phone flow against the vendor and
// submits the resulting token; we only verify signature, issuer, audience and
// the phone claim.
type PhoneTokenVerifier struct {
	appID  string
	issuer string
	keys   KeySetFunc
	logger *zap.Logger
}

func NewPhoneTokenVerifier(cfg config.PhoneAuthConfig, logger *zap.Logger) (*PhoneTokenVerifier, error) {
	if cfg.AppID == "" || cfg.IssuerURL == "" || cfg.JWKSURL == "" {
		return nil, fmt.Errorf("%w: phone auth provider", xerrors.ErrConfiguration)
	}

	c := jwk.NewCache(context.Background())
	if err := c.Register(cfg.JWKSURL); err != nil {
		return nil, fmt.Errorf("register phone auth jwks: %w", err)
	}

	return &PhoneTokenVerifier{
		appID:  cfg.AppID,
		issuer: cfg.IssuerURL,
		keys: func(ctx context.Context) (jwk.Set, error) {
			return c.Get(ctx, cfg.JWKSURL)
		},
		logger: logger,
	}, nil
}

// NewPhoneTokenVerifierWithKeys wires a fixed key source; used by tests.
func NewPhoneTokenVerifierWithKeys(appID, issuer string, keys KeySetFunc, logger *zap.Logger) *PhoneTokenVerifier {
	return &PhoneTokenVerifier{appID: appID, issuer: issuer, keys: keys, logger: logger}
}

// VerifyToken validates the vendor ID token and extracts the verified
// contact. Every mismatch is a verification failure, never retried.
func (v *PhoneTokenVerifier) VerifyToken(ctx context.Context, raw string) (*Result, error) {
	set, err := v.keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch signing keys", xerrors.ErrConnectivity)
	}

	tok, err := jwt.Parse([]byte(raw), jwt.WithKeySet(set), jwt.WithValidate(true))
	if err != nil {
		v.logger.Warn("phone token rejected", zap.Error(err))
		return nil, xerrors.ErrVerificationFailed
	}

	if tok.Issuer() != v.issuer {
		return nil, xerrors.ErrIssuerMismatch
	}
	if !containsAudience(tok.Audience(), v.appID) {
		return nil, xerrors.ErrAudienceMismatch
	}

	phone := stringClaim(tok, "phone_number")
	if phone == "" {
		return nil, xerrors.ErrPhoneClaimMissing
	}

	return &Result{
		Phone:       phone,
		Email:       stringClaim(tok, "email"),
		DisplayName: stringClaim(tok, "name"),
	}, nil
}

func containsAudience(aud []string, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}

func stringClaim(tok jwt.Token, name string) string {
	if v, ok := tok.Get(name); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// PhoneTokenProvider is the chain entry for the client-side phone flow.
// Start hands back vendor connection parameters; actual verification happens
// later through Gateway.VerifyExternalToken.
type PhoneTokenProvider struct {
	cfg config.PhoneAuthConfig
}

func NewPhoneTokenProvider(cfg config.PhoneAuthConfig) *PhoneTokenProvider {
	return &PhoneTokenProvider{cfg: cfg}
}

func (p *PhoneTokenProvider) Name() string { return "phone_token" }

func (p *PhoneTokenProvider) Start(_ context.Context, _ Deps, _, _ string) (*StartResult, error) {
	return &StartResult{
		Provider: p.Name(),
		Connection: map[string]string{
			"app_id":      p.cfg.AppID,
			"auth_domain": p.cfg.AuthDomain,
			"api_key":     p.cfg.APIKey,
		},
	}, nil
}

func (p *PhoneTokenProvider) Verify(_ context.Context, _ Deps, _, _, _ string) (*Result, error) {
	// Codes do not exist on this path; the caller must submit the vendor
	// token to the token-verify operation instead.
	return nil, xerrors.ErrVerificationFailed
}
