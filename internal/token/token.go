package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront-service/pkg/xerrors"
)

// UserTypeCustomer is the only principal type this issuer mints. Anything
// else in a presented token is rejected outright.
const UserTypeCustomer = "customer"

type Claims struct {
	TenantID string `json:"tenant_id"`
	StoreID  string `json:"store_id"`
	UserType string `json:"type"`
	jwt.RegisteredClaims
}

// Issuer mints and validates customer session tokens scoped to one store.
type Issuer struct {
	secret     []byte
	issuer     string
	ttl        time.Duration // default validity
	ttlLong    time.Duration // remember-me validity
	refreshWin time.Duration // near-expiry window that triggers a refresh
	now        func() time.Time
}

func NewIssuer(secret, issuer string, ttl, ttlLong, refreshWin time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, xerrors.ErrConfiguration
	}
	return &Issuer{
		secret:     []byte(secret),
		issuer:     issuer,
		ttl:        ttl,
		ttlLong:    ttlLong,
		refreshWin: refreshWin,
		now:        time.Now,
	}, nil
}

func (i *Issuer) Issue(customerID, tenantID, storeID string, rememberMe bool) (string, error) {
	ttl := i.ttl
	if rememberMe {
		ttl = i.ttlLong
	}
	now := i.now()

	claims := Claims{
		TenantID: tenantID,
		StoreID:  storeID,
		UserType: UserTypeCustomer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   customerID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Reissue mints a fresh token carrying the same identity and the same
// remember-me choice as the presented claims.
func (i *Issuer) Reissue(c *Claims) (string, error) {
	if c == nil || c.IssuedAt == nil || c.ExpiresAt == nil {
		return "", xerrors.ErrTokenInvalid
	}
	rememberMe := c.ExpiresAt.Time.Sub(c.IssuedAt.Time) > i.ttl
	return i.Issue(c.Subject, c.TenantID, c.StoreID, rememberMe)
}

// Validate checks signature, principal type, store binding, expiry and the
// password-change cutoff. A valid token inside the refresh window also yields
// a refreshed replacement token; callers pass it back as a side channel, it
// is never an error.
func (i *Issuer) Validate(raw, storeID string, passwordChangedAt *time.Time) (*Claims, string, error) {
	claims := new(Claims)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.now),
	)

	tok, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, "", xerrors.ErrTokenExpired
		}
		return nil, "", xerrors.ErrTokenInvalid
	}
	if !tok.Valid {
		return nil, "", xerrors.ErrTokenInvalid
	}

	if claims.UserType != UserTypeCustomer {
		return nil, "", xerrors.ErrTokenInvalid
	}
	// Store binding stops a token minted for one store being replayed on
	// another tenant's subdomain.
	if claims.StoreID != storeID {
		return nil, "", xerrors.ErrTokenInvalid
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, "", xerrors.ErrTokenInvalid
	}
	if passwordChangedAt != nil && claims.IssuedAt.Time.Before(*passwordChangedAt) {
		return nil, "", xerrors.ErrTokenInvalid
	}

	refreshed := ""
	if i.refreshWin > 0 && claims.ExpiresAt.Time.Sub(i.now()) < i.refreshWin {
		// Preserve the remember-me choice by reading the original validity.
		rememberMe := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time) > i.ttl
		if t, err := i.Issue(claims.Subject, claims.TenantID, claims.StoreID, rememberMe); err == nil {
			refreshed = t
		}
	}

	return claims, refreshed, nil
}
