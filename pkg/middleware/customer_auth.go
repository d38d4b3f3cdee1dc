package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"storefront-service/internal/repository"
	"storefront-service/internal/tenant"
	"storefront-service/internal/token"
	"storefront-service/pkg/response"
	"storefront-service/pkg/xerrors"
)

type contextKey string

const (
	ContextCustomerID contextKey = "customer_id"
	ContextClaims     contextKey = "customer_claims"
)

// RefreshedTokenHeader carries the side-channel replacement token when the
// presented one is close to expiry.
const RefreshedTokenHeader = "X-Refreshed-Token"

// CustomerAuth validates the bearer session token against the resolved store
// and the customer's password-change cutoff. Expired and invalid tokens get
// distinct codes so clients can pick silent re-auth vs forced logout.
func CustomerAuth(tokens *token.Issuer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc, ok := tenant.FromContext(r.Context())
			if !ok {
				response.ErrorCode(w, http.StatusNotFound, "store_not_found", "Store not found")
				return
			}

			raw := bearerToken(r)
			if raw == "" {
				response.ErrorCode(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
				return
			}

			// Signature and claim checks first; the password cutoff needs the
			// customer row, so it runs as a second pass.
			claims, refreshed, err := tokens.Validate(raw, rc.Store.ID, nil)
			if err != nil {
				writeTokenError(w, err)
				return
			}

			customers := repository.NewCustomersRepository(rc.Pool)
			c, err := customers.GetByID(r.Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, xerrors.ErrCustomerNotFound) {
					response.ErrorCode(w, http.StatusUnauthorized, "token_invalid", "Unknown customer")
					return
				}
				logger.Error("customer lookup failed",
					zap.String("customer_id", claims.Subject), zap.Error(err))
				response.ErrorCode(w, http.StatusServiceUnavailable, "service_unavailable", "Store temporarily unavailable")
				return
			}
			if c.PasswordChangedAt != nil && claims.IssuedAt.Time.Before(*c.PasswordChangedAt) {
				response.ErrorCode(w, http.StatusUnauthorized, "token_invalid", "Session invalidated by password change")
				return
			}

			if refreshed != "" {
				w.Header().Set(RefreshedTokenHeader, refreshed)
			}

			ctx := context.WithValue(r.Context(), ContextCustomerID, claims.Subject)
			ctx = context.WithValue(ctx, ContextClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeTokenError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, xerrors.ErrTokenExpired):
		response.ErrorCode(w, http.StatusUnauthorized, "token_expired", "Session expired")
	default:
		response.ErrorCode(w, http.StatusUnauthorized, "token_invalid", "Invalid session token")
	}
}

// CustomerIDFromContext returns the authenticated customer id set by
// CustomerAuth.
func CustomerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextCustomerID).(string)
	return id, ok && id != ""
}
