package tenant

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"storefront-service/pkg/response"
	"storefront-service/pkg/xerrors"
)

type contextKey string

const ctxKeyRequestContext contextKey = "storefront_request_context"

// WithRequestContext attaches a resolved store context to ctx.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKeyRequestContext, rc)
}

// FromContext returns the store context attached by the resolver middleware.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(ctxKeyRequestContext).(*RequestContext)
	return rc, ok && rc != nil
}

// Resolver resolves the request host to a store and attaches its context.
// Main-app traffic (bare domain, www, IP literals) passes through without a
// store context; handlers that need one use RequireStore. Resolution happens
// once here, never again downstream.
func Resolver(loader *Loader, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			subdomain, ok := ResolveHost(r.Host)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			rc, err := loader.Load(r.Context(), subdomain)
			if err != nil {
				writeLoadError(w, subdomain, err, logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithRequestContext(r.Context(), rc)))
		})
	}
}

func writeLoadError(w http.ResponseWriter, subdomain string, err error, logger *zap.Logger) {
	switch {
	case errors.Is(err, xerrors.ErrTenantNotFound):
		response.ErrorCode(w, http.StatusNotFound, xerrors.Code(err), "Store not found")
	case errors.Is(err, xerrors.ErrStoreSuspended):
		response.ErrorCode(w, http.StatusForbidden, xerrors.Code(err), "Store is suspended")
	case errors.Is(err, xerrors.ErrConnectivity):
		// Full detail stays server-side; clients get a generic message.
		logger.Error("store context load failed",
			zap.String("subdomain", subdomain),
			zap.Error(err),
		)
		response.ErrorCode(w, http.StatusServiceUnavailable, xerrors.Code(err), "Store temporarily unavailable")
	default:
		logger.Error("store context load failed",
			zap.String("subdomain", subdomain),
			zap.Error(err),
		)
		response.ErrorCode(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// RequireStore rejects requests that reached a store-scoped route without a
// resolved store context.
func RequireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			response.ErrorCode(w, http.StatusNotFound, "store_not_found", "Store not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}
