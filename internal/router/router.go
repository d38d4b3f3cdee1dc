package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"storefront-service/internal/handler"
	"storefront-service/internal/tenant"
	"storefront-service/internal/token"
	"storefront-service/pkg/cache"
	"storefront-service/pkg/middleware"
)

// New builds the HTTP surface. Every storefront route sits behind the tenant
// resolver; routes under the authenticated group additionally require a valid
// customer session token.
func New(h *handler.AuthHandler, loader *tenant.Loader, tokens *token.Issuer, limits *cache.Cache, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{middleware.RefreshedTokenHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(tenant.Resolver(loader, logger))

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(tenant.RequireStore)

			r.Route("/auth", func(r chi.Router) {
				r.Use(middleware.RateLimit(limits, 60, time.Minute, logger))

				r.Post("/otp/request", h.RequestOTP)
				r.Post("/otp/verify", h.VerifyOTP)
				r.Post("/token/verify", h.VerifyPhoneToken)
				r.Post("/register", h.Register)
				r.Post("/login", h.Login)
				r.Post("/password/forgot", h.ForgotPassword)
				r.Post("/password/reset", h.ResetPassword)

				r.Group(func(r chi.Router) {
					r.Use(middleware.CustomerAuth(tokens, logger))
					r.Post("/refresh", h.Refresh)
				})
			})

			r.Route("/customers", func(r chi.Router) {
				r.Use(middleware.CustomerAuth(tokens, logger))

				r.Get("/me", h.Me)
				r.Post("/me/password", h.ChangePassword)
			})
		})
	})

	return r
}
