// Package api собирает HTTP API сервиса генерации контента.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/content-generator/internal/http/handlers/account/allowance"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/account/profile"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/auth/check"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/auth/session"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/billing/checkout"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/billing/freeplan"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/billing/verify"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/billing/webhook"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/generate"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/health"
	"github.com/magabrotheeeer/content-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// AuthService регистрация и вход.
type AuthService interface {
	register.Service
	login.Service
}

// AccountService профиль и лимиты учётных записей.
type AccountService interface {
	profile.Service
	allowance.Service
}

// PaymentService оплата тарифов.
type PaymentService interface {
	checkout.Service
	verify.Service
	freeplan.Service
	webhook.Service
}

// Deps зависимости маршрутов.
type Deps struct {
	Auth         AuthService
	Tokens       middlewarectx.TokenValidator
	Entitlements middlewarectx.EntitlementChecker
	Accounts     AccountService
	Generation   generate.Service
	Payments     PaymentService
	Limiter      *middlewarectx.RateLimiter
	Cookie       session.Config
	Checks       []health.Check
	// AllowedOrigins источники, которым разрешены запросы с cookie.
	AllowedOrigins []string
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		corsMiddleware(deps.AllowedOrigins),
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, deps.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, deps.Auth, deps.Cookie).ServeHTTP)
		r.Post("/logout", logout.New(logger, deps.Cookie).ServeHTTP)

		// Webhook endpoint (без аутентификации, проверяется подпись)
		r.Post("/billing/webhook", webhook.New(logger, deps.Payments).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(deps.Tokens, deps.Cookie.Name, logger))
			if deps.Limiter != nil {
				r.Use(middlewarectx.RateLimitMiddleware(deps.Limiter, logger))
			}

			r.Get("/auth/check", check.New().ServeHTTP)
			r.Get("/profile", profile.New(logger, deps.Accounts).ServeHTTP)

			r.Post("/billing/checkout", checkout.New(logger, deps.Payments).ServeHTTP)
			r.Post("/billing/verify/{paymentId}", verify.New(logger, deps.Payments).ServeHTTP)
			r.Post("/billing/free-plan", freeplan.New(logger, deps.Payments).ServeHTTP)

			r.With(middlewarectx.EntitlementMiddleware(deps.Entitlements, logger)).
				Post("/generate/{kind}", generate.New(logger, deps.Generation).ServeHTTP)

			r.With(middlewarectx.RequireRole(models.RoleAdmin, logger)).
				Put("/admin/accounts/{uid}/allowance", allowance.New(logger, deps.Accounts).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, deps.Checks...).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Stripe-Signature"},
		AllowCredentials: true,
	})
	return c.Handler
}
