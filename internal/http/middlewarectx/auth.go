package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-generator/internal/http/response"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// TokenValidator проверяет токен локально или через сервис авторизации.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (models.Principal, error)
}

// JWTMiddleware проверяет токен из cookie cookieName, а при её отсутствии из заголовка
// Authorization: Bearer. Пользователь из токена кладётся в контекст запроса.
// Без валидного токена запрос завершается с 401.
func JWTMiddleware(validator TokenValidator, cookieName string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token := TokenFromRequest(r, cookieName)
			if token == "" {
				log.Info("missing token")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization"))
				return
			}

			principal, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				status, msg := response.FromError(err)
				if status != http.StatusInternalServerError {
					status, msg = http.StatusUnauthorized, "invalid or expired token"
				}
				log.Info("token rejected", sl.Err(err))
				w.WriteHeader(status)
				render.JSON(w, r, response.Error(msg))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// TokenFromRequest возвращает токен из cookie или заголовка Authorization.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// RequireRole пропускает только пользователей с указанной ролью, остальным отвечает 403.
func RequireRole(role string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthenticated"))
				return
			}
			if p.Role != role {
				log.Warn("role check failed",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("user_uid", p.UserUID),
					slog.String("required_role", role))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
