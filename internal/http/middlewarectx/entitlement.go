package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-generator/internal/billing"
	"github.com/magabrotheeeer/content-generator/internal/http/response"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// EntitlementChecker решает, допускается ли пользователь к платной операции.
type EntitlementChecker interface {
	Check(ctx context.Context, p models.Principal) (billing.Decision, error)
}

// EntitlementMiddleware отклоняет запрос с 429 до вызова обработчика, если лимит исчерпан.
// Окончательное списание выполняет обработчик.
func EntitlementMiddleware(checker EntitlementChecker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.EntitlementMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			p, ok := PrincipalFrom(r.Context())
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthenticated"))
				return
			}

			decision, err := checker.Check(r.Context(), p)
			if err != nil {
				status, msg := response.FromError(err)
				if status == http.StatusInternalServerError {
					log.Error("entitlement check failed", sl.Err(err))
				} else {
					log.Info("request denied",
						slog.String("user_uid", p.UserUID),
						slog.Int("used", decision.Used),
						slog.Int("allowance", decision.Allowance))
				}
				w.WriteHeader(status)
				render.JSON(w, r, response.Error(msg))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
