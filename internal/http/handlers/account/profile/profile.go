// Package profile отдаёт профиль текущего пользователя.
package profile

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-generator/internal/http/response"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// Service источник профилей.
type Service interface {
	Profile(ctx context.Context, uid string) (*models.Profile, error)
}

// Handler обработчик профиля.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Профиль пользователя
// @Description Учётная запись с тарифом, остатком лимита, платежами и историей генераций.
// @Tags Account
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /profile [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.profile"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, ok := middlewarectx.PrincipalFrom(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthenticated"))
		return
	}

	profile, err := h.service.Profile(r.Context(), p.UserUID)
	if err != nil {
		status, msg := response.FromError(err)
		log.Error("failed to load profile", slog.String("user_uid", p.UserUID), sl.Err(err))
		w.WriteHeader(status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{"user": profile}))
}
