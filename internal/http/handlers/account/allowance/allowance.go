// Package allowance позволяет администратору задать явный лимит запросов учётной записи.
package allowance

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-generator/internal/http/response"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// Request новый лимит. null возвращает лимит тарифа.
type Request struct {
	Allowance *int `json:"allowance"`
}

// Service изменение лимита.
type Service interface {
	SetAllowance(ctx context.Context, p models.Principal, uid string, allowance *int) (*models.Account, error)
}

// Handler обработчик изменения лимита.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Лимит учётной записи
// @Description Задаёт явный лимит запросов. Доступно администратору.
// @Tags Admin
// @Accept json
// @Produce json
// @Param uid path string true "UID учётной записи"
// @Param request body Request true "Лимит"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/accounts/{uid}/allowance [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.allowance"
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

	uid := chi.URLParam(r, "uid")
	if uid == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("uid is required"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	acc, err := h.service.SetAllowance(r.Context(), p, uid, req.Allowance)
	if err != nil {
		status, msg := response.FromError(err)
		log.Info("allowance not changed", slog.String("account_uid", uid), sl.Err(err))
		w.WriteHeader(status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{"user": acc}))
}
