// Package verify подтверждает оплату по идентификатору платежа.
package verify

import (
	"context"
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

// Service сервис платежей.
type Service interface {
	Verify(ctx context.Context, p models.Principal, intentID string) (*models.Account, error)
}

// Handler обработчик подтверждения оплаты.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Подтверждение оплаты
// @Tags Billing
// @Produce json
// @Param paymentId path string true "Идентификатор платежа"
// @Success 200 {object} response.Response
// @Failure 402 {object} response.ErrorResponse "Платёж не прошёл"
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /billing/verify/{paymentId} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.verify"
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

	paymentID := chi.URLParam(r, "paymentId")
	if paymentID == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("paymentId is required"))
		return
	}

	acc, err := h.service.Verify(r.Context(), p, paymentID)
	if err != nil {
		status, msg := response.FromError(err)
		log.Warn("payment not verified",
			slog.String("user_uid", p.UserUID),
			slog.String("payment_id", paymentID),
			sl.Err(err))
		w.WriteHeader(status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("payment verified", slog.String("user_uid", p.UserUID), slog.String("plan", acc.Plan.String()))
	render.JSON(w, r, response.OKWithData(map[string]any{"user": acc}))
}
