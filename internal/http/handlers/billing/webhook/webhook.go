// Package webhook принимает события платёжного провайдера.
package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-generator/internal/http/response"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// MaxBodyBytes ограничение размера тела вебхука.
const MaxBodyBytes = int64(65536)

// SignatureHeader заголовок с подписью события.
const SignatureHeader = "Stripe-Signature"

// Service обработчик событий оплаты.
type Service interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// Handler обработчик вебхука.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Вебхук платёжного провайдера
// @Description Проверяет подпись и применяет успешную оплату. Неизвестные события подтверждаются без изменений.
// @Tags Billing
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Подпись события"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /billing/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err = h.service.HandleWebhook(r.Context(), payload, r.Header.Get(SignatureHeader)); err != nil {
		if errors.Is(err, models.ErrValidation) {
			log.Warn("webhook rejected", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid webhook"))
			return
		}
		log.Error("webhook processing failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]bool{"received": true}))
}
