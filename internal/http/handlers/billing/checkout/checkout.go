// Package checkout создаёт платёж на оплату тарифа.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/content-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-generator/internal/http/response"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/models"
	"github.com/magabrotheeeer/content-generator/internal/services/payment"
)

// Request запрос на оплату тарифа.
type Request struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"20.00"`
	Plan   string          `json:"plan" validate:"required,oneof=Basic Premium"`
}

// Service сервис платежей.
type Service interface {
	Checkout(ctx context.Context, p models.Principal, amount decimal.Decimal, plan string) (*payment.CheckoutResult, error)
}

// Handler обработчик оплаты.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Оплата тарифа
// @Description Создаёт платёж у провайдера и возвращает client secret для фронтенда.
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body Request true "Тариф и сумма"
// @Success 200 {object} response.Response{data=payment.CheckoutResult}
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /billing/checkout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.checkout"
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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		errors.As(err, &verrs)
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(verrs))
		return
	}

	res, err := h.service.Checkout(r.Context(), p, req.Amount, req.Plan)
	if err != nil {
		status, msg := response.FromError(err)
		log.Error("checkout failed", slog.String("user_uid", p.UserUID), sl.Err(err))
		w.WriteHeader(status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	render.JSON(w, r, response.OKWithData(res))
}
