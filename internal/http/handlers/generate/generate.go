// Package generate реализует платные операции генерации текста и кода.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/content-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-generator/internal/http/response"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// Request запрос генерации.
type Request struct {
	Prompt string `json:"prompt" validate:"required,max=4000"`
}

// Service сервис генерации.
type Service interface {
	Generate(ctx context.Context, p models.Principal, kind models.UsageKind, prompt string) (string, error)
}

// Handler обработчик генерации.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Генерация
// @Description Списывает один запрос из лимита и возвращает сгенерированный текст или код.
// @Tags Generation
// @Accept json
// @Produce json
// @Param kind path string true "content или code"
// @Param request body Request true "Запрос"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 429 {object} response.ErrorResponse "Лимит исчерпан"
// @Failure 500 {object} response.ErrorResponse
// @Router /generate/{kind} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.generate"
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

	kind := models.UsageKind(chi.URLParam(r, "kind"))
	if kind != models.KindContent && kind != models.KindCode {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("kind must be content or code"))
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

	content, err := h.service.Generate(r.Context(), p, kind, req.Prompt)
	if err != nil {
		status, msg := response.FromError(err)
		if status == http.StatusInternalServerError {
			log.Error("generation failed", slog.String("user_uid", p.UserUID), sl.Err(err))
		} else {
			log.Info("generation rejected", slog.String("user_uid", p.UserUID), sl.Err(err))
		}
		w.WriteHeader(status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]string{"content": content}))
}
