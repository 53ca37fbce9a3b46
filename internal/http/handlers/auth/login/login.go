// Package login реализует HTTP-обработчик входа пользователя.
//
// При успешной аутентификации токен возвращается в теле ответа и в httpOnly cookie.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/content-generator/internal/http/handlers/auth/session"
	"github.com/magabrotheeeer/content-generator/internal/http/response"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// Request учётные данные для входа.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service бизнес-логика аутентификации.
type Service interface {
	Login(ctx context.Context, email, password string) (string, *models.Account, error)
}

// Handler обрабатывает HTTP-запросы входа.
type Handler struct {
	log      *slog.Logger
	service  Service
	cookie   session.Config
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service, cookie session.Config) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		cookie:   cookie,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Авторизация пользователя
// @Description Аутентифицирует пользователя по email и паролю. Возвращает JWT и устанавливает cookie.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} response.Response "Успешная авторизация"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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
		log.Info("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(verrs))
		return
	}

	token, acc, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		status, msg := response.FromError(err)
		if status == http.StatusInternalServerError {
			log.Error("login failed", sl.Err(err))
		} else {
			log.Info("login rejected")
		}
		w.WriteHeader(status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	session.SetToken(w, h.cookie, token)
	log.Info("login success", slog.String("user_uid", acc.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token":    token,
		"id":       acc.UID,
		"username": acc.Username,
		"email":    acc.Email,
	}))
}
