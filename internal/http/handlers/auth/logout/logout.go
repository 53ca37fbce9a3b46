// Package logout реализует HTTP-обработчик выхода: удаляет cookie с токеном.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-generator/internal/http/handlers/auth/session"
	"github.com/magabrotheeeer/content-generator/internal/http/response"
)

// Handler обработчик выхода.
type Handler struct {
	log    *slog.Logger
	cookie session.Config
}

// New создает Handler.
func New(log *slog.Logger, cookie session.Config) *Handler {
	return &Handler{log: log, cookie: cookie}
}

// ServeHTTP godoc
// @Summary Выход
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session.Clear(w, h.cookie)
	h.log.Info("logged out", slog.String("request_id", middleware.GetReqID(r.Context())))
	render.JSON(w, r, response.OKWithData(map[string]string{"message": "logged out"}))
}
