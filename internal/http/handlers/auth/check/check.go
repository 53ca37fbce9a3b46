// Package check сообщает клиенту, аутентифицирован ли он.
package check

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-generator/internal/http/response"
)

// Handler обработчик проверки аутентификации. Работает за JWTMiddleware.
type Handler struct{}

// New создает Handler.
func New() *Handler {
	return &Handler{}
}

// ServeHTTP godoc
// @Summary Проверка аутентификации
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/check [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, ok := middlewarectx.PrincipalFrom(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthenticated"))
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"isAuthenticated": true,
		"user":            p,
	}))
}
