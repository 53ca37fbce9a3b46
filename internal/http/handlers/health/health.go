// Package health отдаёт состояние сервиса и его зависимостей.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-generator/internal/http/response"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
)

const checkTimeout = 2 * time.Second

// Check проверка одной зависимости.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Handler обработчик health-check.
type Handler struct {
	log    *slog.Logger
	checks []Check
}

// New создает Handler.
func New(log *slog.Logger, checks ...Check) *Handler {
	return &Handler{log: log, checks: checks}
}

// ServeHTTP godoc
// @Summary Состояние сервиса
// @Tags Health
// @Produce json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		if err := c.Probe(ctx); err != nil {
			h.log.Warn("health check failed", sl.Op(op), slog.String("component", c.Name), sl.Err(err))
			components[c.Name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		components[c.Name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	w.WriteHeader(status)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status":     state,
		"components": components,
	}))
}
