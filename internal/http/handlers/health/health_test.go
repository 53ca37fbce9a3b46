package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ok(context.Context) error { return nil }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name           string
		checks         []Check
		wantStatus     int
		wantState      string
		wantComponents map[string]any
	}{
		{name: "no checks", wantStatus: http.StatusOK, wantState: "ok", wantComponents: map[string]any{}},
		{
			name:           "all up",
			checks:         []Check{{Name: "postgres", Probe: ok}, {Name: "redis", Probe: ok}},
			wantStatus:     http.StatusOK,
			wantState:      "ok",
			wantComponents: map[string]any{"postgres": "ok", "redis": "ok"},
		},
		{
			name: "redis down",
			checks: []Check{
				{Name: "postgres", Probe: ok},
				{Name: "redis", Probe: func(context.Context) error { return errors.New("connection refused") }},
			},
			wantStatus:     http.StatusServiceUnavailable,
			wantState:      "degraded",
			wantComponents: map[string]any{"postgres": "ok", "redis": "down"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			New(newNoopLogger(), tt.checks...).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			var resp struct {
				Data map[string]any `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantState, resp.Data["status"])
			assert.Equal(t, tt.wantComponents, resp.Data["components"])
		})
	}
}
