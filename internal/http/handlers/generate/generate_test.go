package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/content-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-generator/internal/http/response"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Generate(ctx context.Context, p models.Principal, kind models.UsageKind, prompt string) (string, error) {
	args := m.Called(ctx, p, kind, prompt)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerateHandler(t *testing.T) {
	alice := models.Principal{UserUID: "uid-1", Username: "alice", Role: models.RoleUser}

	tests := []struct {
		name        string
		kind        string
		body        string
		mockSetup   func(m *ServiceMock)
		wantStatus  int
		wantContent string
	}{
		{
			name: "content",
			kind: "content",
			body: `{"prompt":"slogan for tea"}`,
			mockSetup: func(m *ServiceMock) {
				m.On("Generate", mock.Anything, alice, models.KindContent, "slogan for tea").Return("Sip calm.", nil).Once()
			},
			wantStatus:  http.StatusOK,
			wantContent: "Sip calm.",
		},
		{
			name: "code",
			kind: "code",
			body: `{"prompt":"reverse a string"}`,
			mockSetup: func(m *ServiceMock) {
				m.On("Generate", mock.Anything, alice, models.KindCode, "reverse a string").Return("func reverse()", nil).Once()
			},
			wantStatus:  http.StatusOK,
			wantContent: "func reverse()",
		},
		{name: "unknown kind", kind: "poem", body: `{"prompt":"x"}`, wantStatus: http.StatusBadRequest},
		{name: "missing prompt", kind: "content", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "bad json", kind: "content", body: `nope`, wantStatus: http.StatusBadRequest},
		{
			name: "limit exceeded",
			kind: "content",
			body: `{"prompt":"x"}`,
			mockSetup: func(m *ServiceMock) {
				m.On("Generate", mock.Anything, alice, models.KindContent, "x").Return("", models.ErrLimitExceeded).Once()
			},
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name: "upstream failure",
			kind: "code",
			body: `{"prompt":"x"}`,
			mockSetup: func(m *ServiceMock) {
				m.On("Generate", mock.Anything, alice, models.KindCode, "x").Return("", models.ErrUpstreamFailure).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.mockSetup != nil {
				tt.mockSetup(svc)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/generate/"+tt.kind, bytes.NewBufferString(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("kind", tt.kind)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "reqid123")
			ctx = middlewarectx.WithPrincipal(ctx, alice)
			rr := httptest.NewRecorder()

			New(newNoopLogger(), svc).ServeHTTP(rr, req.WithContext(ctx))

			assert.Equal(t, tt.wantStatus, rr.Code)
			var resp response.Response
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			if tt.wantContent != "" {
				assert.Equal(t, map[string]any{"content": tt.wantContent}, resp.Data)
			} else {
				assert.Equal(t, response.StatusError, resp.Status)
			}
			svc.AssertExpectations(t)
		})
	}
}
