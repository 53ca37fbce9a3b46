package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/content-generator/internal/http/response"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Register(ctx context.Context, email, username, password string) (*models.Account, error) {
	args := m.Called(ctx, email, username, password)
	acc, _ := args.Get(0).(*models.Account)
	return acc, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	valid := Request{Email: "alice@example.com", Username: "alice", Password: "secret123"}

	tests := []struct {
		name           string
		body           any
		mockSetup      func(m *ServiceMock)
		wantStatusCode int
		wantError      string
	}{
		{
			name: "created",
			body: valid,
			mockSetup: func(m *ServiceMock) {
				m.On("Register", mock.Anything, valid.Email, valid.Username, valid.Password).
					Return(&models.Account{UID: "uid-1", Email: valid.Email, Username: valid.Username}, nil).Once()
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "invalid json",
			body:           "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
		},
		{
			name:           "missing email",
			body:           Request{Username: "alice", Password: "secret123"},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Email is a required field",
		},
		{
			name: "email taken",
			body: valid,
			mockSetup: func(m *ServiceMock) {
				m.On("Register", mock.Anything, valid.Email, valid.Username, valid.Password).
					Return(nil, models.ErrEmailTaken).Once()
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "email already registered",
		},
		{
			name: "storage failure",
			body: valid,
			mockSetup: func(m *ServiceMock) {
				m.On("Register", mock.Anything, valid.Email, valid.Username, valid.Password).
					Return(nil, errors.New("db down")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.mockSetup != nil {
				tt.mockSetup(svc)
			}
			handler := New(newNoopLogger(), svc)

			var body []byte
			if s, ok := tt.body.(string); ok {
				body = []byte(s)
			} else {
				body, _ = json.Marshal(tt.body)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/register", bytes.NewReader(body))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			var resp response.Response
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			if tt.wantError != "" {
				assert.Equal(t, response.StatusError, resp.Status)
				assert.Contains(t, resp.Error, tt.wantError)
			} else {
				assert.Equal(t, response.StatusOK, resp.Status)
				assert.Equal(t, map[string]any{"username": "alice", "email": "alice@example.com"}, resp.Data)
			}
			svc.AssertExpectations(t)
		})
	}
}
