package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/content-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-generator/internal/http/response"
	"github.com/magabrotheeeer/content-generator/internal/models"
	"github.com/magabrotheeeer/content-generator/internal/services/payment"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Checkout(ctx context.Context, p models.Principal, amount decimal.Decimal, plan string) (*payment.CheckoutResult, error) {
	args := m.Called(ctx, p, amount.String(), plan)
	res, _ := args.Get(0).(*payment.CheckoutResult)
	return res, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckoutHandler(t *testing.T) {
	alice := models.Principal{UserUID: "uid-1", Username: "alice", Role: models.RoleUser}

	tests := []struct {
		name       string
		body       string
		mockSetup  func(m *ServiceMock)
		wantStatus int
	}{
		{
			name: "ok",
			body: `{"amount":"20.00","plan":"Basic"}`,
			mockSetup: func(m *ServiceMock) {
				m.On("Checkout", mock.Anything, alice, "20", "Basic").
					Return(&payment.CheckoutResult{ClientSecret: "pi_1_secret", PaymentIntentID: "pi_1"}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{name: "free plan is not for sale", body: `{"amount":"0","plan":"Free"}`, wantStatus: http.StatusBadRequest},
		{name: "missing plan", body: `{"amount":20}`, wantStatus: http.StatusBadRequest},
		{name: "bad json", body: `{"amount":`, wantStatus: http.StatusBadRequest},
		{
			name: "amount mismatch",
			body: `{"amount":1,"plan":"Premium"}`,
			mockSetup: func(m *ServiceMock) {
				m.On("Checkout", mock.Anything, alice, "1", "Premium").
					Return(nil, fmt.Errorf("wrap: %w", models.ErrValidation)).Once()
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "provider down",
			body: `{"amount":50,"plan":"Premium"}`,
			mockSetup: func(m *ServiceMock) {
				m.On("Checkout", mock.Anything, alice, "50", "Premium").
					Return(nil, models.ErrUpstreamFailure).Once()
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

			req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/checkout", bytes.NewBufferString(tt.body))
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
			ctx = middlewarectx.WithPrincipal(ctx, alice)
			rr := httptest.NewRecorder()

			New(newNoopLogger(), svc).ServeHTTP(rr, req.WithContext(ctx))

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				var resp response.Response
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, map[string]any{"clientSecret": "pi_1_secret", "paymentIntentId": "pi_1"}, resp.Data)
			}
			svc.AssertExpectations(t)
		})
	}
}
