package paymentprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/magabrotheeeer/content-generator/internal/config"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Stripe реализует Provider через пакетный API stripe-go.
type Stripe struct {
	webhookSecret string
}

// NewStripe настраивает ключ API. Непустой APIURL направляет запросы на другой
// адрес, например на stripe-mock.
func NewStripe(cfg config.Stripe) *Stripe {
	stripe.Key = cfg.SecretKey
	if cfg.APIURL != "" {
		stripe.SetBackend(stripe.APIBackend, stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL: stripe.String(cfg.APIURL),
		}))
	}
	return &Stripe{webhookSecret: cfg.WebhookSecret}
}

// CreatePaymentIntent создаёт платёж на сумму req.Amount в основной валюте.
func (s *Stripe) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	const op = "paymentprovider.CreatePaymentIntent"
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%s: %w: amount must be positive", op, models.ErrValidation)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount.Mul(hundred).IntPart()),
		Currency: stripe.String(strings.ToLower(req.Currency)),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return toIntent(pi), nil
}

// GetPaymentIntent возвращает платёж по идентификатору провайдера.
func (s *Stripe) GetPaymentIntent(ctx context.Context, id string) (*Intent, error) {
	const op = "paymentprovider.GetPaymentIntent"
	if id == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrPaymentNotFound)
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return toIntent(pi), nil
}

// ParseWebhook проверяет подпись и разбирает событие вебхука.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	const op = "paymentprovider.ParseWebhook"

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrValidation, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if strings.HasPrefix(out.Type, "payment_intent.") && event.Data != nil {
		var pi stripe.PaymentIntent
		if err = json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, models.ErrValidation, err)
		}
		out.Intent = toIntent(&pi)
	}
	return out, nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       decimal.New(pi.Amount, -2),
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Succeeded:    pi.Status == stripe.PaymentIntentStatusSucceeded,
		Metadata:     pi.Metadata,
	}
}

func mapError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode == http.StatusNotFound || stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return fmt.Errorf("%w: %s", models.ErrPaymentNotFound, stripeErr.Msg)
		}
		return fmt.Errorf("%w: %s", models.ErrUpstreamFailure, stripeErr.Msg)
	}
	return fmt.Errorf("%w: %w", models.ErrUpstreamFailure, err)
}
