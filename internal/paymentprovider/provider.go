// Package paymentprovider адаптер платёжного провайдера Stripe: создание и получение
// PaymentIntent и проверка подписи вебхуков.
package paymentprovider

import (
	"context"

	"github.com/shopspring/decimal"
)

// Ключи metadata, по которым подтверждение оплаты связывается с учётной записью.
const (
	MetaUserUID   = "user_uid"
	MetaUserEmail = "user_email"
	MetaPlan      = "plan"
)

// Тип события вебхука об успешной оплате.
const EventPaymentSucceeded = "payment_intent.succeeded"

// Intent платёж на стороне провайдера.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       decimal.Decimal
	Currency     string
	Status       string
	Succeeded    bool
	Metadata     map[string]string
}

// IntentRequest параметры нового платежа.
type IntentRequest struct {
	Amount   decimal.Decimal
	Currency string
	Metadata map[string]string
}

// WebhookEvent проверенное событие вебхука. Intent заполнен для событий payment_intent.*.
type WebhookEvent struct {
	ID     string
	Type   string
	Intent *Intent
}

// Provider операции платёжного провайдера.
type Provider interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	GetPaymentIntent(ctx context.Context, id string) (*Intent, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
