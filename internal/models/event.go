package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Типы событий биллинга, они же routing key в RabbitMQ.
const (
	EventTrialExpired     = "trial.expired"
	EventCycleReset       = "cycle.reset"
	EventPaymentSucceeded = "payment.succeeded"
)

// BillingEvent уведомление об изменении тарифа учётной записи.
type BillingEvent struct {
	Type       string           `json:"type"`
	AccountUID string           `json:"account_uid"`
	Username   string           `json:"username"`
	Email      string           `json:"email"`
	Plan       Plan             `json:"plan"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Currency   string           `json:"currency,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// NewBillingEvent собирает событие по состоянию учётной записи.
func NewBillingEvent(eventType string, acc Account, at time.Time) BillingEvent {
	return BillingEvent{
		Type:       eventType,
		AccountUID: acc.UID,
		Username:   acc.Username,
		Email:      acc.Email,
		Plan:       acc.Plan,
		OccurredAt: at,
	}
}
