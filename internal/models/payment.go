package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Статусы платежа.
const (
	PaymentPending = "pending"
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
)

// Payment представляет подтверждённый платёж или бесплатное продление.
type Payment struct {
	ID                string          `json:"id"`
	AccountUID        string          `json:"account_uid"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Plan              Plan            `json:"plan"`
	Status            string          `json:"status"`
	ExternalReference string          `json:"external_reference"`
	CreatedAt         time.Time       `json:"created_at"`
}
