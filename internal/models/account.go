// Package models содержит доменные модели сервиса генерации контента:
// учётную запись с тарифом и счётчиками, платежи, записи использования
// и события биллинга, которые передаются между сервисами.
package models

import "time"

// Роли учётных записей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account представляет учётную запись пользователя вместе с состоянием тарифа.
type Account struct {
	UID             string     `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	Role            string     `json:"role"`
	Plan            Plan       `json:"plan"`
	UsedCount       int        `json:"used_count"`
	Allowance       *int       `json:"allowance,omitempty"` // явный лимит, nil означает лимит тарифа
	APIRequestCount int64      `json:"api_request_count"`
	TrialActive     bool       `json:"trial_active"`
	TrialExpiresAt  time.Time  `json:"trial_expires_at"`
	NextBillingAt   *time.Time `json:"next_billing_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Payments     []Payment     `json:"payments,omitempty"`
	UsageHistory []UsageRecord `json:"usage_history,omitempty"`
}

// HasPayment сообщает, записан ли уже платёж с указанным внешним идентификатором.
func (a *Account) HasPayment(externalReference string) bool {
	for _, p := range a.Payments {
		if p.ExternalReference == externalReference {
			return true
		}
	}
	return false
}

// Profile представляет учётную запись вместе с историей платежей и использования.
type Profile struct {
	Account
	Remaining int `json:"remaining"`
	Allowed   int `json:"effective_allowance"`
}
