package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/content-generator/internal/lib/month"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// TriggerKind вид события, меняющего тариф.
type TriggerKind string

// Поддерживаемые переходы.
const (
	TriggerTrialExpired   TriggerKind = "trial_expired"
	TriggerFreeTierSignup TriggerKind = "free_tier_signup"
	TriggerPaidUpgrade    TriggerKind = "paid_upgrade"
	TriggerCycleReset     TriggerKind = "cycle_reset"
)

// Trigger событие перехода. Plan задаёт целевой тариф для PaidUpgrade
// и категорию тарифа для CycleReset.
type Trigger struct {
	Kind    TriggerKind
	Plan    models.Plan
	Payment *models.Payment
}

// TrialExpired окончание пробного периода.
func TrialExpired() Trigger {
	return Trigger{Kind: TriggerTrialExpired}
}

// FreeTierSignup явное оформление бесплатного тарифа пользователем.
func FreeTierSignup() Trigger {
	return Trigger{Kind: TriggerFreeTierSignup}
}

// PaidUpgrade переход на платный тариф после подтверждённой оплаты.
func PaidUpgrade(plan models.Plan, payment models.Payment) Trigger {
	return Trigger{Kind: TriggerPaidUpgrade, Plan: plan, Payment: &payment}
}

// CycleReset ежемесячный сброс счётчика для тарифа plan.
func CycleReset(plan models.Plan) Trigger {
	return Trigger{Kind: TriggerCycleReset, Plan: plan}
}

// Result новое состояние учётной записи. Payment заполнен, если переход создаёт платёж.
// Changed равен false, когда переход неприменим или уже был выполнен.
type Result struct {
	Account models.Account
	Payment *models.Payment
	Changed bool
}

// Engine применяет переходы между тарифами.
type Engine struct {
	catalog      *Catalog
	newReference func() string
}

// NewEngine создаёт движок переходов поверх каталога тарифов.
func NewEngine(catalog *Catalog) *Engine {
	return &Engine{
		catalog: catalog,
		newReference: func() string {
			return "free-" + uuid.NewString()
		},
	}
}

// Catalog возвращает каталог тарифов движка.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// ShouldRenew сообщает, можно ли продлить тариф: дата следующего списания не задана или уже наступила.
func ShouldRenew(acc models.Account, now time.Time) bool {
	return acc.NextBillingAt == nil || !acc.NextBillingAt.After(now)
}

// Apply вычисляет состояние учётной записи после перехода. Исходное значение не изменяется.
func (e *Engine) Apply(acc models.Account, tr Trigger, now time.Time) (Result, error) {
	const op = "billing.Apply"

	switch tr.Kind {
	case TriggerTrialExpired:
		return e.trialExpired(acc, now), nil
	case TriggerFreeTierSignup:
		res, err := e.freeTierSignup(acc, now)
		if err != nil {
			return Result{Account: acc}, fmt.Errorf("%s: %w", op, err)
		}
		return res, nil
	case TriggerPaidUpgrade:
		res, err := e.paidUpgrade(acc, tr, now)
		if err != nil {
			return Result{Account: acc}, fmt.Errorf("%s: %w", op, err)
		}
		return res, nil
	case TriggerCycleReset:
		res, err := e.cycleReset(acc, tr.Plan, now)
		if err != nil {
			return Result{Account: acc}, fmt.Errorf("%s: %w", op, err)
		}
		return res, nil
	default:
		return Result{Account: acc}, fmt.Errorf("%s: %w: unknown trigger %q", op, models.ErrInvalidTransition, tr.Kind)
	}
}

func (e *Engine) trialExpired(acc models.Account, now time.Time) Result {
	if !acc.TrialActive || now.Before(acc.TrialExpiresAt) {
		return Result{Account: acc}
	}
	next := acc
	next.TrialActive = false
	next.Plan = models.PlanFree
	next.Allowance = nil
	next.UsedCount = 0
	next.UpdatedAt = now
	return Result{Account: next, Changed: true}
}

func (e *Engine) freeTierSignup(acc models.Account, now time.Time) (Result, error) {
	if !ShouldRenew(acc, now) {
		return Result{}, fmt.Errorf("%w: renewal is not due until %s", models.ErrInvalidTransition,
			acc.NextBillingAt.Format(time.RFC3339))
	}

	nextBilling := month.NextBillingDate(now)
	payment := models.Payment{
		AccountUID:        acc.UID,
		Amount:            decimal.Zero,
		Currency:          e.catalog.Currency(),
		Plan:              models.PlanFree,
		Status:            models.PaymentSuccess,
		ExternalReference: e.newReference(),
		CreatedAt:         now,
	}

	next := acc
	next.Plan = models.PlanFree
	next.TrialActive = false
	next.Allowance = nil
	next.UsedCount = 0
	next.NextBillingAt = &nextBilling
	next.UpdatedAt = now
	next.Payments = prependPayment(acc.Payments, payment)
	return Result{Account: next, Payment: &payment, Changed: true}, nil
}

func (e *Engine) paidUpgrade(acc models.Account, tr Trigger, now time.Time) (Result, error) {
	if tr.Payment == nil {
		return Result{}, fmt.Errorf("%w: payment is required", models.ErrValidation)
	}
	if !tr.Plan.IsPaid() {
		return Result{}, fmt.Errorf("%w: %q is not a paid plan", models.ErrInvalidTransition, tr.Plan)
	}
	if tr.Payment.ExternalReference == "" {
		return Result{}, fmt.Errorf("%w: payment reference is empty", models.ErrValidation)
	}
	if tr.Payment.Status != models.PaymentSuccess {
		return Result{}, fmt.Errorf("%w: status %q", models.ErrPaymentNotSucceeded, tr.Payment.Status)
	}
	if acc.HasPayment(tr.Payment.ExternalReference) {
		return Result{Account: acc}, nil
	}

	payment := *tr.Payment
	payment.AccountUID = acc.UID
	payment.Plan = tr.Plan
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	nextBilling := month.NextBillingDate(now)

	next := acc
	next.Plan = tr.Plan
	next.TrialActive = false
	next.Allowance = nil
	next.UsedCount = 0
	next.NextBillingAt = &nextBilling
	next.UpdatedAt = now
	next.Payments = prependPayment(acc.Payments, payment)
	return Result{Account: next, Payment: &payment, Changed: true}, nil
}

func (e *Engine) cycleReset(acc models.Account, plan models.Plan, now time.Time) (Result, error) {
	if plan == models.PlanTrial || plan == "" {
		return Result{}, fmt.Errorf("%w: no billing cycle for %q", models.ErrInvalidTransition, plan)
	}
	if acc.Plan != plan || acc.NextBillingAt == nil || !acc.NextBillingAt.Before(now) {
		return Result{Account: acc}, nil
	}

	nextBilling := month.AdvancePast(*acc.NextBillingAt, now)
	next := acc
	next.UsedCount = 0
	next.Allowance = nil
	next.NextBillingAt = &nextBilling
	next.UpdatedAt = now
	return Result{Account: next, Changed: true}, nil
}

// prependPayment добавляет новый платёж в начало: платежи хранятся от новых к старым.
func prependPayment(payments []models.Payment, p models.Payment) []models.Payment {
	out := make([]models.Payment, 0, len(payments)+1)
	out = append(out, p)
	return append(out, payments...)
}
