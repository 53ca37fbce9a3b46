// Package payment принимает оплату тарифов: создаёт платежи у провайдера,
// подтверждает их по запросу клиента или по вебхуку и переводит учётную запись на тариф.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/content-generator/internal/billing"
	"github.com/magabrotheeeer/content-generator/internal/lib/metrics"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/models"
	"github.com/magabrotheeeer/content-generator/internal/paymentprovider"
)

// Источники подтверждения оплаты для метрик.
const (
	sourceVerify  = "verify"
	sourceWebhook = "webhook"
)

// AccountReader читает учётную запись по UID.
type AccountReader interface {
	GetAccount(ctx context.Context, uid string) (*models.Account, error)
}

// Transitions применяет переходы тарифов.
type Transitions interface {
	Upgrade(ctx context.Context, uid string, plan models.Plan, payment models.Payment) (*models.Account, bool, error)
	FreePlan(ctx context.Context, uid string) (*models.Account, error)
}

// CheckoutResult данные, которые клиент передаёт платёжной форме.
type CheckoutResult struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// Service обработчик платёжных событий.
type Service struct {
	provider    paymentprovider.Provider
	accounts    AccountReader
	transitions Transitions
	catalog     *billing.Catalog
	log         *slog.Logger
}

// New создаёт Service.
func New(provider paymentprovider.Provider, accounts AccountReader, transitions Transitions, catalog *billing.Catalog, log *slog.Logger) *Service {
	return &Service{
		provider:    provider,
		accounts:    accounts,
		transitions: transitions,
		catalog:     catalog,
		log:         log,
	}
}

// Checkout создаёт платёж на оплату тарифа plan. Сумма должна совпадать с ценой тарифа.
func (s *Service) Checkout(ctx context.Context, p models.Principal, amount decimal.Decimal, plan string) (*CheckoutResult, error) {
	const op = "services.payment.Checkout"
	if p.IsZero() {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}

	target, err := models.ParsePlan(plan)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrValidation, err)
	}
	price, ok := s.catalog.Price(target)
	if !ok {
		return nil, fmt.Errorf("%s: %w: plan %q is not for sale", op, models.ErrValidation, target)
	}
	if !amount.Equal(price) {
		return nil, fmt.Errorf("%s: %w: amount %s does not match price %s", op, models.ErrValidation, amount, price)
	}

	acc, err := s.accounts.GetAccount(ctx, p.UserUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	intent, err := s.provider.CreatePaymentIntent(ctx, paymentprovider.IntentRequest{
		Amount:   price,
		Currency: s.catalog.Currency(),
		Metadata: map[string]string{
			paymentprovider.MetaUserUID:   acc.UID,
			paymentprovider.MetaUserEmail: acc.Email,
			paymentprovider.MetaPlan:      target.String(),
		},
	})
	if err != nil {
		s.log.Error("failed to create payment intent", sl.Op(op), slog.String("account_uid", acc.UID), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("payment intent created", sl.Op(op),
		slog.String("account_uid", acc.UID),
		slog.String("payment_intent", intent.ID),
		slog.String("plan", target.String()))
	return &CheckoutResult{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID}, nil
}

// Verify подтверждает оплату по идентификатору платежа и переводит учётную запись на оплаченный тариф.
// Повторное подтверждение возвращает учётную запись без изменений.
func (s *Service) Verify(ctx context.Context, p models.Principal, intentID string) (*models.Account, error) {
	const op = "services.payment.Verify"
	if p.IsZero() {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}

	intent, err := s.provider.GetPaymentIntent(ctx, intentID)
	if err != nil {
		metrics.PaymentsTotal.WithLabelValues(sourceVerify, metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !intent.Succeeded {
		metrics.PaymentsTotal.WithLabelValues(sourceVerify, metrics.OutcomeDenied).Inc()
		return nil, fmt.Errorf("%s: %w: status %q", op, models.ErrPaymentNotSucceeded, intent.Status)
	}
	if intent.Metadata[paymentprovider.MetaUserUID] != p.UserUID {
		metrics.PaymentsTotal.WithLabelValues(sourceVerify, metrics.OutcomeDenied).Inc()
		return nil, fmt.Errorf("%s: %w: payment belongs to another account", op, models.ErrForbidden)
	}

	acc, err := s.upgrade(ctx, sourceVerify, intent)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

// HandleWebhook проверяет подпись вебхука и применяет успешную оплату.
// События других типов и платежи без данных об учётной записи пропускаются.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	const op = "services.payment.HandleWebhook"
	log := s.log.With(sl.Op(op))

	event, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		metrics.WebhookRequestsTotal.WithLabelValues("unknown", "rejected").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	log = log.With(slog.String("event_id", event.ID), slog.String("event_type", event.Type))

	if event.Type != paymentprovider.EventPaymentSucceeded || event.Intent == nil {
		metrics.WebhookRequestsTotal.WithLabelValues(event.Type, "ignored").Inc()
		log.Debug("webhook event ignored")
		return nil
	}
	if !event.Intent.Succeeded {
		metrics.WebhookRequestsTotal.WithLabelValues(event.Type, "ignored").Inc()
		log.Warn("payment intent is not succeeded", slog.String("status", event.Intent.Status))
		return nil
	}
	if event.Intent.Metadata[paymentprovider.MetaUserUID] == "" {
		metrics.WebhookRequestsTotal.WithLabelValues(event.Type, "ignored").Inc()
		log.Warn("payment intent has no account metadata", slog.String("payment_intent", event.Intent.ID))
		return nil
	}

	if _, err = s.upgrade(ctx, sourceWebhook, event.Intent); err != nil {
		if errors.Is(err, models.ErrAccountNotFound) || errors.Is(err, models.ErrValidation) ||
			errors.Is(err, models.ErrInvalidTransition) {
			metrics.WebhookRequestsTotal.WithLabelValues(event.Type, "ignored").Inc()
			log.Warn("webhook payment not applied", slog.String("payment_intent", event.Intent.ID), sl.Err(err))
			return nil
		}
		metrics.WebhookRequestsTotal.WithLabelValues(event.Type, "failed").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.WebhookRequestsTotal.WithLabelValues(event.Type, "processed").Inc()
	return nil
}

// FreePlan оформляет бесплатный тариф для principal.
func (s *Service) FreePlan(ctx context.Context, p models.Principal) (*models.Account, error) {
	const op = "services.payment.FreePlan"
	if p.IsZero() {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}
	acc, err := s.transitions.FreePlan(ctx, p.UserUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

func (s *Service) upgrade(ctx context.Context, source string, intent *paymentprovider.Intent) (*models.Account, error) {
	plan, err := models.ParsePlan(intent.Metadata[paymentprovider.MetaPlan])
	if err != nil {
		metrics.PaymentsTotal.WithLabelValues(source, metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("%w: %w", models.ErrValidation, err)
	}

	uid := intent.Metadata[paymentprovider.MetaUserUID]
	acc, changed, err := s.transitions.Upgrade(ctx, uid, plan, models.Payment{
		Amount:            intent.Amount,
		Currency:          intent.Currency,
		Plan:              plan,
		Status:            models.PaymentSuccess,
		ExternalReference: intent.ID,
	})
	if err != nil {
		metrics.PaymentsTotal.WithLabelValues(source, metrics.OutcomeError).Inc()
		return nil, err
	}
	if !changed {
		metrics.PaymentsTotal.WithLabelValues(source, metrics.OutcomeSkipped).Inc()
		return acc, nil
	}

	metrics.PaymentsTotal.WithLabelValues(source, metrics.OutcomeOK).Inc()
	s.log.Info("payment applied",
		slog.String("source", source),
		slog.String("account_uid", uid),
		slog.String("payment_intent", intent.ID),
		slog.String("plan", plan.String()))
	return acc, nil
}
