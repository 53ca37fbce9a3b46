// Package subscription применяет переходы тарифов к сохранённым учётным записям
// и публикует уведомления о них.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/content-generator/internal/billing"
	"github.com/magabrotheeeer/content-generator/internal/cache"
	"github.com/magabrotheeeer/content-generator/internal/lib/clock"
	"github.com/magabrotheeeer/content-generator/internal/lib/metrics"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// Repository выполняет переход в транзакции с блокировкой учётной записи.
type Repository interface {
	ApplyTransition(ctx context.Context, uid string, fn func(acc models.Account) (billing.Result, error)) (*models.Account, bool, error)
}

// Publisher отправляет событие биллинга в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Invalidator сбрасывает закэшированный профиль.
type Invalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// Service применяет переходы тарифов.
type Service struct {
	repo      Repository
	engine    *billing.Engine
	clock     clock.Clock
	publisher Publisher
	cache     Invalidator
	log       *slog.Logger
}

// Option настраивает необязательные зависимости Service.
type Option func(*Service)

// WithPublisher включает публикацию уведомлений.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithCache включает сброс кэша профилей после изменения учётной записи.
func WithCache(c Invalidator) Option {
	return func(s *Service) { s.cache = c }
}

// New создаёт Service.
func New(repo Repository, engine *billing.Engine, clk clock.Clock, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		engine: engine,
		clock:  clk,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExpireTrial переводит учётную запись с истёкшим пробным периодом на Free.
func (s *Service) ExpireTrial(ctx context.Context, uid string) (*models.Account, bool, error) {
	return s.apply(ctx, uid, billing.TrialExpired(), models.EventTrialExpired)
}

// ResetCycle сбрасывает счётчик учётной записи тарифа plan, если наступила дата списания.
func (s *Service) ResetCycle(ctx context.Context, uid string, plan models.Plan) (*models.Account, bool, error) {
	return s.apply(ctx, uid, billing.CycleReset(plan), models.EventCycleReset)
}

// FreePlan оформляет бесплатный тариф. Возвращает ErrInvalidTransition, если продление ещё не наступило.
func (s *Service) FreePlan(ctx context.Context, uid string) (*models.Account, error) {
	acc, _, err := s.apply(ctx, uid, billing.FreeTierSignup(), "")
	return acc, err
}

// Upgrade переводит учётную запись на платный тариф по подтверждённому платежу.
// Повторное подтверждение того же платежа ничего не меняет, второе значение тогда false.
func (s *Service) Upgrade(ctx context.Context, uid string, plan models.Plan, payment models.Payment) (*models.Account, bool, error) {
	return s.apply(ctx, uid, billing.PaidUpgrade(plan, payment), models.EventPaymentSucceeded)
}

func (s *Service) apply(ctx context.Context, uid string, tr billing.Trigger, eventType string) (*models.Account, bool, error) {
	const op = "services.subscription.apply"
	log := s.log.With(sl.Op(op), slog.String("account_uid", uid), slog.String("trigger", string(tr.Kind)))

	now := s.clock.Now()
	var payment *models.Payment
	acc, changed, err := s.repo.ApplyTransition(ctx, uid, func(current models.Account) (billing.Result, error) {
		res, err := s.engine.Apply(current, tr, now)
		payment = res.Payment
		return res, err
	})
	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(string(tr.Kind), metrics.OutcomeError).Inc()
		return acc, false, fmt.Errorf("%s: %w", op, err)
	}
	if !changed {
		metrics.TransitionsTotal.WithLabelValues(string(tr.Kind), metrics.OutcomeSkipped).Inc()
		log.Debug("transition not applicable")
		return acc, false, nil
	}

	metrics.TransitionsTotal.WithLabelValues(string(tr.Kind), metrics.OutcomeOK).Inc()
	log.Info("transition applied", slog.String("plan", acc.Plan.String()))

	if s.cache != nil {
		if err = s.cache.Invalidate(ctx, cache.ProfileKey(uid)); err != nil {
			log.Warn("failed to invalidate profile cache", sl.Err(err))
		}
	}
	if eventType != "" {
		s.notify(ctx, log, eventType, *acc, payment, now)
	}
	return acc, true, nil
}

func (s *Service) notify(ctx context.Context, log *slog.Logger, eventType string, acc models.Account, payment *models.Payment, now time.Time) {
	if s.publisher == nil {
		return
	}
	event := models.NewBillingEvent(eventType, acc, now)
	if payment != nil {
		amount := payment.Amount
		event.Amount = &amount
		event.Currency = payment.Currency
	}
	if err := s.publisher.Publish(ctx, eventType, event); err != nil {
		log.Error("failed to publish billing event", slog.String("event", eventType), sl.Err(err))
	}
}
