// Package generation выполняет платные операции генерации: списывает единицу лимита,
// вызывает внешний API и записывает результат в историю использования.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/content-generator/internal/cache"
	"github.com/magabrotheeeer/content-generator/internal/lib/metrics"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// MaxPromptLength максимальная длина запроса в символах.
const MaxPromptLength = 4000

// Ledger учёт единиц лимита.
type Ledger interface {
	Reserve(ctx context.Context, uid string) (*models.Account, error)
	Release(ctx context.Context, uid string) error
	Record(ctx context.Context, uid string, kind models.UsageKind, payload string) (*models.UsageRecord, error)
}

// Generator внешний API генерации текста.
type Generator interface {
	Generate(ctx context.Context, kind models.UsageKind, prompt string) (string, error)
}

// Invalidator сбрасывает закэшированный профиль.
type Invalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// Service сервис генерации.
type Service struct {
	ledger    Ledger
	generator Generator
	cache     Invalidator
	log       *slog.Logger
}

// New создаёт Service. cache может быть nil.
func New(ledger Ledger, generator Generator, cache Invalidator, log *slog.Logger) *Service {
	return &Service{
		ledger:    ledger,
		generator: generator,
		cache:     cache,
		log:       log,
	}
}

// Generate списывает единицу лимита и возвращает сгенерированный текст.
// Если внешний API не ответил, единица возвращается.
func (s *Service) Generate(ctx context.Context, p models.Principal, kind models.UsageKind, prompt string) (string, error) {
	const op = "services.generation.Generate"
	if p.IsZero() {
		return "", fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}
	if kind != models.KindContent && kind != models.KindCode {
		return "", fmt.Errorf("%s: %w: unknown kind %q", op, models.ErrValidation, kind)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("%s: %w: prompt is empty", op, models.ErrValidation)
	}
	if len([]rune(prompt)) > MaxPromptLength {
		return "", fmt.Errorf("%s: %w: prompt is longer than %d characters", op, models.ErrValidation, MaxPromptLength)
	}

	log := s.log.With(sl.Op(op), slog.String("account_uid", p.UserUID), slog.String("kind", string(kind)))

	if _, err := s.ledger.Reserve(ctx, p.UserUID); err != nil {
		if errors.Is(err, models.ErrLimitExceeded) {
			metrics.GenerationsTotal.WithLabelValues(string(kind), metrics.OutcomeDenied).Inc()
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	content, err := s.generator.Generate(ctx, kind, prompt)
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues(string(kind), metrics.OutcomeError).Inc()
		log.Error("generation failed", sl.Err(err))
		if relErr := s.ledger.Release(context.WithoutCancel(ctx), p.UserUID); relErr != nil {
			log.Error("failed to release reserved unit", sl.Err(relErr))
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	metrics.GenerationsTotal.WithLabelValues(string(kind), metrics.OutcomeOK).Inc()

	if _, err = s.ledger.Record(ctx, p.UserUID, kind, content); err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			log.Warn("account vanished before usage was recorded", sl.Err(err))
		} else {
			log.Error("failed to record usage", sl.Err(err))
		}
	}

	if s.cache != nil {
		if err = s.cache.Invalidate(ctx, cache.ProfileKey(p.UserUID)); err != nil {
			log.Warn("failed to invalidate profile cache", sl.Err(err))
		}
	}
	return content, nil
}
