// Package account отдаёт профиль учётной записи и позволяет администратору менять лимит.
package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/content-generator/internal/billing"
	"github.com/magabrotheeeer/content-generator/internal/cache"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// HistoryLimit количество записей истории использования в профиле.
const HistoryLimit = 50

// Repository чтение и изменение учётных записей.
type Repository interface {
	GetAccount(ctx context.Context, uid string) (*models.Account, error)
	ListPayments(ctx context.Context, uid string) ([]models.Payment, error)
	ListUsage(ctx context.Context, uid string, limit int) ([]models.UsageRecord, error)
	SetAllowance(ctx context.Context, uid string, allowance *int) (*models.Account, error)
}

// ProfileCache кэш профилей.
type ProfileCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service сервис профилей.
type Service struct {
	repo    Repository
	cache   ProfileCache
	catalog *billing.Catalog
	log     *slog.Logger
}

// New создаёт Service. profiles может быть nil, тогда профиль всегда читается из базы.
func New(repo Repository, profiles ProfileCache, catalog *billing.Catalog, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		cache:   profiles,
		catalog: catalog,
		log:     log,
	}
}

// Profile возвращает учётную запись с остатком лимита, платежами и историей использования.
func (s *Service) Profile(ctx context.Context, uid string) (*models.Profile, error) {
	const op = "services.account.Profile"
	log := s.log.With(sl.Op(op), slog.String("account_uid", uid))
	key := cache.ProfileKey(uid)

	if s.cache != nil {
		var cached models.Profile
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn("failed to read profile from cache", sl.Err(err))
		} else if found {
			log.Debug("profile served from cache")
			return &cached, nil
		}
	}

	acc, err := s.repo.GetAccount(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if acc.Payments, err = s.repo.ListPayments(ctx, uid); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if acc.UsageHistory, err = s.repo.ListUsage(ctx, uid, HistoryLimit); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	decision := s.catalog.Evaluate(*acc, 1)
	profile := &models.Profile{
		Account:   *acc,
		Remaining: decision.Remaining,
		Allowed:   decision.Allowance,
	}

	if s.cache != nil {
		if err = s.cache.Set(ctx, key, profile, 0); err != nil {
			log.Warn("failed to cache profile", sl.Err(err))
		} else {
			s.dropIfChanged(ctx, log, key, acc)
		}
	}
	return profile, nil
}

// dropIfChanged перечитывает учётную запись после записи в кэш и удаляет запись,
// если аккаунт успели изменить: инвалидация писателя могла пройти раньше нашего Set.
func (s *Service) dropIfChanged(ctx context.Context, log *slog.Logger, key string, cached *models.Account) {
	fresh, err := s.repo.GetAccount(ctx, cached.UID)
	if err == nil && sameState(cached, fresh) {
		return
	}
	if err != nil {
		log.Warn("failed to re-read account after caching", sl.Err(err))
	}
	if err = s.cache.Invalidate(ctx, key); err != nil {
		log.Warn("failed to drop stale profile", sl.Err(err))
	}
}

func sameState(a, b *models.Account) bool {
	if a.Plan != b.Plan || a.UsedCount != b.UsedCount || !a.UpdatedAt.Equal(b.UpdatedAt) {
		return false
	}
	if (a.Allowance == nil) != (b.Allowance == nil) {
		return false
	}
	return a.Allowance == nil || *a.Allowance == *b.Allowance
}

// SetAllowance задаёт явный лимит учётной записи. nil возвращает лимит тарифа.
// Доступно только администратору.
func (s *Service) SetAllowance(ctx context.Context, p models.Principal, uid string, allowance *int) (*models.Account, error) {
	const op = "services.account.SetAllowance"
	if p.IsZero() {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}
	if !p.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	if allowance != nil && *allowance < 0 {
		return nil, fmt.Errorf("%s: %w: allowance must not be negative", op, models.ErrValidation)
	}

	acc, err := s.repo.SetAllowance(ctx, uid, allowance)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.cache != nil {
		if err = s.cache.Invalidate(ctx, cache.ProfileKey(uid)); err != nil {
			s.log.Warn("failed to invalidate profile cache", sl.Op(op), sl.Err(err))
		}
	}
	s.log.Info("allowance changed", sl.Op(op),
		slog.String("account_uid", uid),
		slog.String("admin_uid", p.UserUID))
	return acc, nil
}
