package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

// FindExpiredTrials возвращает UID учётных записей с истёкшим пробным периодом.
func (s *Storage) FindExpiredTrials(ctx context.Context, now time.Time) ([]string, error) {
	const op = "storage.FindExpiredTrials"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT uid FROM accounts
			  WHERE trial_active = TRUE AND trial_expires_at < $1
			  ORDER BY trial_expires_at`
	uids, err := s.selectUIDs(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return uids, nil
}

// FindDueForCycleReset возвращает UID учётных записей тарифа plan, у которых наступила дата списания.
func (s *Storage) FindDueForCycleReset(ctx context.Context, plan models.Plan, now time.Time) ([]string, error) {
	const op = "storage.FindDueForCycleReset"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT uid FROM accounts
			  WHERE plan = $1 AND next_billing_at < $2
			  ORDER BY next_billing_at`
	uids, err := s.selectUIDs(ctx, query, string(plan), now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return uids, nil
}

func (s *Storage) selectUIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var uids []string
	for rows.Next() {
		var uid string
		if err = rows.Scan(&uid); err != nil {
			return nil, err
		}
		uids = append(uids, uid)
	}
	return uids, rows.Err()
}
