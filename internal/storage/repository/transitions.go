package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/content-generator/internal/billing"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// TransitionFunc вычисляет новое состояние учётной записи по текущему.
type TransitionFunc = func(acc models.Account) (billing.Result, error)

// ApplyTransition выполняет переход тарифа в транзакции с блокировкой строки учётной записи.
//
// Платёж, созданный переходом, вставляется с ON CONFLICT DO NOTHING по external_reference:
// повторная доставка того же подтверждения не меняет состояние. Второе возвращаемое значение
// сообщает, было ли что-то изменено.
func (s *Storage) ApplyTransition(ctx context.Context, uid string, fn TransitionFunc) (*models.Account, bool, error) {
	const op = "storage.ApplyTransition"
	if err := checkCtx(ctx, op); err != nil {
		return nil, false, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, err := scanAccount(tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE uid = $1 FOR UPDATE`, uid))
	if err != nil {
		return nil, false, wrapAccountErr(op, err)
	}
	current.Payments, err = listPayments(ctx, tx, uid)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	res, err := fn(*current)
	if err != nil {
		return current, false, fmt.Errorf("%s: %w", op, err)
	}
	if !res.Changed {
		return current, false, nil
	}

	next := res.Account
	if res.Payment != nil {
		p := res.Payment
		err = tx.QueryRowContext(ctx, `INSERT INTO payments
				  (account_uid, amount, currency, plan, status, external_reference, created_at)
				  VALUES ($1, $2, $3, $4, $5, $6, $7)
				  ON CONFLICT (external_reference) DO NOTHING
				  RETURNING id`,
			uid, p.Amount, p.Currency, string(p.Plan), p.Status, p.ExternalReference, p.CreatedAt).Scan(&p.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return current, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
		for i := range next.Payments {
			if next.Payments[i].ExternalReference == p.ExternalReference {
				next.Payments[i].ID = p.ID
			}
		}
	}

	var nextBilling sql.NullTime
	if next.NextBillingAt != nil {
		nextBilling = sql.NullTime{Time: *next.NextBillingAt, Valid: true}
	}
	updated, err := scanAccount(tx.QueryRowContext(ctx, `UPDATE accounts
			  SET plan = $2, used_count = $3, allowance = $4, trial_active = $5,
			      next_billing_at = $6, updated_at = NOW()
			  WHERE uid = $1
			  RETURNING `+accountColumns,
		uid, string(next.Plan), next.UsedCount, nullInt(next.Allowance), next.TrialActive, nextBilling))
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	updated.Payments = next.Payments
	return updated, true, nil
}
