package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ListPayments возвращает платежи учётной записи, начиная с последних.
func (s *Storage) ListPayments(ctx context.Context, uid string) ([]models.Payment, error) {
	const op = "storage.ListPayments"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	payments, err := listPayments(ctx, s.DB, uid)
	if err != nil {
		return nil, wrapAccountErr(op, err)
	}
	return payments, nil
}

func listPayments(ctx context.Context, q queryer, uid string) ([]models.Payment, error) {
	query := `SELECT id, account_uid, amount, currency, plan, status, external_reference, created_at
			  FROM payments
			  WHERE account_uid = $1
			  ORDER BY created_at DESC, id`
	rows, err := q.QueryContext(ctx, query, uid)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Payment, 0)
	for rows.Next() {
		var (
			p    models.Payment
			plan string
		)
		if err = rows.Scan(&p.ID, &p.AccountUID, &p.Amount, &p.Currency, &plan, &p.Status,
			&p.ExternalReference, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Plan = models.Plan(plan)
		result = append(result, p)
	}
	return result, rows.Err()
}

// PaymentExists сообщает, записан ли платёж с указанным внешним идентификатором.
func (s *Storage) PaymentExists(ctx context.Context, externalReference string) (bool, error) {
	const op = "storage.PaymentExists"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM payments WHERE external_reference = $1)`,
		externalReference).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}
