package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

// maxReserveAttempts ограничивает повторы, когда тариф меняется между чтением и списанием.
const maxReserveAttempts = 3

// ReserveUnit атомарно списывает одну единицу лимита.
// Списание выполняется одним условным UPDATE, поэтому параллельные запросы
// не могут превысить лимит. allowanceFor возвращает лимит тарифа по умолчанию.
func (s *Storage) ReserveUnit(ctx context.Context, uid string, allowanceFor func(models.Plan) int) (*models.Account, error) {
	const op = "storage.ReserveUnit"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE accounts
			  SET used_count = used_count + 1, updated_at = NOW()
			  WHERE uid = $1 AND plan = $2 AND used_count < COALESCE(allowance, $3)
			  RETURNING ` + accountColumns

	for range maxReserveAttempts {
		current, err := s.GetAccount(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		acc, err := scanAccount(s.DB.QueryRowContext(ctx, query, uid, string(current.Plan), allowanceFor(current.Plan)))
		if err == nil {
			return acc, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		after, err := s.GetAccount(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if after.Plan == current.Plan {
			return nil, fmt.Errorf("%s: %w", op, models.ErrLimitExceeded)
		}
	}
	return nil, fmt.Errorf("%s: %w: plan changed %d times", op, models.ErrConflict, maxReserveAttempts)
}

// ReleaseUnit возвращает ранее списанную единицу, если операция не была выполнена.
func (s *Storage) ReleaseUnit(ctx context.Context, uid string) error {
	const op = "storage.ReleaseUnit"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE accounts
			  SET used_count = used_count - 1, updated_at = NOW()
			  WHERE uid = $1 AND used_count > 0`
	if _, err := s.DB.ExecContext(ctx, query, uid); err != nil {
		return wrapAccountErr(op, err)
	}
	return nil
}

// RecordUsage сохраняет запись использования и увеличивает счётчик обращений к API.
func (s *Storage) RecordUsage(ctx context.Context, rec models.UsageRecord) (*models.UsageRecord, error) {
	const op = "storage.RecordUsage"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `UPDATE accounts
			  SET api_request_count = api_request_count + 1, updated_at = NOW()
			  WHERE uid = $1`, rec.AccountUID)
	if err != nil {
		return nil, wrapAccountErr(op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
	}

	out := rec
	err = tx.QueryRowContext(ctx, `INSERT INTO usage_records (account_uid, kind, payload_summary)
			  VALUES ($1, $2, $3)
			  RETURNING id, created_at`,
		rec.AccountUID, string(rec.Kind), rec.PayloadSummary).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		if pgCode(err) == pgerrcode.ForeignKeyViolation {
			return nil, fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}

// ListUsage возвращает историю использования, начиная с последних записей.
func (s *Storage) ListUsage(ctx context.Context, uid string, limit int) ([]models.UsageRecord, error) {
	const op = "storage.ListUsage"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, account_uid, kind, payload_summary, created_at
			  FROM usage_records
			  WHERE account_uid = $1
			  ORDER BY created_at DESC, id
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, uid, limit)
	if err != nil {
		return nil, wrapAccountErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.UsageRecord, 0)
	for rows.Next() {
		var (
			rec  models.UsageRecord
			kind string
		)
		if err = rows.Scan(&rec.ID, &rec.AccountUID, &kind, &rec.PayloadSummary, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		rec.Kind = models.UsageKind(kind)
		result = append(result, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
