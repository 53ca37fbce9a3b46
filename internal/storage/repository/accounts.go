package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgerrcode"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

const accountColumns = `uid, username, email, password_hash, role, plan, used_count, allowance,
	api_request_count, trial_active, trial_expires_at, next_billing_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		acc         models.Account
		plan        string
		allowance   sql.NullInt32
		nextBilling sql.NullTime
	)
	if err := row.Scan(&acc.UID, &acc.Username, &acc.Email, &acc.PasswordHash, &acc.Role, &plan,
		&acc.UsedCount, &allowance, &acc.APIRequestCount, &acc.TrialActive, &acc.TrialExpiresAt,
		&nextBilling, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
		return nil, err
	}
	acc.Plan = models.Plan(plan)
	if allowance.Valid {
		v := int(allowance.Int32)
		acc.Allowance = &v
	}
	if nextBilling.Valid {
		t := nextBilling.Time
		acc.NextBillingAt = &t
	}
	return &acc, nil
}

func nullInt(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true}
}

// CreateAccount сохраняет новую учётную запись и возвращает её UID.
func (s *Storage) CreateAccount(ctx context.Context, acc models.Account) (string, error) {
	const op = "storage.CreateAccount"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	var uid string
	query := `INSERT INTO accounts (username, email, password_hash, role, plan, trial_active, trial_expires_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING uid`
	err := s.DB.QueryRowContext(ctx, query,
		acc.Username, acc.Email, acc.PasswordHash, acc.Role, string(acc.Plan),
		acc.TrialActive, acc.TrialExpiresAt).Scan(&uid)
	if err != nil {
		if pgCode(err) == pgerrcode.UniqueViolation {
			return "", fmt.Errorf("%s: %w", op, models.ErrEmailTaken)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// GetAccount возвращает учётную запись по UID.
func (s *Storage) GetAccount(ctx context.Context, uid string) (*models.Account, error) {
	const op = "storage.GetAccount"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE uid = $1`, uid)
	acc, err := scanAccount(row)
	if err != nil {
		return nil, wrapAccountErr(op, err)
	}
	return acc, nil
}

// GetAccountByEmail возвращает учётную запись по email.
func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.GetAccountByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	acc, err := scanAccount(row)
	if err != nil {
		return nil, wrapAccountErr(op, err)
	}
	return acc, nil
}

// SetAllowance задаёт явный лимит учётной записи. nil возвращает лимит тарифа.
func (s *Storage) SetAllowance(ctx context.Context, uid string, allowance *int) (*models.Account, error) {
	const op = "storage.SetAllowance"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE accounts
			  SET allowance = $2, updated_at = NOW()
			  WHERE uid = $1
			  RETURNING ` + accountColumns
	acc, err := scanAccount(s.DB.QueryRowContext(ctx, query, uid, nullInt(allowance)))
	if err != nil {
		return nil, wrapAccountErr(op, err)
	}
	return acc, nil
}
