package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/content-generator/internal/migrations"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateAccount создает учётную запись на пробном тарифе
func (f *TestDataFactory) CreateAccount(t *testing.T, email string) string {
	t.Helper()
	uid, err := f.storage.CreateAccount(context.Background(), models.Account{
		Username:       "user-" + email,
		Email:          email,
		PasswordHash:   "hashedpassword",
		Role:           models.RoleUser,
		Plan:           models.PlanTrial,
		TrialActive:    true,
		TrialExpiresAt: time.Now().Add(72 * time.Hour),
	})
	require.NoError(t, err)
	return uid
}

// SetState переводит учётную запись в нужное состояние напрямую в БД
func (f *TestDataFactory) SetState(t *testing.T, uid string, plan models.Plan, used int, trialActive bool,
	trialExpiresAt time.Time, nextBillingAt *time.Time) {
	t.Helper()
	_, err := f.storage.DB.Exec(`UPDATE accounts
		SET plan = $2, used_count = $3, trial_active = $4, trial_expires_at = $5, next_billing_at = $6
		WHERE uid = $1`,
		uid, string(plan), used, trialActive, trialExpiresAt, nextBillingAt)
	require.NoError(t, err)
}

// CreatePayment создает успешный платёж
func (f *TestDataFactory) CreatePayment(t *testing.T, uid, reference string, plan models.Plan, amount string) {
	t.Helper()
	_, err := f.storage.DB.Exec(`INSERT INTO payments (account_uid, amount, currency, plan, status, external_reference)
		VALUES ($1, $2, 'usd', $3, $4, $5)`,
		uid, decimal.RequireFromString(amount), string(plan), models.PaymentSuccess, reference)
	require.NoError(t, err)
}

// TestVerification содержит общие функции для проверки результатов тестов
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый объект для проверки результатов
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// VerifyUsedCount проверяет счётчик использованных единиц
func (v *TestVerification) VerifyUsedCount(t *testing.T, uid string, expected int) {
	t.Helper()
	var used int
	err := v.storage.DB.QueryRow("SELECT used_count FROM accounts WHERE uid = $1", uid).Scan(&used)
	require.NoError(t, err)
	require.Equal(t, expected, used)
}

// VerifyPaymentCount проверяет количество платежей учётной записи
func (v *TestVerification) VerifyPaymentCount(t *testing.T, uid string, expected int) {
	t.Helper()
	var count int
	err := v.storage.DB.QueryRow("SELECT COUNT(*) FROM payments WHERE account_uid = $1", uid).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, expected, count)
}

// setupTestDatabase создает тестовую БД с контейнером PostgreSQL и применяет миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Пробуем подключиться несколько раз с ретраями
	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "Failed to create storage after retries")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath), "Failed to apply migrations")

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.DB.Close()
		}
		_ = pgContainer.Terminate(ctx)
	}

	return storage, cleanup
}

func allowanceFor(plan models.Plan) int {
	switch plan {
	case models.PlanTrial:
		return 10
	case models.PlanFree:
		return 5
	case models.PlanBasic:
		return 50
	case models.PlanPremium:
		return 100
	}
	return 0
}
