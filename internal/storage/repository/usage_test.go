package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

func TestStorage_ReserveUnit(t *testing.T) {
	tests := []struct {
		name      string
		used      int
		allowance *int
		wantErr   error
		wantUsed  int
	}{
		{name: "below default allowance", used: 0, wantUsed: 1},
		{name: "last unit", used: 9, wantUsed: 10},
		{name: "default allowance reached", used: 10, wantErr: models.ErrLimitExceeded, wantUsed: 10},
		{name: "override raises limit", used: 10, allowance: intPtr(20), wantUsed: 11},
		{name: "zero override blocks", used: 0, allowance: intPtr(0), wantErr: models.ErrLimitExceeded, wantUsed: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			ctx := context.Background()
			factory := NewTestDataFactory(storage)
			uid := factory.CreateAccount(t, "reserve@example.com")
			factory.SetState(t, uid, models.PlanTrial, tt.used, true, time.Now().Add(time.Hour), nil)
			if tt.allowance != nil {
				_, err := storage.SetAllowance(ctx, uid, tt.allowance)
				require.NoError(t, err)
			}

			acc, err := storage.ReserveUnit(ctx, uid, allowanceFor)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantUsed, acc.UsedCount)
			}
			NewTestVerification(storage).VerifyUsedCount(t, uid, tt.wantUsed)
		})
	}
}

func TestStorage_ReserveUnitPlanKeepsChanging(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	uid := factory.CreateAccount(t, "churn@example.com")
	factory.SetState(t, uid, models.PlanBasic, 0, false, time.Now().Add(-time.Hour), nil)

	// Между чтением тарифа и списанием тариф каждый раз меняется.
	plans := []models.Plan{models.PlanPremium, models.PlanBasic}
	calls := 0
	churn := func(plan models.Plan) int {
		next := plans[calls%len(plans)]
		calls++
		_, err := storage.DB.ExecContext(ctx, `UPDATE accounts SET plan = $2 WHERE uid = $1`, uid, string(next))
		require.NoError(t, err)
		return allowanceFor(plan)
	}

	_, err := storage.ReserveUnit(ctx, uid, churn)
	require.ErrorIs(t, err, models.ErrConflict)
	assert.NotErrorIs(t, err, models.ErrLimitExceeded)
	assert.Equal(t, maxReserveAttempts, calls)
	NewTestVerification(storage).VerifyUsedCount(t, uid, 0)
}

func TestStorage_ReserveUnitUnknownAccount(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	_, err := storage.ReserveUnit(context.Background(), uuid.NewString(), allowanceFor)
	require.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestStorage_ReserveUnitConcurrentLastUnit(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	uid := factory.CreateAccount(t, "race@example.com")
	factory.SetState(t, uid, models.PlanTrial, 9, true, time.Now().Add(time.Hour), nil)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		denied  int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := storage.ReserveUnit(context.Background(), uid, allowanceFor)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
			} else {
				assert.ErrorIs(t, err, models.ErrLimitExceeded)
				denied++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, workers-1, denied)
	NewTestVerification(storage).VerifyUsedCount(t, uid, 10)
}

func TestStorage_ReleaseUnit(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	uid := factory.CreateAccount(t, "release@example.com")

	_, err := storage.ReserveUnit(ctx, uid, allowanceFor)
	require.NoError(t, err)
	require.NoError(t, storage.ReleaseUnit(ctx, uid))
	NewTestVerification(storage).VerifyUsedCount(t, uid, 0)

	require.NoError(t, storage.ReleaseUnit(ctx, uid))
	NewTestVerification(storage).VerifyUsedCount(t, uid, 0)
}

func TestStorage_RecordUsage(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	uid := NewTestDataFactory(storage).CreateAccount(t, "usage@example.com")

	rec, err := storage.RecordUsage(ctx, models.UsageRecord{AccountUID: uid, Kind: models.KindContent, PayloadSummary: "first"})
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	_, err = storage.RecordUsage(ctx, models.UsageRecord{AccountUID: uid, Kind: models.KindCode, PayloadSummary: "second"})
	require.NoError(t, err)

	history, err := storage.ListUsage(ctx, uid, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.KindCode, history[0].Kind)
	assert.Equal(t, "first", history[1].PayloadSummary)

	acc, err := storage.GetAccount(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, int64(2), acc.APIRequestCount)
	assert.Equal(t, 0, acc.UsedCount)

	_, err = storage.RecordUsage(ctx, models.UsageRecord{AccountUID: uuid.NewString(), Kind: models.KindContent})
	require.ErrorIs(t, err, models.ErrAccountNotFound)
}

func intPtr(v int) *int { return &v }
