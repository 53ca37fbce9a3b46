package metering

import (
	"context"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/content-generator/internal/billing"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// DefaultHistoryLimit размер истории использования по умолчанию.
const DefaultHistoryLimit = 50

// LedgerRepository хранилище счётчиков и записей использования.
type LedgerRepository interface {
	ReserveUnit(ctx context.Context, uid string, allowanceFor func(models.Plan) int) (*models.Account, error)
	ReleaseUnit(ctx context.Context, uid string) error
	RecordUsage(ctx context.Context, rec models.UsageRecord) (*models.UsageRecord, error)
	ListUsage(ctx context.Context, uid string, limit int) ([]models.UsageRecord, error)
}

// Ledger учитывает потребление платных операций.
type Ledger struct {
	repo    LedgerRepository
	catalog *billing.Catalog
}

// NewLedger создаёт Ledger.
func NewLedger(repo LedgerRepository, catalog *billing.Catalog) *Ledger {
	return &Ledger{repo: repo, catalog: catalog}
}

// Reserve атомарно списывает одну единицу. Возвращает ErrLimitExceeded, если лимит исчерпан,
// и ErrConflict, если тариф всё время менялся во время списания.
func (l *Ledger) Reserve(ctx context.Context, uid string) (*models.Account, error) {
	const op = "services.metering.Reserve"
	acc, err := l.repo.ReserveUnit(ctx, uid, l.catalog.DefaultAllowance)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

// Release возвращает единицу, списанную Reserve, если операция не выполнена.
func (l *Ledger) Release(ctx context.Context, uid string) error {
	const op = "services.metering.Release"
	if err := l.repo.ReleaseUnit(ctx, uid); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Record сохраняет запись о выполненной операции.
func (l *Ledger) Record(ctx context.Context, uid string, kind models.UsageKind, payload string) (*models.UsageRecord, error) {
	const op = "services.metering.Record"
	rec, err := l.repo.RecordUsage(ctx, models.UsageRecord{
		AccountUID:     uid,
		Kind:           kind,
		PayloadSummary: strings.TrimSpace(payload),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

// History возвращает последние записи использования, не больше limit.
func (l *Ledger) History(ctx context.Context, uid string, limit int) ([]models.UsageRecord, error) {
	const op = "services.metering.History"
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	records, err := l.repo.ListUsage(ctx, uid, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}
