// Package metering проверяет допуск к платным операциям и ведёт учёт их использования.
package metering

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/content-generator/internal/billing"
	"github.com/magabrotheeeer/content-generator/internal/lib/metrics"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// AccountReader читает учётную запись по UID.
type AccountReader interface {
	GetAccount(ctx context.Context, uid string) (*models.Account, error)
}

// Evaluator принимает решение о допуске к одной единице платной операции.
// Он только читает состояние, списание выполняет Ledger.Reserve.
type Evaluator struct {
	accounts AccountReader
	catalog  *billing.Catalog
}

// NewEvaluator создаёт Evaluator.
func NewEvaluator(accounts AccountReader, catalog *billing.Catalog) *Evaluator {
	return &Evaluator{accounts: accounts, catalog: catalog}
}

// Check возвращает решение для principal. При отказе вместе с решением возвращается ErrLimitExceeded.
func (e *Evaluator) Check(ctx context.Context, p models.Principal) (billing.Decision, error) {
	const op = "services.metering.Check"
	if p.IsZero() {
		return billing.Decision{}, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}

	acc, err := e.accounts.GetAccount(ctx, p.UserUID)
	if err != nil {
		return billing.Decision{}, fmt.Errorf("%s: %w", op, err)
	}

	decision := e.catalog.Evaluate(*acc, 1)
	if !decision.Allowed {
		metrics.EntitlementDecisions.WithLabelValues(acc.Plan.String(), metrics.OutcomeDenied).Inc()
		return decision, fmt.Errorf("%s: %w", op, models.ErrLimitExceeded)
	}
	metrics.EntitlementDecisions.WithLabelValues(acc.Plan.String(), metrics.OutcomeAllowed).Inc()
	return decision, nil
}
