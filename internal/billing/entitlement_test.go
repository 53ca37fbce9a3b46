package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/content-generator/internal/config"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

func intPtr(v int) *int { return &v }

func TestCatalog_EffectiveAllowance(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		name string
		acc  models.Account
		want int
	}{
		{name: "trial default", acc: models.Account{Plan: models.PlanTrial}, want: 10},
		{name: "free default", acc: models.Account{Plan: models.PlanFree}, want: 5},
		{name: "basic default", acc: models.Account{Plan: models.PlanBasic}, want: 50},
		{name: "premium default", acc: models.Account{Plan: models.PlanPremium}, want: 100},
		{name: "explicit allowance wins", acc: models.Account{Plan: models.PlanFree, Allowance: intPtr(42)}, want: 42},
		{name: "explicit zero allowance", acc: models.Account{Plan: models.PlanPremium, Allowance: intPtr(0)}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.EffectiveAllowance(tt.acc))
		})
	}
}

func TestCatalog_Evaluate(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		name          string
		acc           models.Account
		wantAllowed   bool
		wantRemaining int
	}{
		{name: "fresh free account", acc: models.Account{Plan: models.PlanFree}, wantAllowed: true, wantRemaining: 5},
		{name: "one unit left", acc: models.Account{Plan: models.PlanFree, UsedCount: 4}, wantAllowed: true, wantRemaining: 1},
		{name: "exhausted", acc: models.Account{Plan: models.PlanFree, UsedCount: 5}, wantAllowed: false, wantRemaining: 0},
		{name: "over the limit after override", acc: models.Account{Plan: models.PlanBasic, UsedCount: 30, Allowance: intPtr(20)}, wantAllowed: false, wantRemaining: 0},
		{name: "override raises limit", acc: models.Account{Plan: models.PlanFree, UsedCount: 5, Allowance: intPtr(7)}, wantAllowed: true, wantRemaining: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := c.Evaluate(tt.acc, 1)
			assert.Equal(t, tt.wantAllowed, d.Allowed)
			assert.Equal(t, tt.wantRemaining, d.Remaining)
			assert.Equal(t, tt.acc.UsedCount, d.Used)
		})
	}
}

func TestCatalog_EvaluateDeniesExactlyAtLimit(t *testing.T) {
	c := DefaultCatalog()
	for _, plan := range models.Plans {
		allowance := c.DefaultAllowance(plan)
		for used := 0; used <= allowance+2; used++ {
			d := c.Evaluate(models.Account{Plan: plan, UsedCount: used}, 1)
			assert.Equal(t, used < allowance, d.Allowed, "plan %s used %d", plan, used)
			assert.GreaterOrEqual(t, d.Remaining, 0)
		}
	}
}

func TestNewCatalog(t *testing.T) {
	c, err := NewCatalog(config.Billing{
		Currency:   "eur",
		Allowances: config.PlanAllowances{Trial: 1, Free: 2, Basic: 3, Premium: 4},
		Prices:     config.PlanPrices{Basic: "9.99"},
	})
	require.NoError(t, err)

	assert.Equal(t, "eur", c.Currency())
	assert.Equal(t, 3, c.DefaultAllowance(models.PlanBasic))

	price, ok := c.Price(models.PlanBasic)
	require.True(t, ok)
	assert.Equal(t, "9.99", price.StringFixed(2))

	_, ok = c.Price(models.PlanPremium)
	assert.False(t, ok)

	_, err = NewCatalog(config.Billing{Prices: config.PlanPrices{Basic: "ten"}})
	assert.Error(t, err)

	_, err = NewCatalog(config.Billing{Allowances: config.PlanAllowances{Free: -1}})
	assert.Error(t, err)
}
