// Package billing реализует правила тарифов: лимиты по умолчанию, решение о допуске
// к платной операции и переходы между тарифами. Пакет не обращается к хранилищу,
// все функции работают над переданным состоянием учётной записи.
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/content-generator/internal/config"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// Catalog хранит лимиты и цены тарифов.
type Catalog struct {
	allowances map[models.Plan]int
	prices     map[models.Plan]decimal.Decimal
	currency   string
}

// DefaultCatalog каталог со значениями по умолчанию.
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog(config.Billing{
		Currency:   "usd",
		Allowances: config.PlanAllowances{Trial: 10, Free: 5, Basic: 50, Premium: 100},
		Prices:     config.PlanPrices{Basic: "20.00", Premium: "50.00"},
	})
	return c
}

// NewCatalog строит каталог из конфигурации.
func NewCatalog(cfg config.Billing) (*Catalog, error) {
	const op = "billing.NewCatalog"

	c := &Catalog{
		allowances: map[models.Plan]int{
			models.PlanTrial:   cfg.Allowances.Trial,
			models.PlanFree:    cfg.Allowances.Free,
			models.PlanBasic:   cfg.Allowances.Basic,
			models.PlanPremium: cfg.Allowances.Premium,
		},
		prices:   make(map[models.Plan]decimal.Decimal, 2),
		currency: cfg.Currency,
	}
	for plan, allowance := range c.allowances {
		if allowance < 0 {
			return nil, fmt.Errorf("%s: negative allowance for %s", op, plan)
		}
	}

	for plan, raw := range map[models.Plan]string{
		models.PlanBasic:   cfg.Prices.Basic,
		models.PlanPremium: cfg.Prices.Premium,
	} {
		if raw == "" {
			continue
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: price for %s: %w", op, plan, err)
		}
		c.prices[plan] = price
	}
	return c, nil
}

// DefaultAllowance возвращает лимит тарифа по умолчанию.
func (c *Catalog) DefaultAllowance(plan models.Plan) int {
	return c.allowances[plan]
}

// EffectiveAllowance возвращает явный лимит учётной записи, если он задан, иначе лимит тарифа.
func (c *Catalog) EffectiveAllowance(acc models.Account) int {
	if acc.Allowance != nil {
		return *acc.Allowance
	}
	return c.DefaultAllowance(acc.Plan)
}

// Price возвращает цену платного тарифа. Второе значение false, если цена не задана.
func (c *Catalog) Price(plan models.Plan) (decimal.Decimal, bool) {
	p, ok := c.prices[plan]
	return p, ok
}

// Currency валюта платежей.
func (c *Catalog) Currency() string {
	return c.currency
}
