package models

import "fmt"

// Plan тариф учётной записи.
type Plan string

// Поддерживаемые тарифы.
const (
	PlanTrial   Plan = "Trial"
	PlanFree    Plan = "Free"
	PlanBasic   Plan = "Basic"
	PlanPremium Plan = "Premium"
)

// Plans перечисляет все тарифы в порядке возрастания.
var Plans = []Plan{PlanTrial, PlanFree, PlanBasic, PlanPremium}

// CyclePlans тарифы, для которых выполняется ежемесячный сброс счётчика.
var CyclePlans = []Plan{PlanFree, PlanBasic, PlanPremium}

// ParsePlan возвращает тариф по его названию.
func ParsePlan(s string) (Plan, error) {
	for _, p := range Plans {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlan, s)
}

// IsPaid сообщает, является ли тариф платным.
func (p Plan) IsPaid() bool {
	return p == PlanBasic || p == PlanPremium
}

func (p Plan) String() string {
	return string(p)
}
