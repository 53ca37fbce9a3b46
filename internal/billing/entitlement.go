package billing

import "github.com/magabrotheeeer/content-generator/internal/models"

// Decision результат проверки допуска к платной операции.
type Decision struct {
	Allowed   bool `json:"allowed"`
	Used      int  `json:"used"`
	Allowance int  `json:"allowance"`
	Remaining int  `json:"remaining"`
}

// Evaluate решает, можно ли списать units единиц с учётной записи.
// Отказ ровно тогда, когда used_count + units превышает действующий лимит.
func (c *Catalog) Evaluate(acc models.Account, units int) Decision {
	allowance := c.EffectiveAllowance(acc)
	return Decision{
		Allowed:   acc.UsedCount+units <= allowance,
		Used:      acc.UsedCount,
		Allowance: allowance,
		Remaining: Remaining(acc.UsedCount, allowance),
	}
}

// Remaining остаток запросов, никогда не меньше нуля.
func Remaining(used, allowance int) int {
	if used >= allowance {
		return 0
	}
	return allowance - used
}
