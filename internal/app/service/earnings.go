package service

import (
	"honeyfarmers/internal/domain/entity"

	"github.com/shopspring/decimal"
)

// ComputeEarnings returns, per resource, the positive change from before to after.
// Resources that did not increase are omitted. A resource absent from before counts from zero.
func ComputeEarnings(before, after []entity.ResourceBalance) []entity.Earning {
	prior := make(map[string]decimal.Decimal, len(before))
	for _, b := range before {
		key := entity.LookupResource(b.ResourceName).Symbol
		prior[key] = prior[key].Add(b.Amount)
	}

	current := make(map[string]decimal.Decimal, len(after))
	order := make([]string, 0, len(after))
	display := make(map[string]string, len(after))
	for _, a := range after {
		info := entity.LookupResource(a.ResourceName)
		if _, seen := current[info.Symbol]; !seen {
			order = append(order, info.Symbol)
			display[info.Symbol] = info.DisplayName
		}
		current[info.Symbol] = current[info.Symbol].Add(a.Amount)
	}

	earnings := make([]entity.Earning, 0)
	for _, symbol := range order {
		delta := current[symbol].Sub(prior[symbol])
		if !delta.IsPositive() {
			continue
		}
		earnings = append(earnings, entity.Earning{
			ResourceName: symbol,
			DisplayName:  display[symbol],
			Amount:       delta,
		})
	}
	return earnings
}
