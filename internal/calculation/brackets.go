package calculation

import (
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
)

// ApplyProgressiveRate computes tax on income under a bracket schedule and
// rounds the result to the cent.
func ApplyProgressiveRate(income decimal.Decimal, schedule domain.BracketSchedule) (decimal.Decimal, error) {
	if income.IsNegative() {
		return decimal.Zero, &domain.InvalidInputError{Field: "taxable_income", Value: income, Reason: "must be non-negative"}
	}
	return progressiveTax(income, schedule).Round(2), nil
}

// progressiveTax is the unrounded bracket sum.
func progressiveTax(income decimal.Decimal, schedule domain.BracketSchedule) decimal.Decimal {
	tax := decimal.Zero
	for _, b := range schedule {
		if income.LessThanOrEqual(b.Min) {
			break
		}
		top := income
		if b.Max != nil && b.Max.LessThan(income) {
			top = *b.Max
		}
		tax = tax.Add(top.Sub(b.Min).Mul(b.Rate))
	}
	return tax
}

// stackedTax taxes the slice of income between base and base+amount. It is
// used for preferential income that sits on top of ordinary income.
func stackedTax(base, amount decimal.Decimal, schedule domain.BracketSchedule) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	return progressiveTax(base.Add(amount), schedule).Sub(progressiveTax(base, schedule))
}

// MarginalRate returns the rate of the bracket holding the last dollar of
// income, or zero when there is no income.
func MarginalRate(income decimal.Decimal, schedule domain.BracketSchedule) decimal.Decimal {
	if !income.IsPositive() {
		return decimal.Zero
	}
	for _, b := range schedule {
		if income.GreaterThan(b.Min) && (b.Max == nil || income.LessThanOrEqual(*b.Max)) {
			return b.Rate
		}
	}
	return decimal.Zero
}

// BracketHeadroom returns how much more income fits in the current bracket.
// It is zero for the open-ended top bracket.
func BracketHeadroom(income decimal.Decimal, schedule domain.BracketSchedule) decimal.Decimal {
	for _, b := range schedule {
		if income.GreaterThanOrEqual(b.Min) && (b.Max == nil || income.LessThan(*b.Max)) {
			if b.Max == nil {
				return decimal.Zero
			}
			return b.Max.Sub(income)
		}
	}
	return decimal.Zero
}
