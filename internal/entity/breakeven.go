package entity

import (
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	breakEvenMaxIterations = 40
	breakEvenTolerance     = 1
)

// breakEvenSalary binary searches for the highest salary at which the S-Corp
// burden does not exceed the sole proprietorship burden. It reports false
// when even a zero salary loses.
func (o *Optimizer) breakEvenSalary(base *domain.TaxpayerProfile, net decimal.Decimal, bench Benchmark, soleBurden decimal.Decimal, fed *domain.TaxYearTable, st *domain.StateTaxTable) (decimal.Decimal, bool, error) {
	burdenAt := func(salary decimal.Decimal) (decimal.Decimal, error) {
		opt, err := o.sCorp(base, net, salary, bench, fed, st)
		if err != nil {
			return decimal.Zero, err
		}
		return opt.NetBurden, nil
	}

	low, high := decimal.Zero, net
	atLow, err := burdenAt(low)
	if err != nil {
		return decimal.Zero, false, err
	}
	if atLow.GreaterThan(soleBurden) {
		return decimal.Zero, false, nil
	}
	atHigh, err := burdenAt(high)
	if err != nil {
		return decimal.Zero, false, err
	}
	if atHigh.LessThanOrEqual(soleBurden) {
		return high, true, nil
	}

	tolerance := decimal.NewFromInt(breakEvenTolerance)
	two := decimal.NewFromInt(2)
	for i := 0; i < breakEvenMaxIterations && high.Sub(low).GreaterThan(tolerance); i++ {
		mid := low.Add(high).Div(two).Round(2)
		burden, err := burdenAt(mid)
		if err != nil {
			return decimal.Zero, false, err
		}
		if burden.LessThanOrEqual(soleBurden) {
			low = mid
		} else {
			high = mid
		}
	}
	return low.Floor(), true, nil
}
