package calculation

import (
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
)

// QBIBusiness is one business's qualified income and limitation facts.
type QBIBusiness struct {
	Name    string
	Income  decimal.Decimal
	SSTB    bool
	W2Wages decimal.Decimal
	UBIA    decimal.Decimal
}

// QBIResult is the deduction and the component per business.
type QBIResult struct {
	Deduction     decimal.Decimal
	Unconstrained decimal.Decimal
	// Components are per business, in input order.
	Components    []decimal.Decimal
	IncomeLimited bool
}

// QBIDeductionCalculator computes the qualified business income deduction.
type QBIDeductionCalculator struct{}

// NewQBIDeductionCalculator creates a QBI calculator
func NewQBIDeductionCalculator() *QBIDeductionCalculator {
	return &QBIDeductionCalculator{}
}

// Calculate returns the deduction for the businesses. Below the threshold
// each business contributes 20% of its income. Above threshold plus range,
// specified service businesses contribute nothing and other businesses are
// limited to the greater of 50% of W-2 wages or 25% of wages plus 2.5% of
// UBIA. Inside the range both rules phase in linearly. The total is capped
// at 20% of taxable income less net capital gain.
func (qc *QBIDeductionCalculator) Calculate(businesses []QBIBusiness, taxableIncome, netCapitalGain decimal.Decimal, fs domain.FilingStatus, t *domain.TaxYearTable) QBIResult {
	rules := t.QBI
	res := QBIResult{Components: make([]decimal.Decimal, 0, len(businesses))}
	if len(businesses) == 0 {
		return res
	}

	threshold := rules.Threshold.OrZero(fs)
	span := rules.PhaseInRange.OrZero(fs)

	// phase is 0 at or below the threshold and 1 at or above threshold+range.
	phase := decimal.Zero
	if taxableIncome.GreaterThan(threshold) {
		phase = decimal.NewFromInt(1)
		if span.IsPositive() && taxableIncome.LessThan(threshold.Add(span)) {
			phase = taxableIncome.Sub(threshold).Div(span)
		}
	}

	total := decimal.Zero
	for _, b := range businesses {
		full := b.Income.Mul(rules.Rate)
		res.Unconstrained = res.Unconstrained.Add(decimal.Max(full, decimal.Zero))
		component := qc.component(b, phase, rules)
		res.Components = append(res.Components, component.Round(2))
		total = total.Add(component)
	}
	total = decimal.Max(total, decimal.Zero)

	incomeCap := decimal.Max(decimal.Zero, taxableIncome.Sub(netCapitalGain)).Mul(rules.Rate)
	if total.GreaterThan(incomeCap) {
		total = incomeCap
		res.IncomeLimited = true
	}
	res.Deduction = total.Round(2)
	res.Unconstrained = res.Unconstrained.Round(2)
	return res
}

func (qc *QBIDeductionCalculator) component(b QBIBusiness, phase decimal.Decimal, rules domain.QBIRules) decimal.Decimal {
	one := decimal.NewFromInt(1)
	income, wages, ubia := b.Income, b.W2Wages, b.UBIA

	if b.SSTB && phase.IsPositive() {
		if phase.GreaterThanOrEqual(one) {
			return decimal.Zero
		}
		applicable := one.Sub(phase)
		income = income.Mul(applicable)
		wages = wages.Mul(applicable)
		ubia = ubia.Mul(applicable)
	}

	full := income.Mul(rules.Rate)
	if !phase.IsPositive() || !full.IsPositive() {
		return full
	}

	limit := decimal.Max(
		wages.Mul(rules.WageRate),
		wages.Mul(rules.AltWageRate).Add(ubia.Mul(rules.UBIARate)),
	)
	if limit.GreaterThanOrEqual(full) {
		return full
	}
	if phase.GreaterThanOrEqual(one) {
		return limit
	}
	return full.Sub(full.Sub(limit).Mul(phase))
}
