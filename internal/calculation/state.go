package calculation

import (
	"fmt"

	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
)

// StateTaxCalculator computes state income tax from the federal AGI using
// the state's rule variant.
type StateTaxCalculator struct{}

// NewStateTaxCalculator creates a state tax calculator
func NewStateTaxCalculator() *StateTaxCalculator {
	return &StateTaxCalculator{}
}

// Calculate starts from federal AGI, removes income the state exempts,
// subtracts the state standard deduction and personal exemptions and applies
// the state's brackets. States without an income tax return zero.
func (sc *StateTaxCalculator) Calculate(p *domain.TaxpayerProfile, agi, taxableSocialSecurity decimal.Decimal, st *domain.StateTaxTable) (domain.StateTaxDetail, error) {
	detail := domain.StateTaxDetail{State: st.Code, Kind: st.Kind, TaxableIncome: decimal.Zero, Tax: decimal.Zero}
	if st.Kind == domain.StateNoIncomeTax {
		return detail, nil
	}

	income := agi
	if st.ExemptSocialSecurity {
		income = income.Sub(taxableSocialSecurity)
	}
	if st.ExemptRetirementDistributions {
		income = income.Sub(p.SumIncome(domain.IncomeRetirementDistribution))
	}

	deduction := st.StandardDeduction.OrZero(p.FilingStatus)
	if st.PersonalExemption.IsPositive() {
		persons := 1 + len(p.Dependents)
		if p.Spouse != nil && p.FilingStatus == domain.FilingMarriedJoint {
			persons++
		}
		deduction = deduction.Add(st.PersonalExemption.Mul(decimal.NewFromInt(int64(persons))))
	}
	taxable := decimal.Max(decimal.Zero, income.Sub(deduction)).Round(2)

	schedule, ok := st.ScheduleFor(p.FilingStatus)
	if !ok {
		return domain.StateTaxDetail{}, fmt.Errorf("state %s has no brackets for %s", st.Code, p.FilingStatus)
	}
	tax, err := ApplyProgressiveRate(taxable, schedule)
	if err != nil {
		return domain.StateTaxDetail{}, err
	}
	detail.TaxableIncome = taxable
	detail.Tax = tax
	return detail, nil
}
