package calculation

import (
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
)

// DeductionResult is the resolved deduction plus both candidates.
type DeductionResult struct {
	Amount   decimal.Decimal
	Type     domain.DeductionType
	Standard decimal.Decimal
	Itemized decimal.Decimal
	// SALT is the state and local tax actually deducted, after the cap.
	SALT decimal.Decimal
}

// DeductionResolver picks between the standard and itemized deduction.
type DeductionResolver struct{}

// NewDeductionResolver creates a deduction resolver
func NewDeductionResolver() *DeductionResolver {
	return &DeductionResolver{}
}

// Resolve computes both deductions and returns the larger. The standard
// deduction wins ties. ForceItemize takes the itemized amount regardless; for
// a separate filer it also zeroes the standard deduction.
func (dr *DeductionResolver) Resolve(p *domain.TaxpayerProfile, agi decimal.Decimal, t *domain.TaxYearTable) DeductionResult {
	standard := dr.Standard(p, t)
	itemized, salt := dr.Itemized(p, agi, t)

	res := DeductionResult{Standard: standard, Itemized: itemized}
	if p.ForceItemize && p.FilingStatus == domain.FilingMarriedSeparate {
		res.Standard = decimal.Zero
	}
	if p.ForceItemize || itemized.GreaterThan(standard) {
		res.Amount = itemized
		res.Type = domain.DeductionItemized
		res.SALT = salt
		return res
	}
	res.Amount = standard
	res.Type = domain.DeductionStandard
	return res
}

// Standard returns the base standard deduction plus one add-on per
// qualifying condition (65 or older, blind) for the taxpayer and, on a joint
// return, the spouse.
func (dr *DeductionResolver) Standard(p *domain.TaxpayerProfile, t *domain.TaxYearTable) decimal.Decimal {
	base := t.StandardDeduction.OrZero(p.FilingStatus)

	addOn := t.AdditionalStdDed.Unmarried
	if p.FilingStatus.AllowsSpouse() || p.FilingStatus == domain.FilingQualifyingSurvivingSpouse {
		addOn = t.AdditionalStdDed.Married
	}

	conditions := countConditions(p.Taxpayer)
	if p.Spouse != nil && p.FilingStatus == domain.FilingMarriedJoint {
		conditions += countConditions(*p.Spouse)
	}
	return base.Add(addOn.Mul(decimal.NewFromInt(int64(conditions))))
}

func countConditions(person domain.Person) int {
	n := 0
	if person.Age >= 65 {
		n++
	}
	if person.Blind {
		n++
	}
	return n
}

// Itemized applies the SALT cap, the charitable AGI limit and the medical
// AGI floor to the profile's itemizable components.
func (dr *DeductionResolver) Itemized(p *domain.TaxpayerProfile, agi decimal.Decimal, t *domain.TaxYearTable) (total, salt decimal.Decimal) {
	rules := t.Itemized
	salt = p.Itemized.StateLocalTaxes
	if limit, ok := rules.SALTCap.For(p.FilingStatus); ok && salt.GreaterThan(limit) {
		salt = limit
	}

	positiveAGI := decimal.Max(agi, decimal.Zero)
	charitable := p.Itemized.Charitable
	if !rules.CharitableAGILimit.IsZero() {
		charitable = decimal.Min(charitable, positiveAGI.Mul(rules.CharitableAGILimit))
	}

	medical := decimal.Max(decimal.Zero, p.Itemized.Medical.Sub(positiveAGI.Mul(rules.MedicalAGIFloor)))

	total = salt.
		Add(p.Itemized.MortgageInterest).
		Add(charitable).
		Add(medical).
		Add(p.Itemized.Other).
		Round(2)
	return total, salt
}
