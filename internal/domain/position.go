package domain

import "github.com/shopspring/decimal"

// DeductionType records which deduction was taken.
type DeductionType string

const (
	DeductionStandard DeductionType = "standard"
	DeductionItemized DeductionType = "itemized"
)

// CreditApplied is one line of the credit breakdown.
type CreditApplied struct {
	ID         string          `json:"id"`
	Label      string          `json:"label"`
	Refundable bool            `json:"refundable"`
	Computed   decimal.Decimal `json:"computed"`
	Applied    decimal.Decimal `json:"applied"`
}

// StateTaxDetail summarizes the state computation.
type StateTaxDetail struct {
	State         string          `json:"state"`
	Kind          StateTaxKind    `json:"kind"`
	TaxableIncome decimal.Decimal `json:"taxable_income"`
	Tax           decimal.Decimal `json:"tax"`
}

// TaxPosition is the complete result of one tax computation. It is built
// fresh per call and not modified after it is returned.
type TaxPosition struct {
	TaxYear      int          `json:"tax_year"`
	FilingStatus FilingStatus `json:"filing_status"`

	TotalIncome           decimal.Decimal `json:"total_income"`
	TaxableSocialSecurity decimal.Decimal `json:"taxable_social_security"`
	AdjustmentsTotal      decimal.Decimal `json:"adjustments_total"`
	AGI                   decimal.Decimal `json:"agi"`

	Deduction         decimal.Decimal `json:"deduction"`
	DeductionType     DeductionType   `json:"deduction_type"`
	StandardDeduction decimal.Decimal `json:"standard_deduction"`
	ItemizedDeduction decimal.Decimal `json:"itemized_deduction"`
	QBIDeduction      decimal.Decimal `json:"qbi_deduction"`
	TaxableIncome     decimal.Decimal `json:"taxable_income"`

	OrdinaryTax          decimal.Decimal `json:"ordinary_tax"`
	PreferentialTax      decimal.Decimal `json:"preferential_tax"`
	FederalBeforeCredits decimal.Decimal `json:"federal_before_credits"`
	AMT                  decimal.Decimal `json:"amt"`
	Credits              []CreditApplied `json:"credits"`
	NonrefundableCredits decimal.Decimal `json:"nonrefundable_credits"`
	RefundableCredits    decimal.Decimal `json:"refundable_credits"`
	FederalAfterCredits  decimal.Decimal `json:"federal_after_credits"`

	SETax              decimal.Decimal `json:"se_tax"`
	SETaxDeduction     decimal.Decimal `json:"se_tax_deduction"`
	AdditionalMedicare decimal.Decimal `json:"additional_medicare"`
	NIIT               decimal.Decimal `json:"niit"`

	FederalTotal decimal.Decimal `json:"federal_total"`
	State        StateTaxDetail  `json:"state"`
	StateTax     decimal.Decimal `json:"state_tax"`

	TotalLiability decimal.Decimal `json:"total_liability"`
	// Refund is refundable credit in excess of all federal taxes owed.
	Refund        decimal.Decimal `json:"refund"`
	EffectiveRate decimal.Decimal `json:"effective_rate"`
	MarginalRate  decimal.Decimal `json:"marginal_rate"`
}

// CreditTotal returns the sum of applied credits.
func (tp *TaxPosition) CreditTotal() decimal.Decimal {
	return tp.NonrefundableCredits.Add(tp.RefundableCredits)
}

// Credit looks up an applied credit by id.
func (tp *TaxPosition) Credit(id string) (CreditApplied, bool) {
	for _, c := range tp.Credits {
		if c.ID == id {
			return c, true
		}
	}
	return CreditApplied{}, false
}

// NetTax is total liability less any refund. It equals TotalLiability unless
// refundable credits exceed every federal tax owed.
func (tp *TaxPosition) NetTax() decimal.Decimal {
	return tp.TotalLiability.Sub(tp.Refund)
}
