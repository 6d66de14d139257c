package domain

import "github.com/shopspring/decimal"

// ScenarioDelta breaks down the change between two positions. Negative
// values are savings.
type ScenarioDelta struct {
	AGI            decimal.Decimal `json:"agi"`
	TaxableIncome  decimal.Decimal `json:"taxable_income"`
	FederalTax     decimal.Decimal `json:"federal_tax"`
	SETax          decimal.Decimal `json:"se_tax"`
	StateTax       decimal.Decimal `json:"state_tax"`
	Credits        decimal.Decimal `json:"credits"`
	TotalLiability decimal.Decimal `json:"total_liability"`
	Refund         decimal.Decimal `json:"refund"`
}

// ScenarioResult pairs a baseline with a what-if computation.
type ScenarioResult struct {
	Name        string          `json:"name"`
	Baseline    *TaxPosition    `json:"baseline"`
	Modified    *TaxPosition    `json:"modified"`
	NetTaxDelta decimal.Decimal `json:"net_tax_delta"`
	Detail      ScenarioDelta   `json:"detail"`
}

// NewScenarioDelta subtracts baseline from modified field by field.
func NewScenarioDelta(baseline, modified *TaxPosition) ScenarioDelta {
	return ScenarioDelta{
		AGI:            modified.AGI.Sub(baseline.AGI),
		TaxableIncome:  modified.TaxableIncome.Sub(baseline.TaxableIncome),
		FederalTax:     modified.FederalTotal.Sub(baseline.FederalTotal),
		SETax:          modified.SETax.Sub(baseline.SETax),
		StateTax:       modified.StateTax.Sub(baseline.StateTax),
		Credits:        modified.CreditTotal().Sub(baseline.CreditTotal()),
		TotalLiability: modified.TotalLiability.Sub(baseline.TotalLiability),
		Refund:         modified.Refund.Sub(baseline.Refund),
	}
}
