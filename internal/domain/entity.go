package domain

import "github.com/shopspring/decimal"

// EntityType is a business structure the optimizer compares.
type EntityType string

const (
	EntitySoleProp EntityType = "sole_prop"
	EntityLLC      EntityType = "llc"
	EntitySCorp    EntityType = "s_corp"
)

// Label returns a display name.
func (e EntityType) Label() string {
	switch e {
	case EntitySoleProp:
		return "Sole Proprietorship"
	case EntityLLC:
		return "LLC (disregarded)"
	case EntitySCorp:
		return "S-Corporation"
	}
	return string(e)
}

// RiskLevel grades how defensible an S-Corp salary is.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// EntityOption is one row of an entity comparison.
type EntityOption struct {
	Entity         EntityType      `json:"entity"`
	Label          string          `json:"label"`
	Salary         decimal.Decimal `json:"salary"`
	Distribution   decimal.Decimal `json:"distribution"`
	EmploymentTax  decimal.Decimal `json:"employment_tax"`
	IncomeTax      decimal.Decimal `json:"income_tax"`
	StateTax       decimal.Decimal `json:"state_tax"`
	QBIDeduction   decimal.Decimal `json:"qbi_deduction"`
	QBIImpact      decimal.Decimal `json:"qbi_impact"`
	ComplianceCost decimal.Decimal `json:"compliance_cost"`
	NetBurden      decimal.Decimal `json:"net_burden"`
	SavingsVsSole  decimal.Decimal `json:"savings_vs_sole_prop"`
	SalaryRatio    decimal.Decimal `json:"salary_ratio,omitempty"`
	Risk           RiskLevel       `json:"risk,omitempty"`
}

// EntityComparison is the optimizer's full answer for one business.
type EntityComparison struct {
	NetIncome   decimal.Decimal `json:"net_income"`
	Occupation  string          `json:"occupation"`
	State       string          `json:"state"`
	TaxYear     int             `json:"tax_year"`
	Benchmark   decimal.Decimal `json:"benchmark_salary"`
	Options     []EntityOption  `json:"options"`
	Recommended EntityType      `json:"recommended"`
	Notes       []string        `json:"notes,omitempty"`
	// BreakEvenSalary is the highest salary at which the S-Corp still costs
	// no more than a sole proprietorship. Nil when no salary does.
	BreakEvenSalary *decimal.Decimal `json:"break_even_salary,omitempty"`
}

// Option returns the row for the entity type.
func (ec *EntityComparison) Option(e EntityType) (EntityOption, bool) {
	for _, o := range ec.Options {
		if o.Entity == e {
			return o, true
		}
	}
	return EntityOption{}, false
}
