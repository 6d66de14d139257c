package domain

import "github.com/shopspring/decimal"

// LifeEventKind tags a life event variant.
type LifeEventKind string

const (
	EventMarriage      LifeEventKind = "marriage"
	EventDivorce       LifeEventKind = "divorce"
	EventChildBirth    LifeEventKind = "child_birth"
	EventRetirement    LifeEventKind = "retirement"
	EventBusinessStart LifeEventKind = "business_start"
	EventHomePurchase  LifeEventKind = "home_purchase"
	EventIncomeChange  LifeEventKind = "income_change"
)

// LifeEvent changes the profile from a given projection year onwards. Which
// fields are read depends on Kind.
type LifeEvent struct {
	Kind        LifeEventKind    `yaml:"kind" json:"kind"`
	Year        int              `yaml:"year" json:"year"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty"`
	Amount      decimal.Decimal  `yaml:"amount" json:"amount"`
	Spouse      *Person          `yaml:"spouse,omitempty" json:"spouse,omitempty"`
	IncomeType  IncomeType       `yaml:"income_type,omitempty" json:"income_type,omitempty"`
	Owner       Owner            `yaml:"owner,omitempty" json:"owner,omitempty"`
	Business    *BusinessDetails `yaml:"business,omitempty" json:"business,omitempty"`
	// PropertyTax applies to home purchases; Amount is the mortgage interest.
	PropertyTax decimal.Decimal `yaml:"property_tax" json:"property_tax"`
}

// ProjectionAssumptions drives a multi-year projection. The yearly
// contribution is either AnnualContribution grown by ContributionGrowth or,
// when ContributionRate is positive, that share of the year's earned income
// capped at the year's deferral limit.
type ProjectionAssumptions struct {
	StartYear          int             `yaml:"start_year" json:"start_year"`
	IncomeGrowth       decimal.Decimal `yaml:"income_growth" json:"income_growth"`
	Inflation          decimal.Decimal `yaml:"inflation" json:"inflation"`
	ReturnRate         decimal.Decimal `yaml:"return_rate" json:"return_rate"`
	InitialBalance     decimal.Decimal `yaml:"initial_balance" json:"initial_balance"`
	AnnualContribution decimal.Decimal `yaml:"annual_contribution" json:"annual_contribution"`
	ContributionGrowth decimal.Decimal `yaml:"contribution_growth" json:"contribution_growth"`
	ContributionRate   decimal.Decimal `yaml:"contribution_rate" json:"contribution_rate"`
	Events             []LifeEvent     `yaml:"events,omitempty" json:"events,omitempty"`
}

// ProjectionYear is one row of a projection.
type ProjectionYear struct {
	YearIndex         int             `json:"year_index"`
	TaxYear           int             `json:"tax_year"`
	Position          *TaxPosition    `json:"position"`
	BaselineTotal     decimal.Decimal `json:"baseline_total"`
	AnnualSavings     decimal.Decimal `json:"annual_savings"`
	CumulativeSavings decimal.Decimal `json:"cumulative_savings"`
	Contribution      decimal.Decimal `json:"contribution"`
	RetirementBalance decimal.Decimal `json:"retirement_balance"`
	ActiveEvents      []LifeEvent     `json:"active_events,omitempty"`
	IndexedTable      bool            `json:"indexed_table"`
}

// ProjectionResult is the ordered projection plus summary figures.
type ProjectionResult struct {
	HorizonYears      int                   `json:"horizon_years"`
	Assumptions       ProjectionAssumptions `json:"assumptions"`
	Years             []ProjectionYear      `json:"years"`
	TotalContributed  decimal.Decimal       `json:"total_contributed"`
	EndingBalance     decimal.Decimal       `json:"ending_balance"`
	CumulativeSavings decimal.Decimal       `json:"cumulative_savings"`
	NetCost           decimal.Decimal       `json:"net_cost"`
	// ROI is nil when the net cost is zero or negative.
	ROI *decimal.Decimal `json:"roi,omitempty"`
}
