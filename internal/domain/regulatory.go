package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TaxYearTable contains the federal rules for one tax year. It is loaded from
// versioned YAML at startup and treated as read-only reference data afterwards.
type TaxYearTable struct {
	Metadata          TableMetadata                    `yaml:"metadata" json:"metadata"`
	Brackets          map[FilingStatus]BracketSchedule `yaml:"brackets" json:"brackets"`
	CapitalGains      map[FilingStatus]BracketSchedule `yaml:"capital_gains" json:"capital_gains"`
	StandardDeduction StatusAmounts                    `yaml:"standard_deduction" json:"standard_deduction"`
	AdditionalStdDed  AdditionalDeduction              `yaml:"additional_standard_deduction" json:"additional_standard_deduction"`
	Itemized          ItemizedRules                    `yaml:"itemized" json:"itemized"`
	CapitalLossLimit  StatusAmounts                    `yaml:"capital_loss_limit" json:"capital_loss_limit"`
	FICA              FICARules                        `yaml:"fica" json:"fica"`
	SelfEmployment    SelfEmploymentRules              `yaml:"self_employment" json:"self_employment"`
	AMT               AMTRules                         `yaml:"amt" json:"amt"`
	NIIT              NIITRules                        `yaml:"niit" json:"niit"`
	QBI               QBIRules                         `yaml:"qbi" json:"qbi"`
	SocialSecurity    SocialSecurityTaxRules           `yaml:"social_security" json:"social_security"`
	Credits           map[string]CreditRule            `yaml:"credits" json:"credits"`
	CreditOrder       []string                         `yaml:"credit_order" json:"credit_order"`
	Limits            ContributionLimits               `yaml:"contribution_limits" json:"contribution_limits"`
}

// TableMetadata identifies a table version.
type TableMetadata struct {
	TaxYear      int    `yaml:"tax_year" json:"tax_year"`
	Jurisdiction string `yaml:"jurisdiction" json:"jurisdiction"`
	Version      string `yaml:"version" json:"version"`
	Source       string `yaml:"source" json:"source"`
	// IndexedFrom is set when the table was derived from an earlier year by
	// inflation indexing rather than published figures.
	IndexedFrom int `yaml:"indexed_from,omitempty" json:"indexed_from,omitempty"`
}

// TaxBracket is one marginal-rate band. A nil Max means the band is open ended.
type TaxBracket struct {
	Min  decimal.Decimal  `yaml:"min" json:"min"`
	Max  *decimal.Decimal `yaml:"max,omitempty" json:"max,omitempty"`
	Rate decimal.Decimal  `yaml:"rate" json:"rate"`
}

// BracketSchedule is an ascending list of brackets covering [0, infinity).
type BracketSchedule []TaxBracket

// Validate checks that boundaries are contiguous and strictly increasing, the
// last bracket is open ended and rates never decrease.
func (bs BracketSchedule) Validate() error {
	if len(bs) == 0 {
		return fmt.Errorf("bracket schedule is empty")
	}
	if !bs[0].Min.IsZero() {
		return fmt.Errorf("first bracket must start at 0, got %s", bs[0].Min)
	}
	for i, b := range bs {
		if b.Rate.IsNegative() || b.Rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("bracket %d: rate %s out of range", i, b.Rate)
		}
		last := i == len(bs)-1
		if last {
			if b.Max != nil {
				return fmt.Errorf("last bracket must be open ended")
			}
			continue
		}
		if b.Max == nil {
			return fmt.Errorf("bracket %d: only the last bracket may be open ended", i)
		}
		if !b.Max.GreaterThan(b.Min) {
			return fmt.Errorf("bracket %d: max %s must exceed min %s", i, b.Max, b.Min)
		}
		next := bs[i+1]
		if !next.Min.Equal(*b.Max) {
			return fmt.Errorf("bracket %d: next bracket starts at %s, expected %s", i+1, next.Min, b.Max)
		}
		if next.Rate.LessThan(b.Rate) {
			return fmt.Errorf("bracket %d: rate %s is lower than previous %s", i+1, next.Rate, b.Rate)
		}
	}
	return nil
}

// ScheduleFor returns the ordinary brackets for the filing status.
func (t *TaxYearTable) ScheduleFor(fs FilingStatus) (BracketSchedule, bool) {
	return lookupSchedule(t.Brackets, fs)
}

// CapitalGainScheduleFor returns the preferential-rate brackets.
func (t *TaxYearTable) CapitalGainScheduleFor(fs FilingStatus) (BracketSchedule, bool) {
	return lookupSchedule(t.CapitalGains, fs)
}

func lookupSchedule(m map[FilingStatus]BracketSchedule, fs FilingStatus) (BracketSchedule, bool) {
	if s, ok := m[fs]; ok {
		return s, true
	}
	if fs == FilingQualifyingSurvivingSpouse {
		s, ok := m[FilingMarriedJoint]
		return s, ok
	}
	return nil, false
}

// AdditionalDeduction is the extra standard deduction per qualifying
// condition (age 65+ or blind) for each person on the return.
type AdditionalDeduction struct {
	Married   decimal.Decimal `yaml:"married" json:"married"`
	Unmarried decimal.Decimal `yaml:"unmarried" json:"unmarried"`
}

// ItemizedRules limits itemizable components.
type ItemizedRules struct {
	SALTCap            StatusAmounts   `yaml:"salt_cap" json:"salt_cap"`
	CharitableAGILimit decimal.Decimal `yaml:"charitable_agi_limit" json:"charitable_agi_limit"`
	MedicalAGIFloor    decimal.Decimal `yaml:"medical_agi_floor" json:"medical_agi_floor"`
}

// FICARules contains payroll tax rules (employee share; employer matches).
type FICARules struct {
	SocialSecurity SocialSecurityFICA `yaml:"social_security" json:"social_security"`
	Medicare       MedicareFICA       `yaml:"medicare" json:"medicare"`
}

// SocialSecurityFICA contains Social Security FICA rules
type SocialSecurityFICA struct {
	Rate     decimal.Decimal `yaml:"rate" json:"rate"`
	WageBase decimal.Decimal `yaml:"wage_base" json:"wage_base"`
}

// MedicareFICA contains Medicare FICA rules
type MedicareFICA struct {
	Rate                 decimal.Decimal `yaml:"rate" json:"rate"`
	AdditionalRate       decimal.Decimal `yaml:"additional_rate" json:"additional_rate"`
	AdditionalThresholds StatusAmounts   `yaml:"additional_thresholds" json:"additional_thresholds"`
}

// SelfEmploymentRules holds the SE tax base rules; the rates are twice the
// FICA employee rates.
type SelfEmploymentRules struct {
	NetEarningsFactor  decimal.Decimal `yaml:"net_earnings_factor" json:"net_earnings_factor"`
	MinimumNetEarnings decimal.Decimal `yaml:"minimum_net_earnings" json:"minimum_net_earnings"`
	DeductibleFraction decimal.Decimal `yaml:"deductible_fraction" json:"deductible_fraction"`
}

// AMTRules contains Alternative Minimum Tax parameters.
type AMTRules struct {
	Exemption         StatusAmounts   `yaml:"exemption" json:"exemption"`
	PhaseOutStart     StatusAmounts   `yaml:"phase_out_start" json:"phase_out_start"`
	PhaseOutRate      decimal.Decimal `yaml:"phase_out_rate" json:"phase_out_rate"`
	LowRate           decimal.Decimal `yaml:"low_rate" json:"low_rate"`
	HighRate          decimal.Decimal `yaml:"high_rate" json:"high_rate"`
	HighRateThreshold StatusAmounts   `yaml:"high_rate_threshold" json:"high_rate_threshold"`
}

// NIITRules contains Net Investment Income Tax parameters.
type NIITRules struct {
	Rate      decimal.Decimal `yaml:"rate" json:"rate"`
	Threshold StatusAmounts   `yaml:"threshold" json:"threshold"`
}

// QBIRules contains qualified business income deduction parameters.
type QBIRules struct {
	Rate         decimal.Decimal `yaml:"rate" json:"rate"`
	Threshold    StatusAmounts   `yaml:"threshold" json:"threshold"`
	PhaseInRange StatusAmounts   `yaml:"phase_in_range" json:"phase_in_range"`
	WageRate     decimal.Decimal `yaml:"wage_rate" json:"wage_rate"`
	AltWageRate  decimal.Decimal `yaml:"alt_wage_rate" json:"alt_wage_rate"`
	UBIARate     decimal.Decimal `yaml:"ubia_rate" json:"ubia_rate"`
}

// SocialSecurityTaxRules determines the taxable share of benefits.
type SocialSecurityTaxRules struct {
	BaseThreshold     StatusAmounts   `yaml:"base_threshold" json:"base_threshold"`
	AdjustedThreshold StatusAmounts   `yaml:"adjusted_threshold" json:"adjusted_threshold"`
	FirstTierRate     decimal.Decimal `yaml:"first_tier_rate" json:"first_tier_rate"`
	SecondTierRate    decimal.Decimal `yaml:"second_tier_rate" json:"second_tier_rate"`
}

// ContributionLimits are the annual caps used by the advisory layer.
type ContributionLimits struct {
	Elective401k        decimal.Decimal `yaml:"elective_401k" json:"elective_401k"`
	CatchUp401k         decimal.Decimal `yaml:"catch_up_401k" json:"catch_up_401k"`
	IRA                 decimal.Decimal `yaml:"ira" json:"ira"`
	IRACatchUp          decimal.Decimal `yaml:"ira_catch_up" json:"ira_catch_up"`
	HSASelf             decimal.Decimal `yaml:"hsa_self" json:"hsa_self"`
	HSAFamily           decimal.Decimal `yaml:"hsa_family" json:"hsa_family"`
	HSACatchUp          decimal.Decimal `yaml:"hsa_catch_up" json:"hsa_catch_up"`
	SEPRate             decimal.Decimal `yaml:"sep_rate" json:"sep_rate"`
	DefinedContribution decimal.Decimal `yaml:"defined_contribution" json:"defined_contribution"`
	DependentCareFSA    decimal.Decimal `yaml:"dependent_care_fsa" json:"dependent_care_fsa"`
}

// CreditKind selects how a credit's base amount is derived.
type CreditKind string

const (
	CreditPerChild            CreditKind = "per_child"
	CreditPerOtherDependent   CreditKind = "per_other_dependent"
	CreditRefundableRemainder CreditKind = "refundable_remainder"
	CreditDependentCare       CreditKind = "dependent_care"
	CreditEarnedIncome        CreditKind = "earned_income"
)

// PhaseOut describes the linear reduction of a credit above an AGI start.
// Excess AGI is rounded up to a multiple of Step before the rate applies.
type PhaseOut struct {
	Start StatusAmounts   `yaml:"start" json:"start"`
	Rate  decimal.Decimal `yaml:"rate" json:"rate"`
	Step  decimal.Decimal `yaml:"step" json:"step"`
}

// CreditRule holds the parameters for one credit. Which fields matter
// depends on Kind.
type CreditRule struct {
	Label      string          `yaml:"label" json:"label"`
	Kind       CreditKind      `yaml:"kind" json:"kind"`
	Refundable bool            `yaml:"refundable" json:"refundable"`
	PerUnit    decimal.Decimal `yaml:"per_unit" json:"per_unit"`
	Maximum    decimal.Decimal `yaml:"maximum" json:"maximum"`
	MaxAge     int             `yaml:"max_age" json:"max_age"`
	PhaseOut   PhaseOut        `yaml:"phase_out" json:"phase_out"`
	// Credits in the same phase-out group share one reduction, consumed in
	// credit order.
	PhaseOutGroup string `yaml:"phase_out_group,omitempty" json:"phase_out_group,omitempty"`

	// refundable_remainder
	RemainderOf          string          `yaml:"remainder_of,omitempty" json:"remainder_of,omitempty"`
	RefundableCapPerUnit decimal.Decimal `yaml:"refundable_cap_per_unit" json:"refundable_cap_per_unit"`
	EarnedIncomeFloor    decimal.Decimal `yaml:"earned_income_floor" json:"earned_income_floor"`
	EarnedIncomeRate     decimal.Decimal `yaml:"earned_income_rate" json:"earned_income_rate"`

	// dependent_care
	ExpenseLimits []decimal.Decimal `yaml:"expense_limits,omitempty" json:"expense_limits,omitempty"`
	MaxRate       decimal.Decimal   `yaml:"max_rate" json:"max_rate"`
	MinRate       decimal.Decimal   `yaml:"min_rate" json:"min_rate"`
	RateStepStart decimal.Decimal   `yaml:"rate_step_start" json:"rate_step_start"`
	RateStepSize  decimal.Decimal   `yaml:"rate_step_size" json:"rate_step_size"`
	RateStepDrop  decimal.Decimal   `yaml:"rate_step_drop" json:"rate_step_drop"`

	// earned_income
	Schedule              []EarnedIncomeTier `yaml:"schedule,omitempty" json:"schedule,omitempty"`
	InvestmentIncomeLimit decimal.Decimal    `yaml:"investment_income_limit" json:"investment_income_limit"`

	IneligibleStatuses []FilingStatus `yaml:"ineligible_statuses,omitempty" json:"ineligible_statuses,omitempty"`
}

// EligibleFor reports whether the filing status may claim the credit.
func (cr CreditRule) EligibleFor(fs FilingStatus) bool {
	for _, s := range cr.IneligibleStatuses {
		if s == fs {
			return false
		}
	}
	return true
}

// EarnedIncomeTier is one row of the earned income credit schedule keyed by
// number of qualifying children (the last row covers that many or more).
type EarnedIncomeTier struct {
	Children      int             `yaml:"children" json:"children"`
	PhaseInRate   decimal.Decimal `yaml:"phase_in_rate" json:"phase_in_rate"`
	MaxCredit     decimal.Decimal `yaml:"max_credit" json:"max_credit"`
	PhaseOutRate  decimal.Decimal `yaml:"phase_out_rate" json:"phase_out_rate"`
	PhaseOutStart StatusAmounts   `yaml:"phase_out_start" json:"phase_out_start"`
}

// StateTaxKind classifies a state's income tax structure.
type StateTaxKind string

const (
	StateNoIncomeTax StateTaxKind = "none"
	StateFlat        StateTaxKind = "flat"
	StateProgressive StateTaxKind = "progressive"
)

// StateTaxTable holds one state's income tax rules for one tax year.
type StateTaxTable struct {
	Code                          string                           `yaml:"code" json:"code"`
	Name                          string                           `yaml:"name" json:"name"`
	TaxYear                       int                              `yaml:"tax_year" json:"tax_year"`
	Kind                          StateTaxKind                     `yaml:"kind" json:"kind"`
	Brackets                      map[FilingStatus]BracketSchedule `yaml:"brackets,omitempty" json:"brackets,omitempty"`
	StandardDeduction             StatusAmounts                    `yaml:"standard_deduction,omitempty" json:"standard_deduction,omitempty"`
	PersonalExemption             decimal.Decimal                  `yaml:"personal_exemption" json:"personal_exemption"`
	ExemptSocialSecurity          bool                             `yaml:"exempt_social_security" json:"exempt_social_security"`
	ExemptRetirementDistributions bool                             `yaml:"exempt_retirement_distributions" json:"exempt_retirement_distributions"`
	LLCAnnualFee                  decimal.Decimal                  `yaml:"llc_annual_fee" json:"llc_annual_fee"`
	SCorpFranchiseRate            decimal.Decimal                  `yaml:"s_corp_franchise_rate" json:"s_corp_franchise_rate"`
	SCorpMinimumTax               decimal.Decimal                  `yaml:"s_corp_minimum_tax" json:"s_corp_minimum_tax"`
}

// ScheduleFor returns the brackets for the filing status, falling back to the
// single schedule for states that publish one schedule only.
func (st *StateTaxTable) ScheduleFor(fs FilingStatus) (BracketSchedule, bool) {
	if s, ok := lookupSchedule(st.Brackets, fs); ok {
		return s, true
	}
	s, ok := st.Brackets[FilingSingle]
	return s, ok
}
