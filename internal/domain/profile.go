package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxIncomeAmount bounds any single monetary input the engine accepts.
var MaxIncomeAmount = decimal.NewFromInt(999_999_999)

// IncomeType classifies an income item.
type IncomeType string

const (
	IncomeWages                  IncomeType = "w2_wages"
	IncomeSelfEmployment         IncomeType = "self_employment"
	IncomeQualifiedDividends     IncomeType = "qualified_dividends"
	IncomeOrdinaryDividends      IncomeType = "ordinary_dividends"
	IncomeInterest               IncomeType = "interest"
	IncomeShortTermGain          IncomeType = "short_term_capital_gain"
	IncomeLongTermGain           IncomeType = "long_term_capital_gain"
	IncomeRental                 IncomeType = "rental"
	IncomeRetirementDistribution IncomeType = "retirement_distribution"
	IncomeSocialSecurity         IncomeType = "social_security"
	IncomePassThrough            IncomeType = "pass_through"
	IncomeOther                  IncomeType = "other"
)

var incomeTypes = map[IncomeType]bool{
	IncomeWages: true, IncomeSelfEmployment: true, IncomeQualifiedDividends: true,
	IncomeOrdinaryDividends: true, IncomeInterest: true, IncomeShortTermGain: true,
	IncomeLongTermGain: true, IncomeRental: true, IncomeRetirementDistribution: true,
	IncomeSocialSecurity: true, IncomePassThrough: true, IncomeOther: true,
}

// Valid reports whether t is a known income type.
func (t IncomeType) Valid() bool { return incomeTypes[t] }

// IsInvestment reports whether the income counts toward net investment income.
func (t IncomeType) IsInvestment() bool {
	switch t {
	case IncomeQualifiedDividends, IncomeOrdinaryDividends, IncomeInterest,
		IncomeShortTermGain, IncomeLongTermGain, IncomeRental:
		return true
	}
	return false
}

// IsBusiness reports whether the income is qualified business income.
func (t IncomeType) IsBusiness() bool {
	return t == IncomeSelfEmployment || t == IncomePassThrough
}

// Owner identifies which person on the return earned an item.
type Owner string

const (
	OwnerTaxpayer Owner = "taxpayer"
	OwnerSpouse   Owner = "spouse"
)

// IncomeItem is one line of income. Amounts are non-negative; losses are
// carried as adjustments.
type IncomeItem struct {
	Type        IncomeType       `yaml:"type" json:"type"`
	Amount      decimal.Decimal  `yaml:"amount" json:"amount"`
	Owner       Owner            `yaml:"owner,omitempty" json:"owner,omitempty"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty"`
	Business    *BusinessDetails `yaml:"business,omitempty" json:"business,omitempty"`
}

// OwnedBy reports whether the item belongs to o. Items without an owner
// belong to the taxpayer.
func (it IncomeItem) OwnedBy(o Owner) bool {
	if it.Owner == "" {
		return o == OwnerTaxpayer
	}
	return it.Owner == o
}

// BusinessDetails carries the facts the QBI deduction needs.
type BusinessDetails struct {
	Name       string          `yaml:"name" json:"name"`
	Occupation string          `yaml:"occupation,omitempty" json:"occupation,omitempty"`
	SSTB       bool            `yaml:"sstb" json:"sstb"`
	W2Wages    decimal.Decimal `yaml:"w2_wages" json:"w2_wages"`
	UBIA       decimal.Decimal `yaml:"ubia" json:"ubia"`
}

// Person holds the age and blindness facts for the taxpayer or spouse.
type Person struct {
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
	Age   int    `yaml:"age" json:"age"`
	Blind bool   `yaml:"blind" json:"blind"`
}

// Dependent is a qualifying child or relative.
type Dependent struct {
	Name         string `yaml:"name,omitempty" json:"name,omitempty"`
	Age          int    `yaml:"age" json:"age"`
	Relationship string `yaml:"relationship,omitempty" json:"relationship,omitempty"`
	Disabled     bool   `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// Adjustments are above-the-line deductions. Half of SE tax is derived and
// never supplied here.
type Adjustments struct {
	StudentLoanInterest     decimal.Decimal `yaml:"student_loan_interest" json:"student_loan_interest"`
	HSAContribution         decimal.Decimal `yaml:"hsa_contribution" json:"hsa_contribution"`
	RetirementContributions decimal.Decimal `yaml:"retirement_contributions" json:"retirement_contributions"`
	TraditionalIRA          decimal.Decimal `yaml:"traditional_ira" json:"traditional_ira"`
	SelfEmployedRetirement  decimal.Decimal `yaml:"self_employed_retirement" json:"self_employed_retirement"`
	CapitalLoss             decimal.Decimal `yaml:"capital_loss" json:"capital_loss"`
	Other                   decimal.Decimal `yaml:"other" json:"other"`
}

// Total returns the sum of the directly deductible adjustments. Capital loss
// is netted against gains separately.
func (a Adjustments) Total() decimal.Decimal {
	return a.StudentLoanInterest.
		Add(a.HSAContribution).
		Add(a.RetirementContributions).
		Add(a.TraditionalIRA).
		Add(a.SelfEmployedRetirement).
		Add(a.Other)
}

// ItemizedComponents are the Schedule A inputs before limits.
type ItemizedComponents struct {
	StateLocalTaxes  decimal.Decimal `yaml:"state_local_taxes" json:"state_local_taxes"`
	MortgageInterest decimal.Decimal `yaml:"mortgage_interest" json:"mortgage_interest"`
	Charitable       decimal.Decimal `yaml:"charitable" json:"charitable"`
	Medical          decimal.Decimal `yaml:"medical" json:"medical"`
	Other            decimal.Decimal `yaml:"other" json:"other"`
}

// Preferences are AMT adjustments not visible in regular taxable income.
type Preferences struct {
	ISOSpread                   decimal.Decimal `yaml:"iso_spread" json:"iso_spread"`
	PrivateActivityBondInterest decimal.Decimal `yaml:"private_activity_bond_interest" json:"private_activity_bond_interest"`
}

// Benefits describes workplace plans the advisory layer can reason about.
type Benefits struct {
	Has401k                bool            `yaml:"has_401k" json:"has_401k"`
	HighDeductibleHealth   bool            `yaml:"high_deductible_health_plan" json:"high_deductible_health_plan"`
	FamilyCoverage         bool            `yaml:"family_coverage" json:"family_coverage"`
	DependentCareFSA       bool            `yaml:"dependent_care_fsa" json:"dependent_care_fsa"`
	UnrealizedLosses       decimal.Decimal `yaml:"unrealized_losses" json:"unrealized_losses"`
	AnnualCharitableIntent decimal.Decimal `yaml:"annual_charitable_intent" json:"annual_charitable_intent"`
}

// TaxpayerProfile is the full set of facts for one return.
type TaxpayerProfile struct {
	ID                    string             `yaml:"id,omitempty" json:"id,omitempty"`
	FilingStatus          FilingStatus       `yaml:"filing_status" json:"filing_status"`
	State                 string             `yaml:"state" json:"state"`
	Taxpayer              Person             `yaml:"taxpayer" json:"taxpayer"`
	Spouse                *Person            `yaml:"spouse,omitempty" json:"spouse,omitempty"`
	Dependents            []Dependent        `yaml:"dependents,omitempty" json:"dependents,omitempty"`
	Income                []IncomeItem       `yaml:"income" json:"income"`
	Adjustments           Adjustments        `yaml:"adjustments" json:"adjustments"`
	Itemized              ItemizedComponents `yaml:"itemized" json:"itemized"`
	Preferences           Preferences        `yaml:"amt_preferences" json:"amt_preferences"`
	DependentCareExpenses decimal.Decimal    `yaml:"dependent_care_expenses" json:"dependent_care_expenses"`
	Benefits              Benefits           `yaml:"benefits" json:"benefits"`
	// ForceItemize makes the standard deduction unavailable. Required for a
	// separate filer whose spouse itemizes.
	ForceItemize bool `yaml:"force_itemize" json:"force_itemize"`
}

// Validate checks the structural invariants of the profile and returns the
// first violation as a typed error.
func (p *TaxpayerProfile) Validate() error {
	if !p.FilingStatus.Valid() {
		return &InvalidInputError{Field: "filing_status", Value: p.FilingStatus, Reason: "unknown filing status"}
	}
	if strings.TrimSpace(p.State) == "" {
		return &IncompleteProfileError{Field: "state"}
	}
	if p.FilingStatus.RequiresSpouse() && p.Spouse == nil {
		return &IncompleteProfileError{Field: "spouse", FilingStatus: p.FilingStatus}
	}
	if p.Spouse != nil && !p.FilingStatus.AllowsSpouse() {
		return &InvalidInputError{Field: "spouse", Value: p.Spouse.Name, Reason: fmt.Sprintf("not allowed for filing status %s", p.FilingStatus)}
	}
	if (p.FilingStatus == FilingHeadOfHousehold || p.FilingStatus == FilingQualifyingSurvivingSpouse) && len(p.Dependents) == 0 {
		return &IncompleteProfileError{Field: "dependents", FilingStatus: p.FilingStatus}
	}
	if err := validateAge("taxpayer.age", p.Taxpayer.Age); err != nil {
		return err
	}
	if p.Spouse != nil {
		if err := validateAge("spouse.age", p.Spouse.Age); err != nil {
			return err
		}
	}
	for i, d := range p.Dependents {
		if err := validateAge(fmt.Sprintf("dependents[%d].age", i), d.Age); err != nil {
			return err
		}
	}
	for i, it := range p.Income {
		field := fmt.Sprintf("income[%d]", i)
		if !it.Type.Valid() {
			return &InvalidInputError{Field: field + ".type", Value: it.Type, Reason: "unknown income type"}
		}
		if it.Owner == OwnerSpouse && p.Spouse == nil {
			return &IncompleteProfileError{Field: "spouse", FilingStatus: p.FilingStatus}
		}
		if it.Owner != "" && it.Owner != OwnerTaxpayer && it.Owner != OwnerSpouse {
			return &InvalidInputError{Field: field + ".owner", Value: it.Owner, Reason: "must be taxpayer or spouse"}
		}
		if err := validateAmount(field+".amount", it.Amount); err != nil {
			return err
		}
		if it.Business != nil {
			if err := validateAmount(field+".business.w2_wages", it.Business.W2Wages); err != nil {
				return err
			}
			if err := validateAmount(field+".business.ubia", it.Business.UBIA); err != nil {
				return err
			}
		}
	}
	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"adjustments.student_loan_interest", p.Adjustments.StudentLoanInterest},
		{"adjustments.hsa_contribution", p.Adjustments.HSAContribution},
		{"adjustments.retirement_contributions", p.Adjustments.RetirementContributions},
		{"adjustments.traditional_ira", p.Adjustments.TraditionalIRA},
		{"adjustments.self_employed_retirement", p.Adjustments.SelfEmployedRetirement},
		{"adjustments.capital_loss", p.Adjustments.CapitalLoss},
		{"adjustments.other", p.Adjustments.Other},
		{"itemized.state_local_taxes", p.Itemized.StateLocalTaxes},
		{"itemized.mortgage_interest", p.Itemized.MortgageInterest},
		{"itemized.charitable", p.Itemized.Charitable},
		{"itemized.medical", p.Itemized.Medical},
		{"itemized.other", p.Itemized.Other},
		{"amt_preferences.iso_spread", p.Preferences.ISOSpread},
		{"amt_preferences.private_activity_bond_interest", p.Preferences.PrivateActivityBondInterest},
		{"dependent_care_expenses", p.DependentCareExpenses},
	}
	for _, a := range amounts {
		if err := validateAmount(a.field, a.value); err != nil {
			return err
		}
	}
	return nil
}

func validateAge(field string, age int) error {
	if age < 0 || age > 130 {
		return &InvalidInputError{Field: field, Value: age, Reason: "must be between 0 and 130"}
	}
	return nil
}

func validateAmount(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return &InvalidInputError{Field: field, Value: v, Reason: "must be non-negative"}
	}
	if v.GreaterThan(MaxIncomeAmount) {
		return &ComputationLimitError{Field: field, Value: v, Limit: MaxIncomeAmount}
	}
	return nil
}

// SumIncome totals items of the given types for every owner.
func (p *TaxpayerProfile) SumIncome(types ...IncomeType) decimal.Decimal {
	total := decimal.Zero
	for _, it := range p.Income {
		for _, t := range types {
			if it.Type == t {
				total = total.Add(it.Amount)
				break
			}
		}
	}
	return total
}

// SumIncomeFor totals items of the given type earned by one person.
func (p *TaxpayerProfile) SumIncomeFor(o Owner, t IncomeType) decimal.Decimal {
	total := decimal.Zero
	for _, it := range p.Income {
		if it.Type == t && it.OwnedBy(o) {
			total = total.Add(it.Amount)
		}
	}
	return total
}

// TotalIncome is the gross of every income item before adjustments.
func (p *TaxpayerProfile) TotalIncome() decimal.Decimal {
	total := decimal.Zero
	for _, it := range p.Income {
		total = total.Add(it.Amount)
	}
	return total
}

// Owners lists the people whose earnings are tracked separately.
func (p *TaxpayerProfile) Owners() []Owner {
	if p.Spouse != nil {
		return []Owner{OwnerTaxpayer, OwnerSpouse}
	}
	return []Owner{OwnerTaxpayer}
}

// CountDependents counts dependents younger than maxAge. With under set to
// false it counts the rest.
func (p *TaxpayerProfile) CountDependents(maxAge int, under bool) int {
	n := 0
	for _, d := range p.Dependents {
		if (d.Age < maxAge) == under {
			n++
		}
	}
	return n
}

// DeepCopy returns a copy that shares no mutable state with p.
func (p *TaxpayerProfile) DeepCopy() *TaxpayerProfile {
	if p == nil {
		return nil
	}
	c := *p
	if p.Spouse != nil {
		s := *p.Spouse
		c.Spouse = &s
	}
	if p.Dependents != nil {
		c.Dependents = append([]Dependent(nil), p.Dependents...)
	}
	if p.Income != nil {
		c.Income = make([]IncomeItem, len(p.Income))
		for i, it := range p.Income {
			c.Income[i] = it
			if it.Business != nil {
				b := *it.Business
				c.Income[i].Business = &b
			}
		}
	}
	return &c
}
