package recommend

import (
	"fmt"

	"github.com/rgehrsitz/taxadvisor/internal/calculation"
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/rgehrsitz/taxadvisor/internal/entity"
	"github.com/shopspring/decimal"
)

// Facts is everything a rule may look at. Rules must not modify Profile or
// Position; WhatIf works on a copy.
type Facts struct {
	Profile  *domain.TaxpayerProfile
	Position *domain.TaxPosition
	Federal  *domain.TaxYearTable
	State    *domain.StateTaxTable
	Entities *entity.Optimizer

	calc *calculation.TaxCalculator
}

// WhatIf recomputes the return with change applied to a copy of the
// profile and returns how much net tax falls. Increases report as zero.
func (f *Facts) WhatIf(change func(p *domain.TaxpayerProfile)) (decimal.Decimal, error) {
	p := f.Profile.DeepCopy()
	change(p)
	if err := p.Validate(); err != nil {
		return decimal.Zero, err
	}
	pos, err := f.calc.ComputeWithTables(p, f.Federal, f.State)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.Max(decimal.Zero, f.Position.NetTax().Sub(pos.NetTax())), nil
}

// Estimate is a rule's answer for one taxpayer.
type Estimate struct {
	Savings decimal.Decimal
	Action  string
	Facts   []string
}

// Confidence is how likely a taxpayer who matches a rule can act on it.
type Confidence int

const (
	ConfidenceHigh Confidence = iota + 1
	ConfidenceMedium
	ConfidenceLow
)

// Rule pairs an applicability predicate with a savings estimator.
type Rule struct {
	ID         string
	Label      string
	Category   domain.StrategyCategory
	Confidence Confidence
	Applies    func(f *Facts) bool
	Estimate   func(f *Facts) (Estimate, error)
}

// Registry is an ordered catalog of rules keyed by ID.
type Registry struct {
	rules []Rule
	index map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds a rule. IDs must be unique.
func (r *Registry) Register(rule Rule) error {
	if rule.ID == "" {
		return fmt.Errorf("rule has no id")
	}
	if rule.Applies == nil || rule.Estimate == nil {
		return fmt.Errorf("rule %s needs both a predicate and an estimator", rule.ID)
	}
	if _, exists := r.index[rule.ID]; exists {
		return fmt.Errorf("rule %s is already registered", rule.ID)
	}
	r.index[rule.ID] = len(r.rules)
	r.rules = append(r.rules, rule)
	return nil
}

// MustRegister is Register for built-in catalogs.
func (r *Registry) MustRegister(rule Rule) {
	if err := r.Register(rule); err != nil {
		panic(err)
	}
}

// Get returns the rule with the given ID.
func (r *Registry) Get(id string) (Rule, bool) {
	i, ok := r.index[id]
	if !ok {
		return Rule{}, false
	}
	return r.rules[i], true
}

// List returns the rule IDs in registration order.
func (r *Registry) List() []string {
	ids := make([]string, len(r.rules))
	for i, rule := range r.rules {
		ids[i] = rule.ID
	}
	return ids
}

// Rules returns the rules in registration order.
func (r *Registry) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}
