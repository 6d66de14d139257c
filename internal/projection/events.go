package projection

import (
	"fmt"

	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
)

var eventKinds = map[domain.LifeEventKind]bool{
	domain.EventMarriage:      true,
	domain.EventDivorce:       true,
	domain.EventChildBirth:    true,
	domain.EventRetirement:    true,
	domain.EventBusinessStart: true,
	domain.EventHomePurchase:  true,
	domain.EventIncomeChange:  true,
}

func validateEvents(events []domain.LifeEvent) error {
	for i, ev := range events {
		field := fmt.Sprintf("events[%d]", i)
		if !eventKinds[ev.Kind] {
			return &domain.InvalidInputError{Field: field + ".kind", Value: ev.Kind, Reason: "unknown life event"}
		}
		if ev.Amount.IsNegative() {
			return &domain.InvalidInputError{Field: field + ".amount", Value: ev.Amount, Reason: "must be non-negative"}
		}
		if ev.PropertyTax.IsNegative() {
			return &domain.InvalidInputError{Field: field + ".property_tax", Value: ev.PropertyTax, Reason: "must be non-negative"}
		}
		if ev.IncomeType != "" && !ev.IncomeType.Valid() {
			return &domain.InvalidInputError{Field: field + ".income_type", Value: ev.IncomeType, Reason: "unknown income type"}
		}
	}
	return nil
}

// applyEvent mutates p in place. growth scales amounts introduced by the
// event from its own year to the projection year.
func applyEvent(p *domain.TaxpayerProfile, ev domain.LifeEvent, elapsed int, growth decimal.Decimal) {
	amount := ev.Amount.Mul(growth).Round(2)
	owner := ev.Owner
	if owner == "" {
		owner = domain.OwnerTaxpayer
	}

	switch ev.Kind {
	case domain.EventMarriage:
		p.FilingStatus = domain.FilingMarriedJoint
		spouse := domain.Person{Age: p.Taxpayer.Age}
		if ev.Spouse != nil {
			spouse = *ev.Spouse
			spouse.Age += elapsed
		}
		p.Spouse = &spouse
		if amount.IsPositive() {
			p.Income = append(p.Income, domain.IncomeItem{Type: domain.IncomeWages, Amount: amount, Owner: domain.OwnerSpouse, Description: "spouse wages"})
		}

	case domain.EventDivorce:
		p.Spouse = nil
		p.FilingStatus = domain.FilingSingle
		if len(p.Dependents) > 0 {
			p.FilingStatus = domain.FilingHeadOfHousehold
		}
		p.Income = filterIncome(p.Income, func(it domain.IncomeItem) bool { return it.Owner != domain.OwnerSpouse })

	case domain.EventChildBirth:
		p.Dependents = append(p.Dependents, domain.Dependent{Name: ev.Description, Age: elapsed, Relationship: "child"})

	case domain.EventRetirement:
		p.Income = filterIncome(p.Income, func(it domain.IncomeItem) bool {
			return !(it.OwnedBy(owner) && (it.Type == domain.IncomeWages || it.Type == domain.IncomeSelfEmployment))
		})
		if amount.IsPositive() {
			p.Income = append(p.Income, domain.IncomeItem{Type: domain.IncomeRetirementDistribution, Amount: amount, Owner: ev.Owner, Description: "retirement distribution"})
		}

	case domain.EventBusinessStart:
		biz := &domain.BusinessDetails{Name: "new business"}
		if ev.Business != nil {
			b := *ev.Business
			biz = &b
		}
		if amount.IsPositive() {
			p.Income = append(p.Income, domain.IncomeItem{Type: domain.IncomeSelfEmployment, Amount: amount, Owner: ev.Owner, Description: biz.Name, Business: biz})
		}

	case domain.EventHomePurchase:
		p.Itemized.MortgageInterest = p.Itemized.MortgageInterest.Add(amount)
		p.Itemized.StateLocalTaxes = p.Itemized.StateLocalTaxes.Add(ev.PropertyTax.Mul(growth).Round(2))

	case domain.EventIncomeChange:
		kind := ev.IncomeType
		if kind == "" {
			kind = domain.IncomeWages
		}
		p.Income = filterIncome(p.Income, func(it domain.IncomeItem) bool { return !(it.Type == kind && it.OwnedBy(owner)) })
		if amount.IsPositive() {
			item := domain.IncomeItem{Type: kind, Amount: amount, Owner: ev.Owner, Description: ev.Description}
			if kind.IsBusiness() {
				item.Business = &domain.BusinessDetails{Name: ev.Description}
			}
			p.Income = append(p.Income, item)
		}
	}
}

func filterIncome(items []domain.IncomeItem, keep func(domain.IncomeItem) bool) []domain.IncomeItem {
	out := items[:0]
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
