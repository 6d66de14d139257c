package scenario

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
)

// Identity leaves the profile unchanged.
type Identity struct{}

func (Identity) Apply(*domain.TaxpayerProfile) error { return nil }
func (Identity) Name() string                        { return "none" }
func (Identity) Description() string                 { return "No change" }

// SetFilingStatus switches the filing status. Moving to a joint or separate
// return adds a spouse when the profile has none; moving to any other status
// drops the spouse and the spouse's income.
type SetFilingStatus struct {
	Status    domain.FilingStatus
	SpouseAge int
}

func (m *SetFilingStatus) Apply(p *domain.TaxpayerProfile) error {
	p.FilingStatus = m.Status
	if m.Status.AllowsSpouse() {
		if p.Spouse == nil {
			age := m.SpouseAge
			if age == 0 {
				age = p.Taxpayer.Age
			}
			p.Spouse = &domain.Person{Age: age}
		}
		return nil
	}
	p.Spouse = nil
	kept := p.Income[:0]
	for _, it := range p.Income {
		if it.Owner != domain.OwnerSpouse {
			kept = append(kept, it)
		}
	}
	p.Income = kept
	return nil
}

func (m *SetFilingStatus) Name() string { return "set_filing_status" }

func (m *SetFilingStatus) Description() string {
	return fmt.Sprintf("File as %s", m.Status.Label())
}

// AddIncome appends an income item.
type AddIncome struct {
	Type   domain.IncomeType
	Amount decimal.Decimal
	Owner  domain.Owner
}

func (m *AddIncome) Apply(p *domain.TaxpayerProfile) error {
	item := domain.IncomeItem{Type: m.Type, Amount: m.Amount, Owner: m.Owner, Description: "scenario"}
	if m.Type.IsBusiness() {
		item.Business = &domain.BusinessDetails{Name: "scenario business"}
	}
	p.Income = append(p.Income, item)
	return nil
}

func (m *AddIncome) Name() string { return "add_income" }

func (m *AddIncome) Description() string {
	return fmt.Sprintf("Add %s of %s", m.Amount.StringFixed(0), m.Type)
}

// RetirementAccount selects which adjustment a contribution lands in.
type RetirementAccount string

const (
	Account401k         RetirementAccount = "401k"
	AccountIRA          RetirementAccount = "ira"
	AccountSelfEmployed RetirementAccount = "self_employed"
)

// SetRetirementContribution sets the deductible contribution for an account.
type SetRetirementContribution struct {
	Account RetirementAccount
	Amount  decimal.Decimal
}

func (m *SetRetirementContribution) Apply(p *domain.TaxpayerProfile) error {
	switch m.Account {
	case Account401k, "":
		p.Adjustments.RetirementContributions = m.Amount
	case AccountIRA:
		p.Adjustments.TraditionalIRA = m.Amount
	case AccountSelfEmployed:
		p.Adjustments.SelfEmployedRetirement = m.Amount
	default:
		return &domain.InvalidInputError{Field: "account", Value: m.Account, Reason: "must be 401k, ira or self_employed"}
	}
	return nil
}

func (m *SetRetirementContribution) Name() string { return "set_retirement_contribution" }

func (m *SetRetirementContribution) Description() string {
	return fmt.Sprintf("Contribute %s to %s", m.Amount.StringFixed(0), m.Account)
}

// SetHSA sets the HSA contribution.
type SetHSA struct {
	Amount decimal.Decimal
}

func (m *SetHSA) Apply(p *domain.TaxpayerProfile) error {
	p.Adjustments.HSAContribution = m.Amount
	return nil
}

func (m *SetHSA) Name() string { return "set_hsa" }

func (m *SetHSA) Description() string {
	return fmt.Sprintf("Contribute %s to an HSA", m.Amount.StringFixed(0))
}

// AddDependent adds Count dependents of the given age.
type AddDependent struct {
	Age   int
	Count int
	Label string
}

func (m *AddDependent) Apply(p *domain.TaxpayerProfile) error {
	n := m.Count
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		p.Dependents = append(p.Dependents, domain.Dependent{Name: m.Label, Age: m.Age})
	}
	return nil
}

func (m *AddDependent) Name() string { return "add_dependent" }

func (m *AddDependent) Description() string {
	return fmt.Sprintf("Add %d dependent(s) aged %d", max(m.Count, 1), m.Age)
}

// SetState moves the household to another state.
type SetState struct {
	State string
}

func (m *SetState) Apply(p *domain.TaxpayerProfile) error {
	p.State = strings.ToUpper(strings.TrimSpace(m.State))
	return nil
}

func (m *SetState) Name() string        { return "set_state" }
func (m *SetState) Description() string { return "Move to " + strings.ToUpper(m.State) }

// AddCharitable adds to itemizable charitable gifts.
type AddCharitable struct {
	Amount decimal.Decimal
}

func (m *AddCharitable) Apply(p *domain.TaxpayerProfile) error {
	p.Itemized.Charitable = p.Itemized.Charitable.Add(m.Amount)
	return nil
}

func (m *AddCharitable) Name() string { return "add_charitable" }

func (m *AddCharitable) Description() string {
	return fmt.Sprintf("Give %s more to charity", m.Amount.StringFixed(0))
}

// ScaleIncome multiplies income items by Factor. An empty Type scales every
// item.
type ScaleIncome struct {
	Factor decimal.Decimal
	Type   domain.IncomeType
}

func (m *ScaleIncome) Apply(p *domain.TaxpayerProfile) error {
	for i := range p.Income {
		if m.Type != "" && p.Income[i].Type != m.Type {
			continue
		}
		p.Income[i].Amount = p.Income[i].Amount.Mul(m.Factor).Round(2)
	}
	return nil
}

func (m *ScaleIncome) Name() string { return "scale_income" }

func (m *ScaleIncome) Description() string {
	if m.Type == "" {
		return fmt.Sprintf("Scale all income by %s", m.Factor)
	}
	return fmt.Sprintf("Scale %s by %s", m.Type, m.Factor)
}
