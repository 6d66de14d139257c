package recommend

import (
	"fmt"

	"github.com/rgehrsitz/taxadvisor/internal/calculation"
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/rgehrsitz/taxadvisor/internal/entity"
	"github.com/shopspring/decimal"
)

const (
	catchUp401kAge = 50
	catchUpIRAAge  = 50
	catchUpHSAAge  = 55
)

// DefaultRegistry returns the built-in strategy catalog.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(Rule{
		ID:         "max_401k",
		Label:      "Maximize 401(k) deferrals",
		Category:   domain.CategoryRetirement,
		Confidence: ConfidenceHigh,
		Applies:    func(f *Facts) bool { return f.Profile.Benefits.Has401k && room401k(f).IsPositive() },
		Estimate:   estimate401k,
	})
	r.MustRegister(Rule{
		ID:         "hsa",
		Label:      "Fund a Health Savings Account",
		Category:   domain.CategoryHealth,
		Confidence: ConfidenceHigh,
		Applies:    func(f *Facts) bool { return f.Profile.Benefits.HighDeductibleHealth && roomHSA(f).IsPositive() },
		Estimate:   estimateHSA,
	})
	r.MustRegister(Rule{
		ID:         "s_corp_election",
		Label:      "Elect S-Corporation status",
		Category:   domain.CategoryEntity,
		Confidence: ConfidenceMedium,
		Applies: func(f *Facts) bool {
			return f.Entities != nil && selfEmployment(f.Profile).GreaterThanOrEqual(f.Entities.Options.LowIncomeThreshold)
		},
		Estimate: estimateSCorp,
	})
	r.MustRegister(Rule{
		ID:         "self_employed_retirement",
		Label:      "Open a SEP-IRA or Solo 401(k)",
		Category:   domain.CategoryBusiness,
		Confidence: ConfidenceMedium,
		Applies:    func(f *Facts) bool { return roomSEP(f).IsPositive() },
		Estimate:   estimateSEP,
	})
	r.MustRegister(Rule{
		ID:         "qbi_threshold",
		Label:      "Stay under the QBI threshold",
		Category:   domain.CategoryBusiness,
		Confidence: ConfidenceMedium,
		Applies:    qbiThresholdApplies,
		Estimate:   estimateQBIThreshold,
	})
	r.MustRegister(Rule{
		ID:         "tax_loss_harvesting",
		Label:      "Harvest unrealized investment losses",
		Category:   domain.CategoryInvestment,
		Confidence: ConfidenceMedium,
		Applies:    func(f *Facts) bool { return f.Profile.Benefits.UnrealizedLosses.IsPositive() },
		Estimate:   estimateLossHarvest,
	})
	r.MustRegister(Rule{
		ID:         "dependent_care_fsa",
		Label:      "Use a Dependent Care FSA",
		Category:   domain.CategoryFamily,
		Confidence: ConfidenceMedium,
		Applies: func(f *Facts) bool {
			return f.Profile.Benefits.DependentCareFSA && f.Profile.DependentCareExpenses.IsPositive() &&
				f.Profile.SumIncome(domain.IncomeWages).IsPositive()
		},
		Estimate: estimateDCFSA,
	})
	r.MustRegister(Rule{
		ID:         "traditional_ira",
		Label:      "Contribute to a traditional IRA",
		Category:   domain.CategoryRetirement,
		Confidence: ConfidenceMedium,
		Applies:    func(f *Facts) bool { return !f.Profile.Benefits.Has401k && roomIRA(f).IsPositive() },
		Estimate:   estimateIRA,
	})
	r.MustRegister(Rule{
		ID:         "charitable_bunching",
		Label:      "Bunch charitable gifts into alternate years",
		Category:   domain.CategoryCharitable,
		Confidence: ConfidenceLow,
		Applies: func(f *Facts) bool {
			return f.Position.DeductionType == domain.DeductionStandard && f.Profile.Benefits.AnnualCharitableIntent.IsPositive()
		},
		Estimate: estimateBunching,
	})
	return r
}

func money(v decimal.Decimal) string {
	return "$" + v.StringFixed(0)
}

func earnedIncome(p *domain.TaxpayerProfile) decimal.Decimal {
	return p.SumIncome(domain.IncomeWages, domain.IncomeSelfEmployment)
}

func selfEmployment(p *domain.TaxpayerProfile) decimal.Decimal {
	return p.SumIncomeFor(domain.OwnerTaxpayer, domain.IncomeSelfEmployment)
}

func room401k(f *Facts) decimal.Decimal {
	limit := f.Federal.Limits.Elective401k
	if f.Profile.Taxpayer.Age >= catchUp401kAge {
		limit = limit.Add(f.Federal.Limits.CatchUp401k)
	}
	wages := f.Profile.SumIncomeFor(domain.OwnerTaxpayer, domain.IncomeWages)
	room := decimal.Min(limit, wages).Sub(f.Profile.Adjustments.RetirementContributions)
	return decimal.Max(room, decimal.Zero)
}

func estimate401k(f *Facts) (Estimate, error) {
	room := room401k(f)
	savings, err := f.WhatIf(func(p *domain.TaxpayerProfile) {
		p.Adjustments.RetirementContributions = p.Adjustments.RetirementContributions.Add(room)
	})
	if err != nil {
		return Estimate{}, err
	}
	rate := f.Position.MarginalRate.Shift(2).StringFixed(0)
	facts := []string{
		fmt.Sprintf("current deferrals %s", money(f.Profile.Adjustments.RetirementContributions)),
		fmt.Sprintf("marginal rate %s%%", rate),
	}
	if schedule, ok := f.Federal.ScheduleFor(f.Profile.FilingStatus); ok {
		if headroom := calculation.BracketHeadroom(f.Position.TaxableIncome, schedule); headroom.IsPositive() {
			facts = append(facts, fmt.Sprintf("%s of taxable income left in the %s%% bracket", money(headroom), rate))
		}
	}
	return Estimate{
		Savings: savings,
		Action:  fmt.Sprintf("Increase pre-tax 401(k) deferrals by %s.", money(room)),
		Facts:   facts,
	}, nil
}

func roomHSA(f *Facts) decimal.Decimal {
	limits := f.Federal.Limits
	limit := limits.HSASelf
	if f.Profile.Benefits.FamilyCoverage {
		limit = limits.HSAFamily
	}
	if f.Profile.Taxpayer.Age >= catchUpHSAAge {
		limit = limit.Add(limits.HSACatchUp)
	}
	return decimal.Max(decimal.Zero, limit.Sub(f.Profile.Adjustments.HSAContribution))
}

func estimateHSA(f *Facts) (Estimate, error) {
	room := roomHSA(f)
	savings, err := f.WhatIf(func(p *domain.TaxpayerProfile) {
		p.Adjustments.HSAContribution = p.Adjustments.HSAContribution.Add(room)
	})
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{
		Savings: savings,
		Action:  fmt.Sprintf("Contribute another %s to the HSA.", money(room)),
		Facts:   []string{"enrolled in a high-deductible health plan"},
	}, nil
}

func estimateSCorp(f *Facts) (Estimate, error) {
	net := selfEmployment(f.Profile)
	occupation := ""
	for _, it := range f.Profile.Income {
		if it.Type == domain.IncomeSelfEmployment && it.Business != nil && it.Business.Occupation != "" {
			occupation = it.Business.Occupation
			break
		}
	}
	cmp, err := f.Entities.Compare(entity.Request{
		NetIncome:  net,
		Occupation: occupation,
		TaxYear:    f.Federal.Metadata.TaxYear,
		Household:  f.Profile,
	})
	if err != nil {
		return Estimate{}, err
	}
	if cmp.Recommended != domain.EntitySCorp {
		return Estimate{}, nil
	}
	scorp, _ := cmp.Option(domain.EntitySCorp)
	return Estimate{
		Savings: decimal.Max(decimal.Zero, scorp.SavingsVsSole),
		Action:  fmt.Sprintf("Elect S-Corp status and pay a reasonable salary of about %s.", money(scorp.Salary)),
		Facts: []string{
			fmt.Sprintf("self-employment income %s", money(net)),
			fmt.Sprintf("salary risk %s", scorp.Risk),
		},
	}, nil
}

// roomSEP is the deductible self-employed plan contribution left for the
// year: the plan rate applied to net earnings after the SE tax deduction.
func roomSEP(f *Facts) decimal.Decimal {
	net := selfEmployment(f.Profile)
	if !net.IsPositive() {
		return decimal.Zero
	}
	limits := f.Federal.Limits
	base := net.Sub(f.Position.SETaxDeduction)
	effective := limits.SEPRate.Div(decimal.NewFromInt(1).Add(limits.SEPRate))
	limit := decimal.Min(base.Mul(effective), limits.DefinedContribution).Round(2)
	return decimal.Max(decimal.Zero, limit.Sub(f.Profile.Adjustments.SelfEmployedRetirement))
}

func estimateSEP(f *Facts) (Estimate, error) {
	room := roomSEP(f)
	savings, err := f.WhatIf(func(p *domain.TaxpayerProfile) {
		p.Adjustments.SelfEmployedRetirement = p.Adjustments.SelfEmployedRetirement.Add(room)
	})
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{
		Savings: savings,
		Action:  fmt.Sprintf("Contribute up to %s to a self-employed retirement plan.", money(room)),
		Facts:   []string{fmt.Sprintf("self-employment income %s", money(selfEmployment(f.Profile)))},
	}, nil
}

func qbiThresholdExcess(f *Facts) decimal.Decimal {
	threshold, ok := f.Federal.QBI.Threshold.For(f.Profile.FilingStatus)
	if !ok {
		return decimal.Zero
	}
	rng, _ := f.Federal.QBI.PhaseInRange.For(f.Profile.FilingStatus)
	beforeQBI := f.Position.TaxableIncome.Add(f.Position.QBIDeduction)
	excess := beforeQBI.Sub(threshold)
	if !excess.IsPositive() || excess.GreaterThan(rng) {
		return decimal.Zero
	}
	return excess
}

func qbiThresholdApplies(f *Facts) bool {
	hasBusiness := false
	for _, it := range f.Profile.Income {
		if it.Type.IsBusiness() {
			hasBusiness = true
			break
		}
	}
	return hasBusiness && qbiThresholdExcess(f).IsPositive() && roomSEP(f).IsPositive()
}

func estimateQBIThreshold(f *Facts) (Estimate, error) {
	amount := decimal.Min(qbiThresholdExcess(f), roomSEP(f))
	savings, err := f.WhatIf(func(p *domain.TaxpayerProfile) {
		p.Adjustments.SelfEmployedRetirement = p.Adjustments.SelfEmployedRetirement.Add(amount)
	})
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{
		Savings: savings,
		Action:  fmt.Sprintf("Defer %s of business income to fall back toward the QBI threshold.", money(amount)),
		Facts:   []string{fmt.Sprintf("taxable income is %s inside the QBI phase-in range", money(qbiThresholdExcess(f)))},
	}, nil
}

func estimateLossHarvest(f *Facts) (Estimate, error) {
	losses := f.Profile.Benefits.UnrealizedLosses
	savings, err := f.WhatIf(func(p *domain.TaxpayerProfile) {
		p.Adjustments.CapitalLoss = p.Adjustments.CapitalLoss.Add(losses)
	})
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{
		Savings: savings,
		Action:  fmt.Sprintf("Realize %s of losses to offset gains and up to the annual ordinary income limit.", money(losses)),
		Facts:   []string{fmt.Sprintf("unrealized losses %s", money(losses))},
	}, nil
}

func estimateDCFSA(f *Facts) (Estimate, error) {
	amount := decimal.Min(f.Federal.Limits.DependentCareFSA, f.Profile.DependentCareExpenses)
	amount = decimal.Min(amount, f.Profile.SumIncome(domain.IncomeWages))
	savings, err := f.WhatIf(func(p *domain.TaxpayerProfile) {
		left := amount
		for i := range p.Income {
			if p.Income[i].Type != domain.IncomeWages || !left.IsPositive() {
				continue
			}
			cut := decimal.Min(left, p.Income[i].Amount)
			p.Income[i].Amount = p.Income[i].Amount.Sub(cut)
			left = left.Sub(cut)
		}
		p.DependentCareExpenses = p.DependentCareExpenses.Sub(amount)
	})
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{
		Savings: savings,
		Action:  fmt.Sprintf("Pay %s of care expenses through the employer's dependent care FSA.", money(amount)),
		Facts:   []string{fmt.Sprintf("dependent care expenses %s", money(f.Profile.DependentCareExpenses))},
	}, nil
}

func roomIRA(f *Facts) decimal.Decimal {
	limit := f.Federal.Limits.IRA
	if f.Profile.Taxpayer.Age >= catchUpIRAAge {
		limit = limit.Add(f.Federal.Limits.IRACatchUp)
	}
	limit = decimal.Min(limit, earnedIncome(f.Profile))
	return decimal.Max(decimal.Zero, limit.Sub(f.Profile.Adjustments.TraditionalIRA))
}

func estimateIRA(f *Facts) (Estimate, error) {
	room := roomIRA(f)
	savings, err := f.WhatIf(func(p *domain.TaxpayerProfile) {
		p.Adjustments.TraditionalIRA = p.Adjustments.TraditionalIRA.Add(room)
	})
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{
		Savings: savings,
		Action:  fmt.Sprintf("Contribute %s to a deductible traditional IRA.", money(room)),
		Facts:   []string{"no workplace retirement plan"},
	}, nil
}

// estimateBunching gives two years of planned gifts in one year and takes
// the standard deduction in the other. Savings are annualized.
func estimateBunching(f *Facts) (Estimate, error) {
	intent := f.Profile.Benefits.AnnualCharitableIntent
	savings, err := f.WhatIf(func(p *domain.TaxpayerProfile) {
		p.Itemized.Charitable = p.Itemized.Charitable.Add(intent)
	})
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{
		Savings: savings.Div(decimal.NewFromInt(2)),
		Action:  fmt.Sprintf("Give %s every other year, or use a donor-advised fund.", money(intent.Mul(decimal.NewFromInt(2)))),
		Facts: []string{
			fmt.Sprintf("standard deduction %s", money(f.Position.StandardDeduction)),
			fmt.Sprintf("itemizable total %s", money(f.Position.ItemizedDeduction)),
		},
	}, nil
}
