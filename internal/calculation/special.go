package calculation

import (
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// SelfEmploymentResult holds the SE tax computed from gross SE income.
type SelfEmploymentResult struct {
	NetEarnings decimal.Decimal
	// Tax is the 12.4% + 2.9% portion. Half of it is deductible.
	Tax       decimal.Decimal
	Deduction decimal.Decimal
	ByOwner   map[domain.Owner]decimal.Decimal
}

// AMTResult holds the alternative minimum tax breakdown.
type AMTResult struct {
	AMTI         decimal.Decimal
	Exemption    decimal.Decimal
	TentativeTax decimal.Decimal
	AddOn        decimal.Decimal
}

// SpecialTaxCalculator computes self-employment tax, Additional Medicare
// tax, AMT and NIIT.
type SpecialTaxCalculator struct{}

// NewSpecialTaxCalculator creates a special tax calculator
func NewSpecialTaxCalculator() *SpecialTaxCalculator {
	return &SpecialTaxCalculator{}
}

// SelfEmploymentTax computes SE tax per person from gross SE income. The
// Social Security portion only applies to the part of the wage base not
// already used by that person's W-2 wages. Net earnings under the minimum
// owe nothing.
func (sc *SpecialTaxCalculator) SelfEmploymentTax(p *domain.TaxpayerProfile, t *domain.TaxYearTable) SelfEmploymentResult {
	ssRate := t.FICA.SocialSecurity.Rate.Mul(two)
	medRate := t.FICA.Medicare.Rate.Mul(two)

	res := SelfEmploymentResult{ByOwner: make(map[domain.Owner]decimal.Decimal)}
	total := decimal.Zero
	for _, owner := range p.Owners() {
		gross := p.SumIncomeFor(owner, domain.IncomeSelfEmployment)
		net := gross.Mul(t.SelfEmployment.NetEarningsFactor)
		if net.LessThan(t.SelfEmployment.MinimumNetEarnings) {
			continue
		}
		res.NetEarnings = res.NetEarnings.Add(net)

		wages := p.SumIncomeFor(owner, domain.IncomeWages)
		ssRoom := decimal.Max(decimal.Zero, t.FICA.SocialSecurity.WageBase.Sub(wages))
		tax := decimal.Min(net, ssRoom).Mul(ssRate).Add(net.Mul(medRate))
		res.ByOwner[owner] = tax.Round(2)
		total = total.Add(tax)
	}
	res.Tax = total.Round(2)
	res.Deduction = total.Mul(t.SelfEmployment.DeductibleFraction).Round(2)
	return res
}

// PayrollTax is the combined employer and employee FICA on a salary.
func (sc *SpecialTaxCalculator) PayrollTax(salary decimal.Decimal, t *domain.TaxYearTable) decimal.Decimal {
	if !salary.IsPositive() {
		return decimal.Zero
	}
	ss := decimal.Min(salary, t.FICA.SocialSecurity.WageBase).Mul(t.FICA.SocialSecurity.Rate.Mul(two))
	med := salary.Mul(t.FICA.Medicare.Rate.Mul(two))
	return ss.Add(med).Round(2)
}

// AdditionalMedicare applies the 0.9% tax to combined wages and SE net
// earnings above the filing-status threshold. It is never halved.
func (sc *SpecialTaxCalculator) AdditionalMedicare(p *domain.TaxpayerProfile, seNetEarnings decimal.Decimal, t *domain.TaxYearTable) decimal.Decimal {
	threshold := t.FICA.Medicare.AdditionalThresholds.OrZero(p.FilingStatus)
	earned := p.SumIncome(domain.IncomeWages).Add(seNetEarnings)
	excess := earned.Sub(threshold)
	if !excess.IsPositive() {
		return decimal.Zero
	}
	return excess.Mul(t.FICA.Medicare.AdditionalRate).Round(2)
}

// AMTInput carries the figures the AMT computation needs from the main
// pipeline.
type AMTInput struct {
	TaxableIncome      decimal.Decimal
	PreferentialIncome decimal.Decimal
	RegularTax         decimal.Decimal
	Deduction          DeductionResult
}

// AMT computes the alternative minimum tax add-on. AMTI adds back the
// standard deduction or the deducted SALT plus preference items. The
// exemption phases out above the start at the table rate. Ordinary AMT
// income is taxed at the low rate up to the threshold and the high rate
// above it; preferential income keeps its capital gain rates.
func (sc *SpecialTaxCalculator) AMT(p *domain.TaxpayerProfile, in AMTInput, t *domain.TaxYearTable) AMTResult {
	fs := p.FilingStatus
	addBack := in.Deduction.SALT
	if in.Deduction.Type == domain.DeductionStandard {
		addBack = in.Deduction.Amount
	}
	amti := in.TaxableIncome.
		Add(addBack).
		Add(p.Preferences.ISOSpread).
		Add(p.Preferences.PrivateActivityBondInterest)

	exemption := t.AMT.Exemption.OrZero(fs)
	over := amti.Sub(t.AMT.PhaseOutStart.OrZero(fs))
	if over.IsPositive() {
		exemption = decimal.Max(decimal.Zero, exemption.Sub(over.Mul(t.AMT.PhaseOutRate)))
	}

	base := decimal.Max(decimal.Zero, amti.Sub(exemption))
	pref := decimal.Min(in.PreferentialIncome, base)
	ordinary := base.Sub(pref)

	threshold := t.AMT.HighRateThreshold.OrZero(fs)
	var ordinaryTax decimal.Decimal
	if ordinary.LessThanOrEqual(threshold) {
		ordinaryTax = ordinary.Mul(t.AMT.LowRate)
	} else {
		ordinaryTax = threshold.Mul(t.AMT.LowRate).Add(ordinary.Sub(threshold).Mul(t.AMT.HighRate))
	}
	cg, _ := t.CapitalGainScheduleFor(fs)
	tentative := ordinaryTax.Add(stackedTax(ordinary, pref, cg)).Round(2)

	return AMTResult{
		AMTI:         amti.Round(2),
		Exemption:    exemption.Round(2),
		TentativeTax: tentative,
		AddOn:        decimal.Max(decimal.Zero, tentative.Sub(in.RegularTax)),
	}
}

// NIIT applies the net investment income tax to the lesser of net
// investment income and AGI over the threshold.
func (sc *SpecialTaxCalculator) NIIT(fs domain.FilingStatus, agi, netInvestmentIncome decimal.Decimal, t *domain.TaxYearTable) decimal.Decimal {
	over := agi.Sub(t.NIIT.Threshold.OrZero(fs))
	if !over.IsPositive() || !netInvestmentIncome.IsPositive() {
		return decimal.Zero
	}
	return decimal.Min(netInvestmentIncome, over).Mul(t.NIIT.Rate).Round(2)
}
