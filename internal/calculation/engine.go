package calculation

import (
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
)

// TableSource supplies the federal and state tables for a tax year.
type TableSource interface {
	Federal(year int) (*domain.TaxYearTable, error)
	State(year int, code string) (*domain.StateTaxTable, error)
}

// TaxCalculator orchestrates a complete federal and state computation.
// It holds no per-call state and is safe for concurrent use.
type TaxCalculator struct {
	Tables     TableSource
	Deductions *DeductionResolver
	Credits    *CreditEngine
	Special    *SpecialTaxCalculator
	QBI        *QBIDeductionCalculator
	State      *StateTaxCalculator
	Logger     Logger
}

// NewTaxCalculator creates a tax calculator over the given tables
func NewTaxCalculator(tables TableSource) *TaxCalculator {
	return &TaxCalculator{
		Tables:     tables,
		Deductions: NewDeductionResolver(),
		Credits:    NewCreditEngine(),
		Special:    NewSpecialTaxCalculator(),
		QBI:        NewQBIDeductionCalculator(),
		State:      NewStateTaxCalculator(),
		Logger:     NopLogger{},
	}
}

// SetLogger sets the logger; nil installs a no-op logger.
func (tc *TaxCalculator) SetLogger(l Logger) {
	if l == nil {
		tc.Logger = NopLogger{}
		return
	}
	tc.Logger = l
}

// ComputeTax validates the profile, resolves the tables for the year and
// computes the full tax position. Nothing is returned on error.
func (tc *TaxCalculator) ComputeTax(p *domain.TaxpayerProfile, year int) (*domain.TaxPosition, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	fed, err := tc.Tables.Federal(year)
	if err != nil {
		return nil, err
	}
	st, err := tc.Tables.State(year, p.State)
	if err != nil {
		return nil, err
	}
	return tc.ComputeWithTables(p, fed, st)
}

// incomeSummary is the aggregated income of a profile.
type incomeSummary struct {
	wages, selfEmployment, passThrough         decimal.Decimal
	qualifiedDividends, ordinaryDividends      decimal.Decimal
	interest, rental, retirement, other        decimal.Decimal
	socialSecurity                             decimal.Decimal
	shortTermNet, longTermNet, capitalLossUsed decimal.Decimal
}

func (s incomeSummary) capitalIncome() decimal.Decimal {
	return s.shortTermNet.Add(s.longTermNet).Sub(s.capitalLossUsed)
}

func (s incomeSummary) investmentIncome() decimal.Decimal {
	return s.interest.
		Add(s.qualifiedDividends).
		Add(s.ordinaryDividends).
		Add(decimal.Max(decimal.Zero, s.capitalIncome())).
		Add(decimal.Max(decimal.Zero, s.rental))
}

// aggregate sums income by type and nets the capital loss adjustment against
// short-term gains first, then long-term gains. Loss left over is deductible
// up to the table limit.
func aggregate(p *domain.TaxpayerProfile, t *domain.TaxYearTable) incomeSummary {
	s := incomeSummary{
		wages:              p.SumIncome(domain.IncomeWages),
		selfEmployment:     p.SumIncome(domain.IncomeSelfEmployment),
		passThrough:        p.SumIncome(domain.IncomePassThrough),
		qualifiedDividends: p.SumIncome(domain.IncomeQualifiedDividends),
		ordinaryDividends:  p.SumIncome(domain.IncomeOrdinaryDividends),
		interest:           p.SumIncome(domain.IncomeInterest),
		rental:             p.SumIncome(domain.IncomeRental),
		retirement:         p.SumIncome(domain.IncomeRetirementDistribution),
		other:              p.SumIncome(domain.IncomeOther),
		socialSecurity:     p.SumIncome(domain.IncomeSocialSecurity),
	}
	loss := p.Adjustments.CapitalLoss
	st := p.SumIncome(domain.IncomeShortTermGain)
	lt := p.SumIncome(domain.IncomeLongTermGain)

	used := decimal.Min(st, loss)
	s.shortTermNet = st.Sub(used)
	loss = loss.Sub(used)

	used = decimal.Min(lt, loss)
	s.longTermNet = lt.Sub(used)
	loss = loss.Sub(used)

	s.capitalLossUsed = decimal.Min(loss, t.CapitalLossLimit.OrZero(p.FilingStatus))
	return s
}

// taxableSocialSecurity applies the two-tier provisional income formula.
func taxableSocialSecurity(fs domain.FilingStatus, benefits, otherIncome decimal.Decimal, t *domain.TaxYearTable) decimal.Decimal {
	if !benefits.IsPositive() {
		return decimal.Zero
	}
	rules := t.SocialSecurity
	base := rules.BaseThreshold.OrZero(fs)
	adjusted := rules.AdjustedThreshold.OrZero(fs)
	provisional := otherIncome.Add(benefits.Mul(rules.FirstTierRate))

	if provisional.LessThanOrEqual(base) {
		return decimal.Zero
	}
	if provisional.LessThanOrEqual(adjusted) {
		return decimal.Min(benefits.Mul(rules.FirstTierRate), provisional.Sub(base).Mul(rules.FirstTierRate)).Round(2)
	}
	firstTier := decimal.Min(benefits.Mul(rules.FirstTierRate), adjusted.Sub(base).Mul(rules.FirstTierRate))
	taxable := provisional.Sub(adjusted).Mul(rules.SecondTierRate).Add(firstTier)
	return decimal.Min(benefits.Mul(rules.SecondTierRate), taxable).Round(2)
}

// ComputeWithTables runs the pipeline against explicit tables. The order is
// fixed: SE tax from gross SE income, AGI, deduction, QBI, taxable income,
// brackets, AMT, credits, NIIT, state.
func (tc *TaxCalculator) ComputeWithTables(p *domain.TaxpayerProfile, fed *domain.TaxYearTable, st *domain.StateTaxTable) (*domain.TaxPosition, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if st == nil {
		return nil, &domain.IncompleteProfileError{Field: "state"}
	}
	fs := p.FilingStatus
	schedule, ok := fed.ScheduleFor(fs)
	if !ok {
		return nil, &domain.UnsupportedJurisdictionError{Jurisdiction: string(fs), TaxYear: fed.Metadata.TaxYear}
	}
	cgSchedule, _ := fed.CapitalGainScheduleFor(fs)

	pos := &domain.TaxPosition{TaxYear: fed.Metadata.TaxYear, FilingStatus: fs}
	inc := aggregate(p, fed)

	// SE tax first, from gross SE income.
	se := tc.Special.SelfEmploymentTax(p, fed)
	pos.SETax = se.Tax
	pos.SETaxDeduction = se.Deduction
	pos.AdditionalMedicare = tc.Special.AdditionalMedicare(p, se.NetEarnings, fed)

	// AGI.
	adjustments := p.Adjustments.Total().Add(se.Deduction)
	nonSS := inc.wages.
		Add(inc.selfEmployment).
		Add(inc.passThrough).
		Add(inc.qualifiedDividends).
		Add(inc.ordinaryDividends).
		Add(inc.interest).
		Add(inc.capitalIncome()).
		Add(inc.rental).
		Add(inc.retirement).
		Add(inc.other)
	pos.TaxableSocialSecurity = taxableSocialSecurity(fs, inc.socialSecurity, nonSS.Sub(adjustments), fed)
	pos.TotalIncome = p.TotalIncome()
	pos.AdjustmentsTotal = adjustments.Round(2)
	pos.AGI = nonSS.Add(pos.TaxableSocialSecurity).Sub(adjustments).Round(2)

	// Deduction.
	ded := tc.Deductions.Resolve(p, pos.AGI, fed)
	pos.Deduction = ded.Amount
	pos.DeductionType = ded.Type
	pos.StandardDeduction = ded.Standard
	pos.ItemizedDeduction = ded.Itemized

	// QBI and taxable income.
	beforeQBI := decimal.Max(decimal.Zero, pos.AGI.Sub(ded.Amount))
	netCapitalGain := decimal.Max(decimal.Zero, inc.qualifiedDividends.Add(decimal.Min(inc.longTermNet, decimal.Max(decimal.Zero, inc.capitalIncome()))))
	qbi := tc.QBI.Calculate(businessesFor(p, se, inc), beforeQBI, netCapitalGain, fs, fed)
	pos.QBIDeduction = qbi.Deduction
	pos.TaxableIncome = decimal.Max(decimal.Zero, beforeQBI.Sub(qbi.Deduction)).Round(2)

	// Brackets: ordinary income through the schedule, preferential income
	// stacked on top at capital gain rates.
	preferential := decimal.Min(netCapitalGain, pos.TaxableIncome)
	ordinaryIncome := pos.TaxableIncome.Sub(preferential)
	ordinaryTax := progressiveTax(ordinaryIncome, schedule)
	prefTax := stackedTax(ordinaryIncome, preferential, cgSchedule)
	pos.OrdinaryTax = ordinaryTax.Round(2)
	pos.PreferentialTax = prefTax.Round(2)
	pos.FederalBeforeCredits = ordinaryTax.Add(prefTax).Round(2)

	// AMT.
	amt := tc.Special.AMT(p, AMTInput{
		TaxableIncome:      pos.TaxableIncome,
		PreferentialIncome: preferential,
		RegularTax:         pos.FederalBeforeCredits,
		Deduction:          ded,
	}, fed)
	pos.AMT = amt.AddOn
	if amt.AddOn.IsPositive() {
		tc.Logger.Debugf("AMT applies: AMTI=%s tentative=%s regular=%s", amt.AMTI, amt.TentativeTax, pos.FederalBeforeCredits)
	}

	// Credits.
	earnedByOwner := make(map[domain.Owner]decimal.Decimal, 2)
	for _, owner := range p.Owners() {
		seShare := se.ByOwner[owner].Mul(fed.SelfEmployment.DeductibleFraction)
		earned := p.SumIncomeFor(owner, domain.IncomeWages).
			Add(p.SumIncomeFor(owner, domain.IncomeSelfEmployment)).
			Sub(seShare)
		earnedByOwner[owner] = decimal.Max(decimal.Zero, earned)
	}
	earnedTotal := earnedByOwner[domain.OwnerTaxpayer].Add(earnedByOwner[domain.OwnerSpouse])
	lowerEarned := earnedTotal
	if fs == domain.FilingMarriedJoint {
		lowerEarned = decimal.Min(earnedByOwner[domain.OwnerTaxpayer], earnedByOwner[domain.OwnerSpouse])
	}
	credits, err := tc.Credits.Apply(p, CreditInput{
		AGI:               pos.AGI,
		Liability:         pos.FederalBeforeCredits.Add(pos.AMT),
		EarnedIncome:      earnedTotal,
		InvestmentIncome:  inc.investmentIncome(),
		LowerEarnedIncome: lowerEarned,
	}, fed)
	if err != nil {
		return nil, err
	}
	pos.Credits = credits.Lines
	pos.NonrefundableCredits = credits.Nonrefundable.Round(2)
	pos.RefundableCredits = credits.Refundable.Round(2)

	incomeTaxAfterNonref := credits.Remaining
	refundableUsed := decimal.Min(credits.Refundable, incomeTaxAfterNonref)
	pos.FederalAfterCredits = incomeTaxAfterNonref.Sub(refundableUsed).Round(2)
	refundableExcess := credits.Refundable.Sub(refundableUsed)

	// NIIT.
	pos.NIIT = tc.Special.NIIT(fs, pos.AGI, inc.investmentIncome(), fed)

	// Totals.
	otherFederal := pos.SETax.Add(pos.AdditionalMedicare).Add(pos.NIIT)
	federal := pos.FederalAfterCredits.Add(otherFederal).Sub(refundableExcess)
	pos.FederalTotal = decimal.Max(decimal.Zero, federal).Round(2)
	pos.Refund = decimal.Max(decimal.Zero, federal.Neg()).Round(2)

	state, err := tc.State.Calculate(p, pos.AGI, pos.TaxableSocialSecurity, st)
	if err != nil {
		return nil, err
	}
	pos.State = state
	pos.StateTax = state.Tax

	pos.TotalLiability = pos.FederalTotal.Add(pos.StateTax)
	if pos.TotalIncome.IsPositive() {
		pos.EffectiveRate = pos.TotalLiability.Div(pos.TotalIncome).Round(4)
	}
	pos.MarginalRate = MarginalRate(pos.TaxableIncome, schedule)

	tc.Logger.Debugf("computed %s %d: AGI=%s taxable=%s total=%s", fs, pos.TaxYear, pos.AGI, pos.TaxableIncome, pos.TotalLiability)
	return pos, nil
}

// businessesFor builds the QBI inputs. Self-employment income is reduced by
// its share of the deductible SE tax and SE retirement contributions.
func businessesFor(p *domain.TaxpayerProfile, se SelfEmploymentResult, inc incomeSummary) []QBIBusiness {
	seReduction := se.Deduction.Add(p.Adjustments.SelfEmployedRetirement)
	var out []QBIBusiness
	for _, it := range p.Income {
		if !it.Type.IsBusiness() {
			continue
		}
		b := QBIBusiness{Name: it.Description, Income: it.Amount}
		if b.Name == "" {
			b.Name = string(it.Type)
		}
		if it.Business != nil {
			if it.Business.Name != "" {
				b.Name = it.Business.Name
			}
			b.SSTB = it.Business.SSTB
			b.W2Wages = it.Business.W2Wages
			b.UBIA = it.Business.UBIA
		}
		if it.Type == domain.IncomeSelfEmployment && inc.selfEmployment.IsPositive() {
			share := it.Amount.Div(inc.selfEmployment)
			b.Income = b.Income.Sub(seReduction.Mul(share))
		}
		out = append(out, b)
	}
	return out
}
