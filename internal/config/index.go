package config

import (
	"strings"

	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
)

// indexRounding is the multiple inflation-adjusted amounts are rounded down to.
var indexRounding = decimal.NewFromInt(50)

// Resolve returns the table for year. When no table is published for the
// year, the most recent earlier table is indexed by (1+inflation)^gap with
// amounts rounded down to $50. This is an approximation of future IRS
// adjustments and is reported through the indexed flag. Statutory amounts
// that are not inflation adjusted (SALT cap, NIIT and Additional Medicare
// thresholds, the child credit) are carried forward unchanged.
func (ts *TableSet) Resolve(year int, inflation decimal.Decimal) (*domain.TaxYearTable, bool, error) {
	if t, ok := ts.federal[year]; ok {
		return t, false, nil
	}
	base, ok := ts.latestBefore(year)
	if !ok {
		return nil, false, &domain.UnsupportedJurisdictionError{Jurisdiction: FederalJurisdiction, TaxYear: year}
	}
	factor := compound(inflation, year-base)
	return indexFederal(ts.federal[base], year, factor), true, nil
}

// ResolveState is Resolve for a state table.
func (ts *TableSet) ResolveState(year int, code string, inflation decimal.Decimal) (*domain.StateTaxTable, bool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if st, ok := ts.states[year][code]; ok {
		return st, false, nil
	}
	for y := year - 1; y >= ts.years[0]; y-- {
		if st, ok := ts.states[y][code]; ok {
			return indexState(st, year, compound(inflation, year-y)), true, nil
		}
	}
	return nil, false, &domain.UnsupportedJurisdictionError{Jurisdiction: code, TaxYear: year}
}

// WithInflation returns a table source that falls back to indexed tables for
// years without published data.
func (ts *TableSet) WithInflation(inflation decimal.Decimal) *IndexedTables {
	return &IndexedTables{set: ts, inflation: inflation}
}

// IndexedTables resolves tables through TableSet.Resolve.
type IndexedTables struct {
	set       *TableSet
	inflation decimal.Decimal
}

// Federal implements calculation.TableSource.
func (it *IndexedTables) Federal(year int) (*domain.TaxYearTable, error) {
	t, _, err := it.set.Resolve(year, it.inflation)
	return t, err
}

// State implements calculation.TableSource.
func (it *IndexedTables) State(year int, code string) (*domain.StateTaxTable, error) {
	st, _, err := it.set.ResolveState(year, code, it.inflation)
	return st, err
}

// IsIndexed reports whether the federal table for year is derived.
func (it *IndexedTables) IsIndexed(year int) bool {
	_, ok := it.set.federal[year]
	return !ok
}

func (ts *TableSet) latestBefore(year int) (int, bool) {
	for i := len(ts.years) - 1; i >= 0; i-- {
		if ts.years[i] < year {
			return ts.years[i], true
		}
	}
	return 0, false
}

func compound(rate decimal.Decimal, years int) decimal.Decimal {
	f := decimal.NewFromInt(1)
	growth := decimal.NewFromInt(1).Add(rate)
	for i := 0; i < years; i++ {
		f = f.Mul(growth)
	}
	return f
}

// indexAmount rounds only the inflation increment down to the rounding
// step, so a factor of one returns v unchanged.
func indexAmount(v, factor decimal.Decimal) decimal.Decimal {
	increment := v.Mul(factor).Sub(v)
	return v.Add(increment.Div(indexRounding).Floor().Mul(indexRounding))
}

func indexAmounts(sa domain.StatusAmounts, factor decimal.Decimal) domain.StatusAmounts {
	if sa == nil {
		return nil
	}
	out := make(domain.StatusAmounts, len(sa))
	for fs, v := range sa {
		out[fs] = indexAmount(v, factor)
	}
	return out
}

func indexSchedules(m map[domain.FilingStatus]domain.BracketSchedule, factor decimal.Decimal) map[domain.FilingStatus]domain.BracketSchedule {
	if m == nil {
		return nil
	}
	out := make(map[domain.FilingStatus]domain.BracketSchedule, len(m))
	for fs, s := range m {
		ns := make(domain.BracketSchedule, len(s))
		for i, b := range s {
			nb := domain.TaxBracket{Rate: b.Rate}
			if i > 0 {
				nb.Min = *ns[i-1].Max
			}
			if b.Max != nil {
				mx := indexAmount(*b.Max, factor)
				nb.Max = &mx
			}
			ns[i] = nb
		}
		out[fs] = ns
	}
	return out
}

func indexFederal(src *domain.TaxYearTable, year int, factor decimal.Decimal) *domain.TaxYearTable {
	t := *src
	t.Metadata.TaxYear = year
	t.Metadata.IndexedFrom = src.Metadata.TaxYear
	t.Metadata.Version = src.Metadata.Version + "-indexed"
	t.Brackets = indexSchedules(src.Brackets, factor)
	t.CapitalGains = indexSchedules(src.CapitalGains, factor)
	t.StandardDeduction = indexAmounts(src.StandardDeduction, factor)
	t.AdditionalStdDed = domain.AdditionalDeduction{
		Married:   indexAmount(src.AdditionalStdDed.Married, factor),
		Unmarried: indexAmount(src.AdditionalStdDed.Unmarried, factor),
	}
	t.FICA.SocialSecurity.WageBase = indexAmount(src.FICA.SocialSecurity.WageBase, factor)
	t.AMT.Exemption = indexAmounts(src.AMT.Exemption, factor)
	t.AMT.PhaseOutStart = indexAmounts(src.AMT.PhaseOutStart, factor)
	t.AMT.HighRateThreshold = indexAmounts(src.AMT.HighRateThreshold, factor)
	t.QBI.Threshold = indexAmounts(src.QBI.Threshold, factor)

	t.Credits = make(map[string]domain.CreditRule, len(src.Credits))
	for id, rule := range src.Credits {
		if rule.Kind == domain.CreditEarnedIncome {
			schedule := make([]domain.EarnedIncomeTier, len(rule.Schedule))
			for i, tier := range rule.Schedule {
				tier.MaxCredit = indexAmount(tier.MaxCredit, factor)
				tier.PhaseOutStart = indexAmounts(tier.PhaseOutStart, factor)
				schedule[i] = tier
			}
			rule.Schedule = schedule
			rule.InvestmentIncomeLimit = indexAmount(rule.InvestmentIncomeLimit, factor)
		}
		t.Credits[id] = rule
	}
	t.CreditOrder = append([]string(nil), src.CreditOrder...)

	l := src.Limits
	t.Limits = domain.ContributionLimits{
		Elective401k:        indexAmount(l.Elective401k, factor),
		CatchUp401k:         l.CatchUp401k,
		IRA:                 indexAmount(l.IRA, factor),
		IRACatchUp:          l.IRACatchUp,
		HSASelf:             indexAmount(l.HSASelf, factor),
		HSAFamily:           indexAmount(l.HSAFamily, factor),
		HSACatchUp:          l.HSACatchUp,
		SEPRate:             l.SEPRate,
		DefinedContribution: indexAmount(l.DefinedContribution, factor),
		DependentCareFSA:    l.DependentCareFSA,
	}
	return &t
}

func indexState(src *domain.StateTaxTable, year int, factor decimal.Decimal) *domain.StateTaxTable {
	st := *src
	st.TaxYear = year
	st.Brackets = indexSchedules(src.Brackets, factor)
	st.StandardDeduction = indexAmounts(src.StandardDeduction, factor)
	st.PersonalExemption = indexAmount(src.PersonalExemption, factor)
	return &st
}
