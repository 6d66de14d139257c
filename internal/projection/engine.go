package projection

import (
	"sort"

	"github.com/rgehrsitz/taxadvisor/internal/calculation"
	"github.com/rgehrsitz/taxadvisor/internal/config"
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	decimalOne  = decimal.NewFromInt(1)
	decimalZero = decimal.Zero
)

const catchUpAge = 50

// Engine projects a profile forward year by year. The strategy being
// evaluated is the retirement contribution schedule: each year is computed
// with the contribution deducted and compared against a no-contribution
// baseline that is computed once, before the strategy run.
type Engine struct {
	Tables *config.TableSet
	Logger calculation.Logger
}

// NewEngine creates a projection engine over the given tables
func NewEngine(tables *config.TableSet) *Engine {
	return &Engine{Tables: tables, Logger: calculation.NopLogger{}}
}

// SetLogger sets the logger; nil installs a no-op logger.
func (e *Engine) SetLogger(l calculation.Logger) {
	if l == nil {
		e.Logger = calculation.NopLogger{}
		return
	}
	e.Logger = l
}

// Project runs the projection. Years without a published table use the
// latest known table indexed by the inflation assumption, and are flagged.
// Identical inputs give identical output.
func (e *Engine) Project(p *domain.TaxpayerProfile, horizon int, a domain.ProjectionAssumptions) (*domain.ProjectionResult, error) {
	if horizon <= 0 {
		return nil, &domain.InvalidInputError{Field: "horizon_years", Value: horizon, Reason: "must be at least 1"}
	}
	if horizon > config.MaxHorizonYears {
		return nil, &domain.ComputationLimitError{Field: "horizon_years", Value: horizon, Limit: config.MaxHorizonYears}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := config.ValidateAssumptions(&a, horizon); err != nil {
		return nil, err
	}
	if err := validateEvents(a.Events); err != nil {
		return nil, err
	}
	if a.StartYear == 0 {
		a.StartYear = e.Tables.LatestYear()
	}

	tables := e.Tables.WithInflation(a.Inflation)
	calc := calculation.NewTaxCalculator(tables)
	calc.SetLogger(e.Logger)

	events := make([]domain.LifeEvent, len(a.Events))
	copy(events, a.Events)
	sort.SliceStable(events, func(i, j int) bool { return events[i].Year < events[j].Year })

	// The baseline is frozen before any strategy year is computed.
	baseline := make([]decimal.Decimal, horizon)
	for y := 0; y < horizon; y++ {
		bp := profileForYear(p, y, a.IncomeGrowth, events)
		pos, err := calc.ComputeTax(bp, a.StartYear+y)
		if err != nil {
			return nil, err
		}
		baseline[y] = pos.NetTax()
	}

	result := &domain.ProjectionResult{
		HorizonYears: horizon,
		Assumptions:  a,
		Years:        make([]domain.ProjectionYear, 0, horizon),
	}
	balance := a.InitialBalance
	cumulative := decimalZero
	contributed := decimalZero

	for y := 0; y < horizon; y++ {
		taxYear := a.StartYear + y
		yp := profileForYear(p, y, a.IncomeGrowth, events)

		contribution := a.AnnualContribution.Mul(compound(a.ContributionGrowth, y)).Round(2)
		if a.ContributionRate.IsPositive() {
			fed, err := tables.Federal(taxYear)
			if err != nil {
				return nil, err
			}
			contribution = rateContribution(yp, a.ContributionRate, fed.Limits)
		}
		yp.Adjustments.RetirementContributions = yp.Adjustments.RetirementContributions.Add(contribution)
		pos, err := calc.ComputeTax(yp, taxYear)
		if err != nil {
			return nil, err
		}

		savings := baseline[y].Sub(pos.NetTax())
		cumulative = cumulative.Add(savings)
		contributed = contributed.Add(contribution)
		balance = balance.Mul(decimalOne.Add(a.ReturnRate)).Add(contribution).Round(2)

		var active []domain.LifeEvent
		for _, ev := range events {
			if ev.Year == y {
				active = append(active, ev)
			}
		}

		result.Years = append(result.Years, domain.ProjectionYear{
			YearIndex:         y,
			TaxYear:           taxYear,
			Position:          pos,
			BaselineTotal:     baseline[y],
			AnnualSavings:     savings,
			CumulativeSavings: cumulative,
			Contribution:      contribution,
			RetirementBalance: balance,
			ActiveEvents:      active,
			IndexedTable:      tables.IsIndexed(taxYear),
		})
		e.Logger.Debugf("projection year %d: net tax %s, savings %s, balance %s", taxYear, pos.NetTax(), savings, balance)
	}

	result.TotalContributed = contributed
	result.EndingBalance = balance
	result.CumulativeSavings = cumulative
	result.NetCost = contributed.Sub(cumulative)
	if result.NetCost.IsPositive() {
		roi := balance.Add(cumulative).Sub(contributed).Div(result.NetCost).Round(4)
		result.ROI = &roi
	}
	return result, nil
}

// profileForYear ages the household, grows income and applies every event
// that has taken effect by year y. The input profile is never modified.
func profileForYear(base *domain.TaxpayerProfile, y int, growth decimal.Decimal, events []domain.LifeEvent) *domain.TaxpayerProfile {
	p := base.DeepCopy()
	p.Taxpayer.Age += y
	if p.Spouse != nil {
		p.Spouse.Age += y
	}
	for i := range p.Dependents {
		p.Dependents[i].Age += y
	}
	factor := compound(growth, y)
	for i := range p.Income {
		p.Income[i].Amount = p.Income[i].Amount.Mul(factor).Round(2)
	}
	for _, ev := range events {
		if ev.Year > y {
			break
		}
		applyEvent(p, ev, y-ev.Year, compound(growth, y-ev.Year))
	}
	return p
}

// rateContribution defers rate of the taxpayer's earned income for the year,
// capped at the 401(k) limit (the IRA limit without a 401(k)) less any
// deferrals already in the profile.
func rateContribution(p *domain.TaxpayerProfile, rate decimal.Decimal, limits domain.ContributionLimits) decimal.Decimal {
	earned := p.SumIncomeFor(domain.OwnerTaxpayer, domain.IncomeWages).
		Add(p.SumIncomeFor(domain.OwnerTaxpayer, domain.IncomeSelfEmployment))

	limit := limits.IRA
	catchUp := limits.IRACatchUp
	if p.Benefits.Has401k {
		limit = limits.Elective401k
		catchUp = limits.CatchUp401k
	}
	if p.Taxpayer.Age >= catchUpAge {
		limit = limit.Add(catchUp)
	}
	room := decimal.Max(decimalZero, limit.Sub(p.Adjustments.RetirementContributions))
	return decimal.Min(earned.Mul(rate), room).Round(2)
}

func compound(rate decimal.Decimal, years int) decimal.Decimal {
	f := decimalOne
	g := decimalOne.Add(rate)
	for i := 0; i < years; i++ {
		f = f.Mul(g)
	}
	return f
}
