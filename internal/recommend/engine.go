package recommend

import (
	"sort"

	"github.com/rgehrsitz/taxadvisor/internal/calculation"
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/rgehrsitz/taxadvisor/internal/entity"
	"github.com/shopspring/decimal"
)

// Engine evaluates a strategy catalog against a computed position.
type Engine struct {
	Calc     *calculation.TaxCalculator
	Registry *Registry
	// Entities enables the S-Corp rule. It may be nil.
	Entities *entity.Optimizer
	Bands    PriorityBands
	Logger   calculation.Logger
}

// NewEngine creates a recommendation engine with the built-in catalog
func NewEngine(calc *calculation.TaxCalculator, entities *entity.Optimizer) *Engine {
	return &Engine{
		Calc:     calc,
		Registry: DefaultRegistry(),
		Entities: entities,
		Bands:    DefaultPriorityBands(),
		Logger:   calculation.NopLogger{},
	}
}

// SetLogger sets the logger; nil installs a no-op logger.
func (e *Engine) SetLogger(l calculation.Logger) {
	if l == nil {
		e.Logger = calculation.NopLogger{}
		return
	}
	e.Logger = l
}

// Recommend runs every applicable rule and returns the strategies with a
// positive estimate, sorted by savings descending, then priority, then ID.
func (e *Engine) Recommend(p *domain.TaxpayerProfile, pos *domain.TaxPosition) (*domain.RecommendationReport, error) {
	if p == nil || pos == nil {
		return nil, &domain.InvalidInputError{Field: "profile", Value: nil, Reason: "profile and position are required"}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	fed, err := e.Calc.Tables.Federal(pos.TaxYear)
	if err != nil {
		return nil, err
	}
	st, err := e.Calc.Tables.State(pos.TaxYear, p.State)
	if err != nil {
		return nil, err
	}
	facts := &Facts{
		Profile:  p,
		Position: pos,
		Federal:  fed,
		State:    st,
		Entities: e.Entities,
		calc:     e.Calc,
	}

	seen := make(map[string]bool)
	var recs []domain.StrategyRecommendation
	for _, rule := range e.Registry.Rules() {
		if seen[rule.ID] || !rule.Applies(facts) {
			continue
		}
		est, err := rule.Estimate(facts)
		if err != nil {
			return nil, err
		}
		savings := decimal.Max(decimal.Zero, est.Savings).Round(2)
		if !savings.IsPositive() {
			e.Logger.Debugf("rule %s applies but saves nothing", rule.ID)
			continue
		}
		seen[rule.ID] = true
		recs = append(recs, domain.StrategyRecommendation{
			ID:               rule.ID,
			Label:            rule.Label,
			Category:         rule.Category,
			EstimatedSavings: savings,
			Priority:         e.Bands.Tier(savings, rule.Confidence),
			Action:           est.Action,
			TriggeringFacts:  est.Facts,
		})
	}
	SortRecommendations(recs)

	report := &domain.RecommendationReport{Recommendations: recs, TotalSavings: decimal.Zero}
	for _, r := range recs {
		report.TotalSavings = report.TotalSavings.Add(r.EstimatedSavings)
	}
	report.HealthScore, report.HealthGrade = HealthScore(pos, recs)
	return report, nil
}

// SortRecommendations orders by savings descending, then priority tier,
// then ID so equal inputs always give the same order.
func SortRecommendations(recs []domain.StrategyRecommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if c := a.EstimatedSavings.Cmp(b.EstimatedSavings); c != 0 {
			return c > 0
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.ID < b.ID
	})
}
