package scenario

import (
	"strings"

	"github.com/rgehrsitz/taxadvisor/internal/calculation"
	"github.com/rgehrsitz/taxadvisor/internal/domain"
)

// Analyzer computes a baseline and a mutated profile and reports the
// difference.
type Analyzer struct {
	Calc     *calculation.TaxCalculator
	Registry *Registry
}

// NewAnalyzer creates a scenario analyzer with the built-in mutations
func NewAnalyzer(calc *calculation.TaxCalculator) *Analyzer {
	return &Analyzer{Calc: calc, Registry: NewRegistry()}
}

// Analyze applies the mutations, in order, to a copy of p and computes both
// returns for year. NetTaxDelta is modified minus baseline net tax, so savings
// are negative.
func (a *Analyzer) Analyze(p *domain.TaxpayerProfile, year int, mutations ...Mutation) (*domain.ScenarioResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	baseline, err := a.Calc.ComputeTax(p, year)
	if err != nil {
		return nil, err
	}
	return a.against(p, baseline, year, mutations)
}

// AnalyzeSpecs parses mutation specs and analyzes them as one scenario.
func (a *Analyzer) AnalyzeSpecs(p *domain.TaxpayerProfile, year int, specs []string) (*domain.ScenarioResult, error) {
	mutations, err := a.Registry.ParseSpecs(specs)
	if err != nil {
		return nil, err
	}
	return a.Analyze(p, year, mutations...)
}

// AnalyzeEach runs every mutation as its own scenario against one shared
// baseline.
func (a *Analyzer) AnalyzeEach(p *domain.TaxpayerProfile, year int, mutations []Mutation) ([]domain.ScenarioResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	baseline, err := a.Calc.ComputeTax(p, year)
	if err != nil {
		return nil, err
	}
	results := make([]domain.ScenarioResult, 0, len(mutations))
	for _, m := range mutations {
		res, err := a.against(p, baseline, year, []Mutation{m})
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, nil
}

func (a *Analyzer) against(p *domain.TaxpayerProfile, baseline *domain.TaxPosition, year int, mutations []Mutation) (*domain.ScenarioResult, error) {
	modifiedProfile, err := ApplyMutations(p, mutations)
	if err != nil {
		return nil, err
	}
	modified, err := a.Calc.ComputeTax(modifiedProfile, year)
	if err != nil {
		return nil, err
	}
	return &domain.ScenarioResult{
		Name:        scenarioName(mutations),
		Baseline:    baseline,
		Modified:    modified,
		NetTaxDelta: modified.NetTax().Sub(baseline.NetTax()),
		Detail:      domain.NewScenarioDelta(baseline, modified),
	}, nil
}

func scenarioName(mutations []Mutation) string {
	if len(mutations) == 0 {
		return "baseline"
	}
	parts := make([]string, len(mutations))
	for i, m := range mutations {
		parts[i] = m.Description()
	}
	return strings.Join(parts, "; ")
}
