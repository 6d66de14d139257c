package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// MaxHorizonYears bounds multi-year projections.
const MaxHorizonYears = 50

// InputDocument is the layout of an input file. A file carries either a
// single profile or a list of profiles for batch runs, plus optional
// projection assumptions.
type InputDocument struct {
	TaxYear    int                       `yaml:"tax_year" json:"tax_year"`
	Profile    *domain.TaxpayerProfile   `yaml:"profile,omitempty" json:"profile,omitempty"`
	Profiles   []*domain.TaxpayerProfile `yaml:"profiles,omitempty" json:"profiles,omitempty"`
	Projection *ProjectionInput          `yaml:"projection,omitempty" json:"projection,omitempty"`
}

// ProjectionInput is the projection section of an input file.
type ProjectionInput struct {
	domain.ProjectionAssumptions `yaml:",inline"`

	HorizonYears int `yaml:"horizon_years" json:"horizon_years"`
}

// InputParser handles parsing of taxpayer input files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads an input document from a YAML or JSON file
func (ip *InputParser) LoadFromFile(filename string) (*InputDocument, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read file %s", filename)
	}
	doc, err := ip.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return doc, nil
}

// Parse decodes and validates an input document. JSON is accepted since it
// is a subset of YAML.
func (ip *InputParser) Parse(data []byte) (*InputDocument, error) {
	var doc InputDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}
	if err := ip.ValidateDocument(&doc); err != nil {
		return nil, fmt.Errorf("input validation failed: %w", err)
	}
	return &doc, nil
}

// LoadProfile loads the single profile of an input file.
func (ip *InputParser) LoadProfile(filename string) (*domain.TaxpayerProfile, error) {
	doc, err := ip.LoadFromFile(filename)
	if err != nil {
		return nil, err
	}
	if doc.Profile == nil {
		return nil, fmt.Errorf("%s: %w", filename, &domain.IncompleteProfileError{Field: "profile"})
	}
	return doc.Profile, nil
}

// ValidateDocument normalizes and validates every profile in the document.
func (ip *InputParser) ValidateDocument(doc *InputDocument) error {
	if doc.Profile == nil && len(doc.Profiles) == 0 {
		return &domain.IncompleteProfileError{Field: "profile"}
	}
	if doc.TaxYear < 0 {
		return &domain.InvalidInputError{Field: "tax_year", Value: doc.TaxYear, Reason: "must be positive"}
	}
	if doc.Profile != nil {
		if err := ip.ValidateProfile(doc.Profile); err != nil {
			return fmt.Errorf("profile validation failed: %w", err)
		}
	}
	for i, p := range doc.Profiles {
		if p == nil {
			return fmt.Errorf("profile %d is empty", i)
		}
		if err := ip.ValidateProfile(p); err != nil {
			return fmt.Errorf("profile %d (%s) validation failed: %w", i, p.ID, err)
		}
	}
	if doc.Projection != nil {
		if err := ip.ValidateProjection(doc.Projection); err != nil {
			return fmt.Errorf("projection validation failed: %w", err)
		}
	}
	return nil
}

// ValidateProfile normalizes enum spellings and checks profile invariants.
func (ip *InputParser) ValidateProfile(p *domain.TaxpayerProfile) error {
	if p.FilingStatus == "" {
		return &domain.IncompleteProfileError{Field: "filing_status"}
	}
	fs, err := domain.ParseFilingStatus(string(p.FilingStatus))
	if err != nil {
		return err
	}
	p.FilingStatus = fs
	p.State = strings.ToUpper(strings.TrimSpace(p.State))
	return p.Validate()
}

// ValidateProjection checks projection bounds and rates.
func (ip *InputParser) ValidateProjection(pi *ProjectionInput) error {
	if pi.HorizonYears <= 0 {
		return &domain.InvalidInputError{Field: "horizon_years", Value: pi.HorizonYears, Reason: "must be at least 1"}
	}
	if pi.HorizonYears > MaxHorizonYears {
		return &domain.ComputationLimitError{Field: "horizon_years", Value: pi.HorizonYears, Limit: MaxHorizonYears}
	}
	return ValidateAssumptions(&pi.ProjectionAssumptions, pi.HorizonYears)
}

// ValidateAssumptions checks that rates are sane and events fall inside
// the horizon.
func ValidateAssumptions(a *domain.ProjectionAssumptions, horizon int) error {
	minus1 := decimal.NewFromInt(-1)
	rates := []struct {
		field string
		value decimal.Decimal
	}{
		{"income_growth", a.IncomeGrowth},
		{"inflation", a.Inflation},
		{"return_rate", a.ReturnRate},
		{"contribution_growth", a.ContributionGrowth},
	}
	for _, r := range rates {
		if r.value.LessThanOrEqual(minus1) || r.value.GreaterThan(decimal.NewFromInt(1)) {
			return &domain.InvalidInputError{Field: r.field, Value: r.value, Reason: "must be between -100% and 100%"}
		}
	}
	if a.InitialBalance.IsNegative() {
		return &domain.InvalidInputError{Field: "initial_balance", Value: a.InitialBalance, Reason: "must be non-negative"}
	}
	if a.AnnualContribution.IsNegative() {
		return &domain.InvalidInputError{Field: "annual_contribution", Value: a.AnnualContribution, Reason: "must be non-negative"}
	}
	if a.ContributionRate.IsNegative() || a.ContributionRate.GreaterThan(decimal.NewFromInt(1)) {
		return &domain.InvalidInputError{Field: "contribution_rate", Value: a.ContributionRate, Reason: "must be between 0% and 100%"}
	}
	if a.ContributionRate.IsPositive() && a.AnnualContribution.IsPositive() {
		return &domain.InvalidInputError{Field: "contribution_rate", Value: a.ContributionRate, Reason: "set either a contribution rate or an annual contribution, not both"}
	}
	for i, ev := range a.Events {
		if ev.Year < 0 || ev.Year >= horizon {
			return &domain.InvalidInputError{Field: fmt.Sprintf("events[%d].year", i), Value: ev.Year, Reason: fmt.Sprintf("must be within the %d year horizon", horizon)}
		}
	}
	return nil
}
