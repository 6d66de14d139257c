package entity

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed data/benchmarks.yaml
var builtinBenchmarks embed.FS

// DefaultOccupation is the benchmark used for occupations without an entry.
const DefaultOccupation = "default"

// Benchmark is the salary estimate for one occupation and location.
type Benchmark struct {
	Occupation string          `json:"occupation"`
	Salary     decimal.Decimal `json:"salary"`
	SSTB       bool            `json:"sstb"`
	Source     string          `json:"source,omitempty"`
}

// BenchmarkProvider supplies industry salary benchmarks. The optimizer never
// hard-codes salaries; they always come from a provider.
type BenchmarkProvider interface {
	Benchmark(occupation, state string) (Benchmark, error)
}

// OccupationBenchmark is one row of a benchmark file.
type OccupationBenchmark struct {
	Salary decimal.Decimal `yaml:"salary" json:"salary"`
	SSTB   bool            `yaml:"sstb" json:"sstb"`
}

// StaticBenchmarks is a provider backed by a fixed table, usually loaded from
// YAML.
type StaticBenchmarks struct {
	Version     string                         `yaml:"version" json:"version"`
	Source      string                         `yaml:"source" json:"source"`
	Occupations map[string]OccupationBenchmark `yaml:"occupations" json:"occupations"`
	// Regions scales the national salary by state. Missing states use 1.
	Regions map[string]decimal.Decimal `yaml:"regions" json:"regions"`
}

// DefaultBenchmarks returns the benchmark table shipped with the binary.
func DefaultBenchmarks() (*StaticBenchmarks, error) {
	data, err := builtinBenchmarks.ReadFile("data/benchmarks.yaml")
	if err != nil {
		return nil, eris.Wrap(err, "entity: read built-in benchmarks")
	}
	return ParseBenchmarks(data)
}

// LoadBenchmarks reads a benchmark table from a YAML file.
func LoadBenchmarks(path string) (*StaticBenchmarks, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "entity: read benchmarks %s", path)
	}
	b, err := ParseBenchmarks(data)
	if err != nil {
		return nil, eris.Wrapf(err, "entity: benchmarks %s", path)
	}
	return b, nil
}

// ParseBenchmarks decodes and validates a benchmark table.
func ParseBenchmarks(data []byte) (*StaticBenchmarks, error) {
	var b StaticBenchmarks
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse benchmarks: %w", err)
	}
	occupations := make(map[string]OccupationBenchmark, len(b.Occupations))
	for name, ob := range b.Occupations {
		if ob.Salary.IsNegative() {
			return nil, fmt.Errorf("occupation %q has a negative salary", name)
		}
		occupations[NormalizeOccupation(name)] = ob
	}
	b.Occupations = occupations

	regions := make(map[string]decimal.Decimal, len(b.Regions))
	for code, factor := range b.Regions {
		if !factor.IsPositive() {
			return nil, fmt.Errorf("region %q has a non-positive factor", code)
		}
		regions[strings.ToUpper(code)] = factor
	}
	b.Regions = regions
	return &b, nil
}

// Benchmark implements BenchmarkProvider. Unknown occupations use the
// default row when the table has one.
func (sb *StaticBenchmarks) Benchmark(occupation, state string) (Benchmark, error) {
	key := NormalizeOccupation(occupation)
	row, ok := sb.Occupations[key]
	if !ok {
		row, ok = sb.Occupations[DefaultOccupation]
		if !ok {
			return Benchmark{}, &domain.InvalidInputError{Field: "occupation", Value: occupation, Reason: "no salary benchmark"}
		}
	}
	salary := row.Salary
	if factor, ok := sb.Regions[strings.ToUpper(strings.TrimSpace(state))]; ok {
		salary = salary.Mul(factor)
	}
	return Benchmark{
		Occupation: key,
		Salary:     salary.Round(0),
		SSTB:       row.SSTB,
		Source:     sb.Source,
	}, nil
}

// NormalizeOccupation folds case and separators so "Software Developer" and
// "software-developer" match the same row.
func NormalizeOccupation(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
