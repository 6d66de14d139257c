package config

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed data/federal/*.yaml data/states/*.yaml
var builtinTables embed.FS

// FederalJurisdiction is the jurisdiction code used for federal tables.
const FederalJurisdiction = "US"

// stateFile is the on-disk layout of a states document.
type stateFile struct {
	TaxYear int                    `yaml:"tax_year"`
	States  []domain.StateTaxTable `yaml:"states"`
}

// TableSet is the validated collection of tax tables available to the
// engine. It is never modified after construction and may be shared between
// goroutines without locking.
type TableSet struct {
	federal map[int]*domain.TaxYearTable
	states  map[int]map[string]*domain.StateTaxTable
	years   []int
}

// LoadBuiltinTables returns the tables compiled into the binary.
func LoadBuiltinTables() (*TableSet, error) {
	return LoadTables("")
}

// LoadTables loads the built-in tables and then any YAML documents found
// under dir/federal and dir/states. A table in dir replaces the built-in table
// for the same year (and state).
func LoadTables(dir string) (*TableSet, error) {
	sub, err := fs.Sub(builtinTables, "data")
	if err != nil {
		return nil, eris.Wrap(err, "config: open built-in tables")
	}
	federal, states, err := readTables(sub)
	if err != nil {
		return nil, eris.Wrap(err, "config: built-in tables")
	}
	if dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return nil, eris.Wrapf(err, "config: tables directory %s", dir)
		}
		extraFed, extraStates, err := readTables(os.DirFS(dir))
		if err != nil {
			return nil, eris.Wrapf(err, "config: tables in %s", dir)
		}
		federal = mergeFederal(federal, extraFed)
		states = mergeStates(states, extraStates)
	}
	return NewTableSet(federal, states)
}

func readTables(fsys fs.FS) ([]*domain.TaxYearTable, []*domain.StateTaxTable, error) {
	var federal []*domain.TaxYearTable
	var states []*domain.StateTaxTable

	fedFiles, err := fs.Glob(fsys, "federal/*.yaml")
	if err != nil {
		return nil, nil, err
	}
	for _, name := range fedFiles {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		var t domain.TaxYearTable
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		federal = append(federal, &t)
	}

	stateFiles, err := fs.Glob(fsys, "states/*.yaml")
	if err != nil {
		return nil, nil, err
	}
	for _, name := range stateFiles {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		var sf stateFile
		if err := yaml.Unmarshal(data, &sf); err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		for i := range sf.States {
			st := sf.States[i]
			if st.TaxYear == 0 {
				st.TaxYear = sf.TaxYear
			}
			st.Code = strings.ToUpper(st.Code)
			states = append(states, &st)
		}
	}
	return federal, states, nil
}

func mergeFederal(base, extra []*domain.TaxYearTable) []*domain.TaxYearTable {
	byYear := make(map[int]*domain.TaxYearTable, len(base)+len(extra))
	for _, t := range base {
		byYear[t.Metadata.TaxYear] = t
	}
	for _, t := range extra {
		byYear[t.Metadata.TaxYear] = t
	}
	out := make([]*domain.TaxYearTable, 0, len(byYear))
	for _, t := range byYear {
		out = append(out, t)
	}
	return out
}

func mergeStates(base, extra []*domain.StateTaxTable) []*domain.StateTaxTable {
	key := func(st *domain.StateTaxTable) string { return fmt.Sprintf("%d/%s", st.TaxYear, st.Code) }
	byKey := make(map[string]*domain.StateTaxTable, len(base)+len(extra))
	for _, st := range base {
		byKey[key(st)] = st
	}
	for _, st := range extra {
		byKey[key(st)] = st
	}
	out := make([]*domain.StateTaxTable, 0, len(byKey))
	for _, st := range byKey {
		out = append(out, st)
	}
	return out
}

// NewTableSet validates the tables and freezes them into a TableSet.
func NewTableSet(federal []*domain.TaxYearTable, states []*domain.StateTaxTable) (*TableSet, error) {
	ts := &TableSet{
		federal: make(map[int]*domain.TaxYearTable),
		states:  make(map[int]map[string]*domain.StateTaxTable),
	}
	for _, t := range federal {
		if err := ValidateTaxYearTable(t); err != nil {
			return nil, fmt.Errorf("federal table %d validation failed: %w", t.Metadata.TaxYear, err)
		}
		if _, dup := ts.federal[t.Metadata.TaxYear]; dup {
			return nil, fmt.Errorf("duplicate federal table for %d", t.Metadata.TaxYear)
		}
		ts.federal[t.Metadata.TaxYear] = t
		ts.years = append(ts.years, t.Metadata.TaxYear)
	}
	for _, st := range states {
		if err := ValidateStateTable(st); err != nil {
			return nil, fmt.Errorf("state table %s/%d validation failed: %w", st.Code, st.TaxYear, err)
		}
		if ts.states[st.TaxYear] == nil {
			ts.states[st.TaxYear] = make(map[string]*domain.StateTaxTable)
		}
		ts.states[st.TaxYear][st.Code] = st
	}
	if len(ts.years) == 0 {
		return nil, fmt.Errorf("no federal tables loaded")
	}
	sort.Ints(ts.years)
	return ts, nil
}

// Years lists the tax years with published federal tables, ascending.
func (ts *TableSet) Years() []int {
	return append([]int(nil), ts.years...)
}

// LatestYear is the most recent year with a published table.
func (ts *TableSet) LatestYear() int {
	return ts.years[len(ts.years)-1]
}

// StateCodes lists the states with a table for the year.
func (ts *TableSet) StateCodes(year int) []string {
	codes := make([]string, 0, len(ts.states[year]))
	for code := range ts.states[year] {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Federal returns the published federal table for the year.
func (ts *TableSet) Federal(year int) (*domain.TaxYearTable, error) {
	t, ok := ts.federal[year]
	if !ok {
		return nil, &domain.UnsupportedJurisdictionError{Jurisdiction: FederalJurisdiction, TaxYear: year}
	}
	return t, nil
}

// State returns the published table for a state and year.
func (ts *TableSet) State(year int, code string) (*domain.StateTaxTable, error) {
	st, ok := ts.states[year][strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, &domain.UnsupportedJurisdictionError{Jurisdiction: code, TaxYear: year}
	}
	return st, nil
}

// ValidateTaxYearTable checks the structural invariants of a federal table.
func ValidateTaxYearTable(t *domain.TaxYearTable) error {
	if t.Metadata.TaxYear < 1913 {
		return fmt.Errorf("tax year %d is invalid", t.Metadata.TaxYear)
	}
	required := []domain.FilingStatus{
		domain.FilingSingle,
		domain.FilingMarriedJoint,
		domain.FilingMarriedSeparate,
		domain.FilingHeadOfHousehold,
	}
	for _, fs := range required {
		s, ok := t.ScheduleFor(fs)
		if !ok {
			return fmt.Errorf("brackets missing for %s", fs)
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("brackets for %s: %w", fs, err)
		}
		cg, ok := t.CapitalGainScheduleFor(fs)
		if !ok {
			return fmt.Errorf("capital gain brackets missing for %s", fs)
		}
		if err := cg.Validate(); err != nil {
			return fmt.Errorf("capital gain brackets for %s: %w", fs, err)
		}
		if _, ok := t.StandardDeduction.For(fs); !ok {
			return fmt.Errorf("standard deduction missing for %s", fs)
		}
	}
	if !t.FICA.SocialSecurity.WageBase.IsPositive() {
		return fmt.Errorf("social security wage base must be positive")
	}
	return validateCredits(t)
}

func validateCredits(t *domain.TaxYearTable) error {
	seen := make(map[string]int, len(t.CreditOrder))
	refundableSeen := false
	for i, id := range t.CreditOrder {
		rule, ok := t.Credits[id]
		if !ok {
			return fmt.Errorf("credit order names undefined credit %q", id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("credit %q appears twice in credit order", id)
		}
		seen[id] = i
		if rule.Refundable {
			refundableSeen = true
		} else if refundableSeen {
			return fmt.Errorf("non-refundable credit %q is ordered after a refundable credit", id)
		}
		if rule.Kind == domain.CreditRefundableRemainder {
			if _, ok := seen[rule.RemainderOf]; !ok || rule.RemainderOf == id {
				return fmt.Errorf("credit %q must follow the credit it takes the remainder of (%q)", id, rule.RemainderOf)
			}
		}
		if rule.Kind == domain.CreditEarnedIncome {
			for j, tier := range rule.Schedule {
				if tier.Children != j {
					return fmt.Errorf("credit %q: schedule row %d is for %d children", id, j, tier.Children)
				}
			}
			if len(rule.Schedule) == 0 {
				return fmt.Errorf("credit %q: schedule is empty", id)
			}
		}
	}
	for id := range t.Credits {
		if _, ok := seen[id]; !ok {
			return fmt.Errorf("credit %q is not listed in credit order", id)
		}
	}
	return nil
}

// ValidateStateTable checks a state table against its declared kind.
func ValidateStateTable(st *domain.StateTaxTable) error {
	if len(st.Code) != 2 {
		return fmt.Errorf("state code %q must be two letters", st.Code)
	}
	switch st.Kind {
	case domain.StateNoIncomeTax:
		if len(st.Brackets) != 0 {
			return fmt.Errorf("state without income tax must not define brackets")
		}
		return nil
	case domain.StateFlat, domain.StateProgressive:
	default:
		return fmt.Errorf("unknown state tax kind %q", st.Kind)
	}
	if _, ok := st.Brackets[domain.FilingSingle]; !ok {
		return fmt.Errorf("brackets missing for %s", domain.FilingSingle)
	}
	for fs, s := range st.Brackets {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("brackets for %s: %w", fs, err)
		}
		if st.Kind == domain.StateFlat && len(s) != 1 {
			return fmt.Errorf("flat tax state must have exactly one bracket for %s", fs)
		}
	}
	return nil
}

// WriteTables writes the built-in tables to dir so they can be edited and
// loaded back as overrides.
func WriteTables(dir string) error {
	return fs.WalkDir(builtinTables, "data", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel("data", path)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := builtinTables.ReadFile(path)
		if err != nil {
			return err
		}
		return eris.Wrapf(os.WriteFile(target, data, 0o644), "config: write %s", target)
	})
}
