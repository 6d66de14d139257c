package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBuiltinTables(t *testing.T) {
	ts, err := LoadBuiltinTables()
	require.NoError(t, err)

	assert.Equal(t, []int{2024, 2025}, ts.Years())
	assert.Equal(t, 2025, ts.LatestYear())

	fed, err := ts.Federal(2025)
	require.NoError(t, err)
	assert.Equal(t, 2025, fed.Metadata.TaxYear)
	assert.True(t, decimal.NewFromInt(15000).Equal(fed.StandardDeduction.OrZero(domain.FilingSingle)))
	assert.True(t, decimal.NewFromInt(176100).Equal(fed.FICA.SocialSecurity.WageBase))
	assert.Equal(t, "child_tax_credit", fed.CreditOrder[0])

	codes := ts.StateCodes(2025)
	assert.Contains(t, codes, "CA")
	assert.Contains(t, codes, "TX")

	st, err := ts.State(2025, "pa")
	require.NoError(t, err)
	assert.Equal(t, domain.StateFlat, st.Kind)
}

func TestTableSet_MissingTables(t *testing.T) {
	ts, err := LoadBuiltinTables()
	require.NoError(t, err)

	_, err = ts.Federal(2031)
	var unsupported *domain.UnsupportedJurisdictionError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, FederalJurisdiction, unsupported.Jurisdiction)
	assert.Equal(t, 2031, unsupported.TaxYear)

	_, err = ts.State(2025, "ZZ")
	assert.True(t, errors.As(err, &unsupported))
}

func TestLoadTables_OverrideDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteTables(dir))

	// Replace the 2025 Colorado table with a 5% rate.
	override := []byte(`tax_year: 2025
states:
  - code: co
    name: Colorado
    kind: flat
    brackets:
      single:
        - {min: 0, rate: 0.05}
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "states", "override.yaml"), override, 0o644))

	ts, err := LoadTables(dir)
	require.NoError(t, err)
	st, err := ts.State(2025, "CO")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(0.05).Equal(st.Brackets[domain.FilingSingle][0].Rate))
}

func TestLoadTables_InvalidOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "states"), 0o755))
	bad := []byte(`tax_year: 2025
states:
  - code: XX
    kind: flat
    brackets:
      single:
        - {min: 0, max: 100, rate: 0.05}
        - {min: 100, rate: 0.06}
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "states", "bad.yaml"), bad, 0o644))

	_, err := LoadTables(dir)
	assert.Error(t, err)

	_, err = LoadTables(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestValidateTaxYearTable_CreditOrder(t *testing.T) {
	ts, err := LoadBuiltinTables()
	require.NoError(t, err)
	src, err := ts.Federal(2025)
	require.NoError(t, err)

	t.Run("refundable before nonrefundable", func(t *testing.T) {
		tbl := *src
		tbl.CreditOrder = []string{
			"earned_income_credit",
			"child_tax_credit",
			"other_dependent_credit",
			"dependent_care_credit",
			"additional_child_tax_credit",
		}
		assert.Error(t, ValidateTaxYearTable(&tbl))
	})

	t.Run("credit missing from order", func(t *testing.T) {
		tbl := *src
		tbl.CreditOrder = src.CreditOrder[:len(src.CreditOrder)-1]
		assert.Error(t, ValidateTaxYearTable(&tbl))
	})

	t.Run("duplicate entry", func(t *testing.T) {
		tbl := *src
		tbl.CreditOrder = append([]string{"child_tax_credit"}, src.CreditOrder...)
		assert.Error(t, ValidateTaxYearTable(&tbl))
	})
}

func TestValidateStateTable(t *testing.T) {
	rate := decimal.NewFromFloat(0.04)
	flat := domain.BracketSchedule{{Min: decimal.Zero, Rate: rate}}

	tests := []struct {
		name    string
		table   domain.StateTaxTable
		wantErr bool
	}{
		{"no income tax", domain.StateTaxTable{Code: "TX", Kind: domain.StateNoIncomeTax}, false},
		{"flat", domain.StateTaxTable{Code: "IL", Kind: domain.StateFlat,
			Brackets: map[domain.FilingStatus]domain.BracketSchedule{domain.FilingSingle: flat}}, false},
		{"bad code", domain.StateTaxTable{Code: "ILL", Kind: domain.StateNoIncomeTax}, true},
		{"unknown kind", domain.StateTaxTable{Code: "IL", Kind: "graduated"}, true},
		{"no-tax with brackets", domain.StateTaxTable{Code: "TX", Kind: domain.StateNoIncomeTax,
			Brackets: map[domain.FilingStatus]domain.BracketSchedule{domain.FilingSingle: flat}}, true},
		{"progressive without single", domain.StateTaxTable{Code: "NY", Kind: domain.StateProgressive,
			Brackets: map[domain.FilingStatus]domain.BracketSchedule{domain.FilingMarriedJoint: flat}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStateTable(&tt.table)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
