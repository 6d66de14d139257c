package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "taxadvisor", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	expected := []string{"compute", "recommend", "entities", "project", "scenario", "batch", "serve", "validate", "tables", "version"}
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, name := range expected {
		assert.Contains(t, names, name)
	}
	for _, flag := range []string{"config", "format", "tables-dir", "year", "output-dir"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestRootCommand_Errors(t *testing.T) {
	_, err := execute(t, "invalid-command")
	assert.Error(t, err)

	_, err = execute(t, "--invalid-flag")
	assert.Error(t, err)

	_, err = execute(t, "compute")
	assert.Error(t, err, "missing input file")

	_, err = execute(t, "compute", "testdata/missing.yaml")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "taxadvisor dev")
}

func TestCompute(t *testing.T) {
	out, err := execute(t, "compute", "testdata/single.yaml", "--format", "console-lite")
	require.NoError(t, err)
	assert.Contains(t, out, "TAX POSITION 2025 (Single)")
	assert.Contains(t, out, "$12,514.00")

	out, err = execute(t, "compute", "testdata/single.yaml", "--format", "json")
	require.NoError(t, err)
	var report struct {
		Position struct {
			TaxYear        int             `json:"tax_year"`
			TotalLiability decimal.Decimal `json:"total_liability"`
		} `json:"position"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2025, report.Position.TaxYear)
	assert.True(t, decimal.NewFromInt(12514).Equal(report.Position.TotalLiability))
}

func TestCompute_UnknownFormat(t *testing.T) {
	_, err := execute(t, "compute", "testdata/single.yaml", "--format", "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestCompute_UnsupportedYear(t *testing.T) {
	_, err := execute(t, "compute", "testdata/single.yaml", "--year", "1999")
	assert.Error(t, err)
}

func TestCompute_OutputDir(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "compute", "testdata/single.yaml", "--format", "csv", "--output-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Report written to")

	files, err := filepath.Glob(filepath.Join(dir, "tax_report_*.csv"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "TotalLiability,12514.00")
}

func TestRecommend(t *testing.T) {
	out, err := execute(t, "recommend", "testdata/single.yaml", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "max_401k")
	assert.Contains(t, out, "Strategy,Label,Category,Priority,EstimatedSavings")
}

func TestEntities(t *testing.T) {
	out, err := execute(t, "entities", "--net-income", "150000", "--occupation", "consultant", "--state", "TX", "--format", "json")
	require.NoError(t, err)
	var report struct {
		Entities struct {
			Options []struct {
				Entity string `json:"entity"`
			} `json:"options"`
			Recommended string `json:"recommended"`
		} `json:"entities"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Entities.Options, 3)
	assert.Equal(t, "sole_prop", report.Entities.Options[0].Entity)
	assert.NotEmpty(t, report.Entities.Recommended)
}

func TestEntities_Errors(t *testing.T) {
	_, err := execute(t, "entities", "--state", "TX")
	assert.Error(t, err, "net-income is required")

	_, err = execute(t, "entities", "--net-income", "lots", "--state", "TX")
	assert.Error(t, err)

	_, err = execute(t, "entities", "--net-income", "-5", "--state", "TX")
	assert.Error(t, err)
}

func TestProject(t *testing.T) {
	xlsxPath := filepath.Join(t.TempDir(), "projection.xlsx")
	out, err := execute(t, "project", "testdata/single.yaml", "--years", "3", "--contribution", "5000", "--xlsx", xlsxPath, "--format", "csv")
	require.NoError(t, err)
	_, err = os.Stat(xlsxPath)
	require.NoError(t, err)

	start := strings.Index(out, "Year,TaxYear")
	require.GreaterOrEqual(t, start, 0)
	rows, err := csv.NewReader(strings.NewReader(out[start:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "2025", rows[1][1])
	assert.Equal(t, "1100.00", rows[1][4])
	assert.Equal(t, "5000.00", rows[1][6])
}

func TestProject_ContributionRate(t *testing.T) {
	out, err := execute(t, "project", "testdata/single.yaml", "--years", "2", "--contribution-rate", "0.1", "--format", "csv")
	require.NoError(t, err)

	start := strings.Index(out, "Year,TaxYear")
	require.GreaterOrEqual(t, start, 0)
	rows, err := csv.NewReader(strings.NewReader(out[start:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "9500.00", rows[1][6])

	_, err = execute(t, "project", "testdata/single.yaml", "--contribution", "5000", "--contribution-rate", "0.1")
	assert.Error(t, err)
	_, err = execute(t, "project", "testdata/single.yaml", "--contribution-rate", "2")
	assert.Error(t, err)
}

func TestScenario(t *testing.T) {
	out, err := execute(t, "scenario", "testdata/single.yaml", "-m", "set_retirement_contribution:amount=5000", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "-1100.00")

	out, err = execute(t, "scenario", "testdata/single.yaml", "-m", "set_hsa:amount=4300", "-m", "add_dependent:age=3", "--each", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "-946.00")
	assert.Contains(t, out, "-2000.00")
}

func TestScenario_ListAndErrors(t *testing.T) {
	out, err := execute(t, "scenario", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "add_income")
	assert.Contains(t, out, "scale_income")

	_, err = execute(t, "scenario", "testdata/single.yaml")
	assert.Error(t, err, "no mutations")

	_, err = execute(t, "scenario", "testdata/single.yaml", "-m", "teleport:where=moon")
	assert.Error(t, err)
}

func TestBatch(t *testing.T) {
	out, err := execute(t, "batch", "testdata/batch.yaml", "--format", "csv", "-c", "2")
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"0", "single-tx", "12514.00", "", ""}, rows[1])
	assert.Equal(t, "unknown-state", rows[2][1])
	assert.NotEmpty(t, rows[2][4])
	assert.Equal(t, "7323.00", rows[3][2])
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate", "testdata/batch.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "is valid (3 profile(s))")
}

func TestTables(t *testing.T) {
	out, err := execute(t, "tables", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "2025:")
	assert.Contains(t, out, "TX")

	dir := t.TempDir()
	_, err = execute(t, "tables", "write", dir)
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	out, err = execute(t, "tables", "list", "--tables-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "2025:")
}
