package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rgehrsitz/taxadvisor/internal/batch"
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testPosition() *domain.TaxPosition {
	return &domain.TaxPosition{
		TaxYear:        2025,
		FilingStatus:   domain.FilingSingle,
		TotalIncome:    dec("95000"),
		AGI:            dec("95000"),
		Deduction:      dec("15000"),
		DeductionType:  domain.DeductionStandard,
		TaxableIncome:  dec("80000"),
		OrdinaryTax:    dec("12514"),
		FederalTotal:   dec("12514"),
		State:          domain.StateTaxDetail{State: "TX"},
		TotalLiability: dec("12514"),
		EffectiveRate:  dec("0.1317"),
		MarginalRate:   dec("0.22"),
		Credits: []domain.CreditApplied{
			{ID: "child_tax_credit", Label: "Child Tax Credit", Applied: dec("2000")},
		},
	}
}

func testProjection() *domain.ProjectionResult {
	roi := dec("2.9744")
	return &domain.ProjectionResult{
		HorizonYears: 2,
		Assumptions:  domain.ProjectionAssumptions{StartYear: 2025, ReturnRate: dec("0.05")},
		Years: []domain.ProjectionYear{
			{YearIndex: 0, TaxYear: 2025, Position: testPosition(), BaselineTotal: dec("13614"), AnnualSavings: dec("1100"), CumulativeSavings: dec("1100"), Contribution: dec("5000"), RetirementBalance: dec("15500")},
			{YearIndex: 1, TaxYear: 2026, Position: testPosition(), BaselineTotal: dec("13614"), AnnualSavings: dec("1100"), CumulativeSavings: dec("2200"), Contribution: dec("5000"), RetirementBalance: dec("21275"), IndexedTable: true,
				ActiveEvents: []domain.LifeEvent{{Kind: domain.EventMarriage, Year: 1}, {Kind: domain.EventChildBirth, Year: 1}}},
		},
		TotalContributed:  dec("10000"),
		EndingBalance:     dec("21275"),
		CumulativeSavings: dec("2200"),
		NetCost:           dec("7800"),
		ROI:               &roi,
	}
}

func testReport() *Report {
	pos := testPosition()
	modified := testPosition()
	modified.TotalLiability = dec("11414")
	return &Report{
		Title:    "Test Report",
		Position: pos,
		Recommendations: &domain.RecommendationReport{
			Recommendations: []domain.StrategyRecommendation{{
				ID: "max_401k", Label: "Maximize 401(k)", Category: domain.CategoryRetirement,
				EstimatedSavings: dec("5170"), Priority: domain.PriorityHigh, Action: "Contribute more.",
				TriggeringFacts: []string{"401(k) room $23,500.00"},
			}},
			TotalSavings: dec("5170"),
			HealthScore:  76,
			HealthGrade:  "C",
		},
		Entities: &domain.EntityComparison{
			NetIncome: dec("150000"), Occupation: "consultant", State: "TX", TaxYear: 2025,
			Options: []domain.EntityOption{
				{Entity: domain.EntitySoleProp, Label: domain.EntitySoleProp.Label(), NetBurden: dec("40000")},
				{Entity: domain.EntitySCorp, Label: domain.EntitySCorp.Label(), Salary: dec("80000"), NetBurden: dec("31000"), SavingsVsSole: dec("9000"), Risk: domain.RiskLow},
			},
			Recommended: domain.EntitySCorp,
			Notes:       []string{"Salary risk grading is advisory."},
		},
		Scenarios: []domain.ScenarioResult{{
			Name: "Contribute 5000 to 401k", Baseline: pos, Modified: modified, NetTaxDelta: dec("-1100"),
		}},
		Projection: testProjection(),
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"12514", "$12,514.00"},
		{"1234567.891", "$1,234,567.89"},
		{"999.995", "$1,000.00"},
		{"-1100", "-$1,100.00"},
		{"0.5", "$0.50"},
		{"-0.001", "$0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(dec(tt.in)))
		})
	}
	assert.Equal(t, "$21,275", FormatWholeCurrency(dec("21274.6")))
	assert.Equal(t, "-$1,100", FormatWholeCurrency(dec("-1100.2")))
	assert.Equal(t, "22.00%", FormatRate(dec("0.22")))
	assert.Equal(t, "13.17%", FormatPercentage(dec("13.17")))
}

func TestGetFormatterByName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"console", "console"},
		{"verbose", "console"},
		{"Console-Verbose", "console"},
		{"plain", "console-lite"},
		{"json", "json"},
		{"json-compact", "json-compact"},
		{"csv", "csv"},
		{"html", "html"},
		{"XLSX", "xlsx"},
	}
	for _, tt := range tests {
		f := GetFormatterByName(tt.name)
		require.NotNil(t, f, tt.name)
		assert.Equal(t, tt.want, f.Name())
	}
	assert.Nil(t, GetFormatterByName("non-existent"))
	assert.Contains(t, AvailableFormats(), "console-lite")
	assert.Contains(t, AvailableFormatAliases(), "verbose")
}

func TestXLSXFormatter(t *testing.T) {
	f := GetFormatterByName("xlsx")
	require.NotNil(t, f)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f, testReport()))
	book, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Contains(t, book.Sheet, "Projection")
	assert.Len(t, book.Sheet["Projection"].Rows, 3)

	_, err = f.Format(&Report{Position: testReport().Position})
	assert.Error(t, err, "workbook needs a projection")

	path, err := WriteFormatted(t.TempDir(), f, testReport())
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", filepath.Ext(path))
}

func TestConsoleFormatter_Plain(t *testing.T) {
	out, err := ConsoleFormatter{Plain: true}.Format(testReport())
	require.NoError(t, err)
	text := string(out)

	for _, want := range []string{
		"Test Report",
		"TAX POSITION 2025 (Single)",
		"$12,514.00",
		"Credit: Child Tax Credit",
		"-$2,000.00",
		"Tax Health Score: 76 (C)",
		"Maximize 401(k)",
		"Recommended: S-Corporation",
		"S-Corporation *",
		"Contribute 5000 to 401k",
		"-$1,100.00",
		"2-YEAR PROJECTION",
		"2026†",
		"event: marriage",
		"297.44%",
	} {
		assert.Contains(t, text, want)
	}
	assert.NotContains(t, text, "KEY ASSUMPTIONS")
	assert.NotContains(t, text, "\x1b[")
}

func TestConsoleFormatter_Styled(t *testing.T) {
	out, err := ConsoleFormatter{}.Format(&Report{Position: testPosition()})
	require.NoError(t, err)
	assert.Contains(t, string(out), "ANALYSIS")
	assert.Contains(t, string(out), "KEY ASSUMPTIONS")
	assert.Contains(t, string(out), DefaultAssumptions[0])
}

func TestFormatters_EmptyReport(t *testing.T) {
	for _, name := range []string{"console", "csv", "html", "xlsx"} {
		_, err := GetFormatterByName(name).Format(&Report{})
		assert.Error(t, err, name)
	}
}

func TestJSONFormatter(t *testing.T) {
	out, err := JSONFormatter{Pretty: true}.Format(testReport())
	require.NoError(t, err)
	assert.Contains(t, string(out), "\n  ")

	var decoded struct {
		Position struct {
			TotalLiability decimal.Decimal `json:"total_liability"`
		} `json:"position"`
		Recommendations struct {
			Recommendations []struct {
				Priority string `json:"priority"`
			} `json:"recommendations"`
		} `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.True(t, dec("12514").Equal(decoded.Position.TotalLiability))
	assert.Equal(t, "high", decoded.Recommendations.Recommendations[0].Priority)

	compact, err := JSONFormatter{}.Format(testReport())
	require.NoError(t, err)
	assert.NotContains(t, string(compact), "\n  ")
}

func TestCSVFormatter(t *testing.T) {
	out, err := CSVFormatter{}.Format(&Report{Position: testPosition(), Projection: testProjection()})
	require.NoError(t, err)

	sections := strings.Split(strings.TrimSpace(string(out)), "\n\n")
	require.Len(t, sections, 2)

	position, err := csv.NewReader(strings.NewReader(sections[0])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Item", "Amount"}, position[0])
	assert.Contains(t, position, []string{"TotalLiability", "12514.00"})

	projection, err := csv.NewReader(strings.NewReader(sections[1])).ReadAll()
	require.NoError(t, err)
	require.Len(t, projection, 3)
	assert.Equal(t, "Year", projection[0][0])
	assert.Equal(t, []string{"1", "2026", "13614.00", "12514.00", "1100.00", "2200.00", "5000.00", "21275.00", "true", "marriage;child_birth"}, projection[2])
}

func TestCSVFormatter_Batch(t *testing.T) {
	r := &Report{Batch: &batch.Report{
		RunID:   "run",
		TaxYear: 2025,
		Results: []batch.Result{
			{Index: 0, ProfileID: "a", Position: testPosition()},
			{Index: 1, ProfileID: "b", Error: "incomplete profile: state is required"},
		},
	}}
	out, err := CSVFormatter{}.Format(r)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "a", "12514.00", "", ""}, rows[1])
	assert.Equal(t, "incomplete profile: state is required", rows[2][4])
}

func TestHTMLFormatter(t *testing.T) {
	out, err := HTMLFormatter{}.Format(testReport())
	require.NoError(t, err)
	html := string(out)
	assert.Contains(t, html, "<title>Test Report</title>")
	assert.Contains(t, html, "$12,514.00")
	assert.Contains(t, html, "Maximize 401(k)")
	assert.Contains(t, html, "2026*")
	assert.Contains(t, html, "297.44%")
	assert.Contains(t, html, "Key Assumptions")
}

func TestWriteFormatted(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteFormatted(dir, JSONFormatter{Pretty: true}, testReport())
	require.NoError(t, err)
	assert.Equal(t, ".json", filepath.Ext(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "total_liability")
}

func TestWriteProjectionWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projection.xlsx")
	require.NoError(t, WriteProjectionWorkbook(path, testProjection()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Contains(t, f.Sheet, "Projection")
	require.Contains(t, f.Sheet, "Summary")
	require.Contains(t, f.Sheet, "Assumptions")

	rows := f.Sheet["Projection"].Rows
	require.Len(t, rows, 3)
	assert.Equal(t, "TaxYear", rows[0].Cells[1].String())
	assert.Equal(t, "2026", rows[2].Cells[1].String())
	balance, err := rows[2].Cells[7].Float()
	require.NoError(t, err)
	assert.InDelta(t, 21275.0, balance, 0.001)
	assert.Equal(t, "marriage;child_birth", rows[2].Cells[9].String())

	summary := f.Sheet["Summary"].Rows
	assert.Equal(t, "Net cost", summary[3].Cells[0].String())
	netCost, err := summary[3].Cells[1].Float()
	require.NoError(t, err)
	assert.InDelta(t, 7800.0, netCost, 0.001)

	assert.Error(t, WriteProjectionWorkbook(path, nil))
}
