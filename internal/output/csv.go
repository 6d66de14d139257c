package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/rgehrsitz/taxadvisor/internal/domain"
)

// CSVFormatter writes one table per report section, separated by a blank
// line. Money is written with two decimals and no grouping.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

func (c CSVFormatter) Format(r *Report) ([]byte, error) {
	if r == nil || r.Empty() {
		return nil, fmt.Errorf("nothing to report")
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	var tables [][][]string
	if r.Position != nil {
		tables = append(tables, positionRows(r.Position))
	}
	if r.Recommendations != nil {
		tables = append(tables, recommendationRows(r.Recommendations))
	}
	if r.Entities != nil {
		tables = append(tables, entityRows(r.Entities))
	}
	if len(r.Scenarios) > 0 {
		tables = append(tables, scenarioRows(r.Scenarios))
	}
	if r.Projection != nil {
		tables = append(tables, ProjectionRows(r.Projection))
	}
	if r.Batch != nil {
		tables = append(tables, batchRows(r))
	}

	for i, rows := range tables {
		if i > 0 {
			if err := w.Write([]string{}); err != nil {
				return nil, err
			}
		}
		if err := w.WriteAll(rows); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func positionRows(pos *domain.TaxPosition) [][]string {
	rows := [][]string{
		{"Item", "Amount"},
		{"TotalIncome", pos.TotalIncome.StringFixed(2)},
		{"TaxableSocialSecurity", pos.TaxableSocialSecurity.StringFixed(2)},
		{"Adjustments", pos.AdjustmentsTotal.StringFixed(2)},
		{"AGI", pos.AGI.StringFixed(2)},
		{"Deduction", pos.Deduction.StringFixed(2)},
		{"QBIDeduction", pos.QBIDeduction.StringFixed(2)},
		{"TaxableIncome", pos.TaxableIncome.StringFixed(2)},
		{"OrdinaryTax", pos.OrdinaryTax.StringFixed(2)},
		{"PreferentialTax", pos.PreferentialTax.StringFixed(2)},
		{"AMT", pos.AMT.StringFixed(2)},
		{"NonrefundableCredits", pos.NonrefundableCredits.StringFixed(2)},
		{"RefundableCredits", pos.RefundableCredits.StringFixed(2)},
		{"SETax", pos.SETax.StringFixed(2)},
		{"AdditionalMedicare", pos.AdditionalMedicare.StringFixed(2)},
		{"NIIT", pos.NIIT.StringFixed(2)},
		{"FederalTotal", pos.FederalTotal.StringFixed(2)},
		{"StateTax", pos.StateTax.StringFixed(2)},
		{"TotalLiability", pos.TotalLiability.StringFixed(2)},
		{"Refund", pos.Refund.StringFixed(2)},
		{"EffectiveRate", pos.EffectiveRate.StringFixed(4)},
		{"MarginalRate", pos.MarginalRate.StringFixed(4)},
	}
	return rows
}

func recommendationRows(rep *domain.RecommendationReport) [][]string {
	rows := [][]string{{"Strategy", "Label", "Category", "Priority", "EstimatedSavings"}}
	for _, rec := range rep.Recommendations {
		rows = append(rows, []string{rec.ID, rec.Label, string(rec.Category), rec.Priority.String(), rec.EstimatedSavings.StringFixed(2)})
	}
	return rows
}

func entityRows(cmp *domain.EntityComparison) [][]string {
	rows := [][]string{{"Entity", "Salary", "Distribution", "EmploymentTax", "IncomeTax", "StateTax", "QBIDeduction", "ComplianceCost", "NetBurden", "SavingsVsSoleProp", "Risk", "Recommended"}}
	for _, o := range cmp.Options {
		rows = append(rows, []string{
			string(o.Entity),
			o.Salary.StringFixed(2),
			o.Distribution.StringFixed(2),
			o.EmploymentTax.StringFixed(2),
			o.IncomeTax.StringFixed(2),
			o.StateTax.StringFixed(2),
			o.QBIDeduction.StringFixed(2),
			o.ComplianceCost.StringFixed(2),
			o.NetBurden.StringFixed(2),
			o.SavingsVsSole.StringFixed(2),
			string(o.Risk),
			strconv.FormatBool(o.Entity == cmp.Recommended),
		})
	}
	return rows
}

func scenarioRows(results []domain.ScenarioResult) [][]string {
	rows := [][]string{{"Scenario", "BaselineNetTax", "ModifiedNetTax", "NetTaxDelta", "FederalDelta", "StateDelta"}}
	for _, res := range results {
		rows = append(rows, []string{
			res.Name,
			res.Baseline.NetTax().StringFixed(2),
			res.Modified.NetTax().StringFixed(2),
			res.NetTaxDelta.StringFixed(2),
			res.Detail.FederalTax.StringFixed(2),
			res.Detail.StateTax.StringFixed(2),
		})
	}
	return rows
}

// ProjectionRows returns the projection as a header row plus one row per
// year. The workbook export uses the same layout.
func ProjectionRows(res *domain.ProjectionResult) [][]string {
	rows := [][]string{{"Year", "TaxYear", "BaselineNetTax", "PlanNetTax", "AnnualSavings", "CumulativeSavings", "Contribution", "RetirementBalance", "IndexedTable", "Events"}}
	for _, y := range res.Years {
		rows = append(rows, []string{
			strconv.Itoa(y.YearIndex),
			strconv.Itoa(y.TaxYear),
			y.BaselineTotal.StringFixed(2),
			y.Position.NetTax().StringFixed(2),
			y.AnnualSavings.StringFixed(2),
			y.CumulativeSavings.StringFixed(2),
			y.Contribution.StringFixed(2),
			y.RetirementBalance.StringFixed(2),
			strconv.FormatBool(y.IndexedTable),
			eventKinds(y.ActiveEvents),
		})
	}
	return rows
}

func eventKinds(events []domain.LifeEvent) string {
	kinds := make([]string, len(events))
	for i, ev := range events {
		kinds[i] = string(ev.Kind)
	}
	return strings.Join(kinds, ";")
}

func batchRows(r *Report) [][]string {
	rows := [][]string{{"Index", "ProfileID", "TotalLiability", "EstimatedSavings", "Error"}}
	for _, res := range r.Batch.Results {
		liability, savings := "", ""
		if res.Position != nil {
			liability = res.Position.TotalLiability.StringFixed(2)
		}
		if res.Recommendations != nil {
			savings = res.Recommendations.TotalSavings.StringFixed(2)
		}
		rows = append(rows, []string{strconv.Itoa(res.Index), res.ProfileID, liability, savings, res.Error})
	}
	return rows
}
