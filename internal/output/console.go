package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
)

const ruleWidth = 72

// ConsoleFormatter renders a human-readable report. Plain drops all
// styling, which is what "console-lite" uses.
type ConsoleFormatter struct {
	Plain bool
}

func (c ConsoleFormatter) Name() string {
	if c.Plain {
		return "console-lite"
	}
	return "console"
}

func (c ConsoleFormatter) Format(r *Report) ([]byte, error) {
	if r == nil || r.Empty() {
		return nil, fmt.Errorf("nothing to report")
	}
	var buf bytes.Buffer
	s := styler{plain: c.Plain}

	title := r.Title
	if title == "" {
		title = "TAX ANALYSIS"
	}
	fmt.Fprintln(&buf, s.title(title))
	fmt.Fprintln(&buf, s.rule(strings.Repeat("=", ruleWidth)))

	if r.Position != nil {
		writePosition(&buf, s, r.Position)
	}
	if r.Recommendations != nil {
		writeRecommendations(&buf, s, r.Recommendations)
	}
	if r.Entities != nil {
		writeEntities(&buf, s, r.Entities)
	}
	if len(r.Scenarios) > 0 {
		writeScenarios(&buf, s, r.Scenarios)
	}
	if r.Projection != nil {
		writeProjection(&buf, s, r.Projection)
	}
	if r.Batch != nil {
		writeBatch(&buf, s, r)
	}

	assumptions := r.Assumptions
	if len(assumptions) == 0 && !c.Plain {
		assumptions = DefaultAssumptions
	}
	if len(assumptions) > 0 {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, s.section("KEY ASSUMPTIONS"))
		for _, a := range assumptions {
			fmt.Fprintf(&buf, "• %s\n", a)
		}
	}
	return buf.Bytes(), nil
}

func line(buf *bytes.Buffer, s styler, label string, value decimal.Decimal) {
	fmt.Fprintf(buf, "  %s %16s\n", s.label(fmt.Sprintf("%-30s", label)), FormatCurrency(value))
}

func writePosition(buf *bytes.Buffer, s styler, pos *domain.TaxPosition) {
	fmt.Fprintln(buf)
	fmt.Fprintln(buf, s.section(fmt.Sprintf("TAX POSITION %d (%s)", pos.TaxYear, pos.FilingStatus.Label())))
	fmt.Fprintln(buf, s.rule(strings.Repeat("-", ruleWidth)))

	line(buf, s, "Total income", pos.TotalIncome)
	if pos.TaxableSocialSecurity.IsPositive() {
		line(buf, s, "Taxable Social Security", pos.TaxableSocialSecurity)
	}
	line(buf, s, "Adjustments", pos.AdjustmentsTotal)
	line(buf, s, "Adjusted gross income", pos.AGI)
	line(buf, s, fmt.Sprintf("Deduction (%s)", pos.DeductionType), pos.Deduction)
	if pos.QBIDeduction.IsPositive() {
		line(buf, s, "QBI deduction", pos.QBIDeduction)
	}
	line(buf, s, "Taxable income", pos.TaxableIncome)
	fmt.Fprintln(buf)

	line(buf, s, "Ordinary income tax", pos.OrdinaryTax)
	if pos.PreferentialTax.IsPositive() {
		line(buf, s, "Capital gains tax", pos.PreferentialTax)
	}
	if pos.AMT.IsPositive() {
		line(buf, s, "Alternative minimum tax", pos.AMT)
	}
	for _, c := range pos.Credits {
		if c.Applied.IsPositive() {
			line(buf, s, "Credit: "+c.Label, c.Applied.Neg())
		}
	}
	if pos.SETax.IsPositive() {
		line(buf, s, "Self-employment tax", pos.SETax)
	}
	if pos.AdditionalMedicare.IsPositive() {
		line(buf, s, "Additional Medicare tax", pos.AdditionalMedicare)
	}
	if pos.NIIT.IsPositive() {
		line(buf, s, "Net investment income tax", pos.NIIT)
	}
	line(buf, s, "Federal total", pos.FederalTotal)
	line(buf, s, fmt.Sprintf("State tax (%s)", pos.State.State), pos.StateTax)
	fmt.Fprintln(buf, s.rule(strings.Repeat("-", ruleWidth)))
	fmt.Fprintf(buf, "  %-30s %16s\n", s.strong("TOTAL LIABILITY"), s.strong(FormatCurrency(pos.TotalLiability)))
	if pos.Refund.IsPositive() {
		fmt.Fprintf(buf, "  %-30s %16s\n", "Refund", s.saving(FormatCurrency(pos.Refund), true))
	}
	fmt.Fprintf(buf, "  %-30s %16s\n", "Effective rate", FormatRate(pos.EffectiveRate))
	fmt.Fprintf(buf, "  %-30s %16s\n", "Marginal rate", FormatRate(pos.MarginalRate))
}

func writeRecommendations(buf *bytes.Buffer, s styler, rep *domain.RecommendationReport) {
	fmt.Fprintln(buf)
	fmt.Fprintln(buf, s.section("RECOMMENDATIONS"))
	fmt.Fprintln(buf, s.rule(strings.Repeat("-", ruleWidth)))
	fmt.Fprintf(buf, "  Tax Health Score: %s (%s)\n", s.strong(fmt.Sprintf("%d", rep.HealthScore)), rep.HealthGrade)
	if len(rep.Recommendations) == 0 {
		fmt.Fprintln(buf, "  No strategies with estimated savings.")
		return
	}
	for i, rec := range rep.Recommendations {
		fmt.Fprintf(buf, "  %d. %s  %s  [%s, %s priority]\n", i+1, s.strong(rec.Label),
			s.saving(FormatCurrency(rec.EstimatedSavings), true), rec.Category, rec.Priority)
		fmt.Fprintf(buf, "     %s\n", rec.Action)
		for _, f := range rec.TriggeringFacts {
			fmt.Fprintf(buf, "     %s %s\n", s.label("-"), s.label(f))
		}
	}
	fmt.Fprintf(buf, "  %-30s %16s\n", "Total estimated savings", s.saving(FormatCurrency(rep.TotalSavings), true))
}

func writeEntities(buf *bytes.Buffer, s styler, cmp *domain.EntityComparison) {
	fmt.Fprintln(buf)
	fmt.Fprintln(buf, s.section(fmt.Sprintf("ENTITY COMPARISON %d (%s, %s)", cmp.TaxYear, cmp.Occupation, cmp.State)))
	fmt.Fprintln(buf, s.rule(strings.Repeat("-", ruleWidth)))
	fmt.Fprintf(buf, "  Net business income %s, benchmark salary %s\n", FormatCurrency(cmp.NetIncome), FormatCurrency(cmp.Benchmark))
	fmt.Fprintf(buf, "  %-22s %14s %14s %14s %10s\n", "Structure", "Salary", "Net burden", "vs Sole Prop", "Risk")
	for _, o := range cmp.Options {
		name := o.Label
		if o.Entity == cmp.Recommended {
			name += " *"
		}
		risk := string(o.Risk)
		if risk == "" {
			risk = "-"
		}
		fmt.Fprintf(buf, "  %-22s %14s %14s %14s %10s\n", truncate(name, 22),
			FormatWholeCurrency(o.Salary), FormatWholeCurrency(o.NetBurden), FormatWholeCurrency(o.SavingsVsSole), risk)
	}
	fmt.Fprintf(buf, "  Recommended: %s\n", s.strong(cmp.Recommended.Label()))
	if cmp.BreakEvenSalary != nil {
		fmt.Fprintf(buf, "  S-Corp break-even salary: %s\n", FormatCurrency(*cmp.BreakEvenSalary))
	}
	for _, n := range cmp.Notes {
		fmt.Fprintf(buf, "  • %s\n", n)
	}
}

func writeScenarios(buf *bytes.Buffer, s styler, results []domain.ScenarioResult) {
	fmt.Fprintln(buf)
	fmt.Fprintln(buf, s.section("WHAT-IF SCENARIOS"))
	fmt.Fprintln(buf, s.rule(strings.Repeat("-", ruleWidth)))
	fmt.Fprintf(buf, "  %-36s %16s %16s\n", "Scenario", "Net tax", "Change")
	base := results[0].Baseline
	fmt.Fprintf(buf, "  %-36s %16s %16s\n", "Baseline", FormatCurrency(base.NetTax()), "")
	for _, res := range results {
		delta := FormatCurrency(res.NetTaxDelta)
		if res.NetTaxDelta.IsPositive() {
			delta = "+" + delta
		}
		fmt.Fprintf(buf, "  %-36s %16s %16s\n", truncate(res.Name, 36), FormatCurrency(res.Modified.NetTax()),
			s.saving(delta, !res.NetTaxDelta.IsPositive()))
	}
}

func writeProjection(buf *bytes.Buffer, s styler, res *domain.ProjectionResult) {
	fmt.Fprintln(buf)
	fmt.Fprintln(buf, s.section(fmt.Sprintf("%d-YEAR PROJECTION", res.HorizonYears)))
	fmt.Fprintln(buf, s.rule(strings.Repeat("-", ruleWidth)))
	fmt.Fprintf(buf, "  %-6s %14s %14s %12s %12s %14s\n", "Year", "Baseline", "With plan", "Savings", "Contrib.", "Balance")
	for _, y := range res.Years {
		year := fmt.Sprintf("%d", y.TaxYear)
		if y.IndexedTable {
			year += "†"
		}
		fmt.Fprintf(buf, "  %-6s %14s %14s %12s %12s %14s\n", year,
			FormatWholeCurrency(y.BaselineTotal), FormatWholeCurrency(y.Position.NetTax()),
			FormatWholeCurrency(y.AnnualSavings), FormatWholeCurrency(y.Contribution), FormatWholeCurrency(y.RetirementBalance))
		for _, ev := range y.ActiveEvents {
			desc := ev.Description
			if desc == "" {
				desc = string(ev.Kind)
			}
			fmt.Fprintf(buf, "         %s\n", s.label("event: "+desc))
		}
	}
	fmt.Fprintln(buf, s.rule(strings.Repeat("-", ruleWidth)))
	line(buf, s, "Total contributed", res.TotalContributed)
	line(buf, s, "Cumulative tax savings", res.CumulativeSavings)
	line(buf, s, "Net cost", res.NetCost)
	line(buf, s, "Ending balance", res.EndingBalance)
	if res.ROI != nil {
		fmt.Fprintf(buf, "  %-30s %16s\n", "Return on net cost", FormatRate(*res.ROI))
	}
	for _, y := range res.Years {
		if y.IndexedTable {
			fmt.Fprintln(buf, "  † tables indexed from the latest published year")
			break
		}
	}
}

func writeBatch(buf *bytes.Buffer, s styler, r *Report) {
	b := r.Batch
	fmt.Fprintln(buf)
	fmt.Fprintln(buf, s.section(fmt.Sprintf("BATCH %s (%d)", b.RunID, b.TaxYear)))
	fmt.Fprintln(buf, s.rule(strings.Repeat("-", ruleWidth)))
	fmt.Fprintf(buf, "  %-24s %16s %16s  %s\n", "Profile", "Total liability", "Est. savings", "Status")
	for _, res := range b.Results {
		if res.Error != "" {
			fmt.Fprintf(buf, "  %-24s %16s %16s  %s\n", truncate(res.ProfileID, 24), "-", "-", s.saving(res.Error, false))
			continue
		}
		savings := "-"
		if res.Recommendations != nil {
			savings = FormatCurrency(res.Recommendations.TotalSavings)
		}
		fmt.Fprintf(buf, "  %-24s %16s %16s  %s\n", truncate(res.ProfileID, 24), FormatCurrency(res.Position.TotalLiability), savings, "ok")
	}
	fmt.Fprintf(buf, "  %d succeeded, %d failed in %s\n", b.Succeeded, b.Failed, b.Elapsed.Round(time.Millisecond))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
