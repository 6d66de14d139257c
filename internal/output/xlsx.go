package output

import (
	"bytes"

	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v2"
)

const moneyFormat = "#,##0.00"

// ProjectionWorkbook builds a workbook with a Projection sheet (one row per
// year, same columns as the CSV export), a Summary sheet and the
// assumptions used.
func ProjectionWorkbook(res *domain.ProjectionResult) (*xlsx.File, error) {
	if res == nil {
		return nil, eris.New("xlsx: projection is nil")
	}
	f := xlsx.NewFile()

	sheet, err := f.AddSheet("Projection")
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add projection sheet")
	}
	addStringRow(sheet, ProjectionRows(res)[0])
	for _, y := range res.Years {
		row := sheet.AddRow()
		row.AddCell().SetInt(y.YearIndex)
		row.AddCell().SetInt(y.TaxYear)
		addMoney(row, y.BaselineTotal)
		addMoney(row, y.Position.NetTax())
		addMoney(row, y.AnnualSavings)
		addMoney(row, y.CumulativeSavings)
		addMoney(row, y.Contribution)
		addMoney(row, y.RetirementBalance)
		row.AddCell().SetBool(y.IndexedTable)
		row.AddCell().SetString(eventKinds(y.ActiveEvents))
	}

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add summary sheet")
	}
	summaryRow(summary, "Horizon (years)", decimal.NewFromInt(int64(res.HorizonYears)))
	summaryRow(summary, "Total contributed", res.TotalContributed)
	summaryRow(summary, "Cumulative tax savings", res.CumulativeSavings)
	summaryRow(summary, "Net cost", res.NetCost)
	summaryRow(summary, "Ending balance", res.EndingBalance)
	if res.ROI != nil {
		summaryRow(summary, "Return on net cost", *res.ROI)
	}

	notes, err := f.AddSheet("Assumptions")
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add assumptions sheet")
	}
	a := res.Assumptions
	summaryRow(notes, "Start year", decimal.NewFromInt(int64(a.StartYear)))
	summaryRow(notes, "Income growth", a.IncomeGrowth)
	summaryRow(notes, "Inflation", a.Inflation)
	summaryRow(notes, "Return rate", a.ReturnRate)
	summaryRow(notes, "Initial balance", a.InitialBalance)
	summaryRow(notes, "Annual contribution", a.AnnualContribution)
	summaryRow(notes, "Contribution growth", a.ContributionGrowth)
	summaryRow(notes, "Contribution rate", a.ContributionRate)
	for _, s := range DefaultAssumptions {
		addStringRow(notes, []string{s})
	}
	return f, nil
}

// WriteProjectionWorkbook saves the projection workbook to path.
func WriteProjectionWorkbook(path string, res *domain.ProjectionResult) error {
	f, err := ProjectionWorkbook(res)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func formatWorkbook(r *Report) ([]byte, error) {
	if r.Projection == nil {
		return nil, eris.New("xlsx: only projection reports can be exported as a workbook")
	}
	f, err := ProjectionWorkbook(r.Projection)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, eris.Wrap(err, "xlsx: encode workbook")
	}
	return buf.Bytes(), nil
}

func addStringRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addMoney(row *xlsx.Row, v decimal.Decimal) {
	row.AddCell().SetFloatWithFormat(v.Round(2).InexactFloat64(), moneyFormat)
}

func summaryRow(sheet *xlsx.Sheet, label string, v decimal.Decimal) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetFloat(v.InexactFloat64())
}
