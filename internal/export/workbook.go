// Package export writes the dashboard's data out as XLSX workbooks and
// Arrow IPC streams.
package export

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"kordash/internal/engine"
	"kordash/internal/models"
)

const (
	SheetIndicators = "Indicators"
	SheetSeries     = "Series"
	SheetSummary    = "Summary"
)

// Workbook builds a workbook with the filtered dataset, the selected series
// and the summary cards. Null values are left as blank cells.
func Workbook(table *engine.Table, bundle models.ChartBundle, cards []models.SummaryCard) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetIndicators); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SheetSeries); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		f.Close()
		return nil, err
	}

	steps := []func() error{
		func() error { return writeIndicators(f, table) },
		func() error { return writeSeries(f, bundle) },
		func() error { return writeSummary(f, bundle, cards) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, width float64) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		col, _, _ := excelize.SplitCellName(cell)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeIndicators(f *excelize.File, table *engine.Table) error {
	headers := []string{engine.ColCountryName, engine.ColCountryCode, engine.ColIndicatorName, engine.ColIndicatorCode}
	for _, y := range table.Years {
		headers = append(headers, fmt.Sprint(y))
	}
	if err := writeHeader(f, SheetIndicators, headers, 14); err != nil {
		return fmt.Errorf("indicators header: %w", err)
	}

	for i, r := range table.Rows {
		values := make([]any, 0, len(headers))
		values = append(values, r.CountryName, r.CountryCode, r.IndicatorName, r.IndicatorCode)
		for _, v := range r.Values {
			if math.IsNaN(v) {
				values = append(values, nil)
				continue
			}
			values = append(values, v)
		}
		if err := setRow(f, SheetIndicators, i+2, values); err != nil {
			return fmt.Errorf("indicators row %d: %w", i+2, err)
		}
	}
	return nil
}

func writeSeries(f *excelize.File, bundle models.ChartBundle) error {
	if err := writeHeader(f, SheetSeries, []string{"Country", "Country Code", "Indicator", "Year", "Value"}, 18); err != nil {
		return fmt.Errorf("series header: %w", err)
	}

	selection, _ := bundle.Chart(engine.ChartBar)
	for i, p := range selection.Points {
		var value any
		if p.Value != nil {
			value = *p.Value
		}
		if err := setRow(f, SheetSeries, i+2, []any{p.Country, p.CountryCode, p.Indicator, p.Year, value}); err != nil {
			return fmt.Errorf("series row %d: %w", i+2, err)
		}
	}
	return nil
}

func writeSummary(f *excelize.File, bundle models.ChartBundle, cards []models.SummaryCard) error {
	if err := writeHeader(f, SheetSummary, []string{"Title", "Indicator", "Latest"}, 30); err != nil {
		return fmt.Errorf("summary header: %w", err)
	}

	row := 2
	for _, c := range cards {
		if err := setRow(f, SheetSummary, row, []any{c.Title, c.Indicator, c.Text}); err != nil {
			return fmt.Errorf("summary row %d: %w", row, err)
		}
		row++
	}

	row++
	meta := [][]any{
		{"Selected indicator", bundle.Indicator},
		{"Year range", bundle.Range.String()},
		{"Status", string(bundle.Status)},
	}
	if bundle.Error != "" {
		meta = append(meta, []any{"Error", bundle.Error})
	}
	for _, m := range meta {
		if err := setRow(f, SheetSummary, row, m); err != nil {
			return fmt.Errorf("summary row %d: %w", row, err)
		}
		row++
	}
	return nil
}
