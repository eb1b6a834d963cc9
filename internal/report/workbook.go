package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"bpih-platform/internal/models"
)

// Sheet names, in workbook order
const (
	SheetHistorical = "Historical"
	SheetGrowth     = "Growth"
	SheetScenarios  = "Scenarios"
	SheetRegional   = "Regional"
	SheetBreakdown  = "Breakdown"
	SheetRisks      = "Risks"
)

type sheetWriter struct {
	f      *excelize.File
	header int
}

func (s *sheetWriter) row(sheet string, row int, values ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return s.f.SetSheetRow(sheet, cell, &values)
}

func (s *sheetWriter) headerRow(sheet string, headers ...string) error {
	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := s.row(sheet, 1, values...); err != nil {
		return err
	}

	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := s.f.SetCellStyle(sheet, "A1", last, s.header); err != nil {
		return err
	}

	lastCol, _, err := excelize.SplitCellName(last)
	if err != nil {
		return err
	}
	return s.f.SetColWidth(sheet, "A", lastCol, 20)
}

// Workbook builds the xlsx file. The caller closes it.
func (r *Report) Workbook() (*excelize.File, error) {
	f := excelize.NewFile()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	w := &sheetWriter{f: f, header: header}

	if err := f.SetSheetName("Sheet1", SheetHistorical); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetGrowth, SheetScenarios, SheetRegional, SheetBreakdown, SheetRisks} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	steps := []struct {
		sheet string
		fill  func(*sheetWriter) error
	}{
		{SheetHistorical, r.fillHistorical},
		{SheetGrowth, r.fillGrowth},
		{SheetScenarios, r.fillScenarios},
		{SheetRegional, r.fillRegional},
		{SheetBreakdown, r.fillBreakdown},
		{SheetRisks, r.fillRisks},
	}
	for _, step := range steps {
		if err := step.fill(w); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %s: %w", step.sheet, err)
		}
	}

	return f, nil
}

// WriteWorkbook writes the xlsx bytes to out
func (r *Report) WriteWorkbook(out io.Writer) error {
	f, err := r.Workbook()
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(out)
}

func (r *Report) fillHistorical(w *sheetWriter) error {
	headers := []string{"Year", "Hijri", "Decree", "National Average"}
	for _, region := range models.AllRegions() {
		headers = append(headers, string(region))
	}
	if err := w.headerRow(SheetHistorical, headers...); err != nil {
		return err
	}

	for i, rec := range r.Records {
		values := []interface{}{rec.Year, rec.HijriLabel, rec.Decree, rec.NationalAverage}
		for _, region := range models.AllRegions() {
			values = append(values, rec.RegionalCosts[region])
		}
		if err := w.row(SheetHistorical, i+2, values...); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) fillGrowth(w *sheetWriter) error {
	if err := w.headerRow(SheetGrowth, "From", "To", "Rate (%)", "Anomalous"); err != nil {
		return err
	}

	anomalous := make(map[int]bool, len(r.Growth.AnomalousRates))
	for _, rate := range r.Growth.AnomalousRates {
		anomalous[rate.ToYear] = true
	}

	row := 2
	for _, rate := range r.Growth.Series.Rates {
		if err := w.row(SheetGrowth, row, rate.FromYear, rate.ToYear, rate.Rate*100, anomalous[rate.ToYear]); err != nil {
			return err
		}
		row++
	}

	row++
	summary := [][]interface{}{
		{"Average normal growth (%)", r.Growth.AverageNormal * 100},
		{"Median normal growth (%)", r.Growth.MedianNormal * 100},
		{"Std normal growth (%)", r.Growth.StdDevNormal * 100},
		{"Overall CAGR (%)", r.Growth.OverallCAGR},
		{"Normal-period CAGR (%)", r.Growth.NormalPeriodCAGR},
	}
	for _, values := range summary {
		if err := w.row(SheetGrowth, row, values...); err != nil {
			return err
		}
		row++
	}
	return nil
}

func (r *Report) fillScenarios(w *sheetWriter) error {
	scenarios := models.AllScenarios()
	headers := []string{"Year", "Horizon"}
	for _, name := range scenarios {
		headers = append(headers, string(name))
	}
	headers = append(headers, "Confidence (%)")
	if err := w.headerRow(SheetScenarios, headers...); err != nil {
		return err
	}

	for i, set := range r.Forecast.Scenarios {
		values := []interface{}{set.TargetYear, set.Horizon}
		for _, name := range scenarios {
			values = append(values, set.Projections[name])
		}
		values = append(values, set.Confidence)
		if err := w.row(SheetScenarios, i+2, values...); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) fillRegional(w *sheetWriter) error {
	if err := w.headerRow(SheetRegional, "Region", "Cost", "Difference", "Difference (%)", "Category"); err != nil {
		return err
	}
	for i, d := range r.Regional.Differences {
		if err := w.row(SheetRegional, i+2, string(d.Region), d.Cost, d.DifferenceAmount, d.DifferencePercentage, string(d.Category)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) fillBreakdown(w *sheetWriter) error {
	if err := w.headerRow(SheetBreakdown, "Component", "Share", "Amount"); err != nil {
		return err
	}
	for i, item := range r.Breakdown.Breakdown.Items {
		amount, _ := item.Amount.Float64()
		if err := w.row(SheetBreakdown, i+2, string(item.Component), item.Share, amount); err != nil {
			return err
		}
	}

	total, _ := r.Breakdown.Breakdown.Total.Float64()
	return w.row(SheetBreakdown, len(r.Breakdown.Breakdown.Items)+2, fmt.Sprintf("Total %d", r.Breakdown.TargetYear), 1.0, total)
}

func (r *Report) fillRisks(w *sheetWriter) error {
	if err := w.headerRow(SheetRisks, "Key", "Description", "High Impact"); err != nil {
		return err
	}
	for i, f := range r.Risks {
		if err := w.row(SheetRisks, i+2, f.Key, f.Description, f.High); err != nil {
			return err
		}
	}
	return nil
}
