package storage

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"bnb-living-costs/models"
)

// Sheet names of the exported workbook.
const (
	SheetListings           = "Listings"
	SheetCitySummary        = "CitySummary"
	SheetListingCorrelation = "ListingCorrelation"
	SheetCityCorrelation    = "CityCorrelation"
)

// XLSXWriter exports a run as a single workbook for the dashboard layer.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter prepares the parent directory of path.
func NewXLSXWriter(path string) (*XLSXWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("xlsx: create output dir: %w", err)
	}
	return &XLSXWriter{path: path}, nil
}

func (x *XLSXWriter) Write(r *models.AnalysisResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetListings); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}
	if err := writeTableSheet(f, SheetListings, r.Joined); err != nil {
		return err
	}

	for _, s := range []struct {
		name  string
		write func() error
	}{
		{SheetCitySummary, func() error { return writeTableSheet(f, SheetCitySummary, r.Summary) }},
		{SheetListingCorrelation, func() error { return writeReportSheet(f, SheetListingCorrelation, r.ListingReport) }},
		{SheetCityCorrelation, func() error { return writeReportSheet(f, SheetCityCorrelation, r.CityReport) }},
	} {
		if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("xlsx: create sheet %s: %w", s.name, err)
		}
		if err := s.write(); err != nil {
			return err
		}
	}

	if err := f.SaveAs(x.path); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", x.path, err)
	}
	return nil
}

func (x *XLSXWriter) Close() error {
	return nil
}

func writeTableSheet(f *excelize.File, sheet string, t *models.Table) error {
	cols := t.Columns()
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}

	for i := 0; i < t.Len(); i++ {
		row := make([]any, len(cols))
		for j, col := range cols {
			row[j] = cellValue(t.Value(i, col))
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeReportSheet(f *excelize.File, sheet string, r *models.CorrelationReport) error {
	if err := setRow(f, sheet, 1, []any{"category", "pearson", "spearman", "kendall", "pairs"}); err != nil {
		return err
	}
	for i, row := range r.Rows {
		values := []any{row.Category, cellValue(row.Pearson), cellValue(row.Spearman), cellValue(row.Kendall), row.Pairs}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx: write %s!%s: %w", sheet, cell, err)
	}
	return nil
}

// cellValue blanks undefined numbers; XLSX has no NaN.
func cellValue(v any) any {
	if fv, ok := v.(float64); ok && (math.IsNaN(fv) || math.IsInf(fv, 0)) {
		return nil
	}
	return v
}
