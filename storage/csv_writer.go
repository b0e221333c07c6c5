package storage

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"bnb-living-costs/models"
)

// File names written into the output directory.
const (
	ListingsCSV           = "listings.csv"
	CitySummaryCSV        = "city_summary.csv"
	ListingCorrelationCSV = "listing_correlation.csv"
	CityCorrelationCSV    = "city_correlation.csv"
)

// CSVWriter exports the tables of a run as CSV files in one directory.
type CSVWriter struct {
	dir string
}

// NewCSVWriter creates the output directory if needed.
func NewCSVWriter(dir string) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVWriter{dir: dir}, nil
}

func (c *CSVWriter) Write(r *models.AnalysisResult) error {
	if err := c.writeTable(ListingsCSV, r.Joined); err != nil {
		return err
	}
	if err := c.writeTable(CitySummaryCSV, r.Summary); err != nil {
		return err
	}
	if err := c.writeReport(ListingCorrelationCSV, r.ListingReport); err != nil {
		return err
	}
	return c.writeReport(CityCorrelationCSV, r.CityReport)
}

func (c *CSVWriter) writeTable(name string, t *models.Table) error {
	cols := t.Columns()
	rows := make([][]string, 0, t.Len()+1)
	rows = append(rows, cols)
	for i := 0; i < t.Len(); i++ {
		row := make([]string, len(cols))
		for j, col := range cols {
			row[j] = t.Cell(i, col)
		}
		rows = append(rows, row)
	}
	return c.writeFile(name, rows)
}

func (c *CSVWriter) writeReport(name string, r *models.CorrelationReport) error {
	rows := [][]string{{"category", "pearson", "spearman", "kendall", "pairs"}}
	for _, row := range r.Rows {
		rows = append(rows, []string{
			row.Category,
			formatFloat(row.Pearson),
			formatFloat(row.Spearman),
			formatFloat(row.Kendall),
			strconv.Itoa(row.Pairs),
		})
	}
	return c.writeFile(name, rows)
}

func (c *CSVWriter) writeFile(name string, rows [][]string) error {
	path := filepath.Join(c.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("csv: write %q: %w", path, err)
	}
	return nil
}

// Close is a no-op; every file is closed as soon as it is written.
func (c *CSVWriter) Close() error {
	return nil
}

// formatFloat leaves undefined values empty.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
