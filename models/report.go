package models

import (
	"math"
	"sort"
	"time"
)

// CorrelationRow holds the three coefficients for one indicator column.
// Undefined coefficients are NaN; Err explains why when the pair was unusable.
type CorrelationRow struct {
	Category string
	Pearson  float64
	Spearman float64
	Kendall  float64
	Pairs    int
	Err      error
}

// Defined reports whether at least one coefficient could be computed.
func (r CorrelationRow) Defined() bool {
	return !math.IsNaN(r.Pearson) || !math.IsNaN(r.Spearman) || !math.IsNaN(r.Kendall)
}

// CorrelationReport is ordered by the source table's column order.
type CorrelationReport struct {
	Target string
	Rows   []CorrelationRow
}

// Row finds the row for category.
func (r *CorrelationReport) Row(category string) (CorrelationRow, bool) {
	for _, row := range r.Rows {
		if row.Category == category {
			return row, true
		}
	}
	return CorrelationRow{}, false
}

// ByPearson returns the rows sorted by Pearson coefficient, highest first,
// with undefined coefficients last.
func (r *CorrelationReport) ByPearson() []CorrelationRow {
	rows := append([]CorrelationRow(nil), r.Rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Pearson, rows[j].Pearson
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		if math.IsNaN(a) {
			return false
		}
		return a > b
	})
	return rows
}

// AnalysisResult is everything one pipeline run hands to the presentation layer.
type AnalysisResult struct {
	RunID           string
	CreatedAt       time.Time
	Listings        []*Listing
	Joined          *Table
	Summary         *Table
	ListingReport   *CorrelationReport
	CityReport      *CorrelationReport
	OutliersRemoved int
}
