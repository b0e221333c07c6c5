package services

import (
	"fmt"
	"math"

	"bnb-living-costs/models"
	"bnb-living-costs/stats"
	"bnb-living-costs/utils"
)

// CorrelationEngine computes Pearson, Spearman and Kendall tau-b coefficients
// between a target column and every other numeric column of a table.
type CorrelationEngine struct {
	logger *utils.Logger
}

func NewCorrelationEngine(logger *utils.Logger) *CorrelationEngine {
	return &CorrelationEngine{logger: logger}
}

// Correlate builds a report with one row per numeric column other than target,
// in table column order. Failures are scoped to their row: a column with fewer
// than two complete pairs gets NaN coefficients and Err set to
// ErrInsufficientData. Only a missing or non-numeric target fails the call.
func (e *CorrelationEngine) Correlate(t *models.Table, target string) (*models.CorrelationReport, error) {
	y, err := t.Numeric(target)
	if err != nil {
		return nil, fmt.Errorf("correlate: target: %w", err)
	}

	report := &models.CorrelationReport{Target: target}
	for _, col := range t.Columns() {
		if col == target || !t.IsNumeric(col) {
			continue
		}
		x, _ := t.Numeric(col)
		row, err := Coefficients(x, y)
		row.Category = col
		if err != nil {
			e.logger.Warn("[correlation] %s vs %s: %v", col, target, err)
			row.Err = err
		} else if !row.Defined() {
			e.logger.Debug("[correlation] %s vs %s: zero variance, coefficients undefined", col, target)
		}
		report.Rows = append(report.Rows, row)
	}

	e.logger.Info("[correlation] %d categories correlated against %s over %d rows",
		len(report.Rows), target, t.Len())
	return report, nil
}

// Coefficients correlates x against y over their pairwise-complete positions.
// The returned row is always usable: coefficients are NaN when undefined.
func Coefficients(x, y []float64) (models.CorrelationRow, error) {
	row := models.CorrelationRow{Pearson: math.NaN(), Spearman: math.NaN(), Kendall: math.NaN()}
	if len(x) != len(y) {
		return row, fmt.Errorf("%w: series lengths differ (%d vs %d)", models.ErrInsufficientData, len(x), len(y))
	}

	xs, ys := stats.PairwiseComplete(x, y)
	row.Pairs = len(xs)
	if len(xs) < 2 {
		return row, fmt.Errorf("%w: %d paired observations", models.ErrInsufficientData, len(xs))
	}

	row.Pearson = stats.Pearson(xs, ys)
	row.Spearman = stats.Spearman(xs, ys)
	row.Kendall = stats.KendallTauB(xs, ys)
	return row, nil
}
