package services

import (
	"fmt"
	"math"

	"bnb-living-costs/models"
	"bnb-living-costs/stats"
)

// IQRBounds are the Tukey fences computed for one column.
type IQRBounds struct {
	Q1, Q3       float64
	Lower, Upper float64
}

// ComputeIQRBounds returns [Q1 - 1.5*IQR, Q3 + 1.5*IQR] over the present values of column.
func ComputeIQRBounds(t *models.Table, column string) (IQRBounds, error) {
	values, err := t.Numeric(column)
	if err != nil {
		return IQRBounds{}, fmt.Errorf("outliers: %w", err)
	}
	q1 := stats.Quantile(values, 0.25)
	q3 := stats.Quantile(values, 0.75)
	iqr := q3 - q1
	return IQRBounds{Q1: q1, Q3: q3, Lower: q1 - 1.5*iqr, Upper: q3 + 1.5*iqr}, nil
}

// FilterOutliers keeps the rows whose value in column lies within the IQR
// fences of the input table. Rows missing the value are dropped. Re-applying it
// recomputes the fences on the smaller table, so repeated calls may keep
// trimming; it is not a fixed point.
func FilterOutliers(t *models.Table, column string) (*models.Table, error) {
	b, err := ComputeIQRBounds(t, column)
	if err != nil {
		return nil, err
	}
	values, _ := t.Numeric(column)

	keep := make([]bool, len(values))
	for i, v := range values {
		keep[i] = !math.IsNaN(v) && v >= b.Lower && v <= b.Upper
	}
	return t.Filter(keep)
}
