package models

import "math"

// IndicatorColumns is the fixed, ordered set of cost-of-living indicators.
var IndicatorColumns = []string{
	"sqrtm_suburbs",
	"sqrtm_center",
	"beer",
	"rent_onebed_suburbs",
	"rent_onebed_center",
	"rent_threebed_suburbs",
	"rent_threebed_center",
	"mcmeal",
	"salary_after_tax",
	"utilities",
}

// IndicatorRecord is one city's cost-of-living snapshot as stored on disk.
type IndicatorRecord struct {
	City    string `json:"city"`
	Country string `json:"country"`

	SqmSuburbs          *float64 `json:"sqrtm_suburbs,omitempty"`
	SqmCenter           *float64 `json:"sqrtm_center,omitempty"`
	Beer                *float64 `json:"beer,omitempty"`
	RentOneBedSuburbs   *float64 `json:"rent_onebed_suburbs,omitempty"`
	RentOneBedCenter    *float64 `json:"rent_onebed_center,omitempty"`
	RentThreeBedSuburbs *float64 `json:"rent_threebed_suburbs,omitempty"`
	RentThreeBedCenter  *float64 `json:"rent_threebed_center,omitempty"`
	McMeal              *float64 `json:"mcmeal,omitempty"`
	SalaryAfterTax      *float64 `json:"salary_after_tax,omitempty"`
	Utilities           *float64 `json:"utilities,omitempty"`
}

func (r *IndicatorRecord) field(col string) **float64 {
	switch col {
	case "sqrtm_suburbs":
		return &r.SqmSuburbs
	case "sqrtm_center":
		return &r.SqmCenter
	case "beer":
		return &r.Beer
	case "rent_onebed_suburbs":
		return &r.RentOneBedSuburbs
	case "rent_onebed_center":
		return &r.RentOneBedCenter
	case "rent_threebed_suburbs":
		return &r.RentThreeBedSuburbs
	case "rent_threebed_center":
		return &r.RentThreeBedCenter
	case "mcmeal":
		return &r.McMeal
	case "salary_after_tax":
		return &r.SalaryAfterTax
	case "utilities":
		return &r.Utilities
	}
	return nil
}

// Value returns the indicator named col, or NaN when it is unset or unknown.
func (r *IndicatorRecord) Value(col string) float64 {
	p := r.field(col)
	if p == nil || *p == nil {
		return math.NaN()
	}
	return **p
}

// Set assigns the indicator named col. It reports false for unknown names.
func (r *IndicatorRecord) Set(col string, v float64) bool {
	p := r.field(col)
	if p == nil {
		return false
	}
	*p = &v
	return true
}
