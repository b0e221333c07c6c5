package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnb-living-costs/config"
	"bnb-living-costs/models"
)

func listingsFor(city string, prices ...float64) []*models.Listing {
	out := make([]*models.Listing, len(prices))
	for i, p := range prices {
		out[i] = &models.Listing{
			RoomID:      city + "-" + string(rune('a'+i)),
			City:        city,
			Price:       p,
			Fee:         float64(10 * (i + 1)),
			Stars:       math.NaN(),
			ReviewCount: math.NaN(),
			Badge:       models.NoBadge,
		}
	}
	return out
}

func TestSummarizeAveragePricePerCity(t *testing.T) {
	a := NewAggregator(testRegistry(), newTestLogger())
	listings := append(listingsFor("CityX", 100, 120, 110), listingsFor("CityY", 200, 220)...)
	indicators := []*models.IndicatorRecord{indicator("CityX", "Xland", 1), indicator("CityY", "Yland", 2)}

	summary, err := a.Summarize(listings, indicators)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Len())

	avg, err := summary.Numeric(ColAvgPrice)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{110.0, 210.0}, avg, 1e-9)

	median, _ := summary.Numeric(ColMedianPrice)
	assert.InDeltaSlice(t, []float64{110.0, 210.0}, median, 1e-9)

	// avg_fee is the median of fee: CityX fees are 10, 20, 30.
	fee, _ := summary.Numeric(ColAvgFee)
	assert.InDeltaSlice(t, []float64{20.0, 15.0}, fee, 1e-9)

	cities, _ := summary.Text(ColCity)
	assert.Equal(t, []string{"CityX", "CityY"}, cities)
}

func TestSummarizeCityWithoutListingsIsNaN(t *testing.T) {
	a := NewAggregator(testRegistry(), newTestLogger())
	listings := listingsFor("CityX", 100, 120)
	indicators := []*models.IndicatorRecord{indicator("CityX", "Xland", 1), indicator("CityY", "Yland", 2)}

	summary, err := a.Summarize(listings, indicators)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Len())

	for _, col := range []string{ColAvgPrice, ColMedianPrice, ColAvgFee} {
		v, _ := summary.Numeric(col)
		assert.False(t, math.IsNaN(v[0]), col)
		assert.True(t, math.IsNaN(v[1]), col)
	}

	// The per-listing join has no row for CityY.
	joined, err := a.Join(listings, indicators)
	require.NoError(t, err)
	cities, _ := joined.Text(ColCity)
	assert.Equal(t, []string{"CityX", "CityX"}, cities)
}

func TestSummarizeMissingIndicatorRecord(t *testing.T) {
	a := NewAggregator(testRegistry(), newTestLogger())

	_, err := a.Summarize(listingsFor("CityX", 100), []*models.IndicatorRecord{indicator("CityX", "Xland", 1)})
	assert.ErrorIs(t, err, models.ErrMissingCityData)
}

func TestJoinOneRowPerListing(t *testing.T) {
	a := NewAggregator(testRegistry(), newTestLogger())
	listings := append(listingsFor("CityX", 100, 120, 110), listingsFor("CityY", 200, 220)...)
	indicators := []*models.IndicatorRecord{indicator("CityX", "Xland", 7), indicator("CityY", "Yland", 9)}

	joined, err := a.Join(listings, indicators)
	require.NoError(t, err)
	assert.Equal(t, len(listings), joined.Len())

	cols := joined.Columns()
	assert.Equal(t, ColCity, cols[0])
	assert.Equal(t, ColCountry, cols[1])
	assert.Equal(t, models.IndicatorColumns, cols[2:2+len(models.IndicatorColumns)])
	assert.NotContains(t, cols, "rating")
	assert.NotContains(t, cols, "coordinates")

	utilities, _ := joined.Numeric("utilities")
	assert.Equal(t, []float64{7, 7, 7, 9, 9}, utilities)
	prices, _ := joined.Numeric(ColPrice)
	assert.Equal(t, []float64{100, 120, 110, 200, 220}, prices)
	countries, _ := joined.Text(ColCountry)
	assert.Equal(t, "Yland", countries[4])
}

func TestJoinUnknownCity(t *testing.T) {
	a := NewAggregator(testRegistry(), newTestLogger())
	indicators := []*models.IndicatorRecord{
		indicator("CityX", "Xland", 1),
		indicator("CityY", "Yland", 2),
		indicator("Atlantis", "Sea", 3),
	}

	_, err := a.Join(listingsFor("CityX", 100), indicators)
	assert.ErrorIs(t, err, models.ErrUnknownCity)

	_, err = a.Join(listingsFor("Atlantis", 100), indicators[:2])
	assert.ErrorIs(t, err, models.ErrUnknownCity)
}

func TestJoinMissingIndicatorValueIsNaN(t *testing.T) {
	reg := config.MustRegistry(config.City{Name: "CityX", Country: "Xland"})
	a := NewAggregator(reg, newTestLogger())
	rec := &models.IndicatorRecord{City: "CityX", Country: "Xland"}
	rec.Set("beer", 4.5)

	joined, err := a.Join(listingsFor("CityX", 100), []*models.IndicatorRecord{rec})
	require.NoError(t, err)

	beer, _ := joined.Numeric("beer")
	assert.Equal(t, 4.5, beer[0])
	meal, _ := joined.Numeric("mcmeal")
	assert.True(t, math.IsNaN(meal[0]))
}
