package services

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnb-living-costs/models"
)

type memorySource struct {
	listings   map[string][]*models.RawListing
	indicators map[string]*models.IndicatorRecord
}

func (m *memorySource) LoadListings(_ context.Context, city string) ([]*models.RawListing, error) {
	records, ok := m.listings[city]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrMissingCityData, city)
	}
	return records, nil
}

func (m *memorySource) LoadIndicator(_ context.Context, city string) (*models.IndicatorRecord, error) {
	rec, ok := m.indicators[city]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrMissingCityData, city)
	}
	return rec, nil
}

func scenarioSource(t *testing.T) *memorySource {
	return &memorySource{
		listings: map[string][]*models.RawListing{
			"CityX": {priced(t, 1, 100), priced(t, 2, 120), priced(t, 3, 110)},
			"CityY": {priced(t, 4, 200), priced(t, 5, 220)},
		},
		indicators: map[string]*models.IndicatorRecord{
			"CityX": indicator("CityX", "Xland", 50),
			"CityY": indicator("CityY", "Yland", 80),
		},
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	src := scenarioSource(t)
	p := NewPipeline(testRegistry(), src, src, PipelineOptions{}, newTestLogger())

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Len(t, result.Listings, 5)
	assert.Equal(t, 5, result.Joined.Len())

	avg, _ := result.Summary.Numeric(ColAvgPrice)
	assert.InDeltaSlice(t, []float64{110.0, 210.0}, avg, 1e-9)

	require.Len(t, result.ListingReport.Rows, len(models.IndicatorColumns))
	require.Len(t, result.CityReport.Rows, len(models.IndicatorColumns))
	assert.Equal(t, ColPrice, result.ListingReport.Target)
	assert.Equal(t, ColAvgPrice, result.CityReport.Target)

	// Only utilities varies across cities, so it is the only defined row.
	cityUtilities, ok := result.CityReport.Row("utilities")
	require.True(t, ok)
	assert.InDelta(t, 1.0, cityUtilities.Pearson, 1e-9)
	beer, _ := result.CityReport.Row("beer")
	assert.True(t, math.IsNaN(beer.Pearson))

	listingUtilities, _ := result.ListingReport.Row("utilities")
	assert.Equal(t, 5, listingUtilities.Pairs)
	assert.Greater(t, listingUtilities.Pearson, 0.9)
}

func TestPipelineCityWithoutListings(t *testing.T) {
	src := scenarioSource(t)
	src.listings["CityY"] = []*models.RawListing{}
	p := NewPipeline(testRegistry(), src, src, PipelineOptions{}, newTestLogger())

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Joined.Len())
	assert.Equal(t, 2, result.Summary.Len())
	for _, col := range []string{ColAvgPrice, ColMedianPrice, ColAvgFee} {
		v, _ := result.Summary.Numeric(col)
		assert.True(t, math.IsNaN(v[1]), col)
	}

	row, _ := result.CityReport.Row("utilities")
	assert.ErrorIs(t, row.Err, models.ErrInsufficientData)
}

func TestPipelineMissingIndicatorAborts(t *testing.T) {
	src := scenarioSource(t)
	delete(src.indicators, "CityY")
	p := NewPipeline(testRegistry(), src, src, PipelineOptions{}, newTestLogger())

	result, err := p.Run(context.Background())
	assert.ErrorIs(t, err, models.ErrMissingCityData)
	assert.Nil(t, result)
}

func TestPipelineMissingListingsAborts(t *testing.T) {
	src := scenarioSource(t)
	delete(src.listings, "CityX")
	p := NewPipeline(testRegistry(), src, src, PipelineOptions{}, newTestLogger())

	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, models.ErrMissingCityData)
}

func TestPipelineMalformedRecordAborts(t *testing.T) {
	src := scenarioSource(t)
	src.listings["CityY"] = append(src.listings["CityY"], rawListing(t, `{"room_id": 99}`))
	p := NewPipeline(testRegistry(), src, src, PipelineOptions{}, newTestLogger())

	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, models.ErrMalformedRecord)
}

func TestPipelineOutlierFilter(t *testing.T) {
	src := scenarioSource(t)
	src.listings["CityX"] = append(src.listings["CityX"], priced(t, 6, 10000))
	p := NewPipeline(testRegistry(), src, src, PipelineOptions{FilterOutliers: true}, newTestLogger())

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.OutliersRemoved)
	assert.Equal(t, 5, result.Joined.Len())
	assert.Len(t, result.Listings, 5)

	avg, _ := result.Summary.Numeric(ColAvgPrice)
	assert.InDelta(t, 110.0, avg[0], 1e-9)
}

func TestPipelineFillsCountryFromRegistry(t *testing.T) {
	src := scenarioSource(t)
	src.indicators["CityX"].Country = ""
	p := NewPipeline(testRegistry(), src, src, PipelineOptions{}, newTestLogger())

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	countries, _ := result.Summary.Text(ColCountry)
	assert.Equal(t, []string{"Xland", "Yland"}, countries)
}

func TestPipelineDoesNotMutateSourceRecords(t *testing.T) {
	src := scenarioSource(t)
	src.indicators["CityX"].City = ""
	src.indicators["CityX"].Country = ""
	p := NewPipeline(testRegistry(), src, src, PipelineOptions{}, newTestLogger())

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "", src.indicators["CityX"].City)
	assert.Equal(t, "", src.indicators["CityX"].Country)
}

func TestPipelineIndicatorLabelledForAnotherCity(t *testing.T) {
	tests := []struct {
		name  string
		setup func(src *memorySource)
	}{
		{"single mismatch", func(src *memorySource) {
			src.indicators["CityY"] = indicator("CityX", "Xland", 80)
		}},
		{"swapped pair", func(src *memorySource) {
			src.indicators["CityX"], src.indicators["CityY"] = src.indicators["CityY"], src.indicators["CityX"]
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := scenarioSource(t)
			tt.setup(src)
			p := NewPipeline(testRegistry(), src, src, PipelineOptions{}, newTestLogger())

			result, err := p.Run(context.Background())
			assert.ErrorIs(t, err, models.ErrUnknownCity)
			assert.Nil(t, result)
		})
	}
}
