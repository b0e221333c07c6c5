package services

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"bnb-living-costs/config"
	"bnb-living-costs/models"
	"bnb-living-costs/utils"
)

func newTestLogger() *utils.Logger { return utils.NewNopLogger() }

func testRegistry() *config.Registry {
	return config.MustRegistry(
		config.City{Name: "CityX", Country: "Xland"},
		config.City{Name: "CityY", Country: "Yland"},
	)
}

// rawListing decodes a record the way the JSON store does.
func rawListing(t *testing.T, doc string) *models.RawListing {
	t.Helper()
	var r models.RawListing
	require.NoError(t, json.Unmarshal([]byte(doc), &r))
	return &r
}

func priced(t *testing.T, roomID int, price float64) *models.RawListing {
	return rawListing(t, fmt.Sprintf(`{
		"room_id": %d,
		"name": "Room %d",
		"price": {"total": {"amount": %v, "currency_symbol": "€"}},
		"fee": {"cleaning": {"amount": 10}},
		"rating": {"value": 4.5, "reviewCount": "12"},
		"badges": [],
		"coordinates": {"latitude": 1, "longitud": 2},
		"images": [{"url": "x"}],
		"kind": "ROOM",
		"long_stay_discount": {}
	}`, roomID, roomID, price))
}

func indicator(city, country string, utilities float64) *models.IndicatorRecord {
	rec := &models.IndicatorRecord{City: city, Country: country}
	for i, col := range models.IndicatorColumns {
		rec.Set(col, float64(i+1)*10)
	}
	rec.Set("utilities", utilities)
	return rec
}
