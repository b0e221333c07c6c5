package services

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnb-living-costs/models"
)

func TestNormalizeFlattensNestedFields(t *testing.T) {
	n := NewNormalizer(testRegistry(), newTestLogger())
	raw := map[string][]*models.RawListing{
		"CityX": {rawListing(t, `{
			"room_id": 42,
			"name": "Loft",
			"price": {"total": {"amount": 150.5}},
			"fee": {"cleaning": {"amount": 20}, "service": {}, "airbnb": {"amount": "5.5"}},
			"rating": {"value": 4.87, "reviewCount": 31},
			"badges": ["GUEST_FAVORITE", "SUPERHOST"]
		}`)},
		"CityY": {},
	}

	listings, err := n.Normalize(raw)
	require.NoError(t, err)
	require.Len(t, listings, 1)

	l := listings[0]
	assert.Equal(t, "42", l.RoomID)
	assert.Equal(t, "CityX", l.City)
	assert.Equal(t, 150.5, l.Price)
	assert.Equal(t, 25.5, l.Fee)
	assert.Equal(t, 4.87, l.Stars)
	assert.Equal(t, 31.0, l.ReviewCount)
	assert.Equal(t, "GUEST_FAVORITE", l.Badge)
}

func TestNormalizeFeeMissingAmountDefaultsToZero(t *testing.T) {
	n := NewNormalizer(testRegistry(), newTestLogger())
	raw := map[string][]*models.RawListing{
		"CityX": {rawListing(t, `{
			"room_id": 1,
			"price": {"total": {"amount": 100}},
			"fee": {"cleaning": {"amount": 20}, "service": {}}
		}`)},
		"CityY": {},
	}

	listings, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, 20.0, listings[0].Fee)
}

func TestNormalizeDefaults(t *testing.T) {
	n := NewNormalizer(testRegistry(), newTestLogger())
	raw := map[string][]*models.RawListing{
		"CityX": {rawListing(t, `{"room_id": "abc", "price": {"total": {"amount": 80}}}`)},
		"CityY": {},
	}

	listings, err := n.Normalize(raw)
	require.NoError(t, err)

	l := listings[0]
	assert.Equal(t, 0.0, l.Fee)
	assert.Equal(t, models.NoBadge, l.Badge)
	assert.True(t, math.IsNaN(l.Stars))
	assert.True(t, math.IsNaN(l.ReviewCount))
}

func TestNormalizeDeduplicatesFirstWins(t *testing.T) {
	n := NewNormalizer(testRegistry(), newTestLogger())
	raw := map[string][]*models.RawListing{
		"CityX": {priced(t, 1, 100), priced(t, 2, 120), priced(t, 1, 999)},
		"CityY": {priced(t, 3, 200), priced(t, 2, 555)},
	}

	listings, err := n.Normalize(raw)
	require.NoError(t, err)
	require.Len(t, listings, 3)

	seen := map[string]bool{}
	for _, l := range listings {
		assert.False(t, seen[l.RoomID], "room %s appears twice", l.RoomID)
		seen[l.RoomID] = true
	}
	assert.Equal(t, 100.0, listings[0].Price)
	assert.Equal(t, 120.0, listings[1].Price)
	assert.Equal(t, "CityX", listings[1].City)
	assert.Equal(t, "CityY", listings[2].City)
}

func TestNormalizeIsCityMajorInRegistryOrder(t *testing.T) {
	n := NewNormalizer(testRegistry(), newTestLogger())
	raw := map[string][]*models.RawListing{
		"CityY": {priced(t, 10, 1), priced(t, 11, 2)},
		"CityX": {priced(t, 20, 3), priced(t, 21, 4)},
	}

	listings, err := n.Normalize(raw)
	require.NoError(t, err)

	var ids []string
	for _, l := range listings {
		ids = append(ids, l.RoomID)
	}
	assert.Equal(t, []string{"20", "21", "10", "11"}, ids)
}

func TestNormalizeMissingPriceIsMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no price", `{"room_id": 7}`},
		{"no total", `{"room_id": 7, "price": {"unit": {"amount": 3}}}`},
		{"no amount", `{"room_id": 7, "price": {"total": {}}}`},
		{"unparseable amount", `{"room_id": 7, "price": {"total": {"amount": "n/a"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNormalizer(testRegistry(), newTestLogger())
			raw := map[string][]*models.RawListing{
				"CityX": {priced(t, 1, 100), rawListing(t, tt.doc)},
				"CityY": {},
			}

			_, err := n.Normalize(raw)
			require.ErrorIs(t, err, models.ErrMalformedRecord)

			var recErr *models.RecordError
			require.True(t, errors.As(err, &recErr))
			assert.Equal(t, "price.total.amount", recErr.Field)
			assert.Equal(t, "CityX", recErr.City)
			assert.Equal(t, 1, recErr.Index)
			assert.Equal(t, "7", recErr.RoomID)
		})
	}
}

func TestNormalizeNegativeFeeIsMalformed(t *testing.T) {
	n := NewNormalizer(testRegistry(), newTestLogger())
	raw := map[string][]*models.RawListing{
		"CityX": {rawListing(t, `{"room_id": 1, "price": {"total": {"amount": 10}}, "fee": {"promo": {"amount": -5}}}`)},
		"CityY": {},
	}

	_, err := n.Normalize(raw)
	require.ErrorIs(t, err, models.ErrMalformedRecord)

	var recErr *models.RecordError
	require.True(t, errors.As(err, &recErr))
	assert.Equal(t, "fee.promo.amount", recErr.Field)
}

func TestNormalizeMissingCityCollection(t *testing.T) {
	n := NewNormalizer(testRegistry(), newTestLogger())
	raw := map[string][]*models.RawListing{
		"CityX": {priced(t, 1, 100)},
	}

	_, err := n.Normalize(raw)
	assert.ErrorIs(t, err, models.ErrMissingCityData)
}

func TestNormalizeUnknownCity(t *testing.T) {
	n := NewNormalizer(testRegistry(), newTestLogger())
	raw := map[string][]*models.RawListing{
		"CityX":    {},
		"CityY":    {},
		"Atlantis": {priced(t, 1, 100)},
	}

	_, err := n.Normalize(raw)
	assert.ErrorIs(t, err, models.ErrUnknownCity)
}
