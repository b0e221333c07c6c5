package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"bnb-living-costs/config"
	"bnb-living-costs/models"
	"bnb-living-costs/utils"
)

// Field paths the normalizer reads. They appear verbatim in RecordError.
const (
	fieldRoomID      = "room_id"
	fieldPriceAmount = "price.total.amount"
)

// Normalizer flattens raw search-result records into Listings.
type Normalizer struct {
	logger   *utils.Logger
	registry *config.Registry
}

// NewNormalizer creates a Normalizer bound to a city registry.
func NewNormalizer(registry *config.Registry, logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger, registry: registry}
}

// Normalize flattens and deduplicates the raw collections of every registered
// city. raw must hold one entry per registered city (an empty slice is a city
// with no listings; a missing key is ErrMissingCityData). Output is city-major in
// registry order, per-city order preserved, first occurrence of a room id wins.
func (n *Normalizer) Normalize(raw map[string][]*models.RawListing) ([]*models.Listing, error) {
	for city := range raw {
		if !n.registry.Contains(city) {
			return nil, fmt.Errorf("normalize: %w: %q", models.ErrUnknownCity, city)
		}
	}

	seen := utils.NewKeySet()
	total := 0
	var result []*models.Listing

	for _, city := range n.registry.Names() {
		records, ok := raw[city]
		if !ok {
			return nil, fmt.Errorf("normalize: %w: no listings resource for %s", models.ErrMissingCityData, city)
		}
		total += len(records)

		kept := 0
		for i, r := range records {
			listing, err := project(city, i, r)
			if err != nil {
				return nil, fmt.Errorf("normalize: %w", err)
			}
			if !seen.Add(listing.RoomID) {
				n.logger.Debug("[normalizer] Duplicate room %s skipped (%s)", listing.RoomID, city)
				continue
			}
			result = append(result, listing)
			kept++
		}
		n.logger.Debug("[normalizer] %s: %d raw → %d listings", city, len(records), kept)
	}

	n.logger.Info("[normalizer] Normalized %d → %d listings (dropped %d duplicates)",
		total, len(result), total-len(result))
	return result, nil
}

// project is the typed nested-to-flat projection of a single record.
func project(city string, index int, r *models.RawListing) (*models.Listing, error) {
	if r == nil {
		return nil, &models.RecordError{City: city, Index: index, Field: fieldRoomID, Err: models.ErrMalformedRecord}
	}
	roomID := string(r.RoomID)
	fail := func(field string, cause error) error {
		return &models.RecordError{City: city, Index: index, RoomID: roomID, Field: field, Err: cause}
	}

	if roomID == "" {
		return nil, fail(fieldRoomID, models.ErrMalformedRecord)
	}
	if r.Price == nil || r.Price.Total == nil || r.Price.Total.Amount == nil {
		return nil, fail(fieldPriceAmount, models.ErrMalformedRecord)
	}
	price := r.Price.Total.Amount.Float()
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, fail(fieldPriceAmount, fmt.Errorf("%w: unparseable amount", models.ErrMalformedRecord))
	}

	fee, feeField, err := totalFee(r.Fee)
	if err != nil {
		return nil, fail(feeField, err)
	}

	l := &models.Listing{
		RoomID:   roomID,
		City:     city,
		Name:     r.Name,
		Title:    r.Title,
		Category: r.Category,
		Type:     r.Type,
		Price:    price,
		Fee:      fee,
		Badge:    firstBadge(r.Badges),
	}
	if r.Rating != nil {
		l.Stars = r.Rating.Value.Float()
		l.ReviewCount = r.Rating.ReviewCount.Float()
	} else {
		l.Stars = math.NaN()
		l.ReviewCount = math.NaN()
	}
	return l, nil
}

// totalFee sums every fee.<key>.amount, treating an absent amount as zero.
func totalFee(fee map[string]models.RawAmount) (float64, string, error) {
	var total float64
	for key, item := range fee {
		if item.Amount == nil {
			continue
		}
		v := item.Amount.Float()
		if math.IsNaN(v) || v < 0 {
			return 0, "fee." + key + ".amount", fmt.Errorf("%w: amount %v", models.ErrMalformedRecord, v)
		}
		total += v
	}
	return total, "", nil
}

func firstBadge(badges []json.RawMessage) string {
	if len(badges) == 0 {
		return models.NoBadge
	}
	var label string
	if err := json.Unmarshal(badges[0], &label); err == nil {
		return label
	}
	return strings.TrimSpace(string(badges[0]))
}
