package services

import (
	"fmt"

	"bnb-living-costs/config"
	"bnb-living-costs/models"
	"bnb-living-costs/stats"
	"bnb-living-costs/utils"
)

// Column names shared by the joined and summary tables.
const (
	ColCity        = "city"
	ColCountry     = "country"
	ColRoomID      = "room_id"
	ColName        = "name"
	ColTitle       = "title"
	ColCategory    = "category"
	ColType        = "type"
	ColPrice       = "price"
	ColFee         = "fee"
	ColStars       = "stars"
	ColReviewCount = "review_count"
	ColBadges      = "badges"

	ColAvgPrice    = "avg_price"
	ColMedianPrice = "median_price"
	ColAvgFee      = "avg_fee"
)

// Aggregator joins listings with cost-of-living indicators.
type Aggregator struct {
	logger   *utils.Logger
	registry *config.Registry
}

func NewAggregator(registry *config.Registry, logger *utils.Logger) *Aggregator {
	return &Aggregator{logger: logger, registry: registry}
}

// Join builds the per-listing table: indicator columns first, then the listing
// columns, one row per listing in listing order.
func (a *Aggregator) Join(listings []*models.Listing, indicators []*models.IndicatorRecord) (*models.Table, error) {
	byCity, err := a.indexIndicators(indicators)
	if err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}

	n := len(listings)
	cities := make([]string, n)
	countries := make([]string, n)
	ind := make(map[string][]float64, len(models.IndicatorColumns))
	for _, col := range models.IndicatorColumns {
		ind[col] = make([]float64, n)
	}
	roomIDs, names, titles := make([]string, n), make([]string, n), make([]string, n)
	categories, types, badges := make([]string, n), make([]string, n), make([]string, n)
	prices, fees, stars, reviews := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)

	for i, l := range listings {
		rec, ok := byCity[l.City]
		if !ok {
			return nil, fmt.Errorf("join: %w: listing %s references %q", models.ErrUnknownCity, l.RoomID, l.City)
		}
		cities[i] = rec.City
		countries[i] = rec.Country
		for _, col := range models.IndicatorColumns {
			ind[col][i] = rec.Value(col)
		}
		roomIDs[i], names[i], titles[i] = l.RoomID, l.Name, l.Title
		categories[i], types[i], badges[i] = l.Category, l.Type, l.Badge
		prices[i], fees[i], stars[i], reviews[i] = l.Price, l.Fee, l.Stars, l.ReviewCount
	}

	t := models.NewTable(n)
	b := tableBuilder{t: t}
	b.text(ColCity, cities)
	b.text(ColCountry, countries)
	for _, col := range models.IndicatorColumns {
		b.numeric(col, ind[col])
	}
	b.text(ColRoomID, roomIDs)
	b.text(ColName, names)
	b.text(ColTitle, titles)
	b.text(ColCategory, categories)
	b.text(ColType, types)
	b.numeric(ColPrice, prices)
	b.numeric(ColFee, fees)
	b.numeric(ColStars, stars)
	b.numeric(ColReviewCount, reviews)
	b.text(ColBadges, badges)
	if b.err != nil {
		return nil, fmt.Errorf("join: %w", b.err)
	}

	a.logger.Info("[aggregator] Joined table: %d rows", t.Len())
	return t, nil
}

// Summarize builds one row per indicator record, in registry order, with
// avg_price (mean), median_price and avg_fee (median of fee). Cities without
// listings get NaN for all three.
func (a *Aggregator) Summarize(listings []*models.Listing, indicators []*models.IndicatorRecord) (*models.Table, error) {
	byCity, err := a.indexIndicators(indicators)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	prices := make(map[string][]float64)
	fees := make(map[string][]float64)
	for _, l := range listings {
		if _, ok := byCity[l.City]; !ok {
			return nil, fmt.Errorf("summarize: %w: listing %s references %q", models.ErrUnknownCity, l.RoomID, l.City)
		}
		prices[l.City] = append(prices[l.City], l.Price)
		fees[l.City] = append(fees[l.City], l.Fee)
	}

	names := a.registry.Names()
	n := len(names)
	cities, countries := make([]string, n), make([]string, n)
	ind := make(map[string][]float64, len(models.IndicatorColumns))
	for _, col := range models.IndicatorColumns {
		ind[col] = make([]float64, n)
	}
	avg, median, avgFee := make([]float64, n), make([]float64, n), make([]float64, n)

	for i, city := range names {
		rec := byCity[city]
		cities[i] = rec.City
		countries[i] = rec.Country
		for _, col := range models.IndicatorColumns {
			ind[col][i] = rec.Value(col)
		}
		avg[i] = stats.Mean(prices[city])
		median[i] = stats.Median(prices[city])
		avgFee[i] = stats.Median(fees[city])
		if len(prices[city]) == 0 {
			a.logger.Warn("[aggregator] %s has no listings, summary statistics are undefined", city)
		}
	}

	t := models.NewTable(n)
	b := tableBuilder{t: t}
	b.text(ColCity, cities)
	b.text(ColCountry, countries)
	for _, col := range models.IndicatorColumns {
		b.numeric(col, ind[col])
	}
	b.numeric(ColAvgPrice, avg)
	b.numeric(ColMedianPrice, median)
	b.numeric(ColAvgFee, avgFee)
	if b.err != nil {
		return nil, fmt.Errorf("summarize: %w", b.err)
	}
	return t, nil
}

// indexIndicators checks the records are exactly one per registered city.
func (a *Aggregator) indexIndicators(indicators []*models.IndicatorRecord) (map[string]*models.IndicatorRecord, error) {
	byCity := make(map[string]*models.IndicatorRecord, len(indicators))
	for _, rec := range indicators {
		if !a.registry.Contains(rec.City) {
			return nil, fmt.Errorf("%w: indicator record for %q", models.ErrUnknownCity, rec.City)
		}
		if _, dup := byCity[rec.City]; dup {
			return nil, fmt.Errorf("duplicate indicator record for %q", rec.City)
		}
		byCity[rec.City] = rec
	}
	for _, city := range a.registry.Names() {
		if _, ok := byCity[city]; !ok {
			return nil, fmt.Errorf("%w: no indicator record for %s", models.ErrMissingCityData, city)
		}
	}
	return byCity, nil
}

// tableBuilder collects the first column error so call sites stay flat.
type tableBuilder struct {
	t   *models.Table
	err error
}

func (b *tableBuilder) numeric(name string, v []float64) {
	if b.err == nil {
		b.err = b.t.AddNumeric(name, v)
	}
}

func (b *tableBuilder) text(name string, v []string) {
	if b.err == nil {
		b.err = b.t.AddText(name, v)
	}
}
