package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bnb-living-costs/config"
	"bnb-living-costs/models"
	"bnb-living-costs/utils"
)

// ListingSource hands out the raw listing collection of one city.
// Implementations return an error wrapping models.ErrMissingCityData when the
// city has no backing resource.
type ListingSource interface {
	LoadListings(ctx context.Context, city string) ([]*models.RawListing, error)
}

// IndicatorSource hands out the cost-of-living record of one city.
type IndicatorSource interface {
	LoadIndicator(ctx context.Context, city string) (*models.IndicatorRecord, error)
}

// PipelineOptions tune a run.
type PipelineOptions struct {
	FilterOutliers bool
	OutlierColumn  string
}

// Pipeline runs normalization, aggregation and correlation over the whole registry.
type Pipeline struct {
	registry   *config.Registry
	listings   ListingSource
	indicators IndicatorSource
	opts       PipelineOptions
	logger     *utils.Logger

	normalizer *Normalizer
	aggregator *Aggregator
	engine     *CorrelationEngine
}

func NewPipeline(registry *config.Registry, listings ListingSource, indicators IndicatorSource,
	opts PipelineOptions, logger *utils.Logger) *Pipeline {
	if opts.OutlierColumn == "" {
		opts.OutlierColumn = ColPrice
	}
	return &Pipeline{
		registry:   registry,
		listings:   listings,
		indicators: indicators,
		opts:       opts,
		logger:     logger,
		normalizer: NewNormalizer(registry, logger),
		aggregator: NewAggregator(registry, logger),
		engine:     NewCorrelationEngine(logger),
	}
}

// Run executes one complete pass. Any loading, normalization or aggregation
// failure aborts the run and no partial result is returned.
func (p *Pipeline) Run(ctx context.Context) (*models.AnalysisResult, error) {
	start := time.Now()
	p.logger.Info("[pipeline] Starting run over %d cities", p.registry.Len())

	raw := make(map[string][]*models.RawListing, p.registry.Len())
	indicators := make([]*models.IndicatorRecord, 0, p.registry.Len())
	for _, city := range p.registry.Cities() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, err := p.listings.LoadListings(ctx, city.Name)
		if err != nil {
			return nil, fmt.Errorf("pipeline: load listings for %s: %w", city.Name, err)
		}
		raw[city.Name] = records

		loaded, err := p.indicators.LoadIndicator(ctx, city.Name)
		if err != nil {
			return nil, fmt.Errorf("pipeline: load indicators for %s: %w", city.Name, err)
		}
		rec := *loaded
		if rec.City == "" {
			rec.City = city.Name
		} else if rec.City != city.Name {
			return nil, fmt.Errorf("pipeline: %w: indicator resource for %s is labelled %q",
				models.ErrUnknownCity, city.Name, rec.City)
		}
		if rec.Country == "" {
			rec.Country = city.Country
		} else if rec.Country != city.Country {
			p.logger.Warn("[pipeline] %s: indicator country %q differs from registry %q",
				city.Name, rec.Country, city.Country)
		}
		indicators = append(indicators, &rec)
	}

	listings, err := p.normalizer.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	joined, err := p.aggregator.Join(listings, indicators)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	removed := 0
	if p.opts.FilterOutliers {
		filtered, err := FilterOutliers(joined, p.opts.OutlierColumn)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		removed = joined.Len() - filtered.Len()
		joined = filtered

		listings, err = retainListings(listings, joined)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		p.logger.Info("[pipeline] Outlier filter on %s removed %d listings", p.opts.OutlierColumn, removed)
	}

	summary, err := p.aggregator.Summarize(listings, indicators)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	listingView, err := joined.Select(indicatorView(ColPrice)...)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	listingReport, err := p.engine.Correlate(listingView, ColPrice)
	if err != nil {
		return nil, fmt.Errorf("pipeline: listing-level: %w", err)
	}

	cityView, err := summary.Select(indicatorView(ColAvgPrice)...)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	cityReport, err := p.engine.Correlate(cityView, ColAvgPrice)
	if err != nil {
		return nil, fmt.Errorf("pipeline: city-level: %w", err)
	}

	result := &models.AnalysisResult{
		RunID:           uuid.New().String(),
		CreatedAt:       time.Now().UTC(),
		Listings:        listings,
		Joined:          joined,
		Summary:         summary,
		ListingReport:   listingReport,
		CityReport:      cityReport,
		OutliersRemoved: removed,
	}
	p.logger.Info("[pipeline] Run %s complete in %v: %d listings, %d cities",
		result.RunID, time.Since(start).Round(time.Millisecond), len(listings), summary.Len())
	return result, nil
}

// indicatorView lists the columns a report is computed over: the identifying
// text columns, every indicator, then the target.
func indicatorView(target string) []string {
	cols := []string{ColCity, ColCountry}
	cols = append(cols, models.IndicatorColumns...)
	return append(cols, target)
}

// retainListings keeps the listings whose room id survived in t.
func retainListings(listings []*models.Listing, t *models.Table) ([]*models.Listing, error) {
	ids, err := t.Text(ColRoomID)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	out := make([]*models.Listing, 0, len(ids))
	for _, l := range listings {
		if _, ok := keep[l.RoomID]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}
