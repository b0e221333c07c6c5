package costofliving

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"bnb-living-costs/config"
	"bnb-living-costs/models"
	"bnb-living-costs/utils"
)

// goodIDs maps the provider's good ids to indicator columns.
var goodIDs = map[int]string{
	1:  "sqrtm_suburbs",
	2:  "sqrtm_center",
	14: "beer",
	28: "rent_onebed_suburbs",
	29: "rent_onebed_center",
	30: "rent_threebed_suburbs",
	31: "rent_threebed_center",
	36: "mcmeal",
	40: "salary_after_tax",
	54: "utilities",
}

type pricesResponse struct {
	Prices []struct {
		GoodID int     `json:"good_id"`
		Avg    float64 `json:"avg"`
	} `json:"prices"`
}

// Sink receives every successfully fetched record.
type Sink interface {
	SaveIndicator(rec *models.IndicatorRecord) error
}

// Client fetches cost-of-living indicators from the prices API.
type Client struct {
	endpoint string
	apiKey   string
	apiHost  string

	http   *http.Client
	logger *utils.Logger
	pool   *utils.WorkerPool
	retry  *utils.RetryConfig
}

// New creates a ready-to-use Client.
func New(cfg *config.Config, logger *utils.Logger) *Client {
	return &Client{
		endpoint: cfg.RapidAPIURL,
		apiKey:   cfg.RapidAPIKey,
		apiHost:  cfg.RapidAPIHost,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
		pool:     utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// FetchAll fetches every registered city concurrently and hands each record to
// sink. All cities are attempted; the returned error joins every failure.
func (c *Client) FetchAll(ctx context.Context, registry *config.Registry, sink Sink) error {
	c.logger.Info("[costofliving] Fetching indicators for %d cities", registry.Len())

	var mu sync.Mutex
	var errs []error
	done := utils.NewKeySet()

	for _, city := range registry.Cities() {
		city := city
		c.pool.Submit(func() {
			rec, err := c.Fetch(ctx, city)
			if err == nil {
				err = sink.SaveIndicator(rec)
			}
			if err != nil {
				c.logger.Error("[costofliving] %s: %v", city.Name, err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", city.Name, err))
				mu.Unlock()
				return
			}
			done.Add(city.Name)
			c.logger.Debug("[costofliving] %s saved", city.Name)
		})
	}
	c.pool.Wait()

	c.logger.Info("[costofliving] Fetched %d/%d cities", done.Size(), registry.Len())
	return errors.Join(errs...)
}

// Fetch retrieves one city's indicators. Indicators the provider does not
// report are left unset.
func (c *Client) Fetch(ctx context.Context, city config.City) (*models.IndicatorRecord, error) {
	var resp pricesResponse
	err := c.retry.Do(ctx, "prices-"+city.Name, func() error {
		var attempt pricesResponse
		if err := c.get(ctx, city, &attempt); err != nil {
			return err
		}
		resp = attempt
		return nil
	})
	if err != nil {
		return nil, err
	}

	rec := &models.IndicatorRecord{City: city.Name, Country: city.Country}
	for _, p := range resp.Prices {
		if col, ok := goodIDs[p.GoodID]; ok {
			rec.Set(col, p.Avg)
		}
	}
	return rec, nil
}

func (c *Client) get(ctx context.Context, city config.City, out *pricesResponse) error {
	q := url.Values{}
	q.Set("city_name", city.Name)
	q.Set("country_name", city.Country)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.apiHost)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", res.StatusCode, body)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
