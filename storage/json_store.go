package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"bnb-living-costs/models"
)

// JSONStore reads the raw per-city dumps: <listingsDir>/<City>.json holds an
// array of search-result records, <indicatorsDir>/<City>.json one flat record.
type JSONStore struct {
	listingsDir   string
	indicatorsDir string
}

func NewJSONStore(listingsDir, indicatorsDir string) *JSONStore {
	return &JSONStore{listingsDir: listingsDir, indicatorsDir: indicatorsDir}
}

// LoadListings decodes the listing dump of city.
func (s *JSONStore) LoadListings(_ context.Context, city string) ([]*models.RawListing, error) {
	var records []*models.RawListing
	if err := readJSON(filepath.Join(s.listingsDir, city+".json"), &records); err != nil {
		return nil, fmt.Errorf("listings %s: %w", city, err)
	}
	if records == nil {
		records = []*models.RawListing{}
	}
	return records, nil
}

// LoadIndicator decodes the cost-of-living record of city.
func (s *JSONStore) LoadIndicator(_ context.Context, city string) (*models.IndicatorRecord, error) {
	rec := &models.IndicatorRecord{}
	if err := readJSON(filepath.Join(s.indicatorsDir, city+".json"), rec); err != nil {
		return nil, fmt.Errorf("indicators %s: %w", city, err)
	}
	return rec, nil
}

// SaveIndicator writes rec to <indicatorsDir>/<City>.json, replacing any previous copy.
func (s *JSONStore) SaveIndicator(rec *models.IndicatorRecord) error {
	if err := os.MkdirAll(s.indicatorsDir, 0755); err != nil {
		return fmt.Errorf("json: create dir: %w", err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("json: encode %s: %w", rec.City, err)
	}

	path := filepath.Join(s.indicatorsDir, rec.City+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("json: write %q: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", models.ErrMissingCityData, path)
	}
	if err != nil {
		return fmt.Errorf("json: read %q: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json: decode %q: %w", path, err)
	}
	return nil
}
