package storage

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"bnb-living-costs/models"
)

// PostgresWriter persists pipeline runs to PostgreSQL. Every row carries the
// run id so successive runs can be compared.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id           UUID PRIMARY KEY,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			listing_count    INTEGER     NOT NULL,
			outliers_removed INTEGER     NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS listings (
			run_id       UUID         NOT NULL REFERENCES analysis_runs(run_id) ON DELETE CASCADE,
			room_id      TEXT         NOT NULL,
			city         VARCHAR(64)  NOT NULL,
			name         TEXT         NOT NULL DEFAULT '',
			title        TEXT         NOT NULL DEFAULT '',
			price        DOUBLE PRECISION NOT NULL,
			fee          DOUBLE PRECISION NOT NULL DEFAULT 0,
			stars        DOUBLE PRECISION,
			review_count DOUBLE PRECISION,
			badge        TEXT         NOT NULL DEFAULT 'None',
			PRIMARY KEY (run_id, room_id)
		);

		CREATE TABLE IF NOT EXISTS city_summaries (
			run_id       UUID        NOT NULL REFERENCES analysis_runs(run_id) ON DELETE CASCADE,
			city         VARCHAR(64) NOT NULL,
			country      VARCHAR(64) NOT NULL,
			avg_price    DOUBLE PRECISION,
			median_price DOUBLE PRECISION,
			avg_fee      DOUBLE PRECISION,
			PRIMARY KEY (run_id, city)
		);

		CREATE TABLE IF NOT EXISTS correlations (
			run_id      UUID        NOT NULL REFERENCES analysis_runs(run_id) ON DELETE CASCADE,
			granularity VARCHAR(16) NOT NULL,
			category    VARCHAR(64) NOT NULL,
			pearson     DOUBLE PRECISION,
			spearman    DOUBLE PRECISION,
			kendall     DOUBLE PRECISION,
			pairs       INTEGER     NOT NULL,
			PRIMARY KEY (run_id, granularity, category)
		);

		CREATE INDEX IF NOT EXISTS idx_listings_city  ON listings(city);
		CREATE INDEX IF NOT EXISTS idx_listings_price ON listings(price);
	`)
	return err
}

// Write stores a complete run inside one transaction.
func (pw *PostgresWriter) Write(r *models.AnalysisResult) error {
	tx, err := pw.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO analysis_runs (run_id, created_at, listing_count, outliers_removed)
		VALUES ($1, $2, $3, $4)
	`, r.RunID, r.CreatedAt, len(r.Listings), r.OutliersRemoved); err != nil {
		return fmt.Errorf("postgres: insert run: %w", err)
	}

	const batchSize = 50
	for i := 0; i < len(r.Listings); i += batchSize {
		end := min(i+batchSize, len(r.Listings))
		if err := insertListingBatch(tx, r.RunID, r.Listings[i:end]); err != nil {
			return err
		}
	}

	if err := insertSummary(tx, r.RunID, r.Summary); err != nil {
		return err
	}
	if err := insertReport(tx, r.RunID, "listing", r.ListingReport); err != nil {
		return err
	}
	if err := insertReport(tx, r.RunID, "city", r.CityReport); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func insertListingBatch(tx *sql.Tx, runID string, batch []*models.Listing) error {
	const cols = 10
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, l := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			runID, l.RoomID, l.City, l.Name, l.Title, l.Price, l.Fee,
			nullFloat(l.Stars), nullFloat(l.ReviewCount), l.Badge)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (run_id, room_id, city, name, title, price, fee, stars, review_count, badge)
		VALUES %s
		ON CONFLICT (run_id, room_id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	if _, err := tx.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert listings: %w", err)
	}
	return nil
}

func insertSummary(tx *sql.Tx, runID string, t *models.Table) error {
	cities, err := t.Text("city")
	if err != nil {
		return fmt.Errorf("postgres: summary: %w", err)
	}
	countries, err := t.Text("country")
	if err != nil {
		return fmt.Errorf("postgres: summary: %w", err)
	}
	avg, err := t.Numeric("avg_price")
	if err != nil {
		return fmt.Errorf("postgres: summary: %w", err)
	}
	med, err := t.Numeric("median_price")
	if err != nil {
		return fmt.Errorf("postgres: summary: %w", err)
	}
	fee, err := t.Numeric("avg_fee")
	if err != nil {
		return fmt.Errorf("postgres: summary: %w", err)
	}

	for i := range cities {
		if _, err := tx.Exec(`
			INSERT INTO city_summaries (run_id, city, country, avg_price, median_price, avg_fee)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, runID, cities[i], countries[i], nullFloat(avg[i]), nullFloat(med[i]), nullFloat(fee[i])); err != nil {
			return fmt.Errorf("postgres: insert summary %s: %w", cities[i], err)
		}
	}
	return nil
}

func insertReport(tx *sql.Tx, runID, granularity string, r *models.CorrelationReport) error {
	for _, row := range r.Rows {
		if _, err := tx.Exec(`
			INSERT INTO correlations (run_id, granularity, category, pearson, spearman, kendall, pairs)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, runID, granularity, row.Category,
			nullFloat(row.Pearson), nullFloat(row.Spearman), nullFloat(row.Kendall), row.Pairs); err != nil {
			return fmt.Errorf("postgres: insert %s correlation %s: %w", granularity, row.Category, err)
		}
	}
	return nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchListings retrieves the listings stored for a run.
func (pw *PostgresWriter) FetchListings(runID string) ([]*models.Listing, error) {
	rows, err := pw.db.Query(`
		SELECT room_id, city, name, title, price, fee, stars, review_count, badge
		FROM listings
		WHERE run_id = $1
		ORDER BY city, room_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch listings: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l := &models.Listing{}
		var stars, reviews sql.NullFloat64
		if err := rows.Scan(
			&l.RoomID, &l.City, &l.Name, &l.Title, &l.Price, &l.Fee, &stars, &reviews, &l.Badge,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		l.Stars = fromNull(stars)
		l.ReviewCount = fromNull(reviews)
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// nullFloat maps NaN to SQL NULL.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
