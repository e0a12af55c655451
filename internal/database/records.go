package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pricehound/amazon-uk-scraper/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS product_records (
	id BIGSERIAL PRIMARY KEY,
	run_id TEXT NOT NULL,
	url TEXT NOT NULL,
	title TEXT,
	price TEXT,
	price_type TEXT,
	status TEXT NOT NULL,
	success BOOLEAN NOT NULL DEFAULT FALSE,
	error TEXT,
	scraped_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_product_records_run_id ON product_records (run_id);
CREATE INDEX IF NOT EXISTS idx_product_records_url ON product_records (url);
`

// RecordStore persists scrape results to PostgreSQL. It is an optional sink:
// batches run identically without it.
type RecordStore struct {
	db     *DB
	logger *slog.Logger
}

func NewRecordStore(db *DB, logger *slog.Logger) *RecordStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordStore{db: db, logger: logger.With("component", "record_store")}
}

func (s *RecordStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

func (s *RecordStore) Save(ctx context.Context, runID string, rec models.ProductRecord) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO product_records
			(run_id, url, title, price, price_type, status, success, error, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		runID, rec.URL, rec.Title, rec.Price, string(rec.PriceType),
		string(rec.Status), rec.Success, rec.Error, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// Recent returns the newest records, most recent first.
func (s *RecordStore) Recent(ctx context.Context, limit int) ([]models.ProductRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Pool.Query(ctx, `
		SELECT url, title, price, price_type, status, success, error, scraped_at
		FROM product_records
		ORDER BY scraped_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []models.ProductRecord
	for rows.Next() {
		var rec models.ProductRecord
		var priceType, status string
		if err := rows.Scan(&rec.URL, &rec.Title, &rec.Price, &priceType,
			&status, &rec.Success, &rec.Error, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.PriceType = models.PriceType(priceType)
		rec.Status = models.ExtractionStatus(status)
		records = append(records, rec)
	}
	return records, rows.Err()
}
