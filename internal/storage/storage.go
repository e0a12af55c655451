package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pricehound/amazon-uk-scraper/internal/models"
)

const timestampLayout = "2006-01-02 15:04:05"

var csvHeader = []string{
	"index", "url", "title", "price", "price_type",
	"success", "timestamp", "error", "extraction_status",
}

// ResultStore persists batch results as CSV. Checkpoint rewrites the whole
// file each time so a crash mid-batch leaves the last complete checkpoint on
// disk, never a torn row.
type ResultStore struct {
	path   string
	logger *slog.Logger
}

func NewResultStore(path string, logger *slog.Logger) *ResultStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultStore{
		path:   path,
		logger: logger.With("component", "result_store"),
	}
}

func (s *ResultStore) Path() string {
	return s.path
}

// Checkpoint writes all records collected so far. The write goes through a
// temp file and an atomic rename.
func (s *ResultStore) Checkpoint(records []models.ProductRecord) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, rec := range records {
		row := []string{
			strconv.Itoa(i + 1),
			rec.URL,
			rec.Title,
			rec.Price,
			string(rec.PriceType),
			strconv.FormatBool(rec.Success),
			rec.Timestamp.Format(timestampLayout),
			rec.Error,
			string(rec.Status),
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("failed to write record %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush checkpoint: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	s.logger.Debug("checkpoint written", "path", s.path, "records", len(records))
	return nil
}

// WriteJSON persists a single record, for single-product runs.
func WriteJSON(path string, rec models.ProductRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace record file: %w", err)
	}
	return nil
}
