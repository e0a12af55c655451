package batch

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pricehound/amazon-uk-scraper/internal/models"
	"github.com/pricehound/amazon-uk-scraper/internal/storage"
)

// ProductScraper is the one operation the orchestrator needs from the
// scraping layer.
type ProductScraper interface {
	ScrapeProduct(ctx context.Context, url string) (models.ProductRecord, error)
}

// RecordSink persists scraped records beyond the checkpoint file, keyed by
// the batch run. database.RecordStore satisfies it.
type RecordSink interface {
	Save(ctx context.Context, runID string, rec models.ProductRecord) error
}

// EventSink announces completed records to downstream consumers.
// events.Publisher satisfies it.
type EventSink interface {
	PublishRecord(ctx context.Context, runID string, rec models.ProductRecord) error
}

// Summary reports the outcome of a batch run.
type Summary struct {
	RunID   string `json:"run_id"`
	Total   int    `json:"total"`
	Success int    `json:"success"`
	Partial int    `json:"partial"`
	Failed  int    `json:"failed"`
}

// Orchestrator processes URLs strictly in order through one shared session,
// checkpointing the result file after every item so an interrupted run loses
// at most the item in flight.
type Orchestrator struct {
	scraper ProductScraper
	store   *storage.ResultStore
	logger  *slog.Logger

	// Optional sinks; nil means disabled. Sink failures are logged, never
	// fatal: the CSV checkpoint is the source of truth.
	DB     RecordSink
	Events EventSink
}

func NewOrchestrator(scraper ProductScraper, store *storage.ResultStore, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		scraper: scraper,
		store:   store,
		logger:  logger.With("component", "batch"),
	}
}

// Run scrapes every URL sequentially. A per-item failure becomes a failed
// record and the batch continues; only context cancellation stops the run
// early. The records collected so far are persisted either way.
func (o *Orchestrator) Run(ctx context.Context, urls []string) (Summary, error) {
	runID := uuid.New().String()
	o.logger.Info("batch started", "run_id", runID, "total", len(urls))

	records := make([]models.ProductRecord, 0, len(urls))
	for i, url := range urls {
		if err := ctx.Err(); err != nil {
			o.logger.Warn("batch cancelled", "run_id", runID, "completed", len(records))
			return o.finish(runID, records), err
		}

		o.logger.Info("scraping product", "run_id", runID, "index", i+1, "total", len(urls), "url", url)

		rec, err := o.scraper.ScrapeProduct(ctx, url)
		if err != nil {
			o.logger.Error("product scrape failed", "run_id", runID, "url", url, "error", err)
			rec = models.NewFailedRecord(url, err)
		}
		records = append(records, rec)

		if err := o.store.Checkpoint(records); err != nil {
			o.logger.Error("checkpoint failed", "run_id", runID, "error", err)
		}
		o.publish(ctx, runID, rec)
	}

	summary := o.finish(runID, records)
	o.logger.Info("batch completed",
		"run_id", runID,
		"total", summary.Total,
		"success", summary.Success,
		"partial", summary.Partial,
		"failed", summary.Failed,
		"output", o.store.Path(),
	)
	return summary, nil
}

func (o *Orchestrator) publish(ctx context.Context, runID string, rec models.ProductRecord) {
	if o.DB != nil {
		if err := o.DB.Save(ctx, runID, rec); err != nil {
			o.logger.Warn("failed to save record to database", "url", rec.URL, "error", err)
		}
	}
	if o.Events != nil {
		if err := o.Events.PublishRecord(ctx, runID, rec); err != nil {
			o.logger.Warn("failed to publish record event", "url", rec.URL, "error", err)
		}
	}
}

func (o *Orchestrator) finish(runID string, records []models.ProductRecord) Summary {
	summary := Summary{RunID: runID, Total: len(records)}
	for _, rec := range records {
		switch rec.Status {
		case models.StatusSuccess:
			summary.Success++
		case models.StatusPartial:
			summary.Partial++
		default:
			summary.Failed++
		}
	}
	return summary
}
