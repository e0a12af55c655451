package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pricehound/amazon-uk-scraper/internal/models"
)

const EventProductRecordScraped = "PRODUCT_RECORD_SCRAPED"

// RecordEvent is the wire payload published for every scraped record.
type RecordEvent struct {
	EventID   string                  `json:"event_id"`
	EventType string                  `json:"event_type"`
	Timestamp time.Time               `json:"timestamp"`
	RunID     string                  `json:"run_id"`
	URL       string                  `json:"url"`
	Title     string                  `json:"title,omitempty"`
	Price     string                  `json:"price,omitempty"`
	PriceType models.PriceType        `json:"price_type,omitempty"`
	Status    models.ExtractionStatus `json:"status"`
	Success   bool                    `json:"success"`
}

// Publisher emits scraped records onto a Redis stream so downstream
// consumers (price history, alerting) can react without polling the CSV.
type Publisher struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewPublisher(client *redis.Client, stream string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		client: client,
		stream: stream,
		logger: logger.With("component", "event_publisher"),
	}
}

func (p *Publisher) PublishRecord(ctx context.Context, runID string, rec models.ProductRecord) error {
	event := RecordEvent{
		EventID:   uuid.New().String(),
		EventType: EventProductRecordScraped,
		Timestamp: time.Now(),
		RunID:     runID,
		URL:       rec.URL,
		Title:     rec.Title,
		Price:     rec.Price,
		PriceType: rec.PriceType,
		Status:    rec.Status,
		Success:   rec.Success,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"event_type": event.EventType,
			"event_id":   event.EventID,
			"url":        event.URL,
			"payload":    string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}

	p.logger.Debug("record event published", "event_id", event.EventID, "url", event.URL)
	return nil
}
