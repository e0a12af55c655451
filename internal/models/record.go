package models

import (
	"time"
)

// PriceType classifies which purchase mode a resolved price belongs to.
type PriceType string

const (
	PriceTypeOneTime      PriceType = "one_time"
	PriceTypeSubscription PriceType = "subscription"
)

// ExtractionStatus describes how complete a scrape attempt was.
type ExtractionStatus string

const (
	StatusSuccess ExtractionStatus = "success"
	StatusPartial ExtractionStatus = "partial"
	StatusFailed  ExtractionStatus = "failed"
)

// ProductRecord is the result of one scrape attempt. It is assembled once by
// the extractor and never mutated afterwards.
type ProductRecord struct {
	URL       string           `json:"url"`
	Title     string           `json:"title,omitempty"`
	Price     string           `json:"price,omitempty"`
	PriceType PriceType        `json:"price_type,omitempty"`
	Status    ExtractionStatus `json:"extraction_status"`
	Success   bool             `json:"success"`
	Timestamp time.Time        `json:"timestamp"`
	Error     string           `json:"error,omitempty"`
}

// NewFailedRecord captures a per-item failure so a batch can continue.
func NewFailedRecord(url string, err error) ProductRecord {
	rec := ProductRecord{
		URL:       url,
		Status:    StatusFailed,
		Timestamp: time.Now(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}
