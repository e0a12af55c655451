package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/pricehound/amazon-uk-scraper/internal/database"
	"github.com/pricehound/amazon-uk-scraper/internal/events"
	"github.com/pricehound/amazon-uk-scraper/internal/input"
	"github.com/pricehound/amazon-uk-scraper/internal/scraper"
)

type Handlers struct {
	scraper *scraper.Service
	logger  *slog.Logger

	// One browser session serves all requests; scrapes are serialized.
	mu sync.Mutex

	// Optional sinks, nil when not configured.
	Records *database.RecordStore
	Events  *events.Publisher
}

func NewHandlers(scraper *scraper.Service, logger *slog.Logger) *Handlers {
	return &Handlers{
		scraper: scraper,
		logger:  logger,
	}
}

// ScrapeRequest identifies the product to scrape, by full URL or bare ASIN.
type ScrapeRequest struct {
	URL  string `json:"url"`
	ASIN string `json:"asin"`
}

// ScrapeProduct handles on-demand single-product scrape requests.
func (h *Handlers) ScrapeProduct(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target := req.URL
	if target == "" {
		target = req.ASIN
	}
	if target == "" {
		h.respondError(w, http.StatusBadRequest, "either url or asin is required")
		return
	}
	url := input.CanonicalURL(target)
	if !strings.HasPrefix(url, "http") {
		h.respondError(w, http.StatusBadRequest, "invalid product url")
		return
	}

	h.mu.Lock()
	rec, err := h.scraper.ScrapeProduct(r.Context(), url)
	h.mu.Unlock()
	if err != nil {
		h.logger.Error("scrape request failed", "url", url, "error", err)
	}

	if h.Records != nil {
		if dbErr := h.Records.Save(r.Context(), "api", rec); dbErr != nil {
			h.logger.Warn("failed to save record to database", "url", url, "error", dbErr)
		}
	}
	if h.Events != nil {
		if evErr := h.Events.PublishRecord(r.Context(), "api", rec); evErr != nil {
			h.logger.Warn("failed to publish record event", "url", url, "error", evErr)
		}
	}

	// The record carries the failure details; the HTTP layer succeeded.
	h.respondJSON(w, http.StatusOK, rec)
}

// RecentRecords returns the newest persisted records. Available only when a
// database is configured.
func (h *Handlers) RecentRecords(w http.ResponseWriter, r *http.Request) {
	if h.Records == nil {
		h.respondError(w, http.StatusNotFound, "record store not configured")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := h.Records.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to load records", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load records")
		return
	}
	h.respondJSON(w, http.StatusOK, records)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
