package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricehound/amazon-uk-scraper/internal/models"
	"github.com/pricehound/amazon-uk-scraper/internal/storage"
)

type stubScraper struct {
	fail    map[string]error
	calls   []string
	onCall  func(call int)
	partial map[string]bool
}

func (s *stubScraper) ScrapeProduct(_ context.Context, url string) (models.ProductRecord, error) {
	call := len(s.calls)
	s.calls = append(s.calls, url)
	if s.onCall != nil {
		s.onCall(call)
	}
	if err := s.fail[url]; err != nil {
		return models.NewFailedRecord(url, err), err
	}
	rec := models.ProductRecord{
		URL:       url,
		Title:     "Product",
		Price:     "£9.99",
		PriceType: models.PriceTypeOneTime,
		Status:    models.StatusSuccess,
		Success:   true,
		Timestamp: time.Now(),
	}
	if s.partial[url] {
		rec.Price = ""
		rec.Status = models.StatusPartial
		rec.Success = false
	}
	return rec, nil
}

type stubRecordSink struct {
	saved  []models.ProductRecord
	runIDs []string
	err    error
}

func (s *stubRecordSink) Save(_ context.Context, runID string, rec models.ProductRecord) error {
	s.runIDs = append(s.runIDs, runID)
	s.saved = append(s.saved, rec)
	return s.err
}

type stubEventSink struct {
	published []models.ProductRecord
	err       error
}

func (s *stubEventSink) PublishRecord(_ context.Context, _ string, rec models.ProductRecord) error {
	s.published = append(s.published, rec)
	return s.err
}

func countRows(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return len(rows)
}

func TestRunProcessesAllURLsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	scraper := &stubScraper{}
	o := NewOrchestrator(scraper, storage.NewResultStore(path, nil), nil)

	urls := []string{"https://a", "https://b", "https://c"}
	summary, err := o.Run(context.Background(), urls)
	require.NoError(t, err)

	assert.Equal(t, urls, scraper.calls)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Success)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 4, countRows(t, path))
}

func TestRunContinuesPastFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	scraper := &stubScraper{
		fail:    map[string]error{"https://b": errors.New("navigation timeout")},
		partial: map[string]bool{"https://c": true},
	}
	o := NewOrchestrator(scraper, storage.NewResultStore(path, nil), nil)

	summary, err := o.Run(context.Background(), []string{"https://a", "https://b", "https://c"})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Success)
	assert.Equal(t, 1, summary.Partial)
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, scraper.calls, 3, "a failed item must not stop the batch")
}

func TestRunCheckpointsAfterEveryItem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	scraper := &stubScraper{}

	// During call k (0-based), the file must hold exactly k completed records.
	scraper.onCall = func(call int) {
		if call == 0 {
			_, err := os.Stat(path)
			assert.True(t, os.IsNotExist(err))
			return
		}
		assert.Equal(t, call+1, countRows(t, path), "header plus one row per completed item")
	}

	o := NewOrchestrator(scraper, storage.NewResultStore(path, nil), nil)
	_, err := o.Run(context.Background(), []string{"https://a", "https://b", "https://c"})
	require.NoError(t, err)
}

func TestRunFeedsEveryRecordToSinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	scraper := &stubScraper{
		fail: map[string]error{"https://b": errors.New("navigation timeout")},
	}
	db := &stubRecordSink{}
	ev := &stubEventSink{}

	o := NewOrchestrator(scraper, storage.NewResultStore(path, nil), nil)
	o.DB = db
	o.Events = ev

	summary, err := o.Run(context.Background(), []string{"https://a", "https://b"})
	require.NoError(t, err)

	// Every record reaches both sinks, failed ones included, tagged with the
	// batch run ID.
	require.Len(t, db.saved, 2)
	require.Len(t, ev.published, 2)
	assert.Equal(t, []string{summary.RunID, summary.RunID}, db.runIDs)
	assert.Equal(t, models.StatusFailed, db.saved[1].Status)
}

func TestRunSinkFailuresAreNotFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	db := &stubRecordSink{err: errors.New("connection reset")}
	ev := &stubEventSink{err: errors.New("stream full")}

	o := NewOrchestrator(&stubScraper{}, storage.NewResultStore(path, nil), nil)
	o.DB = db
	o.Events = ev

	summary, err := o.Run(context.Background(), []string{"https://a", "https://b"})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Success)
	assert.Equal(t, 3, countRows(t, path), "checkpoint unaffected by sink errors")
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	ctx, cancel := context.WithCancel(context.Background())

	scraper := &stubScraper{}
	scraper.onCall = func(call int) {
		if call == 1 {
			cancel()
		}
	}

	o := NewOrchestrator(scraper, storage.NewResultStore(path, nil), nil)
	summary, err := o.Run(ctx, []string{"https://a", "https://b", "https://c"})

	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, scraper.calls, 2, "item in flight finishes, the rest are skipped")
	assert.Equal(t, 2, summary.Total)
}
