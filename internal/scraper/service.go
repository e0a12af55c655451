package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pricehound/amazon-uk-scraper/internal/browser"
	"github.com/pricehound/amazon-uk-scraper/internal/config"
	"github.com/pricehound/amazon-uk-scraper/internal/location"
	"github.com/pricehound/amazon-uk-scraper/internal/models"
	"github.com/pricehound/amazon-uk-scraper/internal/pricing"
)

const productReadySelector = "#productTitle"

// Service scrapes products through one shared browser session. The delivery
// location is set once per session and every subsequent scrape reuses it;
// page operations never run concurrently against the session.
type Service struct {
	session  *browser.Session
	cfg      config.SessionConfig
	resolver *pricing.Resolver
	logger   *slog.Logger

	page          browser.Page
	locationReady bool

	// ProductWait bounds how long a navigated page may take to show the
	// product title before the navigation counts as failed.
	ProductWait time.Duration
}

func NewService(session *browser.Session, cfg config.SessionConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		session:     session,
		cfg:         cfg,
		resolver:    pricing.NewResolver(logger),
		logger:      logger.With("component", "scraper"),
		ProductWait: 15 * time.Second,
	}
}

// ScrapeProduct navigates to url and extracts a ProductRecord. A failed
// location change is fatal: no price is trustworthy without a verified
// delivery region. The returned record is always populated, also on error,
// so batch callers can persist the failure.
func (s *Service) ScrapeProduct(ctx context.Context, url string) (models.ProductRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.NewFailedRecord(url, err), err
	}

	if err := s.ensureLocation(ctx); err != nil {
		err = fmt.Errorf("%w: %v", ErrLocationFailed, err)
		return models.NewFailedRecord(url, err), err
	}

	if err := s.navigateToProduct(url); err != nil {
		err = fmt.Errorf("%w: %v", ErrNavigationFailed, err)
		return models.NewFailedRecord(url, err), err
	}

	extractor := NewExtractor(s.page, s.resolver, s.logger)
	rec := extractor.Extract(ctx, url)

	if err := s.session.SaveCookies(); err != nil {
		s.logger.Warn("failed to save cookies", "error", err)
	}

	return rec, nil
}

// ensureLocation runs the location state machine once per session lifetime.
func (s *Service) ensureLocation(ctx context.Context) error {
	if s.locationReady {
		return nil
	}

	if err := s.ensurePage(); err != nil {
		return err
	}

	setter := location.NewSetter(s.page, s.logger)
	if err := setter.Apply(ctx, s.cfg.BaseURL, s.cfg.Postcode); err != nil {
		return err
	}
	if setter.State() != location.StateVerified {
		return fmt.Errorf("location flow ended in state %q", setter.State())
	}

	s.locationReady = true
	return nil
}

func (s *Service) ensurePage() error {
	if s.page != nil {
		return nil
	}
	page, err := s.session.NewPage()
	if err != nil {
		return err
	}
	s.page = page
	return nil
}

func (s *Service) navigateToProduct(url string) error {
	s.logger.Info("navigating to product", "url", url)

	if err := s.page.Navigate(url); err != nil {
		s.snapshot("error_product_page")
		return err
	}
	if _, err := s.page.WaitForSelector(productReadySelector, s.ProductWait); err != nil {
		s.snapshot("error_product_page")
		return fmt.Errorf("product title did not appear: %v", err)
	}

	s.snapshot("06_product_page")
	return nil
}

func (s *Service) snapshot(name string) {
	if s.page == nil {
		return
	}
	if err := s.page.Screenshot(name); err != nil {
		s.logger.Warn("failed to capture snapshot", "name", name, "error", err)
	}
}

// Close releases the service's page. The session itself is owned and closed
// by the caller.
func (s *Service) Close() error {
	if s.page == nil {
		return nil
	}
	err := s.page.Close()
	s.page = nil
	s.locationReady = false
	return err
}
