package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/pricehound/amazon-uk-scraper/internal/browser"
)

// subscriptionToggles are the known variants of the recurring-purchase
// control, most common first. Radio inputs come before their expander links
// so an already-selected state can be detected without clicking.
var subscriptionToggles = []string{
	"#snsAccordionRowMiddle input[type='radio']",
	"#subscriptionAccordion input[type='radio']",
	"div[data-csa-c-content-id='snsAccordionRowMiddle'] input[type='radio']",
	"a[href='#subscriptionAccordion']",
	"#rcxsubsToggle",
	"button[aria-controls='subscriptionAccordion']",
	"label[for='snsAccordionRowMiddle']",
}

// SubscriptionSelector activates the recurring-purchase option when the page
// offers one. The displayed price updates asynchronously after the click with
// no completion signal, so a fixed settle delay is the only contract.
type SubscriptionSelector struct {
	page   browser.Page
	logger *slog.Logger
	Settle time.Duration
}

func NewSubscriptionSelector(page browser.Page, logger *slog.Logger) *SubscriptionSelector {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubscriptionSelector{
		page:   page,
		logger: logger.With("component", "subscription_selector"),
		Settle: time.Second,
	}
}

// Activate returns true when the subscription option is (or becomes) the
// selected purchase mode. Absence of the widget is routine, not an error:
// most products have no subscription offer.
func (s *SubscriptionSelector) Activate(ctx context.Context) bool {
	for _, selector := range subscriptionToggles {
		if ctx.Err() != nil {
			return false
		}

		el, err := s.page.QuerySelector(selector)
		if err != nil || el == nil {
			continue
		}

		// IsChecked errors on non-input variants; treat those as unselected.
		if checked, err := el.IsChecked(); err == nil && checked {
			s.logger.Debug("subscription already selected", "selector", selector)
			return true
		}

		if err := el.Click(); err != nil {
			s.logger.Warn("failed to click subscription control", "selector", selector, "error", err)
			continue
		}

		s.logger.Info("subscription option activated", "selector", selector)
		if err := browser.Sleep(ctx, s.Settle); err != nil {
			return false
		}
		return true
	}

	s.logger.Debug("no subscription option on page")
	return false
}
