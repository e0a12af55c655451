package scraper

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pricehound/amazon-uk-scraper/internal/browser"
	"github.com/pricehound/amazon-uk-scraper/internal/models"
	"github.com/pricehound/amazon-uk-scraper/internal/pricing"
)

// titleSelectors cover the known product-title variants, first non-empty
// match wins.
var titleSelectors = []string{
	"#productTitle",
	"h1#title",
	"h1.product-title",
	"span#productTitle",
}

// Extractor assembles a ProductRecord from a loaded product page. Selector
// and DOM failures never escalate past it: a failing candidate is an absent
// candidate.
type Extractor struct {
	page         browser.Page
	resolver     *pricing.Resolver
	subscription *SubscriptionSelector
	logger       *slog.Logger
}

func NewExtractor(page browser.Page, resolver *pricing.Resolver, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		page:         page,
		resolver:     resolver,
		subscription: NewSubscriptionSelector(page, logger),
		logger:       logger.With("component", "extractor"),
	}
}

// Extract reads title and price for the currently loaded page. The
// subscription option is attempted first because the displayed price depends
// on the active purchase mode.
func (e *Extractor) Extract(ctx context.Context, url string) models.ProductRecord {
	rec := models.ProductRecord{
		URL:       url,
		Timestamp: time.Now(),
	}

	rec.Title = e.extractTitle()

	subscribed := e.subscription.Activate(ctx)

	html, err := e.page.Content()
	if err != nil {
		e.logger.Warn("failed to read page content", "error", err)
	}

	if html != "" {
		if subscribed {
			if c, ok := e.resolver.Resolve(html, pricing.ModeSubscription); ok {
				rec.Price = c.RawText
				rec.PriceType = models.PriceTypeSubscription
			}
		}
		if rec.Price == "" {
			if c, ok := e.resolver.Resolve(html, pricing.ModeOneTime); ok {
				rec.Price = c.RawText
				rec.PriceType = models.PriceTypeOneTime
			}
		}
	}

	if rec.Title != "" && rec.Price != "" {
		rec.Status = models.StatusSuccess
		rec.Success = true
	} else {
		rec.Status = models.StatusPartial
	}

	e.logger.Info("extraction completed",
		"url", url,
		"hasTitle", rec.Title != "",
		"price", rec.Price,
		"priceType", rec.PriceType,
		"status", rec.Status,
	)
	return rec
}

func (e *Extractor) extractTitle() string {
	for _, selector := range titleSelectors {
		el, err := e.page.QuerySelector(selector)
		if err != nil || el == nil {
			continue
		}
		text, err := el.InnerText()
		if err != nil {
			e.logger.Warn("failed to read title", "selector", selector, "error", err)
			continue
		}
		if title := strings.TrimSpace(text); title != "" {
			return title
		}
	}
	e.logger.Warn("product title not found")
	return ""
}
