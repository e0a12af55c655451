package pricing

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// Mode scopes resolution to the purchase mode currently active on the page.
type Mode string

const (
	ModeOneTime      Mode = "one_time"
	ModeSubscription Mode = "subscription"
)

// Candidate is one price-bearing element considered during resolution.
// UnitPrice and Visible are diagnostic classifications: per-unit candidates
// never win, and Visible distinguishes rendered text from the machine-readable
// a-offscreen copies the site keeps alongside it.
type Candidate struct {
	RawText        string
	Value          decimal.Decimal
	SourceSelector string
	ContainerClass string
	UnitPrice      bool
	Visible        bool
}

// Rule is one entry in the priority table: a structural selector plus an
// optional extra rejection predicate. Order in the table is priority order.
type Rule struct {
	Selector string
	Reject   func(text string) bool
}

// subscriptionRules target the subscribe-and-save widget variants. Most
// products lack the widget entirely, so a miss here is routine.
var subscriptionRules = []Rule{
	{Selector: "#sns-base .a-price .a-offscreen"},
	{Selector: "#snsAccordionRowMiddle .a-price .a-offscreen"},
	{Selector: "#subscriptionAccordion .a-price .a-offscreen"},
	{Selector: "div[data-feature-name='subscribeAndSave'] .a-price .a-offscreen"},
	{Selector: "#sns-tiered-price .a-price .a-offscreen"},
	{Selector: ".sns-price .a-offscreen"},
	{Selector: "#sns-base-price"},
}

// oneTimeRules cover the buy-box price containers, most reliable first. The
// a-text-price (struck-through list price) and per-unit containers are left
// out on purpose; the scan pass picks up anything these miss.
var oneTimeRules = []Rule{
	{Selector: "#corePriceDisplay_desktop_feature_div .reinventPricePriceToPayMargin .a-offscreen"},
	{Selector: "span.a-price.reinventPricePriceToPayMargin span.a-offscreen"},
	{Selector: "#corePrice_feature_div .a-price:not(.a-text-price) .a-offscreen"},
	{Selector: ".a-price[data-a-size='xl'] .a-offscreen"},
	{Selector: ".a-price[data-a-size='l'] .a-offscreen"},
	{Selector: "#corePriceDisplay_desktop_feature_div .a-price .a-offscreen"},
	{Selector: "#price_inside_buybox"},
	{Selector: "#priceblock_ourprice"},
	{Selector: "#priceblock_dealprice"},
}

// unitSuffixPatterns recognize per-unit price text such as "£3.24/100g",
// "£1.20/kg" or "£0.50 per wash".
var unitSuffixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/\s*\d*\s*(g|kg|ml|l|litre|liter|oz|lb)\b`),
	regexp.MustCompile(`(?i)/\s*(count|each|item|unit|wash|sheet|tablet|capsule|dose|serving)\b`),
	regexp.MustCompile(`(?i)\bper\s+\d*\s*(g|kg|ml|l|litre|liter|count|each|item|unit|wash|sheet|tablet|capsule)\b`),
}

// unitClassMarkers are the container class families used for per-unit prices.
var unitClassMarkers = []string{
	"pricePerUnit",
	"price-per-unit",
	"a-price-per-unit",
	"unitPrice",
	"unit-price",
	"basisPrice",
}

// IsUnitPriceText reports whether display text carries a per-unit marker.
func IsUnitPriceText(text string) bool {
	for _, p := range unitSuffixPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// IsUnitPriceClass reports whether a container class list carries a known
// per-unit class marker.
func IsUnitPriceClass(class string) bool {
	lower := strings.ToLower(class)
	for _, marker := range unitClassMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// Resolver picks the one price that reflects what the buyer actually pays in
// the current purchase mode. Phase one walks a priority table of structural
// selectors (first surviving match wins); phase two, used only for the
// one-time mode, scans every price-bearing element and takes the numerically
// highest plausible non-unit candidate, since decoy and per-unit fragments
// run smaller than the true line price.
type Resolver struct {
	logger       *slog.Logger
	minPlausible decimal.Decimal
}

func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		logger:       logger.With("component", "price_resolver"),
		minPlausible: decimal.NewFromInt(1),
	}
}

// Resolve returns the winning candidate for the given rendered page HTML, or
// false if nothing survives. Subscription mode never falls through to the
// scan pass: the scan cannot tell purchase modes apart, and a missed
// subscription price must surface as "absent" so the caller can re-resolve
// in one-time mode.
func (r *Resolver) Resolve(html string, mode Mode) (*Candidate, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		r.logger.Error("failed to parse page html", "error", err)
		return nil, false
	}

	rules := oneTimeRules
	if mode == ModeSubscription {
		rules = subscriptionRules
	}

	if c, ok := r.resolveOrdered(doc, rules); ok {
		r.logger.Debug("price resolved by priority table",
			"selector", c.SourceSelector, "price", c.RawText, "mode", mode)
		return c, true
	}

	if mode == ModeSubscription {
		return nil, false
	}

	if c, ok := r.resolveScan(doc); ok {
		r.logger.Debug("price resolved by scan fallback", "price", c.RawText)
		return c, true
	}

	return nil, false
}

func (r *Resolver) resolveOrdered(doc *goquery.Document, rules []Rule) (*Candidate, bool) {
	for _, rule := range rules {
		var winner *Candidate
		doc.Find(rule.Selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			text := normalizeWhitespace(sel.Text())
			if text == "" || !HasCurrencyMarker(text) {
				return true
			}
			class := containerClass(sel)
			if IsUnitPriceText(text) || IsUnitPriceClass(class) {
				r.logger.Debug("unit price rejected", "selector", rule.Selector, "text", text)
				return true
			}
			if rule.Reject != nil && rule.Reject(text) {
				return true
			}

			amount, err := ParseAmount(text)
			if err != nil {
				return true
			}
			winner = &Candidate{
				RawText:        text,
				Value:          amount.Value,
				SourceSelector: rule.Selector,
				ContainerClass: class,
			}
			return false
		})
		if winner != nil {
			return winner, true
		}
	}
	return nil, false
}

// resolveScan collects every price-bearing element, filters unit prices and
// sub-plausible fragments, and keeps the highest value.
func (r *Resolver) resolveScan(doc *goquery.Document) (*Candidate, bool) {
	var best *Candidate

	consider := func(text, class, selector string) {
		text = normalizeWhitespace(text)
		if text == "" || !HasCurrencyMarker(text) {
			return
		}
		if IsUnitPriceText(text) || IsUnitPriceClass(class) {
			r.logger.Debug("unit price rejected", "selector", selector, "text", text)
			return
		}
		amount, err := ParseAmount(text)
		if err != nil {
			return
		}
		if !amount.Value.GreaterThan(r.minPlausible) {
			return
		}
		if best == nil || amount.Value.GreaterThan(best.Value) {
			best = &Candidate{
				RawText:        text,
				Value:          amount.Value,
				SourceSelector: selector,
				ContainerClass: class,
			}
		}
	}

	doc.Find(".a-price").Each(func(_ int, sel *goquery.Selection) {
		text := sel.Find(".a-offscreen").First().Text()
		if strings.TrimSpace(text) == "" {
			text = sel.Text()
		}
		consider(text, containerClass(sel), ".a-price")
	})

	// Legacy buy-box containers predate the a-price markup.
	doc.Find("#price_inside_buybox, #priceblock_ourprice, #priceblock_dealprice").Each(func(_ int, sel *goquery.Selection) {
		consider(sel.Text(), containerClass(sel), "legacy")
	})

	if best == nil {
		return nil, false
	}
	return best, true
}

// Candidates lists every price-bearing element on the page with its unit-price
// classification, for diagnostics. Resolution order is not implied.
func (r *Resolver) Candidates(html string) []Candidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var out []Candidate
	doc.Find(".a-price").Each(func(_ int, sel *goquery.Selection) {
		text := sel.Find(".a-offscreen").First().Text()
		visible := strings.TrimSpace(text) == ""
		if visible {
			text = sel.Text()
		}
		text = normalizeWhitespace(text)
		amount, err := ParseAmount(text)
		if err != nil {
			return
		}
		class := containerClass(sel)
		out = append(out, Candidate{
			RawText:        text,
			Value:          amount.Value,
			SourceSelector: ".a-price",
			ContainerClass: class,
			UnitPrice:      IsUnitPriceText(text) || IsUnitPriceClass(class),
			Visible:        visible,
		})
	})
	return out
}

// containerClass joins the class lists of the element and its two enclosing
// containers; the per-unit class marker usually sits on the wrapping a-price
// span rather than the text node itself.
func containerClass(sel *goquery.Selection) string {
	classes := []string{sel.AttrOr("class", "")}
	parent := sel.Parent()
	for i := 0; i < 2 && parent.Length() > 0; i++ {
		classes = append(classes, parent.AttrOr("class", ""))
		parent = parent.Parent()
	}
	return strings.TrimSpace(strings.Join(classes, " "))
}
