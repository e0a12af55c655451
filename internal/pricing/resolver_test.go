package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOneTimePriorityTable(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "modern buy box",
			html: `
				<div id="corePriceDisplay_desktop_feature_div">
					<span class="a-price reinventPricePriceToPayMargin">
						<span class="a-offscreen">£17.00</span>
					</span>
				</div>`,
			want: "£17.00",
		},
		{
			name: "unit price decoy loses to buy box price",
			html: `
				<span class="a-price a-size-small pricePerUnit">
					<span class="a-offscreen">£3.24</span>
				</span>
				<div id="corePriceDisplay_desktop_feature_div">
					<span class="a-price reinventPricePriceToPayMargin">
						<span class="a-offscreen">£17.00</span>
					</span>
				</div>`,
			want: "£17.00",
		},
		{
			name: "unit suffix text rejected inside matching container",
			html: `
				<div id="corePriceDisplay_desktop_feature_div">
					<span class="a-price"><span class="a-offscreen">£3.24/100g</span></span>
					<span class="a-price"><span class="a-offscreen">£17.00</span></span>
				</div>`,
			want: "£17.00",
		},
		{
			name: "struck-through list price skipped in core price block",
			html: `
				<div id="corePrice_feature_div">
					<span class="a-price a-text-price"><span class="a-offscreen">£24.99</span></span>
					<span class="a-price"><span class="a-offscreen">£19.99</span></span>
				</div>`,
			want: "£19.99",
		},
		{
			name: "legacy buy box id",
			html: `<span id="priceblock_ourprice">£12.49</span>`,
			want: "£12.49",
		},
	}

	r := NewResolver(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := r.Resolve(tt.html, ModeOneTime)
			require.True(t, ok)
			assert.Equal(t, tt.want, c.RawText)
		})
	}
}

func TestResolveScanFallback(t *testing.T) {
	r := NewResolver(nil)

	t.Run("highest plausible candidate wins", func(t *testing.T) {
		// No priority selector matches; the scan must prefer the line price
		// over the smaller promotional fragment.
		html := `
			<span class="a-price"><span class="a-offscreen">£1.61</span></span>
			<span class="a-price"><span class="a-offscreen">£8.50</span></span>`
		c, ok := r.Resolve(html, ModeOneTime)
		require.True(t, ok)
		assert.Equal(t, "£8.50", c.RawText)
	})

	t.Run("sub-pound fragments are not plausible", func(t *testing.T) {
		html := `
			<span class="a-price"><span class="a-offscreen">£0.99</span></span>
			<span class="a-price"><span class="a-offscreen">£1.00</span></span>`
		_, ok := r.Resolve(html, ModeOneTime)
		assert.False(t, ok)
	})

	t.Run("unit price classes excluded from scan", func(t *testing.T) {
		html := `
			<span class="a-price pricePerUnit"><span class="a-offscreen">£9.80</span></span>
			<span class="a-price"><span class="a-offscreen">£4.50</span></span>`
		c, ok := r.Resolve(html, ModeOneTime)
		require.True(t, ok)
		assert.Equal(t, "£4.50", c.RawText)
	})

	t.Run("visible text used when offscreen node missing", func(t *testing.T) {
		html := `<span class="a-price">£6.75</span>`
		c, ok := r.Resolve(html, ModeOneTime)
		require.True(t, ok)
		assert.Equal(t, "£6.75", c.RawText)
	})

	t.Run("nothing price-bearing", func(t *testing.T) {
		_, ok := r.Resolve(`<div id="productTitle">Kitchen Towel</div>`, ModeOneTime)
		assert.False(t, ok)
	})
}

func TestResolveSubscription(t *testing.T) {
	r := NewResolver(nil)

	t.Run("subscription widget price", func(t *testing.T) {
		html := `
			<div id="snsAccordionRowMiddle">
				<span class="a-price"><span class="a-offscreen">£15.30</span></span>
			</div>
			<div id="corePriceDisplay_desktop_feature_div">
				<span class="a-price"><span class="a-offscreen">£17.00</span></span>
			</div>`
		c, ok := r.Resolve(html, ModeSubscription)
		require.True(t, ok)
		assert.Equal(t, "£15.30", c.RawText)
	})

	t.Run("no scan fallback in subscription mode", func(t *testing.T) {
		// A one-time price is present but no subscription widget; the miss
		// must surface so the caller re-resolves in one-time mode.
		html := `
			<div id="corePriceDisplay_desktop_feature_div">
				<span class="a-price"><span class="a-offscreen">£17.00</span></span>
			</div>`
		_, ok := r.Resolve(html, ModeSubscription)
		assert.False(t, ok)
	})
}

func TestCandidatesClassification(t *testing.T) {
	r := NewResolver(nil)
	html := `
		<span class="a-price pricePerUnit"><span class="a-offscreen">£3.24</span></span>
		<span class="a-price"><span class="a-offscreen">£17.00</span></span>
		<span class="a-price">£6.75</span>`

	candidates := r.Candidates(html)
	require.Len(t, candidates, 3)
	assert.True(t, candidates[0].UnitPrice)
	assert.False(t, candidates[1].UnitPrice)

	// Offscreen copies are machine-readable, not rendered; the bare span is
	// what the page actually shows.
	assert.False(t, candidates[0].Visible)
	assert.False(t, candidates[1].Visible)
	assert.True(t, candidates[2].Visible)
}

func TestResolveCandidateMetadata(t *testing.T) {
	r := NewResolver(nil)
	html := `
		<div id="corePriceDisplay_desktop_feature_div">
			<span class="a-price reinventPricePriceToPayMargin">
				<span class="a-offscreen">£17.00</span>
			</span>
		</div>`

	c, ok := r.Resolve(html, ModeOneTime)
	require.True(t, ok)
	assert.Equal(t, "17", c.Value.String())
	assert.Contains(t, c.SourceSelector, "reinventPricePriceToPayMargin")
	assert.Contains(t, c.ContainerClass, "a-price")
}
