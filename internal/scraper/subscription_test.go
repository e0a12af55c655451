package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestSelector(page *fakePage) *SubscriptionSelector {
	s := NewSubscriptionSelector(page, nil)
	s.Settle = 0
	return s
}

func TestActivateNoWidget(t *testing.T) {
	page := newFakePage()
	s := newTestSelector(page)

	assert.False(t, s.Activate(context.Background()))
}

func TestActivateClicksRadio(t *testing.T) {
	page := newFakePage()
	radio := &fakeElement{}
	page.elements["#snsAccordionRowMiddle input[type='radio']"] = radio
	s := newTestSelector(page)

	assert.True(t, s.Activate(context.Background()))
	assert.Equal(t, 1, radio.clicks)
}

func TestActivateAlreadySelected(t *testing.T) {
	page := newFakePage()
	radio := &fakeElement{checked: true}
	page.elements["#subscriptionAccordion input[type='radio']"] = radio
	s := newTestSelector(page)

	assert.True(t, s.Activate(context.Background()))
	assert.Zero(t, radio.clicks, "a selected radio must not be clicked again")
}

func TestActivateNonInputVariant(t *testing.T) {
	page := newFakePage()
	// Expander links error on IsChecked; the click path still applies.
	link := &fakeElement{checkedErr: errors.New("not an input")}
	page.elements["a[href='#subscriptionAccordion']"] = link
	s := newTestSelector(page)

	assert.True(t, s.Activate(context.Background()))
	assert.Equal(t, 1, link.clicks)
}

func TestActivateClickFailureFallsThrough(t *testing.T) {
	page := newFakePage()
	page.elements["#snsAccordionRowMiddle input[type='radio']"] = &fakeElement{clickErr: errors.New("detached")}
	fallback := &fakeElement{}
	page.elements["#rcxsubsToggle"] = fallback
	s := newTestSelector(page)

	assert.True(t, s.Activate(context.Background()))
	assert.Equal(t, 1, fallback.clicks)
}

func TestActivateCancelledContext(t *testing.T) {
	page := newFakePage()
	page.elements["#snsAccordionRowMiddle input[type='radio']"] = &fakeElement{}
	s := newTestSelector(page)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, s.Activate(ctx))
}
