package scraper

import (
	"errors"
	"time"

	"github.com/pricehound/amazon-uk-scraper/internal/browser"
)

type fakeElement struct {
	text       string
	checked    bool
	checkedErr error
	clickErr   error

	clicks int
}

func (e *fakeElement) InnerText() (string, error)          { return e.text, nil }
func (e *fakeElement) GetAttribute(string) (string, error) { return "", nil }
func (e *fakeElement) IsChecked() (bool, error)            { return e.checked, e.checkedErr }

func (e *fakeElement) Click() error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.clicks++
	return nil
}

type fakePage struct {
	elements map[string]*fakeElement
	html     string
	htmlErr  error
}

func newFakePage() *fakePage {
	return &fakePage{elements: map[string]*fakeElement{}}
}

func (p *fakePage) Navigate(string) error { return nil }

func (p *fakePage) QuerySelector(selector string) (browser.Element, error) {
	if el, ok := p.elements[selector]; ok {
		return el, nil
	}
	return nil, nil
}

func (p *fakePage) QuerySelectorAll(selector string) ([]browser.Element, error) {
	if el, ok := p.elements[selector]; ok {
		return []browser.Element{el}, nil
	}
	return nil, nil
}

func (p *fakePage) WaitForSelector(selector string, _ time.Duration) (browser.Element, error) {
	if el, ok := p.elements[selector]; ok {
		return el, nil
	}
	return nil, errors.New("timeout waiting for " + selector)
}

func (p *fakePage) Click(string) error               { return nil }
func (p *fakePage) Fill(string, string) error        { return nil }
func (p *fakePage) InnerText(string) (string, error) { return "", nil }
func (p *fakePage) Content() (string, error)         { return p.html, p.htmlErr }
func (p *fakePage) Screenshot(string) error          { return nil }
func (p *fakePage) Close() error                     { return nil }
