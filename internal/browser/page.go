package browser

import (
	"time"
)

// Element is the subset of a DOM element handle the scraping components need.
type Element interface {
	InnerText() (string, error)
	GetAttribute(name string) (string, error)
	Click() error
	IsChecked() (bool, error)
}

// Page is the browser page contract consumed by the location setter and the
// extractor. Implementations must return (nil, nil) from QuerySelector when
// no element matches; only transport failures produce errors. Callers borrow
// a Page for the duration of a call and never retain it.
type Page interface {
	Navigate(url string) error
	QuerySelector(selector string) (Element, error)
	QuerySelectorAll(selector string) ([]Element, error)
	WaitForSelector(selector string, timeout time.Duration) (Element, error)
	Click(selector string) error
	Fill(selector, value string) error
	InnerText(selector string) (string, error)
	Content() (string, error)
	Screenshot(name string) error
	Close() error
}
