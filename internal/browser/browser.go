package browser

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
)

// webdriverMask removes the most common headless-automation tell before any
// page script runs.
const webdriverMask = `
Object.defineProperty(navigator, 'webdriver', {
	get: () => undefined
});
`

type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	opts    *Options
	cookies *CookieStore
	logger  *slog.Logger
}

type Options struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	ScreenshotDir  string
	CookiePath     string
	UseCookies     bool
	SaveCookies    bool
}

func DefaultOptions() *Options {
	return &Options{
		Headless:       false,
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		AcceptLanguage: "en-GB,en;q=0.9",
		TimezoneID:     "Europe/London",
		Locale:         "en-GB",
		ScreenshotDir:  "screenshots",
		CookiePath:     "config/cookies.json",
		UseCookies:     true,
		SaveCookies:    true,
	}
}

func New(opts *Options, logger *slog.Logger) (*Session, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "browser")

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:  &opts.UserAgent,
		Locale:     &opts.Locale,
		TimezoneId: &opts.TimezoneID,
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
		ExtraHttpHeaders: map[string]string{
			"Accept-Language": opts.AcceptLanguage,
		},
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	if err := context.AddInitScript(playwright.Script{Content: playwright.String(webdriverMask)}); err != nil {
		logger.Warn("failed to add init script", "error", err)
	}

	s := &Session{
		pw:      pw,
		browser: browser,
		context: context,
		opts:    opts,
		cookies: NewCookieStore(opts.CookiePath, logger),
		logger:  logger,
	}

	if opts.UseCookies {
		s.restoreCookies()
	}

	return s, nil
}

func (s *Session) restoreCookies() {
	cookies, err := s.cookies.Load()
	if err != nil {
		s.logger.Warn("failed to load cookie store", "error", err)
		return
	}
	if len(cookies) == 0 {
		return
	}

	optional := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		optional = append(optional, playwright.OptionalCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   playwright.String(c.Domain),
			Path:     playwright.String(c.Path),
			Expires:  playwright.Float(c.Expires),
			HttpOnly: playwright.Bool(c.HttpOnly),
			Secure:   playwright.Bool(c.Secure),
			SameSite: c.SameSite,
		})
	}

	if err := s.context.AddCookies(optional); err != nil {
		s.logger.Warn("failed to restore cookies", "error", err)
		return
	}
	s.logger.Info("cookies restored", "count", len(cookies))
}

// SaveCookies persists the context cookies so the next session starts with
// the delivery location already set.
func (s *Session) SaveCookies() error {
	if !s.opts.SaveCookies {
		return nil
	}
	cookies, err := s.context.Cookies()
	if err != nil {
		return fmt.Errorf("failed to read cookies: %w", err)
	}
	return s.cookies.Save(cookies)
}

// NewPage opens a page in the shared context.
func (s *Session) NewPage() (Page, error) {
	page, err := s.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(s.opts.Timeout.Milliseconds()))

	return &pwPage{
		page:    page,
		timeout: s.opts.Timeout,
		shots:   s.opts.ScreenshotDir,
		logger:  s.logger,
	}, nil
}

// Close tears down page contexts, the browser, and the driver, in order. It
// is safe to call from a deferred cleanup on any error path.
func (s *Session) Close() error {
	var errs []error

	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}

// pwPage adapts a playwright page to the Page interface.
type pwPage struct {
	page    playwright.Page
	timeout time.Duration
	shots   string
	logger  *slog.Logger
}

func (p *pwPage) Navigate(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(p.timeout.Milliseconds())),
	})
	return err
}

func (p *pwPage) QuerySelector(selector string) (Element, error) {
	handle, err := p.page.QuerySelector(selector)
	if err != nil {
		return nil, err
	}
	if handle == nil {
		return nil, nil
	}
	return &pwElement{handle: handle}, nil
}

func (p *pwPage) QuerySelectorAll(selector string) ([]Element, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	elements := make([]Element, 0, len(handles))
	for _, h := range handles {
		elements = append(elements, &pwElement{handle: h})
	}
	return elements, nil
}

func (p *pwPage) WaitForSelector(selector string, timeout time.Duration) (Element, error) {
	handle, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return nil, err
	}
	if handle == nil {
		return nil, nil
	}
	return &pwElement{handle: handle}, nil
}

func (p *pwPage) Click(selector string) error {
	return p.page.Click(selector)
}

func (p *pwPage) Fill(selector, value string) error {
	return p.page.Fill(selector, value)
}

func (p *pwPage) InnerText(selector string) (string, error) {
	return p.page.InnerText(selector)
}

func (p *pwPage) Content() (string, error) {
	return p.page.Content()
}

// Screenshot writes a full-page capture into the screenshot directory for
// postmortem use. Failures are reported, not fatal.
func (p *pwPage) Screenshot(name string) error {
	if p.shots == "" {
		return nil
	}
	if err := os.MkdirAll(p.shots, 0o755); err != nil {
		return fmt.Errorf("failed to create screenshot dir: %w", err)
	}
	path := filepath.Join(p.shots, name+".png")
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to capture screenshot %s: %w", name, err)
	}
	p.logger.Debug("screenshot saved", "path", path)
	return nil
}

func (p *pwPage) Close() error {
	return p.page.Close()
}

type pwElement struct {
	handle playwright.ElementHandle
}

func (e *pwElement) InnerText() (string, error) {
	return e.handle.InnerText()
}

func (e *pwElement) GetAttribute(name string) (string, error) {
	return e.handle.GetAttribute(name)
}

func (e *pwElement) Click() error {
	return e.handle.Click()
}

func (e *pwElement) IsChecked() (bool, error) {
	return e.handle.IsChecked()
}
