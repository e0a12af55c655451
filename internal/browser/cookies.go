package browser

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/playwright-community/playwright-go"
)

// CookieStore persists context cookies as a flat JSON list. A corrupted store
// is deleted and treated as absent rather than surfaced to the caller.
type CookieStore struct {
	path   string
	logger *slog.Logger
}

func NewCookieStore(path string, logger *slog.Logger) *CookieStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CookieStore{
		path:   path,
		logger: logger.With("component", "cookie_store"),
	}
}

func (cs *CookieStore) Load() ([]playwright.Cookie, error) {
	data, err := os.ReadFile(cs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cookie store: %w", err)
	}

	var cookies []playwright.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		cs.logger.Warn("corrupted cookie store, deleting", "path", cs.path, "error", err)
		if rmErr := os.Remove(cs.path); rmErr != nil {
			cs.logger.Warn("failed to delete corrupted cookie store", "error", rmErr)
		}
		return nil, nil
	}

	return cookies, nil
}

func (cs *CookieStore) Save(cookies []playwright.Cookie) error {
	if err := os.MkdirAll(filepath.Dir(cs.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cookie dir: %w", err)
	}

	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}

	tmp := cs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cookie store: %w", err)
	}
	if err := os.Rename(tmp, cs.path); err != nil {
		return fmt.Errorf("failed to replace cookie store: %w", err)
	}

	cs.logger.Debug("cookies saved", "path", cs.path, "count", len(cookies))
	return nil
}
