package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Session  SessionConfig
	Browser  BrowserConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Logging  LoggingConfig
}

// SessionConfig holds the per-run scrape settings. Prices on the target site
// depend on the delivery postcode, so it travels with the session.
type SessionConfig struct {
	Headless      bool
	Postcode      string
	UseCookies    bool
	SaveCookies   bool
	CookiePath    string
	ScreenshotDir string
	BaseURL       string
}

type BrowserConfig struct {
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	UserAgent      string
}

type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// fileConfig mirrors the JSON config file. Pointer fields distinguish "absent"
// from an explicit false.
type fileConfig struct {
	Headless    *bool   `json:"headless"`
	Postcode    *string `json:"postcode"`
	UseCookies  *bool   `json:"use_cookies"`
	SaveCookies *bool   `json:"save_cookies"`
}

// Load builds the configuration from defaults, then the optional JSON file at
// path, then environment variables. Flag overrides are applied by the caller.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Session: SessionConfig{
			Headless:      false,
			Postcode:      "SE1 1",
			UseCookies:    true,
			SaveCookies:   true,
			CookiePath:    "config/cookies.json",
			ScreenshotDir: "screenshots",
			BaseURL:       "https://www.amazon.co.uk",
		},
		Browser: BrowserConfig{
			Timeout:        30 * time.Second,
			ViewportWidth:  1920,
			ViewportHeight: 1080,
			AcceptLanguage: "en-GB,en;q=0.9",
			TimezoneID:     "Europe/London",
			Locale:         "en-GB",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Server: ServerConfig{
			Port:            getIntOrDefault("SERVER_PORT", 8080),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", ""),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "stream:product_records"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}

	if path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	cfg.Session.Headless = getBoolOrDefault("SCRAPER_HEADLESS", cfg.Session.Headless)
	cfg.Session.Postcode = getEnvOrDefault("SCRAPER_POSTCODE", cfg.Session.Postcode)
	cfg.Session.UseCookies = getBoolOrDefault("SCRAPER_USE_COOKIES", cfg.Session.UseCookies)
	cfg.Session.SaveCookies = getBoolOrDefault("SCRAPER_SAVE_COOKIES", cfg.Session.SaveCookies)
	cfg.Session.CookiePath = getEnvOrDefault("SCRAPER_COOKIE_PATH", cfg.Session.CookiePath)
	cfg.Session.ScreenshotDir = getEnvOrDefault("SCRAPER_SCREENSHOT_DIR", cfg.Session.ScreenshotDir)
	cfg.Session.BaseURL = getEnvOrDefault("SCRAPER_BASE_URL", cfg.Session.BaseURL)
	cfg.Browser.Timeout = getDurationOrDefault("BROWSER_TIMEOUT", cfg.Browser.Timeout)
	cfg.Browser.UserAgent = getEnvOrDefault("BROWSER_USER_AGENT", cfg.Browser.UserAgent)

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}

	if fc.Headless != nil {
		cfg.Session.Headless = *fc.Headless
	}
	if fc.Postcode != nil {
		cfg.Session.Postcode = *fc.Postcode
	}
	if fc.UseCookies != nil {
		cfg.Session.UseCookies = *fc.UseCookies
	}
	if fc.SaveCookies != nil {
		cfg.Session.SaveCookies = *fc.SaveCookies
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
