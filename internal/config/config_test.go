package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.Session.Headless)
	assert.Equal(t, "SE1 1", cfg.Session.Postcode)
	assert.True(t, cfg.Session.UseCookies)
	assert.Equal(t, "https://www.amazon.co.uk", cfg.Session.BaseURL)
	assert.Equal(t, "en-GB", cfg.Browser.Locale)
	assert.Equal(t, "Europe/London", cfg.Browser.TimezoneID)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"headless": true,
		"postcode": "M1 1",
		"use_cookies": false
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Session.Headless)
	assert.Equal(t, "M1 1", cfg.Session.Postcode)
	assert.False(t, cfg.Session.UseCookies)
	// Absent keys keep their defaults.
	assert.True(t, cfg.Session.SaveCookies)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, "SE1 1", cfg.Session.Postcode)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"postcode": "M1 1"}`), 0o644))

	t.Setenv("SCRAPER_POSTCODE", "EH1 1")
	t.Setenv("SCRAPER_HEADLESS", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "EH1 1", cfg.Session.Postcode)
	assert.True(t, cfg.Session.Headless)
}
