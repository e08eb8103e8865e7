package shared

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	tu "github.com/desertthunder/spotbadge/internal/testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Cache.Backend != "memory" {
			t.Errorf("expected memory cache backend, got %s", config.Cache.Backend)
		}
		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}
		if config.Daylist.TTL() != 30*time.Minute {
			t.Errorf("expected daylist ttl 30m, got %v", config.Daylist.TTL())
		}
		if config.Scraper.NavigationTimeout() != 30*time.Second {
			t.Errorf("expected navigation timeout 30s, got %v", config.Scraper.NavigationTimeout())
		}
		if err := config.Validate(); err != nil {
			t.Errorf("expected default config to validate, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}
		if config.Daylist.ArtifactURL != DefaultConfig().Daylist.ArtifactURL {
			t.Errorf("created config artifact url doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig keeps defaults for absent keys", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		testConfig := `[server]
port = 8080

[cache]
backend = "sqlite"
path = "/tmp/badges.db"

[credentials.spotify]
client_id = "test_client_id"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}
		if config.Cache.Backend != "sqlite" {
			t.Errorf("expected sqlite backend, got %s", config.Cache.Backend)
		}
		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Daylist.Timezone != "America/Los_Angeles" {
			t.Errorf("expected default timezone, got %s", config.Daylist.Timezone)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		config := DefaultConfig()
		env := map[string]string{
			"CLIENT_ID":       "id",
			"CLIENT_SECRET":   "secret",
			"REFRESH_TOKEN":   "refresh",
			"SPOTIFY_COOKIES": `[{"name":"sp_dc"}]`,
			"PORT":            "9999",
			"LOG_LEVEL":       "  ",
		}
		ApplyEnv(config, func(k string) string { return env[k] })

		if config.Credentials.Spotify.RefreshToken != "refresh" {
			t.Errorf("expected refresh token from env, got %q", config.Credentials.Spotify.RefreshToken)
		}
		if config.Credentials.Web.Cookies == "" {
			t.Error("expected cookie blob from env")
		}
		if config.Server.Port != 9999 {
			t.Errorf("expected port 9999, got %d", config.Server.Port)
		}
		if config.Logging.Level != "info" {
			t.Errorf("blank env value should not override level, got %q", config.Logging.Level)
		}
		if missing := config.Credentials.Spotify.Missing(); len(missing) != 0 {
			t.Errorf("expected no missing credentials, got %v", missing)
		}
	})

	t.Run("Load reads .env from the working directory", func(t *testing.T) {
		dir := t.TempDir()
		tu.MustWriteFile(t, filepath.Join(dir, ".env"), "REFRESH_TOKEN=from-dotenv\nCLIENT_ID=dotenv-id\n")
		tu.MustChdir(t, dir)

		for _, key := range []string{"REFRESH_TOKEN", "CLIENT_ID"} {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}

		config, err := Load(filepath.Join(dir, "missing.toml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if config.Credentials.Spotify.RefreshToken != "from-dotenv" {
			t.Errorf("expected refresh token from .env, got %q", config.Credentials.Spotify.RefreshToken)
		}
		if config.Credentials.Spotify.ClientID != "dotenv-id" {
			t.Errorf("expected client id from .env, got %q", config.Credentials.Spotify.ClientID)
		}
	})

	t.Run("Load rejects invalid values", func(t *testing.T) {
		dir := t.TempDir()
		tu.MustChdir(t, dir)
		for _, key := range []string{"PORT", "CACHE_BACKEND"} {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}

		path := filepath.Join(dir, "config.toml")
		tu.MustWriteFile(t, path, `
[server]
port = 0

[cache]
backend = "memcached"

[scraper]
jitter_min_ms = 5000
jitter_max_ms = 10
`)

		config, err := Load(path)
		if err == nil {
			t.Fatalf("expected validation error, got config %+v", config)
		}
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
		for _, want := range []string{"port 0", "memcached", "jitter"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("expected error to mention %q, got %v", want, err)
			}
		}
	})

	t.Run("Missing lists every absent credential", func(t *testing.T) {
		missing := SpotifyConfig{ClientID: "id"}.Missing()
		if !slices.Equal(missing, []string{"REFRESH_TOKEN", "CLIENT_SECRET"}) {
			t.Errorf("unexpected missing list %v", missing)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		config.Cache.Backend = "memcached"
		config.Daylist.Timezone = "Nowhere/Special"

		err := config.Validate()
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
