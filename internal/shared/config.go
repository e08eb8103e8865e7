package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Cache       CacheConfig       `toml:"cache"`
	Daylist     DaylistConfig     `toml:"daylist"`
	Scraper     ScraperConfig     `toml:"scraper"`
	Logging     LoggingConfig     `toml:"logging"`
}

// CredentialsConfig contains the API and web-login credentials for the single account.
type CredentialsConfig struct {
	Spotify SpotifyConfig  `toml:"spotify"`
	Web     WebLoginConfig `toml:"web"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RefreshToken string `toml:"refresh_token"`
	RedirectURI  string `toml:"redirect_uri"`
}

// WebLoginConfig holds the username/password used by the scraper when its cookies are stale.
//
// Cookies is a JSON array of browser cookies and is normally only set through SPOTIFY_COOKIES.
type WebLoginConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
	Cookies  string `toml:"cookies"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Revision string `toml:"revision"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend      string `toml:"backend"`
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	RedisAddr    string `toml:"redis_addr"`
	RedisPrefix  string `toml:"redis_prefix"`
}

// DaylistConfig configures phrase resolution.
type DaylistConfig struct {
	Timezone               string `toml:"timezone"`
	ArtifactURL            string `toml:"artifact_url"`
	TTLSeconds             int    `toml:"ttl_seconds"`
	ArtifactTimeoutSeconds int    `toml:"artifact_timeout_seconds"`
}

// ScraperConfig configures the headless browser fallback.
type ScraperConfig struct {
	Enabled             bool   `toml:"enabled"`
	Headless            bool   `toml:"headless"`
	CookieFile          string `toml:"cookie_file"`
	ScreenshotDir       string `toml:"screenshot_dir"`
	Locale              string `toml:"locale"`
	UserAgent           string `toml:"user_agent"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
	NavigationTimeoutMS int    `toml:"navigation_timeout_ms"`
	ElementTimeoutMS    int    `toml:"element_timeout_ms"`
	JitterMinMS         int    `toml:"jitter_min_ms"`
	JitterMaxMS         int    `toml:"jitter_max_ms"`
	KeyDelayMinMS       int    `toml:"key_delay_min_ms"`
	KeyDelayMaxMS       int    `toml:"key_delay_max_ms"`
	MinIntervalSeconds  int    `toml:"min_interval_seconds"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Addr returns the listen address for the badge server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Missing lists the environment names of the API credentials that are not set.
func (s SpotifyConfig) Missing() []string {
	var missing []string
	if s.RefreshToken == "" {
		missing = append(missing, "REFRESH_TOKEN")
	}
	if s.ClientID == "" {
		missing = append(missing, "CLIENT_ID")
	}
	if s.ClientSecret == "" {
		missing = append(missing, "CLIENT_SECRET")
	}
	return missing
}

// Location loads the reference timezone used for hour buckets and captions.
func (d DaylistConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, d.Timezone, err)
	}
	return loc, nil
}

func (d DaylistConfig) TTL() time.Duration {
	return time.Duration(d.TTLSeconds) * time.Second
}

func (d DaylistConfig) ArtifactTimeout() time.Duration {
	return time.Duration(d.ArtifactTimeoutSeconds) * time.Second
}

func (s ScraperConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

func (s ScraperConfig) NavigationTimeout() time.Duration {
	return time.Duration(s.NavigationTimeoutMS) * time.Millisecond
}

func (s ScraperConfig) ElementTimeout() time.Duration {
	return time.Duration(s.ElementTimeoutMS) * time.Millisecond
}

func (s ScraperConfig) MinInterval() time.Duration {
	return time.Duration(s.MinIntervalSeconds) * time.Second
}

// Validate reports configuration values that cannot work at runtime.
//
// Missing API credentials are not checked here; the API client reports those when it is built.
func (c *Config) Validate() error {
	var errs []error

	switch c.Cache.Backend {
	case "memory", "sqlite", "redis":
	default:
		errs = append(errs, fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, c.Cache.Backend))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Server.Port))
	}

	if _, err := c.Daylist.Location(); err != nil {
		errs = append(errs, err)
	}

	if c.Daylist.TTLSeconds <= 0 {
		errs = append(errs, fmt.Errorf("%w: daylist ttl must be positive", ErrInvalidConfig))
	}

	if c.Scraper.JitterMaxMS < c.Scraper.JitterMinMS || c.Scraper.KeyDelayMaxMS < c.Scraper.KeyDelayMinMS {
		errs = append(errs, fmt.Errorf("%w: jitter max below min", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Load resolves the runtime configuration: .env file, then config file (if present), then environment.
// The result is validated before it is returned.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	ApplyEnv(config, os.Getenv)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

// ApplyEnv overlays environment variables onto c. Empty values are ignored.
func ApplyEnv(c *Config, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	set(&c.Credentials.Spotify.ClientID, "CLIENT_ID")
	set(&c.Credentials.Spotify.ClientSecret, "CLIENT_SECRET")
	set(&c.Credentials.Spotify.RefreshToken, "REFRESH_TOKEN")
	set(&c.Credentials.Spotify.RedirectURI, "REDIRECT_URI")
	set(&c.Credentials.Web.Username, "SPOTIFY_USER")
	set(&c.Credentials.Web.Password, "SPOTIFY_PASS")
	set(&c.Credentials.Web.Cookies, "SPOTIFY_COOKIES")
	set(&c.Cache.Backend, "CACHE_BACKEND")
	set(&c.Cache.RedisAddr, "REDIS_ADDR")
	set(&c.Server.Revision, "VERCEL_GIT_COMMIT_SHA")
	set(&c.Logging.Level, "LOG_LEVEL")

	if v := getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
