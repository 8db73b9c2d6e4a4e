package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultCentralURL      = "https://api-op.grid.gg/central-data/graphql"
	DefaultSeriesStateURL  = "https://api-op.grid.gg/live-data-feed/series-state/graphql"
	DefaultFileDownloadURL = "https://api.grid.gg/file-download"

	placeholderAPIKey = "YOUR_GRID_API_KEY"
)

type SeriesStateMode string

const (
	SeriesStateAuto       SeriesStateMode = "auto"
	SeriesStateOp         SeriesStateMode = "op"
	SeriesStateCommercial SeriesStateMode = "commercial"
)

type Config struct {
	Port           string
	Environment    string // "development" or "production"
	LogLevel       string
	RedisURL       string
	TrustedProxies []string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int

	GridAPIKey               string
	GridCentralURL           string
	GridFileDownloadURL      string
	SeriesStateMode          SeriesStateMode
	SeriesStateCommercialURL string

	ScoutTimeout     time.Duration
	UpstreamTimeout  time.Duration
	SeriesPageSize   int
	SeriesMaxItems   int
	ProbeConcurrency int
	TitleFanout      bool
	TournamentIDs    []string
	DefaultDaysBack  int
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// OK if it fails in production
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: .env file not found: %v\n", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from any lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := envReader{get: getenv}

	cfg := &Config{
		Port:                     env.str("PORT", "8080"),
		Environment:              env.str("ENVIRONMENT", "development"),
		LogLevel:                 env.str("LOG_LEVEL", "info"),
		RedisURL:                 env.str("REDIS_URL", ""),
		TrustedProxies:           splitList(env.str("TRUSTED_PROXIES", "")),
		CORSOrigins:              splitList(env.str("CORS_ALLOWED_ORIGINS", "https://frontend-esports-analyzer-valorant.vercel.app")),
		GridAPIKey:               env.str("GRID_API_KEY", ""),
		GridCentralURL:           env.str("GRID_CENTRAL_URL", DefaultCentralURL),
		GridFileDownloadURL:      strings.TrimRight(env.str("GRID_FILE_DOWNLOAD_URL", DefaultFileDownloadURL), "/"),
		SeriesStateMode:          SeriesStateMode(strings.ToLower(env.str("SERIES_STATE_MODE", string(SeriesStateAuto)))),
		SeriesStateCommercialURL: env.str("SERIES_STATE_COMMERCIAL_URL", ""),
		TournamentIDs:            splitList(env.str("TOURNAMENT_IDS", "")),
	}

	cfg.RateLimitRPS = env.floatVal("RATE_LIMIT_RPS", 10)
	cfg.RateLimitBurst = env.intVal("RATE_LIMIT_BURST", 20)
	cfg.ScoutTimeout = env.duration("SCOUT_TIMEOUT", 30*time.Second)
	cfg.UpstreamTimeout = env.duration("UPSTREAM_TIMEOUT", 10*time.Second)
	cfg.SeriesPageSize = env.intVal("SERIES_PAGE_SIZE", 50)
	cfg.SeriesMaxItems = env.intVal("SERIES_MAX_ITEMS", 200)
	cfg.ProbeConcurrency = env.intVal("PROBE_CONCURRENCY", 4)
	cfg.TitleFanout = env.boolVal("TITLE_FANOUT", false)
	cfg.DefaultDaysBack = env.intVal("DEFAULT_DAYS_BACK", 730)

	if env.err != nil {
		return nil, env.err
	}

	switch cfg.SeriesStateMode {
	case SeriesStateAuto, SeriesStateOp:
	case SeriesStateCommercial:
		if cfg.SeriesStateCommercialURL == "" {
			return nil, fmt.Errorf("SERIES_STATE_MODE=commercial requires SERIES_STATE_COMMERCIAL_URL to be set")
		}
	default:
		return nil, fmt.Errorf("invalid SERIES_STATE_MODE %q: must be auto, op or commercial", cfg.SeriesStateMode)
	}

	if cfg.SeriesPageSize <= 0 || cfg.SeriesMaxItems <= 0 || cfg.ProbeConcurrency <= 0 {
		return nil, fmt.Errorf("SERIES_PAGE_SIZE, SERIES_MAX_ITEMS and PROBE_CONCURRENCY must be positive")
	}

	return cfg, nil
}

// HasAPIKey reports whether a usable key is configured. The .env.example
// placeholder counts as missing.
func (c *Config) HasAPIKey() bool {
	key := strings.TrimSpace(c.GridAPIKey)
	return key != "" && key != placeholderAPIKey
}

// SeriesStateURLs lists the series-state endpoints to try, in order.
func (c *Config) SeriesStateURLs() []string {
	switch c.SeriesStateMode {
	case SeriesStateOp:
		return []string{DefaultSeriesStateURL}
	case SeriesStateCommercial:
		return []string{c.SeriesStateCommercialURL}
	default:
		urls := []string{DefaultSeriesStateURL}
		if c.SeriesStateCommercialURL != "" {
			urls = append(urls, c.SeriesStateCommercialURL)
		}
		return urls
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

type envReader struct {
	get func(string) string
	err error
}

func (e *envReader) str(key, defaultValue string) string {
	if value := strings.TrimSpace(e.get(key)); value != "" {
		return value
	}
	return defaultValue
}

func (e *envReader) intVal(key string, defaultValue int) int {
	raw := e.str(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		e.fail(key, raw, err)
		return defaultValue
	}
	return v
}

func (e *envReader) floatVal(key string, defaultValue float64) float64 {
	raw := e.str(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		e.fail(key, raw, err)
		return defaultValue
	}
	return v
}

func (e *envReader) boolVal(key string, defaultValue bool) bool {
	raw := e.str(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		e.fail(key, raw, err)
		return defaultValue
	}
	return v
}

func (e *envReader) duration(key string, defaultValue time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		e.fail(key, raw, err)
		return defaultValue
	}
	return v
}

func (e *envReader) fail(key, raw string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s=%q: %w", key, raw, err)
	}
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
