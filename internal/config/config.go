package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "Asia/Tokyo"
	defaultWindow   = "24h"

	configPathEnv   = "TICKER_RADAR_CONFIG"
	storagePathEnv  = "STORAGE_PATH"
	listenAddrEnv   = "LISTEN_ADDR"
	ingestTokenEnv  = "INGEST_TOKEN"
	ingestURLEnv    = "WORKER_BASE_URL"
	geminiAPIKeyEnv = "GEMINI_API_KEY"
	logLevelEnv     = "LOG_LEVEL"
)

// FailurePolicy decides what a pipeline run does when one source fails.
type FailurePolicy string

const (
	// PolicySkip continues past a failing source and ranks whatever was fetched.
	PolicySkip FailurePolicy = "skip"
	// PolicyAbort fails the whole run on the first source error.
	PolicyAbort FailurePolicy = "abort"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Prices    PricesConfig    `yaml:"prices"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Sources   []SourceConfig  `yaml:"sources"`
	Exclude   []string        `yaml:"exclude"`
}

// LoggingConfig controls log verbosity and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" (default) or "json"
}

// StorageConfig describes the embedded key-value store location.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig describes the HTTP API listener.
type ServerConfig struct {
	ListenAddr  string `yaml:"listenAddr"`
	IngestToken string `yaml:"ingestToken"`
}

// SchedulerConfig defines when the ingest and price jobs run.
type SchedulerConfig struct {
	IngestCron string         `yaml:"ingestCron"`
	PricesCron string         `yaml:"pricesCron"`
	Timezone   string         `yaml:"timezone"`
	location   *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// PipelineConfig tunes the ingest run itself.
type PipelineConfig struct {
	Window              string        `yaml:"window"`
	TopN                int           `yaml:"topN"`
	OnSourceError       FailurePolicy `yaml:"onSourceError"`
	FetchTimeoutSeconds int           `yaml:"fetchTimeoutSeconds"`
	RequestsPerSec      float64       `yaml:"requestsPerSec"`
}

// FetchTimeout bounds one HTTP attempt; a hung origin must never stall a
// whole scheduled run.
func (p PipelineConfig) FetchTimeout() time.Duration {
	if p.FetchTimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(p.FetchTimeoutSeconds) * time.Second
}

// GeminiConfig defines how to contact the Gemini API for commentary.
type GeminiConfig struct {
	APIKey string   `yaml:"apiKey"`
	Models []string `yaml:"models"`
}

// PricesConfig controls the market quote updater.
type PricesConfig struct {
	Disabled  bool     `yaml:"disabled"`
	Watchlist []string `yaml:"watchlist"`
}

// IngestConfig points the one-shot runner at a remote ingest endpoint.
type IngestConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Token   string `yaml:"token"`
}

// SourceConfig describes a single monitored thread.
type SourceConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}
	if len(cfg.Exclude) == 0 {
		cfg.Exclude = defaultConfig().Exclude
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(storagePathEnv); v != "" {
		c.Storage.Path = v
	}

	if v := os.Getenv(listenAddrEnv); v != "" {
		c.Server.ListenAddr = v
	}

	if v := os.Getenv(ingestTokenEnv); v != "" {
		c.Server.IngestToken = v
		c.Ingest.Token = v
	}

	if v := os.Getenv(ingestURLEnv); v != "" {
		c.Ingest.BaseURL = v
	}

	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Storage.Path != "" {
		base.Storage = override.Storage
	}

	if override.Server.ListenAddr != "" {
		base.Server.ListenAddr = override.Server.ListenAddr
	}
	if override.Server.IngestToken != "" {
		base.Server.IngestToken = override.Server.IngestToken
	}

	if override.Scheduler.IngestCron != "" {
		base.Scheduler.IngestCron = override.Scheduler.IngestCron
	}
	if override.Scheduler.PricesCron != "" {
		base.Scheduler.PricesCron = override.Scheduler.PricesCron
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Pipeline.Window != "" {
		base.Pipeline.Window = override.Pipeline.Window
	}
	if override.Pipeline.TopN > 0 {
		base.Pipeline.TopN = override.Pipeline.TopN
	}
	if override.Pipeline.OnSourceError != "" {
		base.Pipeline.OnSourceError = override.Pipeline.OnSourceError
	}
	if override.Pipeline.FetchTimeoutSeconds > 0 {
		base.Pipeline.FetchTimeoutSeconds = override.Pipeline.FetchTimeoutSeconds
	}
	if override.Pipeline.RequestsPerSec > 0 {
		base.Pipeline.RequestsPerSec = override.Pipeline.RequestsPerSec
	}

	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if len(override.Gemini.Models) > 0 {
		base.Gemini.Models = override.Gemini.Models
	}

	if override.Prices.Disabled {
		base.Prices.Disabled = true
	}
	if len(override.Prices.Watchlist) > 0 {
		base.Prices.Watchlist = override.Prices.Watchlist
	}

	if override.Ingest.BaseURL != "" {
		base.Ingest.BaseURL = override.Ingest.BaseURL
	}
	if override.Ingest.Token != "" {
		base.Ingest.Token = override.Ingest.Token
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}
	if len(override.Exclude) > 0 {
		base.Exclude = override.Exclude
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Storage: StorageConfig{Path: "data/tickerradar"},
		Server:  ServerConfig{ListenAddr: ":8787"},
		Scheduler: SchedulerConfig{
			IngestCron: "*/30 * * * *",
			PricesCron: "15 * * * *",
			Timezone:   defaultTimezone,
			location:   tz,
		},
		Pipeline: PipelineConfig{
			Window:              defaultWindow,
			TopN:                200,
			OnSourceError:       PolicySkip,
			FetchTimeoutSeconds: 20,
			RequestsPerSec:      1,
		},
		Gemini: GeminiConfig{
			Models: []string{"gemini-2.0-flash", "gemini-2.5-flash", "gemini-flash-latest"},
		},
		Prices: PricesConfig{
			Watchlist: []string{"BETA", "ONDS", "ASTS", "IONQ", "LAES", "WULF", "CRWV", "POET", "OSCR", "TEM"},
		},
		Sources: []SourceConfig{
			{
				Name: "米国株スレ Part1",
				URL:  "https://egg.5ch.net/test/read.cgi/stock/1700000001/",
			},
		},
		// Trading jargon, forum slang and common English words that collide
		// with real ticker symbols.
		Exclude: []string{
			"ETF", "NISA", "IR", "PTS", "ADR", "IPO", "CEO", "CFO", "FRB", "FOMC",
			"CPI", "GDP", "NYSE", "OK", "NG", "URL", "HTML", "HTTP", "HTTPS", "WWW",
			"JPG", "PNG", "GIF", "LOL", "USA", "USD", "JPY", "AI", "IT", "TV", "AM", "PM",
		},
	}
}
