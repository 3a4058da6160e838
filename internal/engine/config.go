package engine

import (
	"context"
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	HTTPClient *http.Client

	// BrowserClient fetches YouTube pages when set; HTTPClient otherwise.
	BrowserClient *BrowserClient

	// LLMComplete submits a prompt. Nil disables auto-submit.
	LLMComplete        func(ctx context.Context, prompt string) (string, error)
	LLMAPIBase         string
	LLMAPIKey          string
	LLMAPIKeyFallbacks []string
	LLMModel           string
	LLMTemperature     float64
	LLMMaxTokens       int

	FetchTimeout        time.Duration
	YouTubeRPS          float64
	ReaderBaseURL       string
	ReaderTimeout       time.Duration
	ReaderRenderer      string // rod or static
	ChromeBin           string
	TrackCacheSize      int
	TrackCacheTTL       time.Duration
	MaxPromptChars      int
	DispatchMaxAttempts int

	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	ArchivePath          string
	DatabaseURL          string
}

// Defaults for tunables that have a fixed value unless overridden by env.
const (
	DefaultReaderBaseURL = "https://glasp.co/reader?url="
	DefaultReaderTimeout = 20 * time.Second
	DefaultFetchTimeout  = 15 * time.Second
)

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, acquire, dispatch).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.ReaderBaseURL == "" {
		c.ReaderBaseURL = DefaultReaderBaseURL
	}
	if c.ReaderTimeout <= 0 {
		c.ReaderTimeout = DefaultReaderTimeout
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.FetchTimeout}
	}
	cfg = c
	Cfg = &cfg
}

// NewFetcher returns the fetcher sources should use for YouTube pages:
// the stealth client when configured, net/http otherwise.
func NewFetcher() Fetcher {
	if cfg.BrowserClient != nil {
		return &BrowserFetcher{Client: cfg.BrowserClient}
	}
	return NewHTTPFetcher(cfg.HTTPClient, cfg.YouTubeRPS)
}
