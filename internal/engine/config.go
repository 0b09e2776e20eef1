package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	YouTubeBaseURL       string // scheme+host for watch pages and innertube; overridable in tests
	FetchTimeout         time.Duration
	RequestsPerSecond    float64 // innertube/timedtext pacing; 0 = unlimited
	PageCacheTTL         time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	HTTPClient           *http.Client
	BrowserClient        *BrowserClient // nil = plain HTTP with backoff
}

// DefaultYouTubeBaseURL is used when Config.YouTubeBaseURL is empty.
const DefaultYouTubeBaseURL = "https://www.youtube.com"

var cfg = Config{
	YouTubeBaseURL: DefaultYouTubeBaseURL,
	FetchTimeout:   10 * time.Second,
	HTTPClient:     http.DefaultClient,
}

// Cfg exposes the engine configuration for sub-packages.
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.YouTubeBaseURL == "" {
		c.YouTubeBaseURL = DefaultYouTubeBaseURL
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	cfg = c
	Cfg = &cfg
}
