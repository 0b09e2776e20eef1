// go_transcript: YouTube transcript extraction MCP server.
//
// Exposes three MCP tools: extract_transcript, get_formatted_transcript,
// get_video_info. Each video is opened as a live watch page whose transcript
// panel is driven the way a viewer would: open it, wait for the segments to
// fill in, read them, close it again.
package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/extractor"
	"github.com/anatolykoptev/go_transcript/internal/transcriptserver"
	"github.com/anatolykoptev/go_transcript/internal/watchpage"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	initEngine()

	slog.Info("starting go_transcript",
		slog.String("port", mcpPort),
	)

	handler := transcriptserver.NewHandler(
		watchpage.NewLoader(env.List("TRANSCRIPT_LANGS", "en")...),
		transcriptserver.Config{
			Extractor: extractorConfig(),
			Page: watchpage.Options{
				HydrationDelay:   env.Duration("HYDRATION_DELAY", 300*time.Millisecond),
				RenderBatchSize:  env.Int("RENDER_BATCH_SIZE", 25),
				RenderBatchDelay: env.Duration("RENDER_BATCH_DELAY", 40*time.Millisecond),
			},
			MaxTabs:          env.Int("MAX_TABS", transcriptserver.DefaultMaxTabs),
			TabIdleTTL:       env.Duration("TAB_IDLE_TTL", transcriptserver.DefaultTabIdleTTL),
			TabSweepInterval: env.Duration("TAB_SWEEP_INTERVAL", transcriptserver.DefaultTabSweepInterval),
		},
	)
	defer handler.Close()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_transcript",
		Version: version,
	}, nil)

	transcriptserver.RegisterTools(server, handler)
	slog.Info("tools registered", slog.Int("count", 3))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_transcript",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 120 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func extractorConfig() extractor.Config {
	d := extractor.DefaultConfig()
	return extractor.Config{
		PollInterval:     env.Duration("TRANSCRIPT_POLL_INTERVAL", d.PollInterval),
		ReadyTimeout:     env.Duration("TRANSCRIPT_READY_TIMEOUT", d.ReadyTimeout),
		MinSegments:      env.Int("TRANSCRIPT_MIN_SEGMENTS", d.MinSegments),
		ShortGrace:       env.Duration("TRANSCRIPT_SHORT_GRACE", d.ShortGrace),
		DescriptionWait:  env.Duration("DESCRIPTION_WAIT", d.DescriptionWait),
		SlowExtractAfter: env.Duration("SLOW_EXTRACT_AFTER", d.SlowExtractAfter),
	}
}

func initEngine() {
	c := engine.Config{
		YouTubeBaseURL:       env.Str("YOUTUBE_BASE_URL", engine.DefaultYouTubeBaseURL),
		FetchTimeout:         env.Duration("FETCH_TIMEOUT", 10*time.Second),
		RequestsPerSecond:    env.Float("YT_REQUESTS_PER_SECOND", 2),
		PageCacheTTL:         env.Duration("PAGE_CACHE_TTL", 10*time.Minute),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 500),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
	var opts []stealth.ClientOption
	opts = append(opts, stealth.WithTimeout(15))

	if apiKey := env.Str("WEBSHARE_API_KEY", ""); apiKey != "" {
		pool, err := proxypool.NewWebshare(apiKey)
		if err != nil {
			slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
		} else {
			opts = append(opts, stealth.WithProxyPool(pool))
			slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
		}
	}

	bc, err := stealth.NewClient(opts...)
	if err != nil {
		slog.Error("stealth client init failed", slog.Any("error", err))
	} else {
		c.BrowserClient = bc
		slog.Info("stealth browser client initialized")
	}

	engine.Init(c)
	engine.InitCache(c.PageCacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
}
