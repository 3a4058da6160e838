// go_transcript is a YouTube transcript MCP server.
//
// Exposes four MCP tools: youtube_transcript, transcript_sanitize,
// transcript_prompt, transcript_history.
// Runs as HTTP MCP server or stdio transport.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"
	"github.com/anatolykoptev/go-mcpserver"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/acquire"
	"github.com/anatolykoptev/go_transcript/internal/engine/archive"
	"github.com/anatolykoptev/go_transcript/internal/engine/dispatch"
	"github.com/anatolykoptev/go_transcript/internal/engine/reader"
	"github.com/anatolykoptev/go_transcript/internal/transcriptserver"
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

	store, err := archive.Open(context.Background(), engine.Cfg.DatabaseURL, engine.Cfg.ArchivePath)
	if err != nil {
		slog.Warn("archive init failed, running without archive", slog.Any("error", err))
	} else if store != nil {
		defer store.Close()
		slog.Info("archive initialized")
	}

	fetcher := engine.NewFetcher()
	browser := newReaderBrowser(fetcher)
	if closer, ok := browser.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	ts := &transcriptserver.Server{
		Acquirer:   acquire.New(fetcher, reader.New(browser)),
		Archive:    store,
		Dispatcher: dispatch.New(engine.Cfg.DispatchMaxAttempts),
		Surface:    dispatch.LLMSurface{},
		Fetcher:    fetcher,
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_transcript",
		Version: version,
	}, nil)

	ts.RegisterTools(server)
	slog.Info("tools registered", slog.Int("count", transcriptserver.ToolCount))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_transcript",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 300 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

// newReaderBrowser picks the reader page renderer: headless Chrome by default,
// plain HTTP when READER_RENDERER=static.
func newReaderBrowser(f engine.Fetcher) reader.Browser {
	if strings.EqualFold(engine.Cfg.ReaderRenderer, "static") {
		slog.Info("reader: static renderer")
		return &reader.StaticBrowser{Fetcher: f}
	}
	slog.Info("reader: rod renderer", slog.String("chrome", engine.Cfg.ChromeBin))
	return reader.NewRodBrowser(engine.Cfg.ChromeBin)
}

func initEngine() {
	c := engine.Config{
		LLMAPIKey:            env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks:   env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:           env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:             env.Str("LLM_MODEL", "gemini-2.5-flash"),
		LLMTemperature:       env.Float("LLM_TEMPERATURE", 0.3),
		LLMMaxTokens:         env.Int("LLM_MAX_TOKENS", 8192),
		FetchTimeout:         env.Duration("FETCH_TIMEOUT", engine.DefaultFetchTimeout),
		YouTubeRPS:           env.Float("YOUTUBE_RPS", 2),
		ReaderBaseURL:        env.Str("READER_BASE_URL", engine.DefaultReaderBaseURL),
		ReaderTimeout:        env.Duration("READER_TIMEOUT", engine.DefaultReaderTimeout),
		ReaderRenderer:       env.Str("READER_RENDERER", "rod"),
		ChromeBin:            env.Str("CHROME_BIN", ""),
		TrackCacheSize:       env.Int("TRACK_CACHE_SIZE", 64),
		TrackCacheTTL:        env.Duration("TRACK_CACHE_TTL", 10*time.Minute),
		MaxPromptChars:       env.Int("MAX_PROMPT_CHARS", 0),
		DispatchMaxAttempts:  env.Int("DISPATCH_MAX_ATTEMPTS", dispatch.DefaultMaxAttempts),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 500),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		ArchivePath:          env.Str("ARCHIVE_PATH", archive.DefaultSQLitePath()),
		DatabaseURL:          env.Str("DATABASE_URL", ""),
	}
	c.HTTPClient = &http.Client{
		Timeout: c.FetchTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     60 * time.Second,
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

	if c.LLMAPIKey != "" {
		client := llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
			llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
			llm.WithMaxTokens(c.LLMMaxTokens),
			llm.WithTemperature(c.LLMTemperature),
			llm.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
		)
		c.LLMComplete = func(ctx context.Context, prompt string) (string, error) {
			return client.Complete(ctx, "", prompt)
		}
		slog.Info("llm auto-submit enabled", slog.String("model", c.LLMModel))
	}

	engine.Init(c)

	cacheTTL := env.Duration("CACHE_TTL", 30*time.Minute)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
}
