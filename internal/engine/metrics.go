package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	AcquireRequests  atomic.Int64
	AcquireErrors    atomic.Int64
	FetchRequests    atomic.Int64
	FetchErrors      atomic.Int64
	WatchPageHits    atomic.Int64
	TrackListHits    atomic.Int64
	ParamSweepHits   atomic.Int64
	InnertubeHits    atomic.Int64
	PlayerAPIHits    atomic.Int64
	ReaderHits       atomic.Int64
	ReaderTimeouts   atomic.Int64
	CrossCheckHits   atomic.Int64
	SanitizeRejects  atomic.Int64
	LLMCalls         atomic.Int64
	LLMErrors        atomic.Int64
	DispatchBusy     atomic.Int64
	DispatchFailures atomic.Int64
}

// Source names, shared by the sources and the per-source success counters.
const (
	SourceWatchPage  = "watch-page"
	SourceTrackList  = "track-list"
	SourceParamSweep = "param-sweep"
	SourceInnertube  = "innertube-panel"
	SourcePlayerAPI  = "player-api"
	SourceReader     = "reader"
)

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"acquire_requests":  metrics.AcquireRequests.Load(),
		"acquire_errors":    metrics.AcquireErrors.Load(),
		"fetch_requests":    metrics.FetchRequests.Load(),
		"fetch_errors":      metrics.FetchErrors.Load(),
		"watch_page_hits":   metrics.WatchPageHits.Load(),
		"track_list_hits":   metrics.TrackListHits.Load(),
		"param_sweep_hits":  metrics.ParamSweepHits.Load(),
		"innertube_hits":    metrics.InnertubeHits.Load(),
		"player_api_hits":   metrics.PlayerAPIHits.Load(),
		"reader_hits":       metrics.ReaderHits.Load(),
		"reader_timeouts":   metrics.ReaderTimeouts.Load(),
		"cross_check_hits":  metrics.CrossCheckHits.Load(),
		"sanitize_rejects":  metrics.SanitizeRejects.Load(),
		"llm_calls":         metrics.LLMCalls.Load(),
		"llm_errors":        metrics.LLMErrors.Load(),
		"dispatch_busy":     metrics.DispatchBusy.Load(),
		"dispatch_failures": metrics.DispatchFailures.Load(),
		"cache_hits":        hits,
		"cache_misses":      misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"acquire_requests", "acquire_errors",
		"fetch_requests", "fetch_errors",
		"watch_page_hits", "track_list_hits", "param_sweep_hits",
		"innertube_hits", "player_api_hits",
		"reader_hits", "reader_timeouts", "cross_check_hits",
		"sanitize_rejects",
		"llm_calls", "llm_errors",
		"dispatch_busy", "dispatch_failures",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for sub-packages.
func IncrAcquire()          { metrics.AcquireRequests.Add(1) }
func IncrAcquireError()     { metrics.AcquireErrors.Add(1) }
func IncrReaderTimeout()    { metrics.ReaderTimeouts.Add(1) }
func IncrCrossCheck()       { metrics.CrossCheckHits.Add(1) }
func IncrSanitizeReject()   { metrics.SanitizeRejects.Add(1) }
func IncrDispatchBusy()     { metrics.DispatchBusy.Add(1) }
func IncrDispatchFailure()  { metrics.DispatchFailures.Add(1) }
func IncrLLMCall()          { metrics.LLMCalls.Add(1) }
func IncrLLMError()         { metrics.LLMErrors.Add(1) }

// IncrSourceHit counts a successful acquisition by source name.
func IncrSourceHit(source string) {
	switch source {
	case SourceWatchPage:
		metrics.WatchPageHits.Add(1)
	case SourceTrackList:
		metrics.TrackListHits.Add(1)
	case SourceParamSweep:
		metrics.ParamSweepHits.Add(1)
	case SourceInnertube:
		metrics.InnertubeHits.Add(1)
	case SourcePlayerAPI:
		metrics.PlayerAPIHits.Add(1)
	case SourceReader:
		metrics.ReaderHits.Add(1)
	}
}

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
