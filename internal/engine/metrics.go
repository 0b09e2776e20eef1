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
	Extractions           atomic.Int64
	ExtractionErrors      atomic.Int64
	ExtractionsRejected   atomic.Int64
	TranscriptUnavailable atomic.Int64
	TranscriptTimeouts    atomic.Int64
	SegmentsParsed        atomic.Int64
	SegmentsDropped       atomic.Int64
	PageLoads             atomic.Int64
	PageLoadErrors        atomic.Int64
	InnertubeRequests     atomic.Int64
	TimedTextRequests     atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"extractions":            metrics.Extractions.Load(),
		"extraction_errors":      metrics.ExtractionErrors.Load(),
		"extractions_rejected":   metrics.ExtractionsRejected.Load(),
		"transcript_unavailable": metrics.TranscriptUnavailable.Load(),
		"transcript_timeouts":    metrics.TranscriptTimeouts.Load(),
		"segments_parsed":        metrics.SegmentsParsed.Load(),
		"segments_dropped":       metrics.SegmentsDropped.Load(),
		"page_loads":             metrics.PageLoads.Load(),
		"page_load_errors":       metrics.PageLoadErrors.Load(),
		"innertube_requests":     metrics.InnertubeRequests.Load(),
		"timedtext_requests":     metrics.TimedTextRequests.Load(),
		"cache_hits":             hits,
		"cache_misses":           misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"extractions", "extraction_errors", "extractions_rejected",
		"transcript_unavailable", "transcript_timeouts",
		"segments_parsed", "segments_dropped",
		"page_loads", "page_load_errors",
		"innertube_requests", "timedtext_requests",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for extractor/ and watchpage/.
func IncrExtractions()           { metrics.Extractions.Add(1) }
func IncrExtractionErrors()      { metrics.ExtractionErrors.Add(1) }
func IncrExtractionsRejected()   { metrics.ExtractionsRejected.Add(1) }
func IncrTranscriptUnavailable() { metrics.TranscriptUnavailable.Add(1) }
func IncrTranscriptTimeouts()    { metrics.TranscriptTimeouts.Add(1) }
func IncrPageLoads()             { metrics.PageLoads.Add(1) }
func IncrPageLoadErrors()        { metrics.PageLoadErrors.Add(1) }
func IncrInnertubeRequests()     { metrics.InnertubeRequests.Add(1) }
func IncrTimedTextRequests()     { metrics.TimedTextRequests.Add(1) }

// AddSegments records how many segments a scan kept and dropped.
func AddSegments(parsed, dropped int) {
	metrics.SegmentsParsed.Add(int64(parsed))
	metrics.SegmentsDropped.Add(int64(dropped))
}

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, threshold time.Duration, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > threshold {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
