//go:build integration

package watchpage

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/extractor"
)

// A long-lived video with manual English captions.
const liveURL = "https://www.youtube.com/watch?v=jNQXAC9IVRw"

func initLiveEngine() {
	engine.Init(engine.Config{
		FetchTimeout:      15 * time.Second,
		RequestsPerSecond: 2,
		HTTPClient: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	})
	engine.InitCache(15*time.Minute, 100, 5*time.Minute)
}

func TestIntegration_LoadWatchPage(t *testing.T) {
	initLiveEngine()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data, err := NewLoader().Load(ctx, liveURL)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if data.Title == "" {
		t.Error("empty title")
	}
	if !data.HasTranscript() {
		t.Fatal("expected a transcript source")
	}
	t.Logf("✓ %s: params=%v tracks=%d", data.Title, data.TranscriptParams != "", len(data.CaptionTracks))
}

func TestIntegration_ExtractTranscript(t *testing.T) {
	initLiveEngine()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	loader := NewLoader()
	data, err := loader.Load(ctx, liveURL)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	page, err := Open(data, loader.Source(data), DefaultOptions())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer page.Close()

	s := extractor.NewSession(page.Document(), extractor.DefaultConfig())
	defer s.Close()
	transcript, err := s.Extract(ctx, extractor.ExtractOptions{IncludeTimestamps: true})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(transcript) == 0 {
		t.Fatal("empty transcript")
	}
	t.Logf("✓ %d segments, first: [%s] %s", len(transcript), transcript[0].Timestamp, engine.Preview(transcript[0].Text))
}
