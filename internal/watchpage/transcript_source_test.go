package watchpage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{5.9, "0:05"},
		{65, "1:05"},
		{599, "9:59"},
		{3600, "1:00:00"},
		{3725.2, "1:02:05"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.in); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseTimedText(t *testing.T) {
	body := `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0.24" dur="2.1">Hello &amp;amp; welcome</text>
<text start="65.5" dur="1">it&amp;#39;s
 two lines</text>
<text start="70" dur="1"></text>
<text start="3725" dur="1">&lt;i&gt;late&lt;/i&gt;</text>
</transcript>`

	got, err := parseTimedText([]byte(body))
	if err != nil {
		t.Fatalf("parseTimedText error: %v", err)
	}
	want := []RawSegment{
		{Timestamp: "0:00", Text: "Hello & welcome"},
		{Timestamp: "1:05", Text: "it's two lines"},
		{Timestamp: "1:10", Text: ""},
		{Timestamp: "1:02:05", Text: "late"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseTimedText =\n%+v\nwant\n%+v", got, want)
	}

	if _, err := parseTimedText([]byte("<transcript><text>")); err == nil {
		t.Error("expected error for truncated XML")
	}
}

func TestPickBestTrack(t *testing.T) {
	manualEN := CaptionTrack{BaseURL: "u1", LanguageCode: "en"}
	autoEN := CaptionTrack{BaseURL: "u2", LanguageCode: "en", Kind: "asr"}
	manualDE := CaptionTrack{BaseURL: "u3", LanguageCode: "de"}
	enGB := CaptionTrack{BaseURL: "u4", LanguageCode: "en-GB"}
	poToken := CaptionTrack{BaseURL: "u5?x=1&exp=xpe", LanguageCode: "en"}

	tests := []struct {
		name   string
		tracks []CaptionTrack
		langs  []string
		want   CaptionTrack
		ok     bool
	}{
		{"manual preferred over asr", []CaptionTrack{autoEN, manualEN}, []string{"en"}, manualEN, true},
		{"asr in preferred language", []CaptionTrack{manualDE, autoEN}, []string{"en"}, autoEN, true},
		{"language order", []CaptionTrack{manualEN, manualDE}, []string{"de", "en"}, manualDE, true},
		{"any english", []CaptionTrack{manualDE, enGB}, []string{"fr"}, enGB, true},
		{"first usable", []CaptionTrack{manualDE}, []string{"fr"}, manualDE, true},
		{"po token skipped", []CaptionTrack{poToken, manualDE}, []string{"en"}, manualDE, true},
		{"nothing usable", []CaptionTrack{poToken}, []string{"en"}, CaptionTrack{}, false},
		{"no tracks", nil, []string{"en"}, CaptionTrack{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pickBestTrack(tt.tracks, tt.langs)
			if ok != tt.ok || got != tt.want {
				t.Errorf("pickBestTrack = (%+v, %v), want (%+v, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestEngagementSource(t *testing.T) {
	yt := newFakeYouTube(t)
	var mu sync.Mutex
	var gotParams, clientName, visitor string
	yt.handle(ytGetTranscriptPath, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		clientName = r.Header.Get("X-Youtube-Client-Name")
		visitor = r.Header.Get("X-Goog-Visitor-Id")
		var payload struct {
			Params string `json:"params"`
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		gotParams = payload.Params
		_, _ = w.Write([]byte(transcriptJSON(
			RawSegment{Timestamp: "0:00", Text: "first  line"},
			RawSegment{Timestamp: "0:04", Text: "second"},
		)))
	})

	src := NewLoader().Source(&PageData{VideoID: testVideoID, TranscriptParams: "tok=="})
	got, err := src.Segments(context.Background())
	if err != nil {
		t.Fatalf("Segments error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if clientName != "1" || visitor == "" {
		t.Errorf("WEB client headers: name=%q visitor=%q", clientName, visitor)
	}
	if gotParams != "tok==" {
		t.Errorf("params = %q, want tok==", gotParams)
	}
	want := []RawSegment{{Timestamp: "0:00", Text: "first line"}, {Timestamp: "0:04", Text: "second"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segments = %+v, want %+v", got, want)
	}
	if n := yt.count(ytNextPath); n != 0 {
		t.Errorf("/next called %d times; params came from the page", n)
	}
}

func TestEngagementSource_DiscoversParamsViaNext(t *testing.T) {
	yt := newFakeYouTube(t)
	yt.handle(ytNextPath, serveString(`{"engagementPanels":[{"getTranscriptEndpoint":{"params":"from%3Dnext"}}]}`, "application/json"))
	var mu sync.Mutex
	var body string
	yt.handle(ytGetTranscriptPath, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		body = string(b)
		mu.Unlock()
		_, _ = w.Write([]byte(transcriptJSON(RawSegment{Timestamp: "0:01", Text: "x"})))
	})

	got, err := NewLoader().Source(&PageData{VideoID: testVideoID}).Segments(context.Background())
	if err != nil {
		t.Fatalf("Segments error: %v", err)
	}
	mu.Lock()
	if !strings.Contains(body, `"params":"from=next"`) {
		t.Errorf("get_transcript body = %s", body)
	}
	mu.Unlock()
	if len(got) != 1 {
		t.Errorf("got %d segments, want 1", len(got))
	}
	if n := yt.count(ytNextPath); n != 1 {
		t.Errorf("/next called %d times, want 1", n)
	}
}

func TestSource_FallsBackToCaptionTrack(t *testing.T) {
	yt := newFakeYouTube(t)
	yt.handle(ytGetTranscriptPath, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "precondition", http.StatusBadRequest)
	})
	yt.handle("/api/timedtext", serveString(`<transcript><text start="1" dur="1">from captions</text></transcript>`, "text/xml"))

	data := &PageData{
		VideoID:          testVideoID,
		TranscriptParams: "tok",
		CaptionTracks:    []CaptionTrack{{BaseURL: yt.URL + "/api/timedtext?v=" + testVideoID + "&lang=en", LanguageCode: "en"}},
	}
	got, err := NewLoader().Source(data).Segments(context.Background())
	if err != nil {
		t.Fatalf("Segments error: %v", err)
	}
	want := []RawSegment{{Timestamp: "0:01", Text: "from captions"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segments = %+v, want %+v", got, want)
	}
	if n := yt.count("/api/timedtext"); n != 1 {
		t.Errorf("timedtext fetched %d times, want 1", n)
	}
}

func TestSource_AllFail(t *testing.T) {
	yt := newFakeYouTube(t)
	yt.handle(ytNextPath, serveString(`{}`, "application/json"))

	_, err := NewLoader().Source(&PageData{VideoID: testVideoID}).Segments(context.Background())
	if err == nil || !strings.Contains(err.Error(), "engagement_panel") {
		t.Errorf("Segments error = %v, want engagement_panel failure", err)
	}
}

func TestFallbackSource_EmptyResultTriesNext(t *testing.T) {
	empty := SegmentSourceFunc(func(context.Context) ([]RawSegment, error) { return nil, nil })
	full := SegmentSourceFunc(func(context.Context) ([]RawSegment, error) {
		return []RawSegment{{Text: "ok"}}, nil
	})

	got, err := fallbackSource{{"empty", empty}, {"full", full}}.Segments(context.Background())
	if err != nil {
		t.Fatalf("Segments error: %v", err)
	}
	if len(got) != 1 || got[0].Text != "ok" {
		t.Errorf("Segments = %+v", got)
	}

	if _, err := (fallbackSource{}).Segments(context.Background()); !errors.Is(err, errNoTranscriptSource) {
		t.Errorf("empty fallback error = %v, want errNoTranscriptSource", err)
	}
}
