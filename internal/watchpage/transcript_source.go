package watchpage

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// RawSegment is one transcript line as served by YouTube.
type RawSegment struct {
	Timestamp string
	Text      string
}

// SegmentSource supplies the lines the transcript panel renders.
type SegmentSource interface {
	Segments(ctx context.Context) ([]RawSegment, error)
}

// SegmentSourceFunc adapts a function to SegmentSource.
type SegmentSourceFunc func(ctx context.Context) ([]RawSegment, error)

// Segments calls f.
func (f SegmentSourceFunc) Segments(ctx context.Context) ([]RawSegment, error) { return f(ctx) }

var errNoTranscriptSource = errors.New("no transcript source advertised")

// Source returns the transcript source for a loaded page.
// Primary:  engagement panel /get_transcript (what the real panel renders)
// Fallback: best caption track, timedtext XML
func (l *Loader) Source(data *PageData) SegmentSource {
	var chain fallbackSource
	chain = append(chain, namedSource{"engagement_panel", &engagementSource{loader: l, videoID: data.VideoID, params: data.TranscriptParams}})
	if track, ok := pickBestTrack(data.CaptionTracks, l.langs); ok {
		chain = append(chain, namedSource{"caption_track", &captionSource{loader: l, track: track}})
	}
	return chain
}

type namedSource struct {
	name string
	src  SegmentSource
}

// fallbackSource tries each source in order and returns the first non-empty result.
type fallbackSource []namedSource

func (f fallbackSource) Segments(ctx context.Context) ([]RawSegment, error) {
	var errs []error
	for _, s := range f {
		segs, err := s.src.Segments(ctx)
		if err == nil && len(segs) > 0 {
			return segs, nil
		}
		if err == nil {
			err = errors.New("empty transcript")
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("youtube: transcript source failed", slog.String("source", s.name), slog.Any("error", err))
		errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
	}
	if len(errs) == 0 {
		return nil, errNoTranscriptSource
	}
	return nil, errors.Join(errs...)
}

// engagementSource fetches the transcript the way the watch page panel does:
// /get_transcript with the continuation params, discovered via /next when
// the page did not embed them.
type engagementSource struct {
	loader  *Loader
	videoID string
	params  string
}

func (s *engagementSource) Segments(ctx context.Context) ([]RawSegment, error) {
	visitorData := generateVisitorData()

	params := s.params
	if params == "" {
		nextData, err := s.loader.postInnerTubeWEB(ctx, ytNextPath, map[string]any{
			"videoId": s.videoID,
			"context": ytWebContext(visitorData),
		}, visitorData)
		if err != nil {
			return nil, fmt.Errorf("/next: %w", err)
		}
		if params = transcriptParams(nextData); params == "" {
			return nil, errors.New("getTranscriptEndpoint not found in engagement panels")
		}
	}

	data, err := s.loader.postInnerTubeWEB(ctx, ytGetTranscriptPath, map[string]any{
		"params":  params,
		"context": ytWebContext(visitorData),
	}, visitorData)
	if err != nil {
		return nil, fmt.Errorf("/get_transcript: %w", err)
	}

	var resp ytGetTranscriptResp
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return parseTranscriptSegments(resp), nil
}

// parseTranscriptSegments flattens a /get_transcript response. Blank lines
// are kept; the panel renders them and the parser drops them.
func parseTranscriptSegments(resp ytGetTranscriptResp) []RawSegment {
	var out []RawSegment
	for _, action := range resp.Actions {
		if action.UpdateEngagementPanelAction == nil {
			continue
		}
		segs := action.UpdateEngagementPanelAction.Content.
			TranscriptRenderer.Content.
			TranscriptSearchPanelRenderer.Body.
			TranscriptSegmentListRenderer.InitialSegments
		for _, seg := range segs {
			r := seg.TranscriptSegmentRenderer
			if r == nil {
				continue
			}
			var sb strings.Builder
			for _, run := range r.Snippet.Runs {
				sb.WriteString(run.Text)
			}
			ts := strings.TrimSpace(r.StartTimeText.SimpleText)
			if ts == "" {
				if ms, err := strconv.ParseInt(r.StartMs, 10, 64); err == nil {
					ts = FormatTimestamp(float64(ms) / 1000)
				}
			}
			out = append(out, RawSegment{Timestamp: ts, Text: engine.CollapseSpace(sb.String())})
		}
	}
	return out
}

// captionSource fetches a caption track's timedtext XML.
type captionSource struct {
	loader *Loader
	track  CaptionTrack
}

func (s *captionSource) Segments(ctx context.Context) ([]RawSegment, error) {
	if err := s.loader.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	engine.IncrTimedTextRequests()

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.track.BaseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch timedtext: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, err
	}
	return parseTimedText(body)
}

func parseTimedText(body []byte) ([]RawSegment, error) {
	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}
	out := make([]RawSegment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		// Caption text arrives entity-escaped twice; XML decoding removes one layer.
		text := engine.CollapseSpace(engine.CleanHTML(html.UnescapeString(line.Text)))
		out = append(out, RawSegment{Timestamp: FormatTimestamp(line.Start), Text: text})
	}
	return out, nil
}

// FormatTimestamp renders seconds as M:SS, or H:MM:SS from one hour on.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack selects the best usable caption track for the language preferences:
// a manual track, then an auto-generated one, then any English track.
func pickBestTrack(tracks []CaptionTrack, langs []string) (CaptionTrack, bool) {
	usable := make([]CaptionTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.BaseURL != "" && !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return CaptionTrack{}, false
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}
