package watchpage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// PageData is everything the host page needs, pulled out of one watch page.
type PageData struct {
	URL              string // the URL the user opened
	VideoID          string
	Title            string
	Description      string // plain text, newlines preserved
	TranscriptParams string // getTranscriptEndpoint params; empty if not advertised
	CaptionTracks    []CaptionTrack
}

// HasTranscript reports whether any transcript source is advertised.
func (d *PageData) HasTranscript() bool {
	return d.TranscriptParams != "" || len(d.CaptionTracks) > 0
}

// Loader fetches watch pages and talks to the transcript endpoints.
// Innertube and timedtext calls share one rate limiter.
type Loader struct {
	limiter *rate.Limiter
	langs   []string
}

// NewLoader creates a Loader paced by engine.Cfg.RequestsPerSecond.
// langs orders caption track preference; it defaults to English.
func NewLoader(langs ...string) *Loader {
	limit := rate.Inf
	if rps := engine.Cfg.RequestsPerSecond; rps > 0 {
		limit = rate.Limit(rps)
	}
	if len(langs) == 0 {
		langs = []string{"en"}
	}
	return &Loader{limiter: rate.NewLimiter(limit, 1), langs: langs}
}

const (
	playerResponseMarker = "ytInitialPlayerResponse = "
	youtubeTitleSuffix   = " - YouTube"
)

// getTranscriptRE extracts the engagement panel continuation params from
// ytInitialData or a raw /next response.
var getTranscriptRE = regexp.MustCompile(`"getTranscriptEndpoint":\{"params":"([^"]+)"`)

// jsonEscapes undoes the escapes the inline script JSON applies to params.
var jsonEscapes = strings.NewReplacer(`\u003d`, "=", `\u0026`, "&", `\u002f`, "/", `\/`, "/")

// Load validates rawURL, fetches the watch page (from the page cache when
// possible) and extracts its metadata.
func (l *Loader) Load(ctx context.Context, rawURL string) (*PageData, error) {
	videoID, err := VideoIDFromURL(rawURL)
	if err != nil {
		return nil, err
	}

	engine.IncrPageLoads()
	body, err := l.fetchWatchHTML(ctx, videoID)
	if err != nil {
		engine.IncrPageLoadErrors()
		return nil, fmt.Errorf("load watch page %s: %w", videoID, err)
	}

	data, err := ParseWatchPage(body)
	if err != nil {
		engine.IncrPageLoadErrors()
		return nil, fmt.Errorf("parse watch page %s: %w", videoID, err)
	}
	data.URL = rawURL
	data.VideoID = videoID
	slog.Debug("watch page loaded",
		slog.String("video_id", videoID),
		slog.String("title", data.Title),
		slog.Bool("engagement_panel", data.TranscriptParams != ""),
		slog.Int("caption_tracks", len(data.CaptionTracks)))
	return data, nil
}

func (l *Loader) fetchWatchHTML(ctx context.Context, videoID string) ([]byte, error) {
	key := engine.CacheKey("watch", videoID)
	if body, ok := engine.CacheGet(key); ok {
		return body, nil
	}
	watchURL := engine.Cfg.YouTubeBaseURL + "/watch?v=" + url.QueryEscape(videoID)
	body, err := engine.FetchPage(ctx, watchURL)
	if err != nil {
		return nil, err
	}
	engine.CacheSet(key, body)
	return body, nil
}

// ParseWatchPage extracts title, description and transcript endpoints from
// watch page HTML. A page with neither a title nor video details (a consent
// or error page) is rejected.
func ParseWatchPage(body []byte) (*PageData, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	data := &PageData{}

	var player playerResponse
	if idx := bytes.Index(body, []byte(playerResponseMarker)); idx >= 0 {
		if raw := extractJSON(body[idx+len(playerResponseMarker):]); raw != nil {
			if err := json.Unmarshal(raw, &player); err != nil {
				slog.Debug("watch page: decode player response", slog.Any("error", err))
			}
		}
	}
	if player.VideoDetails != nil {
		data.Description = player.VideoDetails.ShortDescription
	}
	if player.Captions != nil {
		data.CaptionTracks = player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	}
	data.TranscriptParams = transcriptParams(body)

	data.Title = engine.MetaContent(doc, `meta[name="title"]`)
	if data.Title == "" {
		data.Title = engine.MetaContent(doc, `meta[property="og:title"]`)
	}
	if data.Title == "" && player.VideoDetails != nil {
		data.Title = strings.TrimSpace(player.VideoDetails.Title)
	}
	if data.Title == "" {
		data.Title = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(doc.Find("title").First().Text()), youtubeTitleSuffix))
	}
	if data.Title == "" && player.VideoDetails == nil {
		return nil, errors.New("no title or video details found")
	}
	return data, nil
}

// transcriptParams returns the URL-decoded getTranscriptEndpoint params, or "".
func transcriptParams(data []byte) string {
	m := getTranscriptRE.FindSubmatch(data)
	if len(m) < 2 {
		return ""
	}
	raw := jsonEscapes.Replace(string(m[1]))
	// /get_transcript expects the decoded (raw base64) form.
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// extractJSON returns the complete JSON object starting at b[0] == '{'.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr, escaped := false, false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}
