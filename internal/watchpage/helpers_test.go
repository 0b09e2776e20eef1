package watchpage

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

const testVideoID = "dQw4w9WgXcQ"

// watchHTML builds a minimal watch page carrying the same inline JSON as the real one.
func watchHTML(t *testing.T, title, description, params string, tracks []CaptionTrack) string {
	t.Helper()
	player := map[string]any{
		"videoDetails": map[string]any{
			"videoId":          testVideoID,
			"title":            title,
			"shortDescription": description,
		},
		"playabilityStatus": map[string]any{"status": "OK"},
	}
	if len(tracks) > 0 {
		player["captions"] = map[string]any{
			"playerCaptionsTracklistRenderer": map[string]any{"captionTracks": tracks},
		}
	}
	playerJSON, err := json.Marshal(player)
	require.NoError(t, err)

	initialData := `{}`
	if params != "" {
		initialData = fmt.Sprintf(`{"engagementPanels":[{"continuationItemRenderer":{"continuationEndpoint":{"getTranscriptEndpoint":{"params":"%s"}}}}]}`, params)
	}

	return fmt.Sprintf(`<!DOCTYPE html><html><head>
<title>%s - YouTube</title>
<meta name="title" content="%s">
<meta property="og:title" content="%s">
</head><body>
<script>var ytInitialPlayerResponse = %s;var meta = {};</script>
<script>var ytInitialData = %s;</script>
</body></html>`, title, title, title, playerJSON, initialData)
}

// transcriptJSON builds a /get_transcript response.
func transcriptJSON(lines ...RawSegment) string {
	type run struct {
		Text string `json:"text"`
	}
	segs := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		segs = append(segs, map[string]any{
			"transcriptSegmentRenderer": map[string]any{
				"startTimeText": map[string]any{"simpleText": l.Timestamp},
				"snippet":       map[string]any{"runs": []run{{Text: l.Text}}},
			},
		})
	}
	resp := map[string]any{
		"actions": []any{map[string]any{
			"updateEngagementPanelAction": map[string]any{
				"content": map[string]any{
					"transcriptRenderer": map[string]any{
						"content": map[string]any{
							"transcriptSearchPanelRenderer": map[string]any{
								"body": map[string]any{
									"transcriptSegmentListRenderer": map[string]any{"initialSegments": segs},
								},
							},
						},
					},
				},
			},
		}},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

// fakeYouTube serves watch pages and Innertube endpoints and counts hits per path.
type fakeYouTube struct {
	*httptest.Server
	mux  *http.ServeMux
	hits map[string]*atomic.Int64
}

func newFakeYouTube(t *testing.T) *fakeYouTube {
	t.Helper()
	f := &fakeYouTube{mux: http.NewServeMux(), hits: map[string]*atomic.Int64{}}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, ok := f.hits[r.URL.Path]; ok {
			c.Add(1)
		}
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Close)

	engine.Init(engine.Config{
		YouTubeBaseURL: f.URL,
		FetchTimeout:   2 * time.Second,
		HTTPClient:     f.Client(),
	})
	engine.InitCache(0, 0, 0)
	return f
}

// handle registers a handler and starts counting hits on path.
func (f *fakeYouTube) handle(path string, h http.HandlerFunc) {
	f.hits[path] = &atomic.Int64{}
	f.mux.HandleFunc(path, h)
}

func (f *fakeYouTube) count(path string) int64 {
	if c, ok := f.hits[path]; ok {
		return c.Load()
	}
	return 0
}

func serveString(body, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}
}
