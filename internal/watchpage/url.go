// Package watchpage builds the live host page the extractor works against.
//
// A watch page is loaded over HTTP (Chrome-fingerprinted when a browser client
// is configured), its metadata and transcript endpoints are pulled out of the
// embedded player and initial-data JSON, and a Page renders it into a
// dom.Document that behaves like the real one: the description region is
// hydrated after a delay, and the transcript control fetches and renders
// segments progressively when clicked.
//
// Files are split by responsibility:
//
//	url.go               - watch URL validation
//	loader.go            - watch page fetch, cache and metadata extraction
//	innertube.go         - Innertube types, constants and HTTP primitives
//	transcript_source.go - segment sources (engagement panel, caption tracks)
//	render.go            - host page markup
//	page.go              - live page: hydration, panel toggling, progressive rendering
package watchpage

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// ErrNotWatchPage rejects URLs that do not point at a single YouTube video.
var ErrNotWatchPage = errors.New("not a YouTube watch page")

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

var youtubeHosts = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
}

// VideoIDFromURL returns the video id of a watch URL
// (youtube.com/watch?v=ID, youtu.be/ID or youtube.com/shorts/ID).
func VideoIDFromURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", ErrNotWatchPage
	}
	host := strings.ToLower(u.Hostname())

	var id string
	switch {
	case host == "youtu.be":
		id = strings.Trim(u.Path, "/")
	case youtubeHosts[host] && u.Path == "/watch":
		id = u.Query().Get("v")
	case youtubeHosts[host] && strings.HasPrefix(u.Path, "/shorts/"):
		id = strings.Trim(strings.TrimPrefix(u.Path, "/shorts/"), "/")
	}
	if !videoIDRe.MatchString(id) {
		return "", ErrNotWatchPage
	}
	return id, nil
}

// CanonicalURL is the watch URL that youtu.be and shorts links redirect to.
func CanonicalURL(videoID string) string {
	return engine.DefaultYouTubeBaseURL + "/watch?v=" + videoID
}
