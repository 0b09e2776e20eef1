package extractor

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_transcript/internal/dom"
)

const watchShell = `<html><head><title>Test Video - YouTube</title></head><body>
<div id="primary">
  <h1 class="ytd-watch-metadata"><yt-formatted-string>Test Video</yt-formatted-string></h1>
  <div id="below">%s</div>
  <div id="segments"></div>
</div>
</body></html>`

const transcriptButton = `<div id="description"><button aria-label="Show transcript">Show transcript</button></div>`

// fastConfig keeps polling tests in the tens of milliseconds.
func fastConfig() Config {
	return Config{
		PollInterval:    5 * time.Millisecond,
		ReadyTimeout:    200 * time.Millisecond,
		MinSegments:     3,
		ShortGrace:      60 * time.Millisecond,
		DescriptionWait: 50 * time.Millisecond,
	}
}

func newPage(t *testing.T, below string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(fmt.Sprintf(watchShell, below), "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10s")
	require.NoError(t, err)
	return doc
}

// segmentMarkup renders a segment the way the watch page does: a styled outer
// row containing the timestamp and the text, separated by whitespace.
func segmentMarkup(ts, text string) string {
	return `<ytd-transcript-segment-renderer>
  <div class="segment style-scope ytd-transcript-segment-renderer" role="button" tabindex="0">
    <div class="segment-start-offset"><div class="segment-timestamp style-scope ytd-transcript-segment-renderer">` + ts + `</div></div>
    <yt-formatted-string class="segment-text style-scope ytd-transcript-segment-renderer">` + text + `</yt-formatted-string>
  </div>
</ytd-transcript-segment-renderer>`
}

type seg struct{ ts, text string }

func renderSegments(t *testing.T, doc *dom.Document, segs ...seg) {
	t.Helper()
	var sb strings.Builder
	for _, s := range segs {
		sb.WriteString(segmentMarkup(s.ts, s.text))
	}
	require.NoError(t, doc.AppendHTML(doc.QuerySelector("#segments"), sb.String()))
}

// onTranscriptClick wires fn to the transcript button and counts clicks.
func onTranscriptClick(t *testing.T, doc *dom.Document, fn func(n int64)) *atomic.Int64 {
	t.Helper()
	btn := doc.QuerySelector(`button[aria-label="Show transcript"]`)
	require.NotNil(t, btn)
	var clicks atomic.Int64
	btn.AddEventListener(func(*dom.Element) {
		n := clicks.Add(1)
		if fn != nil {
			fn(n)
		}
	})
	return &clicks
}

// countingDoc records segment queries and can make segments vanish.
type countingDoc struct {
	*dom.Document
	segmentQueries atomic.Int64
	vanishAfter    int64 // 0 = never
}

func (c *countingDoc) QuerySelectorAll(selector string) []*dom.Element {
	for _, s := range segmentSelectors {
		if s == selector {
			n := c.segmentQueries.Add(1)
			if c.vanishAfter > 0 && n > c.vanishAfter {
				return nil
			}
		}
	}
	return c.Document.QuerySelectorAll(selector)
}
