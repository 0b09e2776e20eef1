// Package extractor pulls a timed transcript out of a rendered video page.
//
// A Session opens the page's transcript panel, polls until the rendered
// segments hold real text, parses each segment into a timestamp/text pair,
// closes the panel again and keeps the result in memory for formatting.
package extractor

import (
	"time"

	"github.com/anatolykoptev/go_transcript/internal/dom"
)

// Document is the read surface of the host page the extractor works against.
// *dom.Document implements it.
type Document interface {
	QuerySelector(selector string) *dom.Element
	QuerySelectorAll(selector string) []*dom.Element
	Body() *dom.Element
	Observe(root *dom.Element, fn func(dom.MutationRecord)) (disconnect func())
}

// Segment is one timed unit of transcript text.
type Segment struct {
	Timestamp string `json:"timestamp"` // may be empty
	Text      string `json:"text"`      // never empty
	Index     int    `json:"index"`     // position in the rendered panel
}

// Transcript is an ordered sequence of segments in panel order.
type Transcript []Segment

// Clone returns a copy that does not share backing storage.
func (t Transcript) Clone() Transcript {
	if t == nil {
		return nil
	}
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// VideoInfo is a snapshot of the page context at extraction time.
type VideoInfo struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	VideoID     *string   `json:"videoId"`
	ExtractedAt time.Time `json:"extractedAt"`
	Description string    `json:"description,omitempty"` // markdown
}

// ExtractOptions controls one extraction.
type ExtractOptions struct {
	// IncludeTimestamps is remembered as the session's default formatting preference.
	IncludeTimestamps bool
}
