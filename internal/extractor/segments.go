package extractor

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/dom"
	"github.com/anatolykoptev/go_transcript/internal/engine"
)

const (
	timestampPartSelector = `.segment-timestamp, [class*="timestamp"]`
	textPartSelector      = `.segment-text, [class*="segment-text"], .ytd-transcript-segment-renderer`
)

// leadingTimestampRe matches a leading M:SS, MM:SS or H:MM:SS token.
var leadingTimestampRe = regexp.MustCompile(`^\d+(?::\d+)+`)

var errNilSegment = errors.New("nil segment element")

// ParseSegments converts rendered segment elements into a Transcript in
// document order. Segments whose text is empty are dropped, and so is any
// segment whose parse fails; neither aborts the scan. Index is the element's
// position in elements, so dropped segments leave gaps.
func ParseSegments(elements []*dom.Element, log *slog.Logger) Transcript {
	if log == nil {
		log = slog.Default()
	}
	out := make(Transcript, 0, len(elements))
	dropped := 0
	for i, el := range elements {
		seg, err := parseSegment(el)
		if err != nil {
			log.Warn("error processing segment", slog.Int("index", i), slog.Any("error", err))
			dropped++
			continue
		}
		if seg.Text == "" {
			dropped++
			continue
		}
		seg.Index = i
		out = append(out, seg)
	}
	engine.AddSegments(len(out), dropped)
	log.Debug("segments parsed", slog.Int("kept", len(out)), slog.Int("dropped", dropped))
	return out
}

// parseSegment extracts timestamp and text from one segment. It prefers the
// dedicated timestamp and text parts; without both it splits a leading
// timestamp off the segment's full text.
func parseSegment(el *dom.Element) (seg Segment, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("segment parse panic: %v", r)
		}
	}()
	if el == nil {
		return Segment{}, errNilSegment
	}

	timePart := el.QuerySelector(timestampPartSelector)
	textPart := el.QuerySelector(textPartSelector)
	if timePart != nil && textPart != nil {
		text := strings.TrimSpace(textPart.Text())
		text = strings.TrimSpace(leadingTimestampRe.ReplaceAllString(text, ""))
		return Segment{
			Timestamp: strings.TrimSpace(timePart.Text()),
			Text:      text,
		}, nil
	}

	ts, text := SplitLeadingTimestamp(strings.TrimSpace(el.Text()))
	return Segment{Timestamp: ts, Text: text}, nil
}

// SplitLeadingTimestamp splits "0:05 hello" into ("0:05", "hello").
// Text without a leading timestamp is returned whole with an empty timestamp.
func SplitLeadingTimestamp(s string) (timestamp, text string) {
	loc := leadingTimestampRe.FindStringIndex(s)
	if loc == nil {
		return "", strings.TrimSpace(s)
	}
	return s[:loc[1]], strings.TrimSpace(s[loc[1]:])
}
