package extractor

import (
	"encoding/json"
	"strings"
	"time"
	"unicode"
)

// FormatText renders one line per segment: "[timestamp] text" when
// timestamps are requested and present, otherwise the bare text.
func FormatText(t Transcript, includeTimestamps bool) string {
	var sb strings.Builder
	for _, seg := range t {
		if includeTimestamps && seg.Timestamp != "" {
			sb.WriteString("[" + seg.Timestamp + "] ")
		}
		sb.WriteString(seg.Text)
		sb.WriteByte('\n')
	}
	return strings.TrimRightFunc(sb.String(), unicode.IsSpace)
}

// FormatMarkdown renders one paragraph per segment with a bold timestamp.
func FormatMarkdown(t Transcript, includeTimestamps bool) string {
	var sb strings.Builder
	for _, seg := range t {
		if includeTimestamps && seg.Timestamp != "" {
			sb.WriteString("**[" + seg.Timestamp + "]** ")
		}
		sb.WriteString(seg.Text)
		sb.WriteString("\n\n")
	}
	return strings.TrimRightFunc(sb.String(), unicode.IsSpace)
}

// FormatTextDocument prefixes FormatText with a title/URL/extraction-time header,
// the layout of a saved transcript file.
func FormatTextDocument(info VideoInfo, t Transcript, includeTimestamps bool) string {
	if len(t) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("YouTube Transcript\n")
	sb.WriteString("Title: " + info.Title + "\n")
	sb.WriteString("URL: " + info.URL + "\n")
	sb.WriteString("Extracted: " + info.ExtractedAt.Format(time.RFC1123) + "\n\n")
	sb.WriteString(FormatText(t, includeTimestamps))
	return sb.String()
}

// jsonDocument is the shape of the JSON export.
type jsonDocument struct {
	VideoInfo  VideoInfo  `json:"videoInfo"`
	Transcript Transcript `json:"transcript"`
}

// FormatJSON renders the video info and transcript as indented JSON.
func FormatJSON(info VideoInfo, t Transcript) (string, error) {
	if t == nil {
		t = Transcript{}
	}
	data, err := json.MarshalIndent(jsonDocument{VideoInfo: info, Transcript: t}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
