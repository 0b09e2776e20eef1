// Package transcriptserver is the messaging boundary: it answers
// extractTranscript / getFormattedTranscript requests against one live watch
// page per video and exposes the same operations as MCP tools.
package transcriptserver

import "github.com/anatolykoptev/go_transcript/internal/extractor"

// Actions understood by Handler.Handle.
const (
	ActionExtractTranscript      = "extractTranscript"
	ActionGetFormattedTranscript = "getFormattedTranscript"
	ActionGetVideoInfo           = "getVideoInfo"
)

// Output formats for getFormattedTranscript.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Error kinds produced at the boundary in addition to extractor.Kind values.
const (
	KindInvalidRequest = "invalid_request"
	KindNotWatchPage   = "not_watch_page"
	KindNotExtracted   = "not_extracted"
	KindPageLoad       = "page_load_failed"
)

// Request is one message from the UI layer.
type Request struct {
	Action string `json:"action"`
	URL    string `json:"url"`
	// IncludeTimestamps defaults to false for extractTranscript. For
	// getFormattedTranscript nil means the preference of the last extraction.
	IncludeTimestamps *bool  `json:"includeTimestamps,omitempty"`
	Format            string `json:"format,omitempty"`
	Header            bool   `json:"header,omitempty"` // text format only: prepend title/URL/extracted
}

// Response answers a Request. Success false carries Error and ErrorKind.
type Response struct {
	Success             bool                 `json:"success"`
	Transcript          extractor.Transcript `json:"transcript,omitempty"`
	VideoInfo           *extractor.VideoInfo `json:"videoInfo,omitempty"`
	ExtractionID        string               `json:"extractionId,omitempty"`
	FormattedTranscript *string              `json:"formattedTranscript,omitempty"`
	Error               string               `json:"error,omitempty"`
	ErrorKind           string               `json:"errorKind,omitempty"`
}

func failure(kind string, err error) Response {
	return Response{Error: err.Error(), ErrorKind: kind}
}
