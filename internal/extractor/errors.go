package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Extraction failures. Each one surfaces to the caller unchanged so the UI can
// tell "this video has no transcript" apart from generic failures.
var (
	// ErrElementNotFound matches any *ElementNotFoundError via errors.Is.
	ErrElementNotFound = errors.New("element not found")

	// ErrTranscriptUnavailable means no transcript control could be found.
	ErrTranscriptUnavailable = errors.New("transcript button not found: this video may not have a transcript available")

	// ErrTranscriptLoadTimeout means the panel opened but its segments never filled with text.
	ErrTranscriptLoadTimeout = errors.New("transcript panel did not finish loading in time")

	// ErrNoSegmentsFound means the post-wait scan found no segment elements at all.
	ErrNoSegmentsFound = errors.New("transcript segments not found in the panel")

	// ErrAlreadyInProgress rejects a second extraction while one is running.
	ErrAlreadyInProgress = errors.New("extraction already in progress")

	// ErrSessionClosed rejects extraction after the session was torn down.
	ErrSessionClosed = errors.New("extraction session closed")
)

// ElementNotFoundError reports a bounded wait that expired.
type ElementNotFoundError struct {
	Selector string
	Timeout  time.Duration
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element %s not found within %dms", e.Selector, e.Timeout.Milliseconds())
}

// Is lets errors.Is(err, ErrElementNotFound) match.
func (e *ElementNotFoundError) Is(target error) bool {
	return target == ErrElementNotFound
}

// Error kinds reported at the messaging boundary.
const (
	KindElementNotFound       = "element_not_found"
	KindTranscriptUnavailable = "transcript_unavailable"
	KindTranscriptLoadTimeout = "transcript_load_timeout"
	KindNoSegmentsFound       = "no_segments_found"
	KindAlreadyInProgress     = "already_in_progress"
	KindSessionClosed         = "session_closed"
	KindCanceled              = "canceled"
	KindInternal              = "internal"
)

// Kind maps an extraction error to a stable machine-readable kind.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTranscriptUnavailable):
		return KindTranscriptUnavailable
	case errors.Is(err, ErrTranscriptLoadTimeout):
		return KindTranscriptLoadTimeout
	case errors.Is(err, ErrNoSegmentsFound):
		return KindNoSegmentsFound
	case errors.Is(err, ErrAlreadyInProgress):
		return KindAlreadyInProgress
	case errors.Is(err, ErrSessionClosed):
		return KindSessionClosed
	case errors.Is(err, ErrElementNotFound):
		return KindElementNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}
