package extractor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// Session runs extractions against one page and owns the resulting transcript.
// At most one extraction runs at a time; a second caller is rejected, not queued.
type Session struct {
	doc   Document
	panel *PanelController
	cfg   Config
	log   *slog.Logger

	mu                sync.Mutex
	extracting        bool
	closed            bool
	transcript        Transcript
	includeTimestamps bool
	lastID            string
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// NewSession creates a Session over doc.
func NewSession(doc Document, cfg Config, opts ...SessionOption) *Session {
	s := &Session{doc: doc, cfg: cfg.withDefaults(), log: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	s.panel = NewPanelController(doc, s.cfg, s.log)
	return s
}

// Extract opens the transcript panel, waits for content, parses the segments
// and closes the panel again. On success the parsed transcript replaces the
// stored one. Errors surface unchanged; closing the panel is best-effort and
// never masks them.
func (s *Session) Extract(ctx context.Context, opts ExtractOptions) (Transcript, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.extracting {
		s.mu.Unlock()
		engine.IncrExtractionsRejected()
		return nil, ErrAlreadyInProgress
	}
	s.extracting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.extracting = false
		s.mu.Unlock()
	}()

	id := uuid.NewString()
	log := s.log.With(slog.String("extraction_id", id))
	engine.IncrExtractions()

	var transcript Transcript
	err := engine.TrackOperation(ctx, "extract_transcript", s.cfg.SlowExtractAfter, func(ctx context.Context) error {
		var err error
		transcript, err = s.run(ctx, log)
		return err
	})
	if err != nil {
		recordFailure(err)
		log.Warn("transcript extraction failed", slog.Any("error", err))
		return nil, err
	}

	s.mu.Lock()
	if !s.closed {
		s.transcript = transcript
		s.includeTimestamps = opts.IncludeTimestamps
		s.lastID = id
	}
	s.mu.Unlock()

	log.Info("transcript extracted", slog.Int("segments", len(transcript)))
	return transcript.Clone(), nil
}

func (s *Session) run(ctx context.Context, log *slog.Logger) (Transcript, error) {
	log.Debug("opening transcript panel")
	handle, err := s.panel.OpenAndAwaitReady(ctx)
	if err != nil {
		closePanel(log, handle)
		return nil, err
	}

	elements := SegmentElements(s.doc)
	if len(elements) == 0 {
		closePanel(log, handle)
		return nil, ErrNoSegmentsFound
	}

	transcript := ParseSegments(elements, log)
	closePanel(log, handle)
	return transcript, nil
}

func closePanel(log *slog.Logger, h *PanelHandle) {
	if h == nil {
		return
	}
	if err := h.Close(); err != nil {
		log.Warn("failed to close transcript panel", slog.Any("error", err))
	}
}

func recordFailure(err error) {
	engine.IncrExtractionErrors()
	switch {
	case errors.Is(err, ErrTranscriptUnavailable):
		engine.IncrTranscriptUnavailable()
	case errors.Is(err, ErrTranscriptLoadTimeout):
		engine.IncrTranscriptTimeouts()
	}
}

// Transcript returns a copy of the last completed transcript.
func (s *Session) Transcript() Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Clone()
}

// Extracting reports whether an extraction is in flight.
func (s *Session) Extracting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extracting
}

// IncludeTimestamps returns the preference recorded by the last successful Extract.
func (s *Session) IncludeTimestamps() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.includeTimestamps
}

// LastExtractionID identifies the extraction that produced the current transcript.
func (s *Session) LastExtractionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastID
}

// FormatAsText formats the current transcript as plain text.
func (s *Session) FormatAsText(includeTimestamps bool) string {
	return FormatText(s.Transcript(), includeTimestamps)
}

// FormatAsMarkdown formats the current transcript as markdown.
func (s *Session) FormatAsMarkdown(includeTimestamps bool) string {
	return FormatMarkdown(s.Transcript(), includeTimestamps)
}

// Close discards the transcript and rejects further extractions.
// An in-flight extraction finishes but its result is not kept.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.transcript = nil
	s.lastID = ""
}
