package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/dom"
)

// controlLocator finds a candidate transcript control. label, when set, must
// appear in the element's aria-label (case-insensitive).
type controlLocator struct {
	selector string
	label    string
}

// transcriptControls are tried in order; the page has used all of these shapes.
var transcriptControls = []controlLocator{
	{selector: `button[aria-label]`, label: "transcript"},
	{selector: `button[aria-label*="Show transcript"]`},
	{selector: `[role="button"][aria-label]`, label: "transcript"},
	{selector: `ytd-toggle-button-renderer button[aria-label]`, label: "transcript"},
	{selector: `ytd-video-description-transcript-section-renderer button`},
}

// descriptionSelector is the region the transcript control lives in.
const descriptionSelector = "#description"

// segmentSelectors are tried in order; the first that matches anything wins.
var segmentSelectors = []string{
	"ytd-transcript-segment-renderer",
	".ytd-transcript-segment-renderer",
	`[role="button"][tabindex="0"]`,
}

// PanelHandle references the control that opened the panel so it can be toggled closed.
type PanelHandle struct {
	control *dom.Element
}

// Close deactivates the panel by clicking its control again.
func (h *PanelHandle) Close() error {
	if h == nil || h.control == nil {
		return nil
	}
	return h.control.Click()
}

// PanelController opens the transcript panel and waits for its content.
type PanelController struct {
	doc Document
	cfg Config
	log *slog.Logger
}

// NewPanelController creates a controller over doc.
func NewPanelController(doc Document, cfg Config, log *slog.Logger) *PanelController {
	if log == nil {
		log = slog.Default()
	}
	return &PanelController{doc: doc, cfg: cfg.withDefaults(), log: log}
}

// OpenAndAwaitReady finds and clicks the transcript control, then polls until
// the panel holds real text. Once the control has been clicked the returned
// handle is non-nil even when err is not, so the caller can close the panel.
func (c *PanelController) OpenAndAwaitReady(ctx context.Context) (*PanelHandle, error) {
	control, err := c.findControl(ctx)
	if err != nil {
		return nil, err
	}

	if err := control.Click(); err != nil {
		return nil, fmt.Errorf("activate transcript control: %w", err)
	}
	handle := &PanelHandle{control: control}
	c.log.Debug("transcript control activated")

	if err := c.awaitReady(ctx); err != nil {
		return handle, err
	}
	return handle, nil
}

// findControl runs discovery, waits for the description region once if the
// control is not rendered yet, then runs discovery again.
func (c *PanelController) findControl(ctx context.Context) (*dom.Element, error) {
	if el := c.locateControl(); el != nil {
		return el, nil
	}

	if _, err := AwaitElement(ctx, c.doc, descriptionSelector, c.cfg.DescriptionWait); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.Debug("description region did not appear", slog.Any("error", err))
	}

	if el := c.locateControl(); el != nil {
		return el, nil
	}
	return nil, ErrTranscriptUnavailable
}

func (c *PanelController) locateControl() *dom.Element {
	for _, loc := range transcriptControls {
		for _, el := range c.doc.QuerySelectorAll(loc.selector) {
			if loc.label == "" {
				return el
			}
			label, _ := el.Attr("aria-label")
			if strings.Contains(strings.ToLower(label), loc.label) {
				return el
			}
		}
	}
	return nil
}

// awaitReady polls at a fixed interval. Segments can exist before their text
// is filled in, so readiness requires MinSegments textual segments, or at
// least one once ShortGrace has passed (short transcripts never reach the minimum).
// On top of that the panel must have settled: the snapshot is unchanged since
// the previous poll and no empty rows trail the last textual one. Trailing
// empty rows that stay put for ShortGrace are taken as genuinely blank.
func (c *PanelController) awaitReady(ctx context.Context) error {
	start := time.Now()
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	prev := segmentSnapshot{rows: -1}
	stableSince := start
	for {
		now := time.Now()
		elapsed := now.Sub(start)
		snap := snapshotSegments(SegmentElements(c.doc))
		if snap != prev {
			stableSince = now
		}
		minimum := snap.textual >= c.cfg.MinSegments || (snap.textual >= 1 && elapsed >= c.cfg.ShortGrace)
		settled := snap == prev && (snap.trailingEmpty == 0 || now.Sub(stableSince) >= c.cfg.ShortGrace)
		if minimum && settled {
			c.log.Debug("transcript panel ready",
				slog.Int("rows", snap.rows),
				slog.Int("textual_segments", snap.textual),
				slog.Duration("elapsed", elapsed))
			return nil
		}
		if elapsed >= c.cfg.ReadyTimeout {
			if minimum {
				c.log.Warn("transcript panel still rendering at timeout",
					slog.Int("rows", snap.rows),
					slog.Int("textual_segments", snap.textual))
				return nil
			}
			return ErrTranscriptLoadTimeout
		}
		prev = snap

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// segmentSnapshot summarizes the rendered rows at one poll.
type segmentSnapshot struct {
	rows          int
	textual       int
	trailingEmpty int // empty rows after the last textual one
}

func snapshotSegments(els []*dom.Element) segmentSnapshot {
	snap := segmentSnapshot{rows: len(els)}
	for _, el := range els {
		if strings.TrimSpace(el.Text()) != "" {
			snap.textual++
			snap.trailingEmpty = 0
		} else {
			snap.trailingEmpty++
		}
	}
	return snap
}

// SegmentElements returns the rendered segment elements using the first
// selector that matches anything.
func SegmentElements(doc Document) []*dom.Element {
	for _, sel := range segmentSelectors {
		if els := doc.QuerySelectorAll(sel); len(els) > 0 {
			return els
		}
	}
	return nil
}
