package watchpage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/dom"
	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// Options controls how the page mimics the real watch page's rendering.
type Options struct {
	HydrationDelay   time.Duration // delay before #description and the transcript control appear
	RenderBatchSize  int           // segment texts filled per batch
	RenderBatchDelay time.Duration // pause before each batch
}

// DefaultOptions returns rendering timings close to the real page.
func DefaultOptions() Options {
	return Options{
		HydrationDelay:   300 * time.Millisecond,
		RenderBatchSize:  25,
		RenderBatchDelay: 40 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	if o.HydrationDelay < 0 {
		o.HydrationDelay = 0
	}
	if o.RenderBatchSize <= 0 {
		o.RenderBatchSize = DefaultOptions().RenderBatchSize
	}
	if o.RenderBatchDelay < 0 {
		o.RenderBatchDelay = 0
	}
	return o
}

type loadState int

const (
	segmentsIdle loadState = iota
	segmentsLoading
	segmentsLoaded
)

// Page is a live watch page: a dom.Document plus the background work that
// hydrates it and renders the transcript panel.
type Page struct {
	doc    *dom.Document
	data   *PageData
	source SegmentSource
	opts   Options
	log    *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	hydrated chan struct{}

	mu        sync.Mutex
	closed    bool
	panelOpen bool
	segments  loadState
}

// Open renders the page skeleton and schedules hydration. The document
// sits at the canonical watch URL, whatever form the caller used. The page
// lives until Close.
func Open(data *PageData, source SegmentSource, opts Options) (*Page, error) {
	pageURL := data.URL
	if data.VideoID != "" {
		pageURL = CanonicalURL(data.VideoID)
	}
	doc, err := dom.ParseString(skeletonHTML(data), pageURL)
	if err != nil {
		return nil, fmt.Errorf("render watch page: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Page{
		doc:      doc,
		data:     data,
		source:   source,
		opts:     opts.withDefaults(),
		log:      slog.Default().With(slog.String("video_id", data.VideoID)),
		ctx:      ctx,
		cancel:   cancel,
		hydrated: make(chan struct{}),
	}

	below := doc.QuerySelector(belowSelector)
	if below == nil {
		cancel()
		return nil, errors.New("render watch page: #below missing")
	}
	// Delegated so a click right after hydration cannot miss the listener.
	below.AddEventListener(p.onClick)

	p.wg.Add(1)
	go p.hydrate(below)
	return p, nil
}

// Document returns the live document.
func (p *Page) Document() *dom.Document { return p.doc }

// Data returns what the page was rendered from.
func (p *Page) Data() *PageData { return p.data }

// Hydrated is closed once the description region has been rendered.
func (p *Page) Hydrated() <-chan struct{} { return p.hydrated }

// PanelOpen reports whether the transcript panel is expanded.
func (p *Page) PanelOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.panelOpen
}

// Close stops background rendering and waits for it to finish.
func (p *Page) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cancel()
	p.wg.Wait()
}

func (p *Page) hydrate(below *dom.Element) {
	defer p.wg.Done()
	t := time.NewTimer(p.opts.HydrationDelay)
	defer t.Stop()
	select {
	case <-p.ctx.Done():
		return
	case <-t.C:
	}

	if err := p.doc.AppendHTML(below, descriptionHTML(p.data)); err != nil {
		p.log.Warn("watch page: hydrate description", slog.Any("error", err))
		return
	}
	close(p.hydrated)
	p.log.Debug("watch page hydrated", slog.Bool("transcript_control", p.data.HasTranscript()))
}

// onClick toggles the transcript panel when the control is clicked. The
// first open starts loading segments; later toggles only change visibility.
func (p *Page) onClick(target *dom.Element) {
	if !target.Matches(controlSelector) {
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.panelOpen = !p.panelOpen
	open := p.panelOpen
	load := open && p.segments == segmentsIdle
	if load {
		p.segments = segmentsLoading
		p.wg.Add(1)
	}
	p.mu.Unlock()

	visibility := panelHidden
	if open {
		visibility = panelExpanded
	}
	if panel := p.doc.QuerySelector(panelSelector); panel != nil {
		_ = p.doc.SetAttr(panel, "visibility", visibility)
	}

	if load {
		go p.loadSegments()
	}
}

func (p *Page) loadSegments() {
	defer p.wg.Done()

	segs, err := p.source.Segments(p.ctx)
	if err != nil {
		p.log.Warn("watch page: transcript fetch failed", slog.Any("error", err))
		p.setSegmentsState(segmentsIdle)
		return
	}

	if err := p.renderSegments(segs); err != nil {
		if p.ctx.Err() == nil {
			p.log.Warn("watch page: render transcript", slog.Any("error", err))
		}
		return
	}
	p.setSegmentsState(segmentsLoaded)
	first := ""
	if len(segs) > 0 {
		first = engine.Preview(segs[0].Text)
	}
	p.log.Debug("transcript rendered", slog.Int("segments", len(segs)), slog.String("first", first))
}

func (p *Page) setSegmentsState(s loadState) {
	p.mu.Lock()
	p.segments = s
	p.mu.Unlock()
}

// renderSegments inserts empty rows first, then fills their text batch by
// batch, the way the real panel streams in.
func (p *Page) renderSegments(segs []RawSegment) error {
	container := p.doc.QuerySelector(segmentsSelector)
	if container == nil {
		return errors.New("segments container missing")
	}
	if err := p.doc.AppendHTML(container, placeholderHTML(len(segs))); err != nil {
		return err
	}
	rows := container.QuerySelectorAll(segmentRowSelector)
	if len(rows) < len(segs) {
		return fmt.Errorf("rendered %d of %d segment rows", len(rows), len(segs))
	}

	for start := 0; start < len(segs); start += p.opts.RenderBatchSize {
		if err := p.sleep(p.opts.RenderBatchDelay); err != nil {
			return err
		}
		end := min(start+p.opts.RenderBatchSize, len(segs))
		for i := start; i < end; i++ {
			if err := p.fillRow(rows[i], segs[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Page) fillRow(row *dom.Element, seg RawSegment) error {
	if ts := row.QuerySelector(".segment-timestamp"); ts != nil {
		if err := p.doc.SetText(ts, seg.Timestamp); err != nil {
			return err
		}
	}
	if text := row.QuerySelector(".segment-text"); text != nil {
		if err := p.doc.SetText(text, seg.Text); err != nil {
			return err
		}
	}
	return nil
}

func (p *Page) sleep(d time.Duration) error {
	if d <= 0 {
		return p.ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	case <-t.C:
		return nil
	}
}
