package transcriptserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/extractor"
	"github.com/anatolykoptev/go_transcript/internal/watchpage"
)

// ErrHandlerClosed rejects requests after Close.
var ErrHandlerClosed = errors.New("transcript handler closed")

// Loader loads watch pages and builds their transcript sources.
// *watchpage.Loader implements it.
type Loader interface {
	Load(ctx context.Context, rawURL string) (*watchpage.PageData, error)
	Source(data *watchpage.PageData) watchpage.SegmentSource
}

// tab is one open watch page and the session that extracts from it.
type tab struct {
	videoID string
	page    *watchpage.Page
	session *extractor.Session
}

func (t *tab) close() {
	t.session.Close()
	t.page.Close()
}

// tabEntry lets concurrent requests for the same video share one page load.
// lastUsed is guarded by Handler.mu.
type tabEntry struct {
	ready    chan struct{}
	tab      *tab
	err      error
	lastUsed time.Time
}

// idle reports whether the entry holds a loaded tab with no extraction running.
func (e *tabEntry) idle() bool {
	select {
	case <-e.ready:
		return e.tab != nil && !e.tab.session.Extracting()
	default:
		return false
	}
}

// tabFor returns the tab for rawURL's video, opening it on first use.
func (h *Handler) tabFor(ctx context.Context, rawURL string) (*tab, error) {
	videoID, err := watchpage.VideoIDFromURL(rawURL)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHandlerClosed
	}
	if e, ok := h.tabs[videoID]; ok {
		e.lastUsed = h.now()
		h.mu.Unlock()
		select {
		case <-e.ready:
			return e.tab, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	evicted := h.evictLocked()
	e := &tabEntry{ready: make(chan struct{}), lastUsed: h.now()}
	h.tabs[videoID] = e
	h.mu.Unlock()
	closeTabs(evicted)

	t, err := h.openTab(ctx, rawURL, videoID)

	h.mu.Lock()
	switch {
	case err != nil:
		delete(h.tabs, videoID)
	case h.closed:
		delete(h.tabs, videoID)
		t.close()
		t, err = nil, ErrHandlerClosed
	}
	e.tab, e.err = t, err
	close(e.ready)
	h.mu.Unlock()
	return t, err
}

// existingTab returns the ready tab for videoID without opening one.
func (h *Handler) existingTab(videoID string) *tab {
	h.mu.Lock()
	e, ok := h.tabs[videoID]
	if ok {
		e.lastUsed = h.now()
	}
	h.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-e.ready:
		return e.tab
	default:
		return nil
	}
}

func (h *Handler) openTab(ctx context.Context, rawURL, videoID string) (*tab, error) {
	data, err := h.loader.Load(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	page, err := watchpage.Open(data, h.loader.Source(data), h.cfg.Page)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	log := slog.Default().With(slog.String("video_id", videoID))
	session := extractor.NewSession(page.Document(), h.cfg.Extractor, extractor.WithLogger(log))
	log.Info("tab opened", slog.String("title", data.Title))
	return &tab{videoID: videoID, page: page, session: session}, nil
}

// evictLocked makes room for one more tab. Tabs idle past TabIdleTTL go
// first, then the least recently used idle tabs. Tabs still opening or
// extracting are never evicted, so the map can briefly exceed MaxTabs.
// The caller holds h.mu and closes the returned tabs after unlocking.
func (h *Handler) evictLocked() []*tab {
	out := h.removeExpiredLocked()
	for len(h.tabs) >= h.cfg.MaxTabs {
		var oldestID string
		var oldest *tabEntry
		for id, e := range h.tabs {
			if e.idle() && (oldest == nil || e.lastUsed.Before(oldest.lastUsed)) {
				oldestID, oldest = id, e
			}
		}
		if oldest == nil {
			break
		}
		out = append(out, oldest.tab)
		delete(h.tabs, oldestID)
	}
	return out
}

func (h *Handler) removeExpiredLocked() []*tab {
	var out []*tab
	now := h.now()
	for id, e := range h.tabs {
		if e.idle() && now.Sub(e.lastUsed) > h.cfg.TabIdleTTL {
			out = append(out, e.tab)
			delete(h.tabs, id)
		}
	}
	return out
}

// sweepIdle closes tabs unused for longer than TabIdleTTL.
func (h *Handler) sweepIdle() {
	h.mu.Lock()
	stale := h.removeExpiredLocked()
	h.mu.Unlock()
	closeTabs(stale)
}

// sweepLoop periodically closes idle tabs until the handler closes.
func (h *Handler) sweepLoop() {
	ticker := time.NewTicker(h.cfg.TabSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			h.sweepIdle()
		}
	}
}

func closeTabs(tabs []*tab) {
	for _, t := range tabs {
		slog.Debug("tab closed", slog.String("video_id", t.videoID))
		t.close()
	}
}

// TabCount reports the number of open or opening tabs.
func (h *Handler) TabCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.tabs)
}

// Close tears down every tab and rejects further requests.
func (h *Handler) Close() {
	h.mu.Lock()
	if !h.closed {
		close(h.stop)
	}
	h.closed = true
	var ready []*tab
	for id, e := range h.tabs {
		select {
		case <-e.ready:
			if e.tab != nil {
				ready = append(ready, e.tab)
			}
			delete(h.tabs, id)
		default:
			// still opening; tabFor closes it once the load finishes
		}
	}
	h.mu.Unlock()

	for _, t := range ready {
		t.close()
	}
}
