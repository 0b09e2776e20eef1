package transcriptserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/extractor"
	"github.com/anatolykoptev/go_transcript/internal/toolutil"
	"github.com/anatolykoptev/go_transcript/internal/watchpage"
)

// ErrNotExtracted is returned when formatting is requested before any extraction.
var ErrNotExtracted = errors.New("no transcript extracted for this video yet; run extractTranscript first")

// descriptionTextSelector holds the rendered description text.
const descriptionTextSelector = "#description-inline-expander"

// Config holds the timings passed to every tab and the tab limits.
type Config struct {
	Extractor        extractor.Config
	Page             watchpage.Options
	MaxTabs          int           // open tabs kept; least recently used idle tabs are closed first
	TabIdleTTL       time.Duration // idle tabs older than this are closed
	TabSweepInterval time.Duration
}

// Tab limit defaults.
const (
	DefaultMaxTabs          = 16
	DefaultTabIdleTTL       = 15 * time.Minute
	DefaultTabSweepInterval = time.Minute
)

// Handler answers boundary requests. It owns one tab per video id.
type Handler struct {
	loader Loader
	cfg    Config
	now    func() time.Time

	mu     sync.Mutex
	closed bool
	tabs   map[string]*tabEntry
	stop   chan struct{}
}

// NewHandler creates a Handler that loads pages through loader. Idle tabs
// are swept in the background until Close.
func NewHandler(loader Loader, cfg Config) *Handler {
	if cfg.Extractor.DescriptionWait <= 0 {
		cfg.Extractor.DescriptionWait = extractor.DefaultConfig().DescriptionWait
	}
	if cfg.MaxTabs <= 0 {
		cfg.MaxTabs = DefaultMaxTabs
	}
	if cfg.TabIdleTTL <= 0 {
		cfg.TabIdleTTL = DefaultTabIdleTTL
	}
	if cfg.TabSweepInterval <= 0 {
		cfg.TabSweepInterval = DefaultTabSweepInterval
	}
	h := &Handler{
		loader: loader,
		cfg:    cfg,
		now:    time.Now,
		tabs:   make(map[string]*tabEntry),
		stop:   make(chan struct{}),
	}
	go h.sweepLoop()
	return h
}

// Handle dispatches one request. It blocks until the operation settles.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	switch req.Action {
	case ActionExtractTranscript:
		return h.extract(ctx, req)
	case ActionGetFormattedTranscript:
		return h.formatted(ctx, req)
	case ActionGetVideoInfo:
		return h.videoInfo(ctx, req)
	default:
		return failure(KindInvalidRequest, fmt.Errorf("unknown action %q", req.Action))
	}
}

func (h *Handler) extract(ctx context.Context, req Request) Response {
	t, err := h.tabFor(ctx, req.URL)
	if err != nil {
		return tabFailure(err)
	}

	transcript, err := t.session.Extract(ctx, extractor.ExtractOptions{
		IncludeTimestamps: toolutil.BoolOr(req.IncludeTimestamps, false),
	})
	if err != nil {
		return failure(extractor.Kind(err), err)
	}

	info := h.describe(ctx, t)
	return Response{
		Success:      true,
		Transcript:   transcript,
		VideoInfo:    &info,
		ExtractionID: t.session.LastExtractionID(),
	}
}

func (h *Handler) formatted(ctx context.Context, req Request) Response {
	format := toolutil.NormFormat(req.Format)
	switch format {
	case FormatText, FormatMarkdown, FormatJSON:
	default:
		return failure(KindInvalidRequest, fmt.Errorf("unsupported format %q", req.Format))
	}

	videoID, err := watchpage.VideoIDFromURL(req.URL)
	if err != nil {
		return failure(KindNotWatchPage, err)
	}
	t := h.existingTab(videoID)
	if t == nil {
		return failure(KindNotExtracted, ErrNotExtracted)
	}

	includeTimestamps := toolutil.BoolOr(req.IncludeTimestamps, t.session.IncludeTimestamps())
	var out string
	switch format {
	case FormatText:
		if req.Header {
			out = extractor.FormatTextDocument(h.describe(ctx, t), t.session.Transcript(), includeTimestamps)
		} else {
			out = t.session.FormatAsText(includeTimestamps)
		}
	case FormatMarkdown:
		out = t.session.FormatAsMarkdown(includeTimestamps)
	case FormatJSON:
		out, err = extractor.FormatJSON(h.describe(ctx, t), t.session.Transcript())
		if err != nil {
			return failure(extractor.KindInternal, err)
		}
	}
	return Response{Success: true, FormattedTranscript: &out}
}

func (h *Handler) videoInfo(ctx context.Context, req Request) Response {
	videoID, err := watchpage.VideoIDFromURL(req.URL)
	if err != nil {
		return failure(KindNotWatchPage, err)
	}
	key := engine.CacheKey("video_info", videoID)
	if info, ok := toolutil.CacheLoadJSON[extractor.VideoInfo](key); ok {
		// Only the page metadata is cached; the lookup time is this request's.
		info.ExtractedAt = h.now().UTC()
		return Response{Success: true, VideoInfo: &info}
	}

	t, err := h.tabFor(ctx, req.URL)
	if err != nil {
		return tabFailure(err)
	}
	info := h.describe(ctx, t)
	toolutil.CacheStoreJSON(key, info)
	return Response{Success: true, VideoInfo: &info}
}

// describe snapshots the page's VideoInfo, waiting briefly for the
// description region so it can be included as markdown.
func (h *Handler) describe(ctx context.Context, t *tab) extractor.VideoInfo {
	doc := t.page.Document()
	info := extractor.LookupVideoInfo(doc, h.now())

	el, err := extractor.AwaitElement(ctx, doc, descriptionTextSelector, h.cfg.Extractor.DescriptionWait)
	if err != nil {
		slog.Debug("description not rendered", slog.String("video_id", t.videoID), slog.Any("error", err))
		return info
	}
	if inner, err := el.InnerHTML(); err == nil {
		info.Description = engine.HTMLToMarkdown(inner)
	}
	return info
}

func tabFailure(err error) Response {
	switch {
	case errors.Is(err, watchpage.ErrNotWatchPage):
		return failure(KindNotWatchPage, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return failure(extractor.KindCanceled, err)
	case errors.Is(err, ErrHandlerClosed):
		return failure(extractor.KindSessionClosed, err)
	default:
		return failure(KindPageLoad, err)
	}
}
