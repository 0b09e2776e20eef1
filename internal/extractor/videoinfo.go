package extractor

import (
	"net/url"
	"strings"
	"time"
)

// UnknownTitle is reported when the page exposes no title.
const UnknownTitle = "Unknown Title"

const titleSelector = "h1.ytd-watch-metadata yt-formatted-string, #title h1"

// PageContext is what VideoInfo is read from.
type PageContext interface {
	Document
	URL() string
	Title() string
}

// LookupVideoInfo snapshots the page title, URL and video id.
// The title comes from the watch heading, then the tab title without its
// " - YouTube" suffix, then UnknownTitle.
func LookupVideoInfo(page PageContext, now time.Time) VideoInfo {
	title := ""
	if el := page.QuerySelector(titleSelector); el != nil {
		title = strings.TrimSpace(el.Text())
	}
	if title == "" {
		title = strings.TrimSpace(strings.TrimSuffix(page.Title(), " - YouTube"))
	}
	if title == "" {
		title = UnknownTitle
	}
	return VideoInfo{
		Title:       title,
		URL:         page.URL(),
		VideoID:     VideoIDParam(page.URL()),
		ExtractedAt: now.UTC(),
	}
}

// VideoIDParam returns the v query parameter of rawURL, or nil.
func VideoIDParam(rawURL string) *string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	v := u.Query().Get("v")
	if v == "" {
		return nil
	}
	return &v
}
