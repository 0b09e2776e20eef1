package watchpage

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

const (
	belowSelector      = "#below"
	panelSelector      = `ytd-engagement-panel-section-list-renderer[target-id="engagement-panel-searchable-transcript"]`
	segmentsSelector   = "#segments-container"
	segmentRowSelector = "ytd-transcript-segment-renderer"
	controlSelector    = `button[aria-label="Show transcript"]`

	panelHidden   = "ENGAGEMENT_PANEL_VISIBILITY_HIDDEN"
	panelExpanded = "ENGAGEMENT_PANEL_VISIBILITY_EXPANDED"
)

// skeletonHTML is the page before hydration: heading, an empty #below and
// the hidden transcript panel.
func skeletonHTML(data *PageData) string {
	title := html.EscapeString(data.Title)
	var sb strings.Builder
	sb.WriteString(`<!DOCTYPE html><html><head><title>`)
	sb.WriteString(title + youtubeTitleSuffix)
	sb.WriteString(`</title><meta name="title" content="` + title + `"></head><body><ytd-app>`)
	sb.WriteString(`<div id="primary"><ytd-watch-metadata><div id="title">`)
	sb.WriteString(`<h1 class="style-scope ytd-watch-metadata"><yt-formatted-string class="style-scope ytd-watch-metadata">`)
	sb.WriteString(title)
	sb.WriteString(`</yt-formatted-string></h1></div></ytd-watch-metadata><div id="below"></div></div>`)
	sb.WriteString(`<div id="secondary"><ytd-engagement-panel-section-list-renderer target-id="engagement-panel-searchable-transcript" visibility="` + panelHidden + `">`)
	sb.WriteString(`<ytd-transcript-segment-list-renderer><div id="segments-container"></div></ytd-transcript-segment-list-renderer>`)
	sb.WriteString(`</ytd-engagement-panel-section-list-renderer></div>`)
	sb.WriteString(`</ytd-app></body></html>`)
	return sb.String()
}

// descriptionHTML is the hydrated description region. The transcript section
// is only rendered when the video advertises a transcript.
func descriptionHTML(data *PageData) string {
	var sb strings.Builder
	sb.WriteString(`<div id="description"><div id="description-inline-expander"><yt-attributed-string>`)
	sb.WriteString(linkify(data.Description))
	sb.WriteString(`</yt-attributed-string></div>`)
	if data.HasTranscript() {
		sb.WriteString(`<ytd-video-description-transcript-section-renderer>`)
		sb.WriteString(`<button class="yt-spec-button-shape-next" aria-label="Show transcript">Show transcript</button>`)
		sb.WriteString(`</ytd-video-description-transcript-section-renderer>`)
	}
	sb.WriteString(`</div>`)
	return sb.String()
}

// placeholderHTML renders n segment rows whose timestamp and text are still empty.
func placeholderHTML(n int) string {
	const row = `<ytd-transcript-segment-renderer class="style-scope ytd-transcript-segment-list-renderer">` +
		`<div class="segment style-scope ytd-transcript-segment-renderer" role="button" tabindex="0">` +
		`<div class="segment-start-offset style-scope ytd-transcript-segment-renderer">` +
		`<div class="segment-timestamp style-scope ytd-transcript-segment-renderer"></div></div> ` +
		`<yt-formatted-string class="segment-text style-scope ytd-transcript-segment-renderer"></yt-formatted-string>` +
		`</div></ytd-transcript-segment-renderer>`
	return strings.Repeat(row, n)
}

var linkRe = regexp.MustCompile(`https?://[^\s<>"]+`)

// linkify escapes plain description text, turning URLs into anchors and
// newlines into <br>.
func linkify(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		var sb strings.Builder
		last := 0
		for _, loc := range linkRe.FindAllStringIndex(line, -1) {
			sb.WriteString(html.EscapeString(line[last:loc[0]]))
			u := html.EscapeString(line[loc[0]:loc[1]])
			sb.WriteString(`<a href="` + u + `">` + u + `</a>`)
			last = loc[1]
		}
		sb.WriteString(html.EscapeString(line[last:]))
		lines[i] = sb.String()
	}
	return strings.Join(lines, "<br>")
}
