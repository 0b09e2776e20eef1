package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_transcript/internal/dom"
)

func TestParseSegments_StructuredParts(t *testing.T) {
	doc := newPage(t, "")
	renderSegments(t, doc, seg{"0:05", "hello"}, seg{"1:02:03", "2024 was a year"})

	got := ParseSegments(SegmentElements(doc), nil)
	assert.Equal(t, Transcript{
		{Timestamp: "0:05", Text: "hello", Index: 0},
		{Timestamp: "1:02:03", Text: "2024 was a year", Index: 1},
	}, got)
}

func TestParseSegments_FallbackSplitsFullText(t *testing.T) {
	doc := newPage(t, `<div class="ytd-transcript-segment-renderer">0:07 plain row</div>
<div class="ytd-transcript-segment-renderer">no stamp here</div>`)

	got := ParseSegments(SegmentElements(doc), nil)
	assert.Equal(t, Transcript{
		{Timestamp: "0:07", Text: "plain row", Index: 0},
		{Timestamp: "", Text: "no stamp here", Index: 1},
	}, got)
}

func TestParseSegments_DropsEmptyAndKeepsGaps(t *testing.T) {
	doc := newPage(t, "")
	renderSegments(t, doc, seg{"0:01", "a"}, seg{"0:02", "   "}, seg{"0:03", "c"})

	got := ParseSegments(SegmentElements(doc), nil)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, 2, got[1].Index)
}

func TestParseSegments_NilElementDoesNotAbort(t *testing.T) {
	doc := newPage(t, "")
	renderSegments(t, doc, seg{"0:01", "a"}, seg{"0:02", "b"})
	els := SegmentElements(doc)
	mixed := []*dom.Element{els[0], nil, els[1]}

	got := ParseSegments(mixed, nil)
	assert.Equal(t, Transcript{
		{Timestamp: "0:01", Text: "a", Index: 0},
		{Timestamp: "0:02", Text: "b", Index: 2},
	}, got)
}

func TestParseSegments_OutputInvariants(t *testing.T) {
	doc := newPage(t, "")
	renderSegments(t, doc,
		seg{"0:00", "intro"}, seg{"", ""}, seg{"0:10", "[Music]"}, seg{"", "untimed"}, seg{"0:20", " "})
	els := SegmentElements(doc)

	got := ParseSegments(els, nil)
	assert.LessOrEqual(t, len(got), len(els))
	prev := -1
	for _, s := range got {
		assert.NotEmpty(t, s.Text)
		assert.Greater(t, s.Index, prev, "document order")
		prev = s.Index
	}
	assert.Equal(t, "", got[2].Timestamp)
	assert.Equal(t, "untimed", got[2].Text)
}

func TestParseSegments_Empty(t *testing.T) {
	assert.Empty(t, ParseSegments(nil, nil))
}

func TestSplitLeadingTimestamp(t *testing.T) {
	tests := []struct {
		in, ts, text string
	}{
		{"0:05 hello", "0:05", "hello"},
		{"12:34   spaced out", "12:34", "spaced out"},
		{"1:02:03 long video", "1:02:03", "long video"},
		{"no timestamp", "", "no timestamp"},
		{"2024 is a year", "", "2024 is a year"},
		{"0:05", "0:05", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ts, text := SplitLeadingTimestamp(tt.in)
			assert.Equal(t, tt.ts, ts)
			assert.Equal(t, tt.text, text)
		})
	}
}
