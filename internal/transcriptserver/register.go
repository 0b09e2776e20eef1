package transcriptserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_transcript/internal/extractor"
	"github.com/anatolykoptev/go_transcript/internal/toolutil"
)

// ExtractInput is the input of extract_transcript.
type ExtractInput struct {
	URL               string `json:"url" jsonschema:"YouTube watch URL (youtube.com/watch?v=..., youtu.be/..., youtube.com/shorts/...)"`
	IncludeTimestamps bool   `json:"include_timestamps,omitempty" jsonschema:"Remember timestamps as the default for later formatting (default: false)"`
}

// ExtractOutput is the structured output of extract_transcript.
type ExtractOutput struct {
	ExtractionID string               `json:"extraction_id"`
	SegmentCount int                  `json:"segment_count"`
	VideoInfo    extractor.VideoInfo  `json:"video_info"`
	Transcript   extractor.Transcript `json:"transcript"`
}

// FormattedInput is the input of get_formatted_transcript.
type FormattedInput struct {
	URL               string `json:"url" jsonschema:"YouTube watch URL of a video extracted earlier"`
	Format            string `json:"format,omitempty" jsonschema:"Output format: text (default), markdown, json"`
	IncludeTimestamps *bool  `json:"include_timestamps,omitempty" jsonschema:"Prefix lines with timestamps (default: the value used at extraction)"`
	Header            bool   `json:"header,omitempty" jsonschema:"Text format only: prepend title, URL and extraction time"`
}

// FormattedOutput is the structured output of get_formatted_transcript.
type FormattedOutput struct {
	Format              string `json:"format"`
	FormattedTranscript string `json:"formatted_transcript"`
}

// VideoInfoInput is the input of get_video_info.
type VideoInfoInput struct {
	URL string `json:"url" jsonschema:"YouTube watch URL"`
}

// RegisterTools registers the transcript tools on the given MCP server:
// extract_transcript, get_formatted_transcript, get_video_info.
func RegisterTools(server *mcp.Server, h *Handler) {
	registerExtractTranscript(server, h)
	registerGetFormattedTranscript(server, h)
	registerGetVideoInfo(server, h)
}

func registerExtractTranscript(server *mcp.Server, h *Handler) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "extract_transcript",
		Description: "Open a YouTube video's transcript panel and extract every timed segment. Returns the segments (timestamp, text, index) with video info (title, URL, video id, description). Fails with transcript_unavailable for videos without a transcript.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ExtractInput) (*mcp.CallToolResult, ExtractOutput, error) {
		if input.URL == "" {
			return nil, ExtractOutput{}, fmt.Errorf("url is required")
		}
		resp := h.Handle(ctx, Request{
			Action:            ActionExtractTranscript,
			URL:               input.URL,
			IncludeTimestamps: &input.IncludeTimestamps,
		})
		if !resp.Success {
			return nil, ExtractOutput{}, toolError(resp)
		}
		out := ExtractOutput{
			ExtractionID: resp.ExtractionID,
			SegmentCount: len(resp.Transcript),
			Transcript:   resp.Transcript,
		}
		if resp.VideoInfo != nil {
			out.VideoInfo = *resp.VideoInfo
		}
		return nil, out, nil
	})
}

func registerGetFormattedTranscript(server *mcp.Server, h *Handler) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_formatted_transcript",
		Description: "Format the transcript extracted earlier for a video as plain text, markdown (bold timestamps, one paragraph per segment) or JSON. Run extract_transcript first.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input FormattedInput) (*mcp.CallToolResult, FormattedOutput, error) {
		if input.URL == "" {
			return nil, FormattedOutput{}, fmt.Errorf("url is required")
		}
		resp := h.Handle(ctx, Request{
			Action:            ActionGetFormattedTranscript,
			URL:               input.URL,
			Format:            input.Format,
			IncludeTimestamps: input.IncludeTimestamps,
			Header:            input.Header,
		})
		if !resp.Success {
			return nil, FormattedOutput{}, toolError(resp)
		}
		out := FormattedOutput{Format: toolutil.NormFormat(input.Format)}
		if resp.FormattedTranscript != nil {
			out.FormattedTranscript = *resp.FormattedTranscript
		}
		return nil, out, nil
	})
}

func registerGetVideoInfo(server *mcp.Server, h *Handler) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_video_info",
		Description: "Get a YouTube video's title, URL, video id and description (markdown) without extracting the transcript.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input VideoInfoInput) (*mcp.CallToolResult, *extractor.VideoInfo, error) {
		if input.URL == "" {
			return nil, nil, fmt.Errorf("url is required")
		}
		resp := h.Handle(ctx, Request{Action: ActionGetVideoInfo, URL: input.URL})
		if !resp.Success {
			return nil, nil, toolError(resp)
		}
		return nil, resp.VideoInfo, nil
	})
}

func toolError(resp Response) error {
	return fmt.Errorf("%s: %s", resp.ErrorKind, resp.Error)
}
