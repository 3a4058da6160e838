package transcriptserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/archive"
)

// ErrArchiveDisabled is returned by transcript_history when ARCHIVE_PATH=off.
var ErrArchiveDisabled = errors.New("transcript archive is disabled")

func (s *Server) registerHistory(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcript_history",
		Description: "List archived transcripts, most recently fetched first (video id, source, fetch time). Pass video_id to get one archived transcript with its full text.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input HistoryInput) (*mcp.CallToolResult, HistoryOutput, error) {
		out, err := s.history(ctx, input)
		return nil, out, err
	})
}

func (s *Server) history(ctx context.Context, input HistoryInput) (HistoryOutput, error) {
	if s.Archive == nil {
		return HistoryOutput{}, ErrArchiveDisabled
	}
	if input.VideoID != "" {
		v, err := engine.ParseVideoURL(input.VideoID)
		if err != nil {
			return HistoryOutput{}, err
		}
		rec, err := s.Archive.Get(ctx, v.ID)
		if errors.Is(err, archive.ErrNotFound) {
			return HistoryOutput{Records: []HistoryRecord{}}, nil
		}
		if err != nil {
			return HistoryOutput{}, err
		}
		return HistoryOutput{Total: 1, Records: []HistoryRecord{historyRecord(rec)}}, nil
	}

	recs, err := s.Archive.List(ctx, input.Limit)
	if err != nil {
		return HistoryOutput{}, err
	}
	out := HistoryOutput{Total: len(recs), Records: make([]HistoryRecord, 0, len(recs))}
	for _, r := range recs {
		out.Records = append(out.Records, historyRecord(r))
	}
	return out, nil
}
