package transcriptserver

import (
	"context"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/acquire"
	"github.com/anatolykoptev/go_transcript/internal/engine/sanitize"
	"github.com/anatolykoptev/go_transcript/internal/toolutil"
)

func (s *Server) registerTranscript(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_transcript",
		Description: "Get the transcript of a YouTube video. Tries YouTube's own caption endpoints (watch page, timed-text track list, parameter sweep, innertube transcript panel, player API) and falls back to a transcript reader page. Lines are tagged [mm:ss]. Returns the source that answered and the attempt log.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input TranscriptInput) (*mcp.CallToolResult, TranscriptOutput, error) {
		out, err := s.transcript(ctx, input)
		return nil, out, err
	})
}

func (s *Server) transcript(ctx context.Context, input TranscriptInput) (TranscriptOutput, error) {
	v, err := engine.ParseVideoURL(input.URL)
	if err != nil {
		return TranscriptOutput{}, err
	}

	res, err := s.Acquirer.Acquire(ctx, v.URL, acquire.Options{Refresh: input.Refresh})
	if err != nil {
		out, ok := s.fromArchive(ctx, v, res.Attempts)
		if !ok || errors.Is(err, engine.ErrInvalidInput) {
			return TranscriptOutput{}, err
		}
		slog.Info("transcriptserver: serving archived transcript",
			slog.String("video", v.ID), slog.String("kind", toolutil.ErrorKind(err)), slog.Any("err", err))
		return s.finish(out, input.Sanitize)
	}

	out := TranscriptOutput{
		VideoID:      res.VideoID,
		URL:          v.URL,
		Source:       res.Source,
		Transcript:   res.Transcript,
		Cached:       res.Cached,
		CrossChecked: res.CrossChecked,
		FetchedAt:    formatTime(res.FetchedAt),
		Attempts:     res.Attempts,
	}
	out.Archived = s.archiveResult(ctx, res)
	return s.finish(out, input.Sanitize)
}

func (s *Server) fromArchive(ctx context.Context, v engine.Video, attempts []acquire.Attempt) (TranscriptOutput, bool) {
	if s.Archive == nil {
		return TranscriptOutput{}, false
	}
	rec, err := s.Archive.Get(ctx, v.ID)
	if err != nil {
		return TranscriptOutput{}, false
	}
	return TranscriptOutput{
		VideoID:    rec.VideoID,
		URL:        v.URL,
		Source:     rec.Source,
		Transcript: rec.Transcript,
		Archived:   true,
		Stale:      true,
		FetchedAt:  formatTime(rec.FetchedAt),
		Attempts:   attempts,
	}, true
}

func (s *Server) finish(out TranscriptOutput, clean bool) (TranscriptOutput, error) {
	if !clean {
		return out, nil
	}
	text, err := sanitize.Sanitize(out.Transcript)
	if err != nil {
		return TranscriptOutput{}, err
	}
	out.Transcript = text
	out.Sanitized = true
	return out, nil
}
