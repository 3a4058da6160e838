// Package transcriptserver exposes the transcript engine as MCP tools:
// youtube_transcript, transcript_sanitize, transcript_prompt, transcript_history.
package transcriptserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/acquire"
	"github.com/anatolykoptev/go_transcript/internal/engine/archive"
	"github.com/anatolykoptev/go_transcript/internal/engine/dispatch"
)

// Server holds what the tool handlers share. Archive may be nil (archiving off).
type Server struct {
	Acquirer   *acquire.Acquirer
	Archive    archive.Store
	Dispatcher *dispatch.Dispatcher
	Surface    dispatch.Surface
	Fetcher    engine.Fetcher // metadata lookups; engine default when nil
}

// ToolCount is the number of tools RegisterTools adds.
const ToolCount = 4

// RegisterTools registers all transcript tools on the given MCP server.
func (s *Server) RegisterTools(server *mcp.Server) {
	s.registerTranscript(server)
	s.registerSanitize(server)
	s.registerPrompt(server)
	s.registerHistory(server)
}

// archiveResult stores a freshly acquired transcript. Failures are logged, never returned.
func (s *Server) archiveResult(ctx context.Context, res acquire.Result) bool {
	if s.Archive == nil || res.Cached {
		return false
	}
	if err := s.Archive.Save(ctx, archive.FromCached(res.Entry())); err != nil {
		slog.Warn("transcriptserver: archive save failed", slog.String("video", res.VideoID), slog.Any("err", err))
		return false
	}
	return true
}
