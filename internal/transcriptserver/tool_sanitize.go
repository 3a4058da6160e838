package transcriptserver

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_transcript/internal/engine/sanitize"
)

func (s *Server) registerSanitize(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcript_sanitize",
		Description: "Clean transcript text before it goes into a prompt: drops header chrome, vocabulary lines, marker-only lines and metadata above the first timestamp. The body after real content starts is never modified.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true},
	}, func(_ context.Context, _ *mcp.CallToolRequest, input SanitizeInput) (*mcp.CallToolResult, SanitizeOutput, error) {
		out, err := sanitizeText(input)
		return nil, out, err
	})
}

func sanitizeText(input SanitizeInput) (SanitizeOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return SanitizeOutput{}, errors.New("text is required")
	}
	text, err := sanitize.Sanitize(input.Text)
	if err != nil {
		return SanitizeOutput{}, err
	}
	return SanitizeOutput{Text: text, Changed: text != input.Text}, nil
}
