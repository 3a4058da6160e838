package transcriptserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/acquire"
	"github.com/anatolykoptev/go_transcript/internal/engine/dispatch"
	"github.com/anatolykoptev/go_transcript/internal/engine/sanitize"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/toolutil"
)

func (s *Server) registerPrompt(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcript_prompt",
		Description: "Build a summarization prompt for a YouTube video: video details, instructions (overview length, takeaways, action steps, response language, custom instructions) and the cleaned transcript in a fenced block. With auto_submit=true the prompt is sent to the configured LLM and its answer returned.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input PromptInput) (*mcp.CallToolResult, PromptOutput, error) {
		out, err := s.prompt(ctx, input)
		return nil, out, err
	})
}

func (s *Server) prompt(ctx context.Context, input PromptInput) (PromptOutput, error) {
	v, err := engine.ParseVideoURL(input.URL)
	if err != nil {
		return PromptOutput{}, err
	}
	uploaded, err := toolutil.ParseDate(input.UploadDate)
	if err != nil {
		return PromptOutput{}, engine.WrapError(engine.KindInvalidInput, "prompt", err)
	}

	res, err := s.Acquirer.Acquire(ctx, v.URL, acquire.Options{Refresh: input.Refresh})
	if err != nil {
		return PromptOutput{}, err
	}
	s.archiveResult(ctx, res)

	text, err := sanitize.Sanitize(res.Transcript)
	if err != nil {
		return PromptOutput{}, err
	}

	title, creator := input.Title, input.Creator
	if title == "" || creator == "" || uploaded.IsZero() {
		meta := s.meta(ctx, v)
		if title == "" {
			title = meta.Title
		}
		if creator == "" {
			creator = meta.Creator
		}
		if uploaded.IsZero() && meta.UploadDate != "" {
			if d, err := toolutil.ParseDate(meta.UploadDate); err == nil {
				uploaded = d
			} else {
				slog.Debug("transcriptserver: unreadable upload date", slog.String("video", v.ID), slog.Any("err", err))
			}
		}
	}

	settings := promptSettings(input)
	prompt := engine.BuildPrompt(engine.PromptInput{
		Title:      title,
		URL:        v.URL,
		Creator:    creator,
		UploadDate: uploaded,
		Transcript: text,
		Settings:   settings,
	})
	out := PromptOutput{VideoID: v.ID, Source: res.Source, Title: title, Creator: creator, Prompt: prompt}

	if settings.AutoSubmit {
		req := dispatch.NewRequest(prompt, true)
		if s.Dispatcher == nil {
			out.Request = &SubmitRequest{ID: req.ID}
			out.SubmitError = "auto-submit is not configured"
			return out, nil
		}
		resp, err := s.Dispatcher.Dispatch(ctx, s.surface(), req)
		out.Request = &SubmitRequest{ID: req.ID, AttemptCount: req.AttemptCount, InjectedOnce: req.InjectedOnce}
		if err != nil {
			out.SubmitError = err.Error()
		} else {
			out.Response = resp
		}
	}
	return out, nil
}

// meta looks up title, creator and upload date; a failed lookup leaves them empty.
func (s *Server) meta(ctx context.Context, v engine.Video) sources.VideoMeta {
	meta, err := toolutil.CachedJSON(ctx, engine.CacheKey("meta", v.ID), func(ctx context.Context) (sources.VideoMeta, error) {
		return sources.FetchMeta(ctx, s.Fetcher, v)
	})
	if err != nil {
		slog.Debug("transcriptserver: metadata lookup failed", slog.String("video", v.ID), slog.Any("err", err))
	}
	return meta
}

func (s *Server) surface() dispatch.Surface {
	if s.Surface != nil {
		return s.Surface
	}
	return dispatch.LLMSurface{}
}

func promptSettings(input PromptInput) engine.PromptSettings {
	st := engine.DefaultPromptSettings
	if input.OverviewSentences != 0 {
		st.OverviewSentences = input.OverviewSentences
	}
	if input.IncludeTakeaways != nil {
		st.IncludeTakeaways = *input.IncludeTakeaways
	}
	if input.IncludeActionSteps != nil {
		st.IncludeActionSteps = *input.IncludeActionSteps
	}
	if input.ResponseLanguage != "" {
		st.ResponseLanguage = input.ResponseLanguage
	}
	st.CustomInstructions = input.CustomInstructions
	st.AutoSubmit = input.AutoSubmit
	return st.Normalized()
}
