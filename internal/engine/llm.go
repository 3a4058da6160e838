package engine

import (
	"context"
	"errors"
	"strings"
)

// ErrLLMDisabled is returned when no LLM is configured.
var ErrLLMDisabled = errors.New("llm: not configured")

// stripFences removes a markdown code fence wrapping the whole LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	for _, p := range []string{"```markdown", "```md", "```"} {
		if rest, ok := strings.CutPrefix(s, p); ok {
			s = strings.TrimSuffix(strings.TrimSpace(rest), "```")
			break
		}
	}
	return strings.TrimSpace(s)
}

// CallLLM submits prompt to the configured LLM and returns its answer.
func CallLLM(ctx context.Context, prompt string) (string, error) {
	if cfg.LLMComplete == nil {
		return "", ErrLLMDisabled
	}
	IncrLLMCall()
	resp, err := cfg.LLMComplete(ctx, prompt)
	if err != nil {
		IncrLLMError()
		return "", err
	}
	return stripFences(resp), nil
}

// LLMEnabled reports whether CallLLM can submit.
func LLMEnabled() bool { return cfg.LLMComplete != nil }
