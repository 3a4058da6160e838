package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"plain answer", "plain answer"},
		{"```markdown\n# Summary\n```", "# Summary"},
		{"```\nbody\n```", "body"},
		{"  spaced  ", "spaced"},
	}
	for _, tt := range tests {
		if got := stripFences(tt.raw); got != tt.want {
			t.Errorf("stripFences(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestCallLLM(t *testing.T) {
	saved := cfg
	t.Cleanup(func() { cfg = saved })

	cfg.LLMComplete = nil
	_, err := CallLLM(context.Background(), "p")
	assert.ErrorIs(t, err, ErrLLMDisabled)
	assert.False(t, LLMEnabled())

	var got string
	cfg.LLMComplete = func(_ context.Context, prompt string) (string, error) {
		got = prompt
		return "```\nsummary\n```", nil
	}
	calls := metrics.LLMCalls.Load()
	out, err := CallLLM(context.Background(), "summarize")
	require.NoError(t, err)
	assert.Equal(t, "summary", out)
	assert.Equal(t, "summarize", got)
	assert.Equal(t, calls+1, metrics.LLMCalls.Load())

	boom := errors.New("boom")
	cfg.LLMComplete = func(context.Context, string) (string, error) { return "", boom }
	errs := metrics.LLMErrors.Load()
	_, err = CallLLM(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, errs+1, metrics.LLMErrors.Load())
}
