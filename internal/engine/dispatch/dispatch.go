// Package dispatch delivers built prompts to a target surface. Each surface is
// guarded by a busy flag: a second request for a busy surface is rejected, not queued.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

var (
	ErrSurfaceBusy     = errors.New("dispatch: surface is busy")
	ErrAlreadyInjected = errors.New("dispatch: prompt already submitted")
	ErrAttempts        = errors.New("dispatch: attempts exhausted")
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 500 * time.Millisecond
)

// Surface applies a prompt somewhere and returns what it produced.
type Surface interface {
	Name() string
	Submit(ctx context.Context, prompt string) (string, error)
}

// PendingPromptRequest is a prompt waiting to be applied to a surface.
type PendingPromptRequest struct {
	ID           string    `json:"id"`
	Prompt       string    `json:"-"`
	AutoSubmit   bool      `json:"auto_submit"`
	AttemptCount int       `json:"attempt_count"`
	InjectedOnce bool      `json:"injected_once"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewRequest wraps prompt in a fresh request.
func NewRequest(prompt string, autoSubmit bool) *PendingPromptRequest {
	return &PendingPromptRequest{
		ID:         uuid.NewString(),
		Prompt:     prompt,
		AutoSubmit: autoSubmit,
		CreatedAt:  time.Now().UTC(),
	}
}

// Dispatcher serializes submissions per surface.
type Dispatcher struct {
	MaxAttempts int
	RetryDelay  time.Duration

	mu   sync.Mutex
	busy map[string]bool
}

// New creates a dispatcher allowing maxAttempts submits per request.
func New(maxAttempts int) *Dispatcher {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Dispatcher{MaxAttempts: maxAttempts, RetryDelay: DefaultRetryDelay, busy: make(map[string]bool)}
}

func (d *Dispatcher) acquire(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.busy == nil {
		d.busy = make(map[string]bool)
	}
	if d.busy[name] {
		return false
	}
	d.busy[name] = true
	return true
}

func (d *Dispatcher) release(name string) {
	d.mu.Lock()
	delete(d.busy, name)
	d.mu.Unlock()
}

// Busy reports whether a submission to the named surface is in flight.
func (d *Dispatcher) Busy(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy[name]
}

// Dispatch submits req to s, retrying failed submits until req.AttemptCount
// reaches the bound. A request is submitted successfully at most once.
func (d *Dispatcher) Dispatch(ctx context.Context, s Surface, req *PendingPromptRequest) (string, error) {
	if req.InjectedOnce {
		return "", ErrAlreadyInjected
	}
	if !d.acquire(s.Name()) {
		engine.IncrDispatchBusy()
		return "", fmt.Errorf("%w: %s", ErrSurfaceBusy, s.Name())
	}
	defer d.release(s.Name())

	maxAttempts := d.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	var lastErr error
	for req.AttemptCount < maxAttempts {
		req.AttemptCount++
		out, err := s.Submit(ctx, req.Prompt)
		if err == nil {
			req.InjectedOnce = true
			slog.Debug("dispatch: submitted",
				slog.String("req", req.ID), slog.String("surface", s.Name()), slog.Int("attempt", req.AttemptCount))
			return out, nil
		}
		lastErr = err
		slog.Warn("dispatch: submit failed",
			slog.String("req", req.ID), slog.String("surface", s.Name()),
			slog.Int("attempt", req.AttemptCount), slog.Any("err", err))
		if errors.Is(err, engine.ErrLLMDisabled) || req.AttemptCount >= maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(d.RetryDelay):
		}
	}
	engine.IncrDispatchFailure()
	if lastErr == nil {
		return "", ErrAttempts
	}
	return "", fmt.Errorf("%w after %d attempts: %w", ErrAttempts, req.AttemptCount, lastErr)
}

// LLMSurface auto-submits prompts to the configured LLM.
type LLMSurface struct{}

func (LLMSurface) Name() string { return "llm" }

func (LLMSurface) Submit(ctx context.Context, prompt string) (string, error) {
	return engine.CallLLM(ctx, prompt)
}
