package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("step: %w", NewError(KindLoadTimeout, "reader", "page did not load in %s", "20s"))

	assert.True(t, errors.Is(err, ErrLoadTimeout))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindLoadTimeout, KindOf(err))
	assert.Equal(t, "step: reader: page did not load in 20s", err.Error())
}

func TestErrorDefaultMessage(t *testing.T) {
	err := WrapError(KindBotVerificationRequired, "reader", errors.New("cloudflare"))
	assert.Contains(t, err.Error(), "bot verification")
	assert.Contains(t, err.Error(), "cloudflare")
	assert.True(t, err.Kind.Terminal())
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(errors.New("boom")))
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.False(t, KindMalformedResponse.Terminal())
}
