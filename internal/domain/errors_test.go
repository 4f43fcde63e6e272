package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReasonError_Sentinels(t *testing.T) {
	assert.ErrorIs(t, NewReasonError(ReasonInsufficientStock, "p1"), ErrInsufficientStock)
	assert.ErrorIs(t, NewReasonError(ReasonOrderNotFound, "o1"), ErrNotFound)
	assert.ErrorIs(t, NewReasonError(ReasonInvalidTransition, ""), ErrConflict)
	assert.Equal(t, "invalid_transition", NewReasonError(ReasonInvalidTransition, "").Error())
}

func TestRateLimitError(t *testing.T) {
	err := error(&RateLimitError{RetryAfter: 1500 * time.Millisecond})
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Contains(t, err.Error(), "1500ms")
}

func TestTruncateReason(t *testing.T) {
	assert.Equal(t, "corto", TruncateReason("corto"))
	assert.Len(t, TruncateReason(strings.Repeat("x", 500)), MaxReasonLength)

	// "ñ" ocupa 2 bytes: el corte no debe partir la runa
	s := strings.Repeat("a", MaxReasonLength-1) + "ñ"
	out := TruncateReason(s)
	assert.Equal(t, MaxReasonLength-1, len(out))
}
