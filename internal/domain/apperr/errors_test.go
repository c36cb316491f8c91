package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		reason   string
	}{
		{"validation", Validation("rfq", "buyer and seller must differ"), ErrValidation, "validation failed"},
		{"not found", NotFound("quote", 7), ErrNotFound, "not found"},
		{"unauthorized", Unauthorized("contract", "transition"), ErrUnauthorized, "not authorized"},
		{"invalid transition", InvalidTransition("rfq", "closed", "seen"), ErrInvalidTransition, "invalid transition"},
		{"invalid state", InvalidState("quote", "only pending quotes can be deleted"), ErrInvalidState, "invalid state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			wrapped := fmt.Errorf("bulk item: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.Equal(t, tt.reason, Reason(wrapped))
		})
	}
}

func TestErrorDoesNotMatchOtherKinds(t *testing.T) {
	err := NotFound("rfq", 1)
	assert.False(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrInvalidState))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "rfq: 12 not found", NotFound("rfq", 12).Error())
	assert.Equal(t, "contract: cannot move from delivered to shipped",
		InvalidTransition("contract", "delivered", "shipped").Error())
}

func TestWrap(t *testing.T) {
	base := errors.New("duplicate key")
	err := Wrap(KindInvalidState, "contract", base)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, err, base)
	assert.Nil(t, Wrap(KindNotFound, "rfq", nil))
}

func TestReasonForPlainError(t *testing.T) {
	assert.Equal(t, "internal error", Reason(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
}
