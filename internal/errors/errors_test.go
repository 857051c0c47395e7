package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	err := New(ErrCodeNotClockedIn, "You must clock in before you can clock out.")
	assert.Equal(t, ErrCodeNotClockedIn, err.Code)
	assert.Equal(t, "NOT_CLOCKED_IN: You must clock in before you can clock out.", err.Error())
	assert.True(t, err.IsPrecondition())

	cause := fmt.Errorf("disk full")
	wrapped := StoreFailure("save session", cause)
	assert.Equal(t, cause, wrapped.Unwrap())
	assert.False(t, wrapped.IsPrecondition())
	assert.Contains(t, wrapped.Error(), "caused by: disk full")
}

func TestIsAndGetCode(t *testing.T) {
	inner := New(ErrCodeConflict, "session changed")
	outer := fmt.Errorf("commit: %w", inner)

	assert.True(t, Is(outer, ErrCodeConflict))
	assert.False(t, Is(outer, ErrCodeStoreFailure))
	assert.Equal(t, ErrCodeConflict, GetCode(outer))
	assert.Equal(t, ErrorCode(""), GetCode(fmt.Errorf("plain")))
	assert.Equal(t, ErrorCode(""), GetCode(nil))
	assert.False(t, Is(nil, ErrCodeConflict))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "session changed", Message(fmt.Errorf("x: %w", New(ErrCodeConflict, "session changed"))))
	assert.Equal(t, "plain", Message(fmt.Errorf("plain")))
}
