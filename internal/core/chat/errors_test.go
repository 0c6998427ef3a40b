package chat

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_As(t *testing.T) {
	wrapped := fmt.Errorf("append: %w", &PayloadTooLargeError{Size: 11, Limit: 10})

	var tooLarge *PayloadTooLargeError
	assert.True(t, errors.As(wrapped, &tooLarge))
	assert.Equal(t, int64(11), tooLarge.Size)
	assert.Equal(t, "image too large (11 bytes), limit is 10 bytes", tooLarge.Error())

	var validation *ValidationError
	assert.False(t, errors.As(wrapped, &validation))
}

func TestPersistenceError_Unwrap(t *testing.T) {
	err := &PersistenceError{Op: "write messages", Err: fs.ErrPermission}

	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.Equal(t, "write messages: permission denied", err.Error())
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "user"}
	assert.Equal(t, "user is required", err.Error())
}
