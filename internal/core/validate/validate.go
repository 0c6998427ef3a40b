// Package validate provides shared validation functions.
package validate

import (
	"strings"

	"github.com/hay-kot/chatbox/internal/core/chat"
)

// Required returns a *chat.ValidationError for field when value is empty after
// trimming whitespace.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &chat.ValidationError{Field: field}
	}
	return nil
}
