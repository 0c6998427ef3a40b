// Package randid provides random ID generation utilities.
package randid

import "math/rand/v2"

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Generate creates a random lowercase alphanumeric ID of the specified length.
func Generate(length int) string {
	if length <= 0 {
		return ""
	}

	b := make([]byte, length)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(b)
}

// Name returns prefix joined to a random suffix, e.g. "bot-k3x9q2".
func Name(prefix string, length int) string {
	if prefix == "" {
		return Generate(length)
	}
	return prefix + "-" + Generate(length)
}
