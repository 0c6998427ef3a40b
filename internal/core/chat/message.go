// Package chat defines chat domain types and interfaces.
package chat

// Kind is the payload type of a message.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Message is a single entry in the chat log. Messages are immutable once
// recorded; ID and Timestamp are assigned by the store.
type Message struct {
	ID        int64  `json:"id"`
	Timestamp int64  `json:"ts"` // unix ms
	User      string `json:"user"`
	Kind      Kind   `json:"kind"`
	Text      string `json:"text,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// IsImage reports whether the message carries an image reference.
func (m Message) IsImage() bool {
	return m.Kind == KindImage
}
