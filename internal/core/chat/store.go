package chat

// Store is the append-only message log.
type Store interface {
	// ListSince returns retained messages with an ID greater than sinceID in
	// ascending ID order. A sinceID of 0 or less returns the whole retained log.
	ListSince(sinceID int64) []Message
	// AppendText records a text message. Returns *ValidationError when author or
	// text is blank.
	AppendText(author, text string) (Message, error)
	// AppendImage writes data to the image directory and records an image message.
	// sourceFilename is only used to pick the stored file extension.
	// Returns *PayloadTooLargeError when data exceeds the upload ceiling.
	AppendImage(author, caption, sourceFilename string, data []byte) (Message, error)
}

// Stats summarizes the retained log.
type Stats struct {
	Retained    int   `json:"retained"`
	LastID      int64 `json:"last_id"`
	MaxMessages int   `json:"max_messages"`
}
