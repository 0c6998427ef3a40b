package jsonfile

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/chatbox/internal/core/chat"
	"github.com/hay-kot/chatbox/internal/core/validate"
	"github.com/hay-kot/chatbox/internal/metrics"
)

const (
	// MessagesFileName is the canonical log file inside the data directory.
	MessagesFileName = "messages.json"
	// ImagesDirName is the image payload directory inside the data directory.
	ImagesDirName = "images"

	DefaultMaxMessages    = 5000
	DefaultMaxUploadBytes = 5_000_000
)

// ChatStore implements chat.Store on top of a single JSON file. The retained
// log lives in memory and every append rewrites the file atomically.
type ChatStore struct {
	dataDir        string
	maxMessages    int
	maxUploadBytes int64
	logger         zerolog.Logger
	now            func() time.Time

	mu       sync.Mutex
	messages []chat.Message
	nextID   int64
}

var _ chat.Store = (*ChatStore)(nil)

// NewChatStore creates a store rooted at dataDir. Call Load before use.
func NewChatStore(dataDir string) *ChatStore {
	return &ChatStore{
		dataDir:        dataDir,
		maxMessages:    DefaultMaxMessages,
		maxUploadBytes: DefaultMaxUploadBytes,
		logger:         zerolog.Nop(),
		now:            time.Now,
		nextID:         1,
	}
}

// WithMaxMessages sets the retention cap.
func (s *ChatStore) WithMaxMessages(max int) *ChatStore {
	s.maxMessages = max
	return s
}

// WithMaxUploadBytes sets the image payload ceiling.
func (s *ChatStore) WithMaxUploadBytes(max int64) *ChatStore {
	s.maxUploadBytes = max
	return s
}

// WithLogger sets the logger used for recovery warnings.
func (s *ChatStore) WithLogger(l zerolog.Logger) *ChatStore {
	s.logger = l
	return s
}

// WithClock overrides the time source used for timestamps and image names.
func (s *ChatStore) WithClock(now func() time.Time) *ChatStore {
	s.now = now
	return s
}

// MessagesPath returns the path of the canonical log file.
func (s *ChatStore) MessagesPath() string {
	return filepath.Join(s.dataDir, MessagesFileName)
}

// ImagesDir returns the directory image payloads are written to.
func (s *ChatStore) ImagesDir() string {
	return filepath.Join(s.dataDir, ImagesDirName)
}

// Load prepares the data directory and reads the existing log. Unreadable or
// malformed log content is discarded in favor of an empty log; only directory
// and initial-write failures are returned.
func (s *ChatStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.ImagesDir(), 0o755); err != nil {
		return fmt.Errorf("create images directory: %w", err)
	}

	s.messages = nil
	s.nextID = 1

	data, err := os.ReadFile(s.MessagesPath())
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := s.persistLocked(); err != nil {
			return err
		}
		return nil
	case err != nil:
		s.logger.Warn().Err(err).Str("path", s.MessagesPath()).Msg("unreadable message log, starting empty")
		return nil
	}

	messages, err := decodeMessages(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.MessagesPath()).Msg("malformed message log, starting empty")
		return nil
	}

	slices.SortStableFunc(messages, func(a, b chat.Message) int {
		return cmp.Compare(a.ID, b.ID)
	})

	var maxID int64
	for _, m := range messages {
		maxID = max(maxID, m.ID)
	}

	s.messages = messages
	s.nextID = maxID + 1
	s.trimLocked()

	s.logger.Debug().
		Int("retained", len(s.messages)).
		Int64("next_id", s.nextID).
		Msg("message log loaded")

	return nil
}

// decodeMessages parses the log file, dropping entries without a usable ID.
func decodeMessages(data []byte) ([]chat.Message, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse messages file: %w", err)
	}

	messages := make([]chat.Message, 0, len(raw))
	for _, r := range raw {
		var m chat.Message
		if err := json.Unmarshal(r, &m); err != nil || m.ID <= 0 {
			continue
		}
		messages = append(messages, m)
	}

	return messages, nil
}

// ListSince returns retained messages with an ID greater than sinceID.
func (s *ChatStore) ListSince(sinceID int64) []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sinceID <= 0 {
		return slices.Clone(s.messages)
	}

	// The log is sorted by ID, so everything after the first match qualifies.
	i, _ := slices.BinarySearchFunc(s.messages, sinceID+1, func(m chat.Message, id int64) int {
		return cmp.Compare(m.ID, id)
	})

	return slices.Clone(s.messages[i:])
}

// AppendText records a text message.
func (s *ChatStore) AppendText(author, text string) (chat.Message, error) {
	if err := validate.Required("user", author); err != nil {
		return chat.Message{}, err
	}
	if err := validate.Required("text", text); err != nil {
		return chat.Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendLocked(chat.Message{
		User: author,
		Kind: chat.KindText,
		Text: text,
	})
}

// AppendImage writes data under the images directory and records an image
// message referencing it. A payload of exactly MaxUploadBytes is accepted.
func (s *ChatStore) AppendImage(author, caption, sourceFilename string, data []byte) (chat.Message, error) {
	if err := validate.Required("user", author); err != nil {
		return chat.Message{}, err
	}

	if size := int64(len(data)); size > s.maxUploadBytes {
		return chat.Message{}, &chat.PayloadTooLargeError{Size: size, Limit: s.maxUploadBytes}
	}

	name := imageFileName(s.now(), sourceFilename)
	path := filepath.Join(s.ImagesDir(), name)
	if err := writeFileAtomic(path, data); err != nil {
		metrics.PersistFailures.Inc()
		return chat.Message{}, &chat.PersistenceError{Op: "write image", Err: err}
	}
	metrics.ImageBytesWritten.Add(float64(len(data)))

	s.mu.Lock()
	defer s.mu.Unlock()

	msg, err := s.appendLocked(chat.Message{
		User:     author,
		Kind:     chat.KindImage,
		Text:     caption,
		ImageURL: ImageURL(name),
	})
	if err != nil {
		_ = os.Remove(path)
		return chat.Message{}, err
	}

	return msg, nil
}

// Stats summarizes the retained log.
func (s *ChatStore) Stats() chat.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return chat.Stats{
		Retained:    len(s.messages),
		LastID:      s.nextID - 1,
		MaxMessages: s.maxMessages,
	}
}

// appendLocked assigns the next ID, appends, trims and persists. On a failed
// write the in-memory log and the ID counter are restored. Caller must hold s.mu.
func (s *ChatStore) appendLocked(msg chat.Message) (chat.Message, error) {
	prevMessages, prevNextID := s.messages, s.nextID

	msg.ID = s.nextID
	msg.Timestamp = s.now().UnixMilli()

	s.nextID++
	s.messages = append(s.messages, msg)
	s.trimLocked()

	if err := s.persistLocked(); err != nil {
		s.messages, s.nextID = prevMessages, prevNextID
		return chat.Message{}, err
	}

	metrics.MessagesAppended.WithLabelValues(string(msg.Kind)).Inc()
	return msg, nil
}

// trimLocked enforces the retention cap, keeping the newest messages.
// Caller must hold s.mu.
func (s *ChatStore) trimLocked() {
	if s.maxMessages <= 0 || len(s.messages) <= s.maxMessages {
		return
	}
	s.messages = slices.Clone(s.messages[len(s.messages)-s.maxMessages:])
}

// persistLocked writes the retained log to a temp file and renames it over
// the canonical file. Caller must hold s.mu.
func (s *ChatStore) persistLocked() error {
	start := time.Now()

	messages := s.messages
	if messages == nil {
		messages = []chat.Message{}
	}

	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return &chat.PersistenceError{Op: "marshal messages", Err: err}
	}
	data = append(data, '\n')

	if err := writeFileAtomic(s.MessagesPath(), data); err != nil {
		metrics.PersistFailures.Inc()
		return &chat.PersistenceError{Op: "write messages", Err: err}
	}

	metrics.PersistDuration.Observe(time.Since(start).Seconds())
	return nil
}

// writeFileAtomic writes data to path via a sibling temp file and rename.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
