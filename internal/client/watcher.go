package client

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/chatbox/internal/core/chat"
)

// DefaultPollInterval is used when a Watcher is created with a non-positive interval.
const DefaultPollInterval = time.Second

// MessageLister is the read side of Client.
type MessageLister interface {
	Messages(ctx context.Context, since int64) ([]chat.Message, error)
}

// HandlerFunc receives each new message in ID order. Returning an error stops
// the Watcher.
type HandlerFunc func(ctx context.Context, msg chat.Message) error

// Watcher polls the server for messages newer than its cursor.
type Watcher struct {
	source      MessageLister
	interval    time.Duration
	idleTimeout time.Duration
	since       int64
	fromLatest  bool
	logger      zerolog.Logger
}

// NewWatcher creates a Watcher polling source every interval.
func NewWatcher(source MessageLister, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Watcher{
		source:   source,
		interval: interval,
		logger:   zerolog.Nop(),
	}
}

// WithSince starts the watcher after the given message ID.
func (w *Watcher) WithSince(id int64) *Watcher {
	w.since = id
	return w
}

// FromLatest skips messages that exist when Run starts.
func (w *Watcher) FromLatest() *Watcher {
	w.fromLatest = true
	return w
}

// WithIdleTimeout makes Run return nil after d without new messages. Zero
// disables the timeout.
func (w *Watcher) WithIdleTimeout(d time.Duration) *Watcher {
	w.idleTimeout = d
	return w
}

// WithLogger sets the logger used for transient poll failures.
func (w *Watcher) WithLogger(l zerolog.Logger) *Watcher {
	w.logger = l
	return w
}

// Since returns the ID of the last delivered message.
func (w *Watcher) Since() int64 {
	return w.since
}

// Run polls until ctx is cancelled (returning ctx.Err()), the idle timeout
// elapses (returning nil) or handler fails. Poll errors are logged and retried
// on the next tick.
func (w *Watcher) Run(ctx context.Context, handler HandlerFunc) error {
	if w.fromLatest {
		messages, err := w.source.Messages(ctx, w.since)
		if err != nil {
			return fmt.Errorf("find latest message: %w", err)
		}
		if n := len(messages); n > 0 {
			w.since = messages[n-1].ID
		}
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	lastActivity := time.Now()

	for {
		delivered, err := w.poll(ctx, handler)
		if err != nil {
			return err
		}
		if delivered > 0 {
			lastActivity = time.Now()
		}

		if w.idleTimeout > 0 && time.Since(lastActivity) >= w.idleTimeout {
			w.logger.Debug().Dur("idle_timeout", w.idleTimeout).Msg("no new messages, stopping")
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// poll fetches once and delivers new messages. Only handler failures and
// context cancellation are returned.
func (w *Watcher) poll(ctx context.Context, handler HandlerFunc) (int, error) {
	messages, err := w.source.Messages(ctx, w.since)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		w.logger.Warn().Err(err).Int64("since", w.since).Msg("poll failed, retrying")
		return 0, nil
	}

	delivered := 0
	for _, msg := range messages {
		// Servers only return id > since; guard against replays anyway.
		if msg.ID <= w.since {
			continue
		}

		if err := handler(ctx, msg); err != nil {
			return delivered, fmt.Errorf("handle message %d: %w", msg.ID, err)
		}

		w.since = msg.ID
		delivered++
	}

	return delivered, nil
}
