package client

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/chatbox/internal/core/chat"
	"github.com/hay-kot/chatbox/pkg/executil"
	"github.com/hay-kot/chatbox/pkg/tmpl"
)

// DefaultExecTimeout bounds a single ExecResponder command.
const DefaultExecTimeout = 30 * time.Second

// ReplyData is the data available to reply and command templates.
type ReplyData struct {
	ID       int64
	User     string
	Text     string
	Kind     chat.Kind
	ImageURL string
}

func newReplyData(msg chat.Message) ReplyData {
	return ReplyData{
		ID:       msg.ID,
		User:     msg.User,
		Text:     msg.Text,
		Kind:     msg.Kind,
		ImageURL: msg.ImageURL,
	}
}

// Responder produces a reply for an incoming message. An empty reply means
// stay quiet.
type Responder interface {
	Respond(ctx context.Context, msg chat.Message) (string, error)
}

// Poster is the write side of Client.
type Poster interface {
	PostText(ctx context.Context, user, text string) (chat.Message, error)
}

// Bot answers messages from other users. Use Handle as a Watcher handler.
type Bot struct {
	name      string
	poster    Poster
	responder Responder
	logger    zerolog.Logger
}

// NewBot creates a bot that posts as name.
func NewBot(name string, poster Poster, responder Responder, logger zerolog.Logger) *Bot {
	return &Bot{
		name:      name,
		poster:    poster,
		responder: responder,
		logger:    logger,
	}
}

// Name returns the author name the bot posts as.
func (b *Bot) Name() string {
	return b.name
}

// Handle replies to msg. Its own messages and uncaptioned images are skipped.
// A failing responder is logged and the message skipped; a failed post stops
// the watcher.
func (b *Bot) Handle(ctx context.Context, msg chat.Message) error {
	if strings.EqualFold(strings.TrimSpace(msg.User), b.name) {
		return nil
	}
	if msg.IsImage() && strings.TrimSpace(msg.Text) == "" {
		return nil
	}

	reply, err := b.responder.Respond(ctx, msg)
	if err != nil {
		b.logger.Warn().Err(err).Int64("id", msg.ID).Str("user", msg.User).Msg("responder failed, skipping message")
		return nil
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil
	}

	posted, err := b.poster.PostText(ctx, b.name, reply)
	if err != nil {
		return fmt.Errorf("post reply: %w", err)
	}

	b.logger.Info().Int64("id", posted.ID).Int64("reply_to", msg.ID).Msg("replied")
	return nil
}

// TemplateResponder renders a fixed reply template, e.g. "hi {{ .User }}".
type TemplateResponder struct {
	tmpl *template.Template
}

// NewTemplateResponder parses reply and fails on bad syntax.
func NewTemplateResponder(reply string) (*TemplateResponder, error) {
	t, err := tmpl.Parse(reply)
	if err != nil {
		return nil, err
	}
	return &TemplateResponder{tmpl: t}, nil
}

func (r *TemplateResponder) Respond(_ context.Context, msg chat.Message) (string, error) {
	return tmpl.Execute(r.tmpl, newReplyData(msg))
}

// ExecResponder runs a command template through `sh -c` with the message text
// on stdin. Trimmed stdout is the reply.
type ExecResponder struct {
	exec    executil.Executor
	command *template.Template
	timeout time.Duration
}

// NewExecResponder parses command, e.g. "./reply.sh {{ .User | shq }}".
func NewExecResponder(exec executil.Executor, command string) (*ExecResponder, error) {
	t, err := tmpl.Parse(command)
	if err != nil {
		return nil, err
	}
	return &ExecResponder{
		exec:    exec,
		command: t,
		timeout: DefaultExecTimeout,
	}, nil
}

// WithTimeout bounds each command run.
func (r *ExecResponder) WithTimeout(d time.Duration) *ExecResponder {
	r.timeout = d
	return r
}

func (r *ExecResponder) Respond(ctx context.Context, msg chat.Message) (string, error) {
	script, err := tmpl.Execute(r.command, newReplyData(msg))
	if err != nil {
		return "", err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	out, err := executil.Shell(ctx, r.exec, strings.NewReader(msg.Text), script)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(out)), nil
}
