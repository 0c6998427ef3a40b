package client

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/chatbox/internal/core/chat"
	"github.com/hay-kot/chatbox/pkg/executil"
)

type recordingPoster struct {
	mu    sync.Mutex
	posts []chat.Message
	err   error
}

func (p *recordingPoster) PostText(_ context.Context, user, text string) (chat.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return chat.Message{}, p.err
	}

	msg := chat.Message{ID: int64(100 + len(p.posts)), User: user, Kind: chat.KindText, Text: text}
	p.posts = append(p.posts, msg)
	return msg, nil
}

type staticResponder struct {
	reply string
	err   error
}

func (r staticResponder) Respond(context.Context, chat.Message) (string, error) {
	return r.reply, r.err
}

func TestBot_Handle(t *testing.T) {
	tests := []struct {
		name      string
		msg       chat.Message
		responder Responder
		wantPosts []string
	}{
		{
			name:      "replies to others",
			msg:       chat.Message{ID: 1, User: "alice", Kind: chat.KindText, Text: "ping"},
			responder: staticResponder{reply: "pong\n"},
			wantPosts: []string{"pong"},
		},
		{
			name:      "ignores own messages",
			msg:       chat.Message{ID: 1, User: "Echo", Kind: chat.KindText, Text: "ping"},
			responder: staticResponder{reply: "pong"},
		},
		{
			name:      "ignores uncaptioned images",
			msg:       chat.Message{ID: 1, User: "alice", Kind: chat.KindImage, ImageURL: "/data/images/a.png"},
			responder: staticResponder{reply: "nice"},
		},
		{
			name:      "replies to captioned images",
			msg:       chat.Message{ID: 1, User: "alice", Kind: chat.KindImage, Text: "look", ImageURL: "/data/images/a.png"},
			responder: staticResponder{reply: "nice"},
			wantPosts: []string{"nice"},
		},
		{
			name:      "blank reply stays quiet",
			msg:       chat.Message{ID: 1, User: "alice", Kind: chat.KindText, Text: "ping"},
			responder: staticResponder{reply: "  \n"},
		},
		{
			name:      "responder failure skips message",
			msg:       chat.Message{ID: 1, User: "alice", Kind: chat.KindText, Text: "ping"},
			responder: staticResponder{err: errors.New("exit status 1")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poster := &recordingPoster{}
			bot := NewBot("echo", poster, tt.responder, zerolog.Nop())

			require.NoError(t, bot.Handle(context.Background(), tt.msg))

			var got []string
			for _, p := range poster.posts {
				assert.Equal(t, "echo", p.User)
				got = append(got, p.Text)
			}
			assert.Equal(t, tt.wantPosts, got)
		})
	}
}

func TestBot_PostFailureStopsWatcher(t *testing.T) {
	poster := &recordingPoster{err: &APIError{StatusCode: 500, Message: "Failed to save message."}}
	bot := NewBot("echo", poster, staticResponder{reply: "pong"}, zerolog.Nop())

	err := bot.Handle(context.Background(), chat.Message{ID: 1, User: "alice", Kind: chat.KindText, Text: "ping"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)
}

func TestBot_WithWatcher(t *testing.T) {
	src := &fakeLister{}
	src.add("alice", "hello")
	src.add("echo", "already answered")
	src.add("bob", "hey")

	responder, err := NewTemplateResponder("hi {{ .User }}, you said {{ .Text | shq }}")
	require.NoError(t, err)

	poster := &recordingPoster{}
	bot := NewBot("echo", poster, responder, zerolog.Nop())

	w := NewWatcher(src, 0).WithIdleTimeout(1)
	require.NoError(t, w.Run(context.Background(), bot.Handle))

	require.Len(t, poster.posts, 2)
	assert.Equal(t, "hi alice, you said 'hello'", poster.posts[0].Text)
	assert.Equal(t, "hi bob, you said 'hey'", poster.posts[1].Text)
}

func TestNewTemplateResponder_InvalidTemplate(t *testing.T) {
	_, err := NewTemplateResponder("{{ .User ")
	assert.Error(t, err)
}

func TestTemplateResponder_UnknownField(t *testing.T) {
	responder, err := NewTemplateResponder("{{ .Missing }}")
	require.NoError(t, err)

	_, err = responder.Respond(context.Background(), chat.Message{ID: 1, User: "alice"})
	assert.Error(t, err)
}

func TestExecResponder(t *testing.T) {
	exec := &executil.RecordingExecutor{
		Outputs: map[string][]byte{"sh": []byte("  generated reply\n")},
	}

	responder, err := NewExecResponder(exec, "./reply.sh --from {{ .User | shq }} --id {{ .ID }}")
	require.NoError(t, err)

	reply, err := responder.Respond(context.Background(), chat.Message{ID: 7, User: "o'brien", Text: "what's up"})
	require.NoError(t, err)
	assert.Equal(t, "generated reply", reply)

	recorded := exec.Recorded()
	require.Len(t, recorded, 1)
	assert.Equal(t, "sh", recorded[0].Cmd)
	assert.Equal(t, []string{"-c", `./reply.sh --from 'o'\''brien' --id 7`}, recorded[0].Args)
	assert.Equal(t, "what's up", recorded[0].Stdin)
}

func TestExecResponder_CommandFailure(t *testing.T) {
	exec := &executil.RecordingExecutor{
		Errors: map[string]error{"sh": errors.New("exit status 2")},
	}

	responder, err := NewExecResponder(exec, "false")
	require.NoError(t, err)

	_, err = responder.Respond(context.Background(), chat.Message{ID: 1, User: "alice", Text: "hi"})
	assert.EqualError(t, err, "exit status 2")
}
