package printer

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/chatbox/internal/core/chat"
)

var sampleMessages = []chat.Message{
	{ID: 1, Timestamp: time.Date(2024, 1, 15, 9, 30, 5, 0, time.UTC).UnixMilli(), User: "alice", Kind: chat.KindText, Text: "hi"},
	{ID: 2, Timestamp: time.Date(2024, 1, 15, 9, 31, 0, 0, time.UTC).UnixMilli(), User: "bob", Kind: chat.KindImage, ImageURL: "/data/images/1-ab.png"},
}

func TestMessageWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	mw, err := NewMessageWriter(&buf, FormatJSON, "http://localhost:4173")
	require.NoError(t, err)

	require.NoError(t, mw.WriteAll(sampleMessages))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var got chat.Message
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &got))
	assert.Equal(t, sampleMessages[1], got)
	assert.NotContains(t, lines[1], `"text"`)
}

func TestMessageWriter_Pretty(t *testing.T) {
	var buf bytes.Buffer
	mw, err := NewMessageWriter(&buf, FormatPretty, "http://localhost:4173/")
	require.NoError(t, err)
	mw.WithLocation(time.UTC)

	require.NoError(t, mw.WriteAll(sampleMessages))

	out := buf.String()
	assert.Contains(t, out, "#1 09:30:05")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "hi")
	assert.Contains(t, out, "[image] http://localhost:4173/data/images/1-ab.png")
}

func TestMessageWriter_Markdown(t *testing.T) {
	var buf bytes.Buffer
	mw, err := NewMessageWriter(&buf, FormatPretty, "")
	require.NoError(t, err)
	require.NoError(t, mw.WithMarkdown())

	require.NoError(t, mw.Write(chat.Message{ID: 3, User: "carol", Kind: chat.KindText, Text: "# Heading\n\nsome **bold** text"}))

	out := buf.String()
	assert.Contains(t, out, "Heading")
	assert.Contains(t, out, "bold")
	assert.NotContains(t, out, "**")
}

func TestNewMessageWriter_UnknownFormat(t *testing.T) {
	_, err := NewMessageWriter(&bytes.Buffer{}, "xml", "")
	assert.Error(t, err)
}

func TestDefaultFormat_NonTerminal(t *testing.T) {
	assert.Equal(t, FormatJSON, DefaultFormat(&bytes.Buffer{}))
	assert.Equal(t, 80, TerminalWidth(&bytes.Buffer{}))
}
