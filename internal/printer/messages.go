package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/hay-kot/chatbox/internal/core/chat"
	"github.com/hay-kot/chatbox/internal/styles"
)

// Message output formats.
const (
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

const defaultWidth = 80

// MessageWriter renders chat messages either as JSON lines or as styled
// terminal lines.
type MessageWriter struct {
	w        io.Writer
	format   string
	baseURL  string
	markdown *glamour.TermRenderer
	location *time.Location
}

// NewMessageWriter creates a writer for format. baseURL is prefixed to image
// links in pretty output.
func NewMessageWriter(w io.Writer, format, baseURL string) (*MessageWriter, error) {
	switch format {
	case FormatJSON, FormatPretty:
	default:
		return nil, fmt.Errorf("unknown format %q (want %s or %s)", format, FormatJSON, FormatPretty)
	}

	return &MessageWriter{
		w:        w,
		format:   format,
		baseURL:  strings.TrimRight(baseURL, "/"),
		location: time.Local,
	}, nil
}

// WithMarkdown renders message text as markdown in pretty output.
func (m *MessageWriter) WithMarkdown() error {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("tokyo-night"),
		glamour.WithWordWrap(TerminalWidth(m.w)-4),
	)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}
	m.markdown = renderer
	return nil
}

// WithLocation sets the zone timestamps are shown in.
func (m *MessageWriter) WithLocation(loc *time.Location) *MessageWriter {
	m.location = loc
	return m
}

// DefaultFormat picks pretty output for terminals and JSON lines otherwise.
func DefaultFormat(w io.Writer) string {
	if IsTerminal(w) {
		return FormatPretty
	}
	return FormatJSON
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of w, or 80 when w is not a terminal.
func TerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

// Write renders a single message.
func (m *MessageWriter) Write(msg chat.Message) error {
	if m.format == FormatJSON {
		return json.NewEncoder(m.w).Encode(msg)
	}

	_, err := io.WriteString(m.w, m.pretty(msg))
	return err
}

// WriteAll renders messages in order.
func (m *MessageWriter) WriteAll(messages []chat.Message) error {
	for _, msg := range messages {
		if err := m.Write(msg); err != nil {
			return err
		}
	}
	return nil
}

func (m *MessageWriter) pretty(msg chat.Message) string {
	ts := time.UnixMilli(msg.Timestamp).In(m.location).Format("15:04:05")
	header := styles.MetaStyle.Render(fmt.Sprintf("#%d %s", msg.ID, ts)) + " " +
		styles.UserStyle(msg.User).Render(msg.User)

	var body []string
	if msg.IsImage() {
		body = append(body, styles.ImageStyle.Render("[image] "+m.baseURL+msg.ImageURL))
	}
	if msg.Text != "" {
		body = append(body, m.renderText(msg.Text))
	}

	if len(body) == 1 && !strings.Contains(body[0], "\n") {
		return header + " " + body[0] + "\n"
	}

	var b strings.Builder
	b.WriteString(header + "\n")
	for _, part := range body {
		for _, line := range strings.Split(part, "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}

func (m *MessageWriter) renderText(text string) string {
	if m.markdown == nil {
		return styles.TextStyle.Render(text)
	}

	rendered, err := m.markdown.Render(text)
	if err != nil {
		return styles.TextStyle.Render(text)
	}

	// Glamour pads output with blank lines and a left margin.
	lines := strings.Split(strings.Trim(rendered, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n")
}
