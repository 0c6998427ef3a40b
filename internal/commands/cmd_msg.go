package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/chatbox/internal/client"
	"github.com/hay-kot/chatbox/internal/core/chat"
	"github.com/hay-kot/chatbox/internal/printer"
)

// EnvUser names the environment variable consulted for the author when
// neither --user nor a #Name tag is given.
const EnvUser = "CHATBOX_USER"

type MsgCmd struct {
	flags *Flags

	// send flags
	sendUser  string
	sendFile  string
	sendImage string

	// read/watch flags
	since       int64
	last        int
	format      string
	markdown    bool
	interval    time.Duration
	idleTimeout time.Duration
}

// NewMsgCmd creates a new msg command.
func NewMsgCmd(flags *Flags) *MsgCmd {
	return &MsgCmd{flags: flags}
}

// Register adds the msg command to the application.
func (cmd *MsgCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "msg",
		Usage: "Send and read chat messages",
		Description: `Message commands talk to a running chatbox server (see --url).

Output is JSON lines when stdout is not a terminal and styled lines otherwise.
Use --format to force one or the other.`,
		Commands: []*cli.Command{
			cmd.sendCmd(),
			cmd.readCmd(),
			cmd.watchCmd(),
		},
	})

	return app
}

func (cmd *MsgCmd) outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "format",
			Usage:       "output format (json, pretty); defaults to pretty on a terminal",
			Destination: &cmd.format,
		},
		&cli.BoolFlag{
			Name:        "markdown",
			Aliases:     []string{"m"},
			Usage:       "render message text as markdown (pretty format only)",
			Destination: &cmd.markdown,
		},
	}
}

func (cmd *MsgCmd) sendCmd() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Post a message",
		UsageText: "chatbox msg send [--user <name>] [--image <path>] [text]",
		Description: `Posts a text or image message.

The text can be provided as:
- Command-line arguments
- From a file with -f/--file
- From stdin if no argument is provided

The author is taken from --user. Without it, a leading #Name tag in the text
names the author and is removed from the text; otherwise $CHATBOX_USER is used.

With --image the text is optional and becomes the image caption.

Examples:
  chatbox msg send --user alice "hello"
  chatbox msg send "#Builder build finished"
  echo "done" | chatbox msg send --user ci
  chatbox msg send --user alice --image shot.png "the login page"`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "user",
				Aliases:     []string{"u"},
				Usage:       "message author",
				Destination: &cmd.sendUser,
			},
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "read message text from file",
				Destination: &cmd.sendFile,
			},
			&cli.StringFlag{
				Name:        "image",
				Aliases:     []string{"i"},
				Usage:       "attach an image file",
				Destination: &cmd.sendImage,
			},
		}, cmd.outputFlags()...),
		Action: cmd.runSend,
	}
}

func (cmd *MsgCmd) readCmd() *cli.Command {
	return &cli.Command{
		Name:      "read",
		Usage:     "Print retained messages",
		UsageText: "chatbox msg read [--since N] [--last N]",
		Description: `Prints messages with an ID greater than --since.

Examples:
  chatbox msg read                 # whole retained log
  chatbox msg read --since 42      # messages after #42
  chatbox msg read --last 10       # last 10 messages
  chatbox msg read --format json   # JSON lines`,
		Flags: append([]cli.Flag{
			&cli.Int64Flag{
				Name:        "since",
				Aliases:     []string{"s"},
				Usage:       "only messages with an ID greater than this",
				Destination: &cmd.since,
			},
			&cli.IntFlag{
				Name:        "last",
				Aliases:     []string{"n"},
				Usage:       "return only last N messages",
				Destination: &cmd.last,
			},
		}, cmd.outputFlags()...),
		Action: cmd.runRead,
	}
}

func (cmd *MsgCmd) watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Print new messages as they arrive",
		UsageText: "chatbox msg watch [--since N] [--interval 1s] [--idle-timeout 0]",
		Description: `Polls the server and prints each new message.

Without --since the existing log is printed first. The command runs until
interrupted, or until --idle-timeout passes without a new message.

Examples:
  chatbox msg watch
  chatbox msg watch --since 100 --idle-timeout 5m`,
		Flags: append([]cli.Flag{
			&cli.Int64Flag{
				Name:        "since",
				Aliases:     []string{"s"},
				Usage:       "start after this message ID",
				Destination: &cmd.since,
			},
			&cli.DurationFlag{
				Name:        "interval",
				Usage:       "poll interval (defaults to client.poll_interval)",
				Destination: &cmd.interval,
			},
			&cli.DurationFlag{
				Name:        "idle-timeout",
				Usage:       "stop after this long without new messages (0 disables, defaults to client.idle_timeout)",
				Destination: &cmd.idleTimeout,
			},
		}, cmd.outputFlags()...),
		Action: cmd.runWatch,
	}
}

func (cmd *MsgCmd) runSend(ctx context.Context, c *cli.Command) error {
	text, err := cmd.readText(c)
	if err != nil {
		return err
	}

	user, text, err := resolveAuthor(cmd.sendUser, text, os.Getenv(EnvUser))
	if err != nil {
		return err
	}

	api := cmd.flags.Client()

	var msg chat.Message
	if cmd.sendImage != "" {
		data, err := os.ReadFile(cmd.sendImage)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		msg, err = api.PostImage(ctx, user, text, detectMIME(cmd.sendImage, data), data)
		if err != nil {
			return fmt.Errorf("send image: %w", err)
		}
	} else {
		msg, err = api.PostText(ctx, user, text)
		if err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}

	out, err := cmd.messageWriter(c.Root().Writer, api.BaseURL())
	if err != nil {
		return err
	}
	return out.Write(msg)
}

// readText returns the message text from the arguments, --file, or stdin.
// With --image and no arguments, stdin is only read when it is not a terminal.
func (cmd *MsgCmd) readText(c *cli.Command) (string, error) {
	switch {
	case c.NArg() >= 1:
		return strings.Join(c.Args().Slice(), " "), nil
	case cmd.sendFile != "":
		data, err := os.ReadFile(cmd.sendFile)
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		return string(data), nil
	case cmd.sendImage != "" && printer.IsTerminal(os.Stdin):
		return "", nil
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
}

func (cmd *MsgCmd) runRead(ctx context.Context, c *cli.Command) error {
	api := cmd.flags.Client()

	messages, err := api.Messages(ctx, cmd.since)
	if err != nil {
		return fmt.Errorf("read messages: %w", err)
	}

	// Apply --last N limit if specified
	if cmd.last > 0 && len(messages) > cmd.last {
		messages = messages[len(messages)-cmd.last:]
	}

	out, err := cmd.messageWriter(c.Root().Writer, api.BaseURL())
	if err != nil {
		return err
	}
	return out.WriteAll(messages)
}

func (cmd *MsgCmd) runWatch(ctx context.Context, c *cli.Command) error {
	api := cmd.flags.Client()

	out, err := cmd.messageWriter(c.Root().Writer, api.BaseURL())
	if err != nil {
		return err
	}

	interval := cmd.flags.Config.Client.PollInterval
	if c.IsSet("interval") {
		interval = cmd.interval
	}
	idle := cmd.flags.Config.Client.IdleTimeout
	if c.IsSet("idle-timeout") {
		idle = cmd.idleTimeout
	}

	watcher := client.NewWatcher(api, interval).
		WithSince(cmd.since).
		WithIdleTimeout(idle).
		WithLogger(log.With().Str("component", "watcher").Logger())

	err = watcher.Run(ctx, func(_ context.Context, msg chat.Message) error {
		return out.Write(msg)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (cmd *MsgCmd) messageWriter(w io.Writer, baseURL string) (*printer.MessageWriter, error) {
	format := cmd.format
	if format == "" {
		format = printer.DefaultFormat(w)
	}

	out, err := printer.NewMessageWriter(w, format, baseURL)
	if err != nil {
		return nil, err
	}

	if cmd.markdown {
		if err := out.WithMarkdown(); err != nil {
			return nil, err
		}
	}

	return out, nil
}

var authorTagRe = regexp.MustCompile(`^#([a-zA-Z0-9_\-]+)`)

// resolveAuthor picks the message author: the explicit user first, then a
// leading #Name tag (stripped from the text), then fallback.
func resolveAuthor(user, text, fallback string) (string, string, error) {
	if user = strings.TrimSpace(user); user != "" {
		return user, text, nil
	}

	if m := authorTagRe.FindStringSubmatchIndex(text); m != nil {
		return text[m[2]:m[3]], strings.TrimSpace(text[m[1]:]), nil
	}

	if fallback = strings.TrimSpace(fallback); fallback != "" {
		return fallback, text, nil
	}

	return "", "", fmt.Errorf("no author: pass --user, start the text with #Name, or set %s", EnvUser)
}

// detectMIME guesses an image's media type from its extension, then its
// content. Parameters such as charset are dropped.
func detectMIME(path string, data []byte) string {
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mt == "" {
		mt = http.DetectContentType(data)
	}

	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		return parsed
	}
	return "application/octet-stream"
}
