package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/chatbox/internal/client"
	"github.com/hay-kot/chatbox/pkg/executil"
	"github.com/hay-kot/chatbox/pkg/randid"
)

type BotCmd struct {
	flags *Flags

	name        string
	reply       string
	exec        string
	execTimeout time.Duration
	interval    time.Duration
	idleTimeout time.Duration
	backlog     bool
}

// NewBotCmd creates a new bot command
func NewBotCmd(flags *Flags) *BotCmd {
	return &BotCmd{flags: flags}
}

// Register adds the bot command to the application
func (cmd *BotCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "bot",
		Usage:     "Answer chat messages automatically",
		UsageText: "chatbox bot [--name <name>] (--reply <template> | --exec <command>)",
		Description: `Watches the chat and answers every message from another user.

--reply posts a rendered Go template. --exec runs a command template through
sh -c with the message text on stdin and posts its trimmed stdout. Empty
replies are not posted.

Template fields: .ID .User .Text .Kind .ImageURL
Template functions: shq trunc firstLine upper lower trim

By default only messages posted after the bot starts are answered.

Examples:
  chatbox bot --name echo --reply 'you said: {{ .Text }}'
  chatbox bot --name agent --exec './answer.sh {{ .User | shq }}'`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "name",
				Usage:       "author name the bot posts as (default: random bot-xxxxxx)",
				Sources:     cli.EnvVars("CHATBOX_BOT_NAME"),
				Destination: &cmd.name,
			},
			&cli.StringFlag{
				Name:        "reply",
				Aliases:     []string{"r"},
				Usage:       "reply template",
				Destination: &cmd.reply,
			},
			&cli.StringFlag{
				Name:        "exec",
				Aliases:     []string{"e"},
				Usage:       "command template producing the reply",
				Destination: &cmd.exec,
			},
			&cli.DurationFlag{
				Name:        "exec-timeout",
				Usage:       "limit for a single --exec run",
				Value:       client.DefaultExecTimeout,
				Destination: &cmd.execTimeout,
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
			&cli.BoolFlag{
				Name:        "backlog",
				Usage:       "also answer messages that exist when the bot starts",
				Destination: &cmd.backlog,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *BotCmd) responder() (client.Responder, error) {
	switch {
	case cmd.reply != "" && cmd.exec != "":
		return nil, errors.New("--reply and --exec are mutually exclusive")
	case cmd.reply != "":
		r, err := client.NewTemplateResponder(cmd.reply)
		if err != nil {
			return nil, fmt.Errorf("parse --reply: %w", err)
		}
		return r, nil
	case cmd.exec != "":
		r, err := client.NewExecResponder(&executil.RealExecutor{}, cmd.exec)
		if err != nil {
			return nil, fmt.Errorf("parse --exec: %w", err)
		}
		return r.WithTimeout(cmd.execTimeout), nil
	default:
		return nil, errors.New("one of --reply or --exec is required")
	}
}

func (cmd *BotCmd) run(ctx context.Context, c *cli.Command) error {
	responder, err := cmd.responder()
	if err != nil {
		return err
	}

	name := cmd.name
	if name == "" {
		name = randid.Name("bot", 6)
	}

	interval := cmd.flags.Config.Client.PollInterval
	if c.IsSet("interval") {
		interval = cmd.interval
	}
	idle := cmd.flags.Config.Client.IdleTimeout
	if c.IsSet("idle-timeout") {
		idle = cmd.idleTimeout
	}

	var (
		api    = cmd.flags.Client()
		logger = log.With().Str("component", "bot").Str("bot", name).Logger()
		bot    = client.NewBot(name, api, responder, logger)
	)

	watcher := client.NewWatcher(api, interval).
		WithIdleTimeout(idle).
		WithLogger(logger)
	if !cmd.backlog {
		watcher = watcher.FromLatest()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("url", api.BaseURL()).Msg("bot started")

	err = watcher.Run(ctx, bot.Handle)
	if errors.Is(err, context.Canceled) {
		logger.Info().Int64("since", watcher.Since()).Msg("bot stopped")
		return nil
	}
	return err
}
