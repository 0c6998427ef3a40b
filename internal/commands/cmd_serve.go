package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/chatbox/internal/printer"
	"github.com/hay-kot/chatbox/internal/server"
	"github.com/hay-kot/chatbox/internal/store/jsonfile"
)

type ServeCmd struct {
	flags *Flags

	addr    string
	webRoot string
}

// NewServeCmd creates a new serve command
func NewServeCmd(flags *Flags) *ServeCmd {
	return &ServeCmd{flags: flags}
}

// Register adds the serve command to the application
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Run the chat server",
		UsageText: "chatbox serve [--addr :4173] [--web-root ./web]",
		Description: `Starts the HTTP server in front of the message log.

Messages are kept in <data-dir>/messages.json and uploaded images under
<data-dir>/images, served at /data/images/. When a web root is configured it
is served at /.

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Aliases:     []string{"a"},
				Usage:       "listen address (overrides server.addr)",
				Sources:     cli.EnvVars("CHATBOX_ADDR"),
				Destination: &cmd.addr,
			},
			&cli.StringFlag{
				Name:        "web-root",
				Usage:       "directory of static files served at / (overrides server.web_root)",
				Sources:     cli.EnvVars("CHATBOX_WEB_ROOT"),
				Destination: &cmd.webRoot,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config

	opts := server.Options{
		Addr:            cfg.Server.Addr,
		WebRoot:         cfg.Server.WebRoot,
		ImagesDir:       cfg.ImagesDir(),
		MaxUploadBytes:  cfg.Store.MaxUploadBytes,
		CORSOrigins:     cfg.Server.CORSOrigins,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	if cmd.addr != "" {
		opts.Addr = cmd.addr
	}
	if cmd.webRoot != "" {
		opts.WebRoot = cmd.webRoot
	}

	storeLogger := log.With().Str("component", "store").Logger()
	store := jsonfile.NewChatStore(cfg.DataDir).
		WithMaxMessages(cfg.Store.MaxMessages).
		WithMaxUploadBytes(cfg.Store.MaxUploadBytes).
		WithLogger(storeLogger)
	if err := store.Load(); err != nil {
		return fmt.Errorf("open message store: %w", err)
	}

	stats := store.Stats()
	storeLogger.Info().
		Str("path", store.MessagesPath()).
		Int("retained", stats.Retained).
		Int64("last_id", stats.LastID).
		Int("max_messages", stats.MaxMessages).
		Msg("message store loaded")

	if printer.IsTerminal(os.Stdout) {
		p := printer.New(os.Stdout)
		p.Banner()
		p.Infof("listening on %s", opts.Addr)
		p.Infof("data directory %s", cfg.DataDir)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(store, opts, log.With().Str("component", "server").Logger())
	return srv.Run(ctx)
}
