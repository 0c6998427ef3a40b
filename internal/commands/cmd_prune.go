package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/chatbox/internal/printer"
	"github.com/hay-kot/chatbox/internal/store/jsonfile"
)

// DefaultPruneMinAge keeps images written by an append that is still in flight.
const DefaultPruneMinAge = time.Hour

type PruneCmd struct {
	flags *Flags

	minAge time.Duration
	dryRun bool
}

// NewPruneCmd creates a new prune command
func NewPruneCmd(flags *Flags) *PruneCmd {
	return &PruneCmd{flags: flags}
}

// Register adds the prune command to the application
func (cmd *PruneCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "prune",
		Usage:     "Remove images no retained message refers to",
		UsageText: "chatbox prune [--min-age 1h] [--dry-run]",
		Description: `Deletes files under <data-dir>/images that are not referenced by any
message in messages.json.

Messages that fall off the retention cap leave their images behind; prune
reclaims that space. Files younger than --min-age are kept so an upload that
is still being recorded is never removed. Safe to run while the server is up.`,
		Action: cmd.run,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:        "min-age",
				Usage:       "only remove images older than this",
				Value:       DefaultPruneMinAge,
				Destination: &cmd.minAge,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Aliases:     []string{"n"},
				Usage:       "list orphaned images without deleting them",
				Destination: &cmd.dryRun,
			},
		},
	})

	return app
}

func (cmd *PruneCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	orphans, err := jsonfile.FindOrphanImages(cmd.flags.Config.DataDir, cmd.minAge, time.Now())
	if err != nil {
		return fmt.Errorf("find orphaned images: %w", err)
	}

	if len(orphans) == 0 {
		p.Infof("No orphaned images")
		return nil
	}

	var size int64
	for _, o := range orphans {
		size += o.Size
	}

	if cmd.dryRun {
		for _, o := range orphans {
			p.Printf("%s (%d bytes)", o.Name, o.Size)
		}
		p.Infof("%d orphaned image(s), %d bytes", len(orphans), size)
		return nil
	}

	removed, err := jsonfile.RemoveOrphanImages(orphans)
	if removed > 0 {
		p.Successf("Removed %d image(s)", removed)
	}
	if err != nil {
		return fmt.Errorf("prune images: %w", err)
	}

	return nil
}
