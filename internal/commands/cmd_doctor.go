package commands

import (
	"context"
	"encoding/json"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/chatbox/internal/commands/doctor"
	"github.com/hay-kot/chatbox/internal/printer"
)

type DoctorCmd struct {
	flags   *Flags
	format  string
	fix     bool
	offline bool
}

func NewDoctorCmd(flags *Flags) *DoctorCmd {
	return &DoctorCmd{flags: flags}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "doctor",
		Usage:     "Run health checks on your chatbox setup",
		UsageText: "chatbox doctor [options]",
		Description: `Runs diagnostic checks on the configuration, the message log on disk,
orphaned images and the configured server.

Use --fix to delete orphaned images (same as 'chatbox prune').`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "fix",
				Usage:       "delete orphaned images",
				Destination: &cmd.fix,
			},
			&cli.BoolFlag{
				Name:        "offline",
				Usage:       "skip the server reachability check",
				Destination: &cmd.offline,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config

	checks := []doctor.Check{
		doctor.NewConfigCheck(cfg, cmd.flags.ConfigPath),
		doctor.NewStoreCheck(cfg.DataDir, cfg.Store.MaxMessages),
		doctor.NewOrphanCheck(cfg.DataDir, DefaultPruneMinAge, cmd.fix),
	}
	if !cmd.offline {
		checks = append(checks, doctor.NewServerCheck(cmd.flags.Client(), 5*time.Second))
	}

	results := doctor.RunAll(ctx, checks)

	if cmd.format == "json" {
		return cmd.outputJSON(c, results)
	}

	return cmd.outputText(ctx, results)
}

func (cmd *DoctorCmd) outputJSON(c *cli.Command, results []doctor.Result) error {
	report := doctor.NewReport(results)

	enc := json.NewEncoder(c.Root().Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}

	if !report.Healthy {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *DoctorCmd) outputText(ctx context.Context, results []doctor.Result) error {
	p := printer.Ctx(ctx)

	for _, result := range results {
		p.Section(result.Name)

		printItems(p, result.Items)
		p.Printf("")
	}

	passed, warned, failed := doctor.Summary(results)
	p.Printf("Summary: %d passed, %d warnings, %d failed", passed, warned, failed)

	if fixable := doctor.CountFixable(results); fixable > 0 {
		p.Infof("%d issue(s) can be fixed with 'chatbox doctor --fix'", fixable)
	}

	if failed > 0 {
		return cli.Exit("", 1)
	}

	return nil
}

func printItems(p *printer.Printer, items []doctor.CheckItem) {
	for _, item := range items {
		switch item.Status {
		case doctor.StatusPass:
			p.CheckItem(item.Label, item.Detail)
		case doctor.StatusWarn:
			p.WarnItem(item.Label, item.Detail)
		case doctor.StatusFail:
			p.FailItem(item.Label, item.Detail)
		}
	}
}
