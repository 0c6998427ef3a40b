package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/hay-kot/chatbox/internal/commands/doctor"
	"github.com/hay-kot/chatbox/internal/printer"
)

type ConfigCmd struct {
	flags  *Flags
	format string
}

// NewConfigCmd creates a new config command.
func NewConfigCmd(flags *Flags) *ConfigCmd {
	return &ConfigCmd{flags: flags}
}

// Register adds the config command to the application.
func (cmd *ConfigCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "chatbox config validate [--format text|json]",
				Description: "Validates the configuration values, the data directory and the web root.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.runValidate,
			},
			{
				Name:        "show",
				Usage:       "Print the effective configuration",
				UsageText:   "chatbox config show",
				Description: "Prints the configuration after defaults and the config file are merged, as YAML.",
				Action:      cmd.runShow,
			},
		},
	})

	return app
}

func (cmd *ConfigCmd) runShow(_ context.Context, c *cli.Command) error {
	enc := yaml.NewEncoder(c.Root().Writer)
	enc.SetIndent(2)
	if err := enc.Encode(cmd.flags.Config); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

func (cmd *ConfigCmd) runValidate(ctx context.Context, c *cli.Command) error {
	result := doctor.NewConfigCheck(cmd.flags.Config, cmd.flags.ConfigPath).Run(ctx)
	report := doctor.NewReport([]doctor.Result{result})

	if cmd.format == "json" {
		enc := json.NewEncoder(c.Root().Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		p := printer.Ctx(ctx)
		printItems(p, result.Items)
		p.Printf("")

		if report.Healthy {
			p.Successf("Configuration is valid (%d warning(s))", report.Summary.Warned)
		} else {
			p.Errorf("%d error(s), %d warning(s)", report.Summary.Failed, report.Summary.Warned)
		}
	}

	if !report.Healthy {
		return cli.Exit("", 1)
	}
	return nil
}
