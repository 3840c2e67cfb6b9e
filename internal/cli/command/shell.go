package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rollcall-go/internal/cli/config"
	"github.com/yndnr/rollcall-go/internal/cli/repl"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:   "shell",
		Usage:  "Run commands interactively",
		Action: shell,
	}
}

func shell(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	cfg, ok := c.App.Metadata[metadataConfig].(*config.CLIConfig)
	if !ok {
		cfg = config.Default()
	}

	base := []string{
		c.App.Name,
		"--server", flags.Server,
		"--output", string(flags.Output),
		"--timeout", flags.Timeout.String(),
		"--config", flags.Config,
	}
	if flags.Wide {
		base = append(base, "--wide")
	}
	if flags.CAFile != "" {
		base = append(base, "--ca-file", flags.CAFile)
	}

	exec := func(ctx context.Context, args []string) error {
		if len(args) > 0 && args[0] == "shell" {
			return fmt.Errorf("already in a shell")
		}
		app := App()
		app.Writer = c.App.Writer
		app.ErrWriter = c.App.ErrWriter
		return app.RunContext(ctx, append(append([]string{}, base...), args...))
	}

	fmt.Fprintf(c.App.Writer, "connected to %s; type 'exit' to leave, '<prefix>?' to list commands\n", flags.Server)
	return repl.New(c.App.Reader, c.App.Writer, exec, repl.NewHistory(cfg.HistoryFile)).Run(c.Context)
}
