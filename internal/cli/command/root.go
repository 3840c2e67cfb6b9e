package command

import (
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rollcall-go/internal/cli/config"
	"github.com/yndnr/rollcall-go/internal/cli/connection"
	"github.com/yndnr/rollcall-go/internal/cli/output"
	"github.com/yndnr/rollcall-go/internal/infra/buildinfo"
	"github.com/yndnr/rollcall-go/internal/infra/tlsroots"
)

const metadataConfig = "config"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 "rollcall-cli",
		Usage:                "rollcall command-line client",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Before:               loadConfig,
		Commands: []*cli.Command{
			AttendanceCommand(),
			EmployeeCommand(),
			SystemCommand(),
			BackupCommand(),
			ShellCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "server HTTP address (default from config, http://127.0.0.1:5080)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml, csv",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "show extra columns in table output",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "request timeout",
		},
		&cli.StringFlag{
			Name:  "ca-file",
			Usage: "PEM bundle trusted for https servers, in addition to system roots",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "CLI config file",
			Value: config.DefaultConfigPath(),
		},
	}
}

func loadConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	c.App.Metadata[metadataConfig] = cfg
	return nil
}

// GlobalFlags is the effective connection and output settings: flags
// override the config file.
type GlobalFlags struct {
	Server  string
	Output  output.Format
	Wide    bool
	Timeout time.Duration
	CAFile  string
	Config  string
}

// ParseGlobalFlags resolves the global settings for c.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg, ok := c.App.Metadata[metadataConfig].(*config.CLIConfig)
	if !ok {
		cfg = config.Default()
	}

	flags := &GlobalFlags{
		Server:  cfg.Server,
		Wide:    c.Bool("wide"),
		Timeout: cfg.Timeout,
		CAFile:  cfg.CAFile,
		Config:  c.String("config"),
	}
	if c.IsSet("server") {
		flags.Server = c.String("server")
	}
	if c.IsSet("timeout") {
		flags.Timeout = c.Duration("timeout")
	}
	if c.IsSet("ca-file") {
		flags.CAFile = c.String("ca-file")
	}

	format := cfg.Output
	if c.IsSet("output") {
		format = c.String("output")
	}
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	flags.Output = f
	return flags, nil
}

// session is what every action needs: a client and a formatter.
type session struct {
	client *connection.HTTPClient
	flags  *GlobalFlags
	c      *cli.Context
}

func newSession(c *cli.Context) (*session, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, err
	}
	tlsCfg, err := tlsroots.ClientConfig(flags.CAFile)
	if err != nil {
		return nil, err
	}
	return &session{
		client: connection.NewHTTPClient(flags.Server, flags.Timeout, connection.WithTLSConfig(tlsCfg)),
		flags:  flags,
		c:      c,
	}, nil
}

func (s *session) print(data any) error {
	return output.NewFormatter(s.flags.Output, s.flags.Wide).Format(s.c.App.Writer, data)
}

// parseIDArg parses positional argument i as a uint64 identifier.
func parseIDArg(c *cli.Context, i int, name string) (uint64, error) {
	raw := c.Args().Get(i)
	if raw == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be an unsigned integer", name, raw)
	}
	return id, nil
}

// requireArgs checks the number of positional arguments.
func requireArgs(c *cli.Context, lo, hi int) error {
	n := c.Args().Len()
	if n < lo || n > hi {
		return fmt.Errorf("%s: expected %s", c.Command.FullName(), c.Command.ArgsUsage)
	}
	return nil
}
