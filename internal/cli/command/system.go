package command

import (
	"github.com/urfave/cli/v2"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server health and maintenance",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check server health",
				Action: systemHealth,
			},
			{
				Name:   "status",
				Usage:  "Show server status summary",
				Action: systemStatus,
			},
			{
				Name:   "gc",
				Usage:  "Run value log garbage collection",
				Action: systemGC,
			},
		},
	}
}

func systemHealth(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}

	var health healthView
	if err := s.client.Get(c.Context, "/health", &health); err != nil {
		return err
	}
	health.Server = s.client.BaseURL()
	return s.print(health)
}

func systemStatus(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}

	var sum summaryResponse
	if err := s.client.Get(c.Context, "/admin/v1/status/summary", &sum); err != nil {
		return err
	}
	return s.print(newStatusView(&sum))
}

func systemGC(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}

	var res gcView
	if err := s.client.Post(c.Context, "/admin/v1/gc/trigger", nil, &res); err != nil {
		return err
	}
	return s.print(res)
}
