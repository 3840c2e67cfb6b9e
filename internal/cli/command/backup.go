package command

import (
	"github.com/urfave/cli/v2"
)

// BackupCommand returns the backup subcommand group.
func BackupCommand() *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Create and list server-side snapshots",
		Subcommands: []*cli.Command{
			{
				Name:   "create",
				Usage:  "Write a snapshot of the record store",
				Action: backupCreate,
			},
			{
				Name:   "list",
				Usage:  "List snapshots, oldest first",
				Action: backupList,
			},
		},
	}
}

func backupCreate(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}

	var info backupInfo
	if err := s.client.Post(c.Context, "/admin/v1/backups/snapshots", nil, &info); err != nil {
		return err
	}
	return s.print(newBackupView(&info))
}

func backupList(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}

	var infos []*backupInfo
	if err := s.client.Get(c.Context, "/admin/v1/backups/snapshots", &infos); err != nil {
		return err
	}
	views := make([]backupView, 0, len(infos))
	for _, info := range infos {
		views = append(views, newBackupView(info))
	}
	return s.print(views)
}
