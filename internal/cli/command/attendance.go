package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// AttendanceCommand returns the attendance subcommand group.
func AttendanceCommand() *cli.Command {
	return &cli.Command{
		Name:    "attendance",
		Aliases: []string{"att"},
		Usage:   "Record and read attendance events",
		Subcommands: []*cli.Command{
			{
				Name:      "submit",
				Usage:     "Record an attendance event stamped with the server time",
				ArgsUsage: "<employee_id>",
				Action:    attendanceSubmit,
			},
			{
				Name:      "get",
				Usage:     "Show one attendance record",
				ArgsUsage: "<id>",
				Action:    attendanceGet,
			},
		},
	}
}

func attendanceSubmit(c *cli.Context) error {
	if err := requireArgs(c, 1, 1); err != nil {
		return err
	}
	employeeID, err := parseIDArg(c, 0, "employee id")
	if err != nil {
		return err
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}

	var rec attendanceView
	body := map[string]uint64{"employee_id": employeeID}
	if err := s.client.Post(c.Context, "/attendance", body, &rec); err != nil {
		return err
	}
	return s.print(rec)
}

func attendanceGet(c *cli.Context) error {
	if err := requireArgs(c, 1, 1); err != nil {
		return err
	}
	id, err := parseIDArg(c, 0, "attendance id")
	if err != nil {
		return err
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}

	var rec attendanceView
	if err := s.client.Get(c.Context, fmt.Sprintf("/attendance/%d", id), &rec); err != nil {
		return err
	}
	return s.print(rec)
}
