package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// EmployeeCommand returns the employee subcommand group.
func EmployeeCommand() *cli.Command {
	return &cli.Command{
		Name:    "employee",
		Aliases: []string{"emp"},
		Usage:   "Manage employee records",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Store an employee, replacing any record with the same id",
				ArgsUsage: "<employee_id> <name> [role]",
				Action:    employeeAdd,
			},
			{
				Name:      "update",
				Usage:     "Replace the name and role of an existing employee",
				ArgsUsage: "<employee_id> <name> [role]",
				Action:    employeeUpdate,
			},
			{
				Name:      "get",
				Usage:     "Show one employee",
				ArgsUsage: "<employee_id>",
				Action:    employeeGet,
			},
		},
	}
}

func employeeAdd(c *cli.Context) error {
	if err := requireArgs(c, 2, 3); err != nil {
		return err
	}
	id, err := parseIDArg(c, 0, "employee id")
	if err != nil {
		return err
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}

	body := map[string]any{
		"employee_id": id,
		"name":        c.Args().Get(1),
		"role":        c.Args().Get(2),
	}
	var emp employeeView
	if err := s.client.Post(c.Context, "/employees", body, &emp); err != nil {
		return err
	}
	return s.print(emp)
}

func employeeUpdate(c *cli.Context) error {
	if err := requireArgs(c, 2, 3); err != nil {
		return err
	}
	id, err := parseIDArg(c, 0, "employee id")
	if err != nil {
		return err
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}

	body := map[string]string{
		"name": c.Args().Get(1),
		"role": c.Args().Get(2),
	}
	var emp employeeView
	if err := s.client.Put(c.Context, fmt.Sprintf("/employees/%d", id), body, &emp); err != nil {
		return err
	}
	return s.print(emp)
}

func employeeGet(c *cli.Context) error {
	if err := requireArgs(c, 1, 1); err != nil {
		return err
	}
	id, err := parseIDArg(c, 0, "employee id")
	if err != nil {
		return err
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}

	var emp employeeView
	if err := s.client.Get(c.Context, fmt.Sprintf("/employees/%d", id), &emp); err != nil {
		return err
	}
	return s.print(emp)
}
