package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
)

func (rt *runtime) usersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "manage accounts (admins)",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list every account",
				Action: func(c *cli.Context) error {
					s, err := rt.app.Session(c.Context)
					if err != nil {
						return err
					}
					list, err := rt.app.Users.List(c.Context, s)
					if err != nil {
						return err
					}
					return rt.out.print(list, func(tw *tabwriter.Writer) {
						fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tROLE\tBALANCE")
						for _, u := range list {
							fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Username, orDash(u.Email), u.Role, u.Balance.StringFixed(2))
						}
					})
				},
			},
			{
				Name:      "delete",
				Usage:     "delete an account",
				ArgsUsage: "USER_ID",
				Action: func(c *cli.Context) error {
					id, err := arg(c, 0, "USER_ID")
					if err != nil {
						return err
					}
					s, err := rt.app.Session(c.Context)
					if err != nil {
						return err
					}
					if err := rt.app.Users.Delete(c.Context, s, id); err != nil {
						return err
					}
					rt.out.message("user %s deleted", id)
					return nil
				},
			},
		},
	}
}
