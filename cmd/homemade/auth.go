package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/joue-zero/homemade-dishes/internal/session"
	"github.com/joue-zero/homemade-dishes/internal/users"
)

func (rt *runtime) registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "create an account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true, EnvVars: []string{"HOMEMADE_PASSWORD"}},
			&cli.StringFlag{Name: "email"},
			&cli.StringFlag{Name: "role", Value: "customer", Usage: "customer or seller"},
		},
		Action: func(c *cli.Context) error {
			role, err := session.ParseRole(c.String("role"))
			if err != nil {
				return err
			}
			u, err := rt.app.Users.Register(c.Context, users.Registration{
				Credentials: users.Credentials{Username: c.String("username"), Password: c.String("password")},
				Email:       c.String("email"),
				Role:        role,
			})
			if err != nil {
				return err
			}
			return rt.out.print(u, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "registered %s (id %s, %s)\n", u.Username, u.ID, u.Role)
			})
		},
	}
}

func (rt *runtime) loginCommand() *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "sign in and remember the session",
		ArgsUsage: "USERNAME",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true, EnvVars: []string{"HOMEMADE_PASSWORD"}},
		},
		Action: func(c *cli.Context) error {
			username, err := arg(c, 0, "USERNAME")
			if err != nil {
				return err
			}
			s, err := rt.app.Users.Login(c.Context, users.Credentials{Username: username, Password: c.String("password")})
			if err != nil {
				return err
			}
			if err := rt.app.Sessions.Start(c.Context, s); err != nil {
				return err
			}
			return rt.printSession(s)
		},
	}
}

func (rt *runtime) logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "forget the session and the cart",
		Action: func(c *cli.Context) error {
			if err := rt.app.Sessions.End(c.Context); err != nil {
				return err
			}
			rt.out.message("signed out")
			return nil
		},
	}
}

func (rt *runtime) whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "show the signed-in user",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "remote", Usage: "fetch the profile from the users service"},
		},
		Action: func(c *cli.Context) error {
			s, err := rt.app.Session(c.Context)
			if err != nil {
				return err
			}
			if !c.Bool("remote") {
				return rt.printSession(s)
			}
			u, err := rt.app.Users.Profile(c.Context, s)
			if err != nil {
				return err
			}
			return rt.out.print(u, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "ID\tUSERNAME\tEMAIL\tROLE\tBALANCE\n")
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Username, orDash(u.Email), u.Role, u.Balance.StringFixed(2))
			})
		},
	}
}

func (rt *runtime) printSession(s session.Session) error {
	view := struct {
		UserID   string       `json:"userId" yaml:"userId"`
		Username string       `json:"username" yaml:"username"`
		Role     session.Role `json:"role" yaml:"role"`
	}{s.UserID, s.Username, s.Role}
	return rt.out.print(view, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "signed in as %s (id %s, %s)\n", orDash(s.Username), s.UserID, s.Role)
	})
}

// arg returns the i-th positional argument or a usage error naming it.
func arg(c *cli.Context, i int, name string) (string, error) {
	v := c.Args().Get(i)
	if v == "" {
		return "", fmt.Errorf("missing %s argument\n\nusage: %s %s", name, c.Command.HelpName, c.Command.ArgsUsage)
	}
	return v, nil
}
