package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/joue-zero/homemade-dishes/internal/dish"
	"github.com/joue-zero/homemade-dishes/internal/session"
)

func draftFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Required: true},
		&cli.StringFlag{Name: "price", Required: true, Usage: "e.g. 12.50"},
		&cli.StringFlag{Name: "description"},
		&cli.StringFlag{Name: "category"},
		&cli.StringFlag{Name: "image-url"},
		&cli.BoolFlag{Name: "unavailable", Usage: "list the dish as sold out"},
	}
}

func draftFrom(c *cli.Context) (dish.Draft, error) {
	price, err := decimal.NewFromString(c.String("price"))
	if err != nil {
		return dish.Draft{}, fmt.Errorf("invalid price %q: %w", c.String("price"), err)
	}
	return dish.Draft{
		Name:        c.String("name"),
		Description: c.String("description"),
		Price:       price,
		Category:    c.String("category"),
		ImageURL:    c.String("image-url"),
		Available:   !c.Bool("unavailable"),
	}, nil
}

func (rt *runtime) dishesCommand() *cli.Command {
	return &cli.Command{
		Name:  "dishes",
		Usage: "browse the catalog and manage your dishes",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list every dish",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "mine", Usage: "only your own menu, sold-out dishes included"},
				},
				Action: func(c *cli.Context) error {
					// Browsing works signed out too
					s, _ := rt.app.Session(c.Context)
					var (
						list []dish.Dish
						err  error
					)
					if c.Bool("mine") {
						if err := s.Require("list your menu", session.RoleSeller); err != nil {
							return err
						}
						list, err = rt.app.Dishes.ListForSeller(c.Context, s, s.UserID)
					} else {
						list, err = rt.app.Dishes.List(c.Context, s)
					}
					if err != nil {
						return err
					}
					return rt.out.print(list, func(tw *tabwriter.Writer) {
						fmt.Fprintln(tw, "ID\tNAME\tPRICE\tCATEGORY\tSELLER\tAVAILABLE")
						for _, d := range list {
							fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\n",
								d.ID, d.Name, d.Price.StringFixed(2), orDash(d.Category), orDash(firstOf(d.SellerName, d.SellerID)), d.Available)
						}
					})
				},
			},
			{
				Name:      "show",
				Usage:     "show one dish",
				ArgsUsage: "DISH_ID",
				Action: func(c *cli.Context) error {
					id, err := arg(c, 0, "DISH_ID")
					if err != nil {
						return err
					}
					s, _ := rt.app.Session(c.Context)
					d, err := rt.app.Dishes.Get(c.Context, s, id)
					if err != nil {
						return err
					}
					return rt.printDish(d)
				},
			},
			{
				Name:  "create",
				Usage: "add a dish to your menu (sellers)",
				Flags: draftFlags(),
				Action: func(c *cli.Context) error {
					s, err := rt.app.Session(c.Context)
					if err != nil {
						return err
					}
					draft, err := draftFrom(c)
					if err != nil {
						return err
					}
					d, err := rt.app.Dishes.Create(c.Context, s, draft)
					if err != nil {
						return err
					}
					return rt.printDish(d)
				},
			},
			{
				Name:      "update",
				Usage:     "replace a dish's details (sellers)",
				ArgsUsage: "DISH_ID",
				Flags:     draftFlags(),
				Action: func(c *cli.Context) error {
					id, err := arg(c, 0, "DISH_ID")
					if err != nil {
						return err
					}
					s, err := rt.app.Session(c.Context)
					if err != nil {
						return err
					}
					draft, err := draftFrom(c)
					if err != nil {
						return err
					}
					d, err := rt.app.Dishes.Update(c.Context, s, id, draft)
					if err != nil {
						return err
					}
					return rt.printDish(d)
				},
			},
			{
				Name:      "delete",
				Usage:     "remove a dish (sellers, admins)",
				ArgsUsage: "DISH_ID",
				Action: func(c *cli.Context) error {
					id, err := arg(c, 0, "DISH_ID")
					if err != nil {
						return err
					}
					s, err := rt.app.Session(c.Context)
					if err != nil {
						return err
					}
					if err := rt.app.Dishes.Delete(c.Context, s, id); err != nil {
						return err
					}
					rt.out.message("dish %s deleted", id)
					return nil
				},
			},
			{
				Name:      "availability",
				Usage:     "mark a dish available or sold out (sellers)",
				ArgsUsage: "DISH_ID on|off",
				Action: func(c *cli.Context) error {
					id, err := arg(c, 0, "DISH_ID")
					if err != nil {
						return err
					}
					state, err := arg(c, 1, "on|off")
					if err != nil {
						return err
					}
					if state != "on" && state != "off" {
						return fmt.Errorf("availability must be on or off, got %q", state)
					}
					s, err := rt.app.Session(c.Context)
					if err != nil {
						return err
					}
					d, err := rt.app.Dishes.SetAvailability(c.Context, s, id, state == "on")
					if err != nil {
						return err
					}
					return rt.printDish(d)
				},
			},
		},
	}
}

func (rt *runtime) printDish(d dish.Dish) error {
	return rt.out.print(d, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "ID\t%s\n", d.ID)
		fmt.Fprintf(tw, "Name\t%s\n", d.Name)
		fmt.Fprintf(tw, "Price\t%s\n", d.Price.StringFixed(2))
		fmt.Fprintf(tw, "Category\t%s\n", orDash(d.Category))
		fmt.Fprintf(tw, "Description\t%s\n", orDash(d.Description))
		fmt.Fprintf(tw, "Seller\t%s\n", orDash(firstOf(d.SellerName, d.SellerID)))
		fmt.Fprintf(tw, "Available\t%t\n", d.Available)
	})
}

func firstOf(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
