package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/joue-zero/homemade-dishes/internal/cart"
)

// withCart loads the persisted cart, applies fn and saves the result.
func (rt *runtime) withCart(c *cli.Context, fn func(*cart.Aggregator) error) error {
	a, err := rt.app.Cart(c.Context)
	if err != nil {
		return err
	}
	if err := fn(a); err != nil {
		return err
	}
	if err := rt.app.SaveCart(c.Context, a); err != nil {
		return err
	}
	return rt.printCart(a)
}

func (rt *runtime) printCart(a *cart.Aggregator) error {
	view := struct {
		Lines []cart.Line     `json:"lines" yaml:"lines"`
		Total decimal.Decimal `json:"total" yaml:"total"`
	}{a.Lines(), a.Total()}
	return rt.out.print(view, func(tw *tabwriter.Writer) {
		if a.Len() == 0 {
			fmt.Fprintln(tw, "your cart is empty")
			return
		}
		fmt.Fprintln(tw, "DISH\tNAME\tPRICE\tQTY\tSUBTOTAL")
		for _, l := range view.Lines {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", l.DishID, l.Name, l.UnitPrice.StringFixed(2), l.Quantity, l.Subtotal().StringFixed(2))
		}
		fmt.Fprintf(tw, "\t\t\tTOTAL\t%s\n", view.Total.StringFixed(2))
	})
}

func quantityArg(c *cli.Context, i int) (int, error) {
	raw, err := arg(c, i, "QUANTITY")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("quantity must be a whole number, got %q", raw)
	}
	return n, nil
}

func (rt *runtime) cartCommand() *cli.Command {
	adjust := func(delta int) cli.ActionFunc {
		return func(c *cli.Context) error {
			id, err := arg(c, 0, "DISH_ID")
			if err != nil {
				return err
			}
			return rt.withCart(c, func(a *cart.Aggregator) error { return a.Adjust(id, delta) })
		}
	}

	return &cli.Command{
		Name:  "cart",
		Usage: "collect dishes before ordering",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "add a dish; adding it again raises the quantity",
				ArgsUsage: "DISH_ID",
				Flags:     []cli.Flag{&cli.IntFlag{Name: "qty", Aliases: []string{"q"}, Value: 1}},
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
					if !d.Available {
						rt.out.message("%s is not available right now", d.Name)
					}
					return rt.withCart(c, func(a *cart.Aggregator) error { return a.AddItem(d, c.Int("qty")) })
				},
			},
			{
				Name:      "set",
				Usage:     "set a line's quantity",
				ArgsUsage: "DISH_ID QUANTITY",
				Action: func(c *cli.Context) error {
					id, err := arg(c, 0, "DISH_ID")
					if err != nil {
						return err
					}
					qty, err := quantityArg(c, 1)
					if err != nil {
						return err
					}
					return rt.withCart(c, func(a *cart.Aggregator) error { return a.SetQuantity(id, qty) })
				},
			},
			{Name: "inc", Usage: "one more", ArgsUsage: "DISH_ID", Action: adjust(1)},
			{Name: "dec", Usage: "one less, never below one", ArgsUsage: "DISH_ID", Action: adjust(-1)},
			{
				Name:      "remove",
				Usage:     "drop a line",
				ArgsUsage: "DISH_ID",
				Action: func(c *cli.Context) error {
					id, err := arg(c, 0, "DISH_ID")
					if err != nil {
						return err
					}
					return rt.withCart(c, func(a *cart.Aggregator) error { a.RemoveItem(id); return nil })
				},
			},
			{
				Name:  "show",
				Usage: "show the cart",
				Action: func(c *cli.Context) error {
					a, err := rt.app.Cart(c.Context)
					if err != nil {
						return err
					}
					return rt.printCart(a)
				},
			},
			{
				Name:  "clear",
				Usage: "empty the cart",
				Action: func(c *cli.Context) error {
					return rt.withCart(c, func(a *cart.Aggregator) error { a.Clear(); return nil })
				},
			},
		},
	}
}
