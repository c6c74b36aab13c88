package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/joue-zero/homemade-dishes/internal/order"
	"github.com/joue-zero/homemade-dishes/internal/session"
	"github.com/joue-zero/homemade-dishes/internal/views"
)

// tracker loads the session and starts a tracker for it.
func (rt *runtime) tracker(c *cli.Context) (*order.Tracker, error) {
	s, err := rt.app.Session(c.Context)
	if err != nil {
		return nil, err
	}
	return rt.app.Tracker(s), nil
}

func (rt *runtime) transition(name, usage string, do func(*order.Tracker, context.Context, string) (order.Order, error)) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "ORDER_ID",
		Action: func(c *cli.Context) error {
			id, err := arg(c, 0, "ORDER_ID")
			if err != nil {
				return err
			}
			t, err := rt.tracker(c)
			if err != nil {
				return err
			}
			o, err := do(t, c.Context, id)
			if err != nil {
				return err
			}
			return rt.printOrder(o)
		},
	}
}

func (rt *runtime) ordersCommand() *cli.Command {
	return &cli.Command{
		Name:  "orders",
		Usage: "place and follow orders",
		Subcommands: []*cli.Command{
			{
				Name:  "place",
				Usage: "order everything in the cart",
				Action: func(c *cli.Context) error {
					t, err := rt.tracker(c)
					if err != nil {
						return err
					}
					a, err := rt.app.Cart(c.Context)
					if err != nil {
						return err
					}
					o, err := t.Submit(c.Context, a)
					if err != nil {
						return err
					}
					if err := rt.app.SaveCart(c.Context, a); err != nil {
						return err
					}
					return rt.printOrder(o)
				},
			},
			{
				Name:  "list",
				Usage: "your orders and balance (customers) or orders for your dishes (sellers)",
				Action: func(c *cli.Context) error {
					t, err := rt.tracker(c)
					if err != nil {
						return err
					}
					s := t.Session()
					if s.Is(session.RoleSeller) {
						list, err := t.ListForSeller(c.Context, s.UserID)
						if err != nil {
							return err
						}
						return rt.printOrders(list)
					}
					dash, err := rt.app.Loader(t, rt.app.Reconciler(t)).Customer(c.Context)
					if err != nil {
						return err
					}
					return rt.out.print(dash, func(tw *tabwriter.Writer) {
						writeOrders(tw, dash.Orders)
						fmt.Fprintf(tw, "\nbalance\t%s\n", dash.Balance.StringFixed(2))
					})
				},
			},
			{
				Name:      "show",
				Usage:     "show one order as the server has it now",
				ArgsUsage: "ORDER_ID",
				Action: func(c *cli.Context) error {
					id, err := arg(c, 0, "ORDER_ID")
					if err != nil {
						return err
					}
					t, err := rt.tracker(c)
					if err != nil {
						return err
					}
					o, err := t.Refresh(c.Context, id)
					if err != nil {
						return err
					}
					return rt.printOrder(o)
				},
			},
			rt.transition("cancel", "withdraw a pending order (customers)", (*order.Tracker).Cancel),
			rt.transition("accept", "accept a pending order (sellers)", (*order.Tracker).Accept),
			rt.transition("reject", "reject a pending order (sellers)", (*order.Tracker).Reject),
			rt.transition("ready", "mark an accepted order ready (sellers)", (*order.Tracker).MarkReady),
			rt.transition("complete", "complete an accepted or ready order (sellers)", (*order.Tracker).MarkComplete),
			{
				Name:  "sales",
				Usage: "paid orders for your dishes and revenue (sellers)",
				Action: func(c *cli.Context) error {
					t, err := rt.tracker(c)
					if err != nil {
						return err
					}
					dash, err := rt.app.Loader(t, rt.app.Reconciler(t)).Sales(c.Context)
					if err != nil {
						return err
					}
					return rt.out.print(dash, func(tw *tabwriter.Writer) { writeSales(tw, dash) })
				},
			},
		},
	}
}

func (rt *runtime) printOrders(list []order.Order) error {
	return rt.out.print(list, func(tw *tabwriter.Writer) { writeOrders(tw, list) })
}

func writeOrders(tw *tabwriter.Writer, list []order.Order) {
	if len(list) == 0 {
		fmt.Fprintln(tw, "no orders yet")
		return
	}
	fmt.Fprintln(tw, "ID\tSTATUS\tPAYMENT\tITEMS\tTOTAL\tPLACED")
	for _, o := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			o.ID, o.Status, orDash(string(o.PaymentStatus)), len(o.Items), o.TotalAmount.StringFixed(2), stamp(o.CreatedAt))
	}
}

func (rt *runtime) printOrder(o order.Order) error {
	return rt.out.print(o, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "Order\t%s\n", o.ID)
		fmt.Fprintf(tw, "Status\t%s\n", o.Status)
		fmt.Fprintf(tw, "Payment\t%s\n", orDash(string(o.PaymentStatus)))
		if o.CustomerName != "" {
			fmt.Fprintf(tw, "Customer\t%s\n", o.CustomerName)
		}
		fmt.Fprintf(tw, "Placed\t%s\n", stamp(o.CreatedAt))
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "DISH\tNAME\tPRICE\tQTY\tSUBTOTAL")
		for _, it := range o.Items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", it.DishID, orDash(it.DishName), it.UnitPrice.StringFixed(2), it.Quantity, it.Subtotal().StringFixed(2))
		}
		fmt.Fprintf(tw, "\t\t\tTOTAL\t%s\n", o.TotalAmount.StringFixed(2))
		if o.MultiSeller {
			fmt.Fprintf(tw, "\t\t\tYOURS\t%s\n", o.SellerSubtotal.StringFixed(2))
		}
	})
}

func writeSales(tw *tabwriter.Writer, dash views.SalesDashboard) {
	if len(dash.Rows) == 0 {
		fmt.Fprintln(tw, "no paid orders yet")
		return
	}
	fmt.Fprintln(tw, "ORDER\tCUSTOMER\tSTATUS\tYOUR ITEMS\tYOUR SUBTOTAL\tORDER TOTAL\tPLACED")
	for _, r := range dash.Rows {
		multi := ""
		if r.MultiSeller {
			multi = " (shared)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s%s\t%s\n",
			r.OrderID, orDash(firstOf(r.CustomerName, r.CustomerID)), r.Status, len(r.Items),
			r.SellerSubtotal.StringFixed(2), r.OrderTotal.StringFixed(2), multi, stamp(r.CreatedAt))
	}
	fmt.Fprintf(tw, "\nrevenue\t%s\n", dash.Revenue.StringFixed(2))
}
