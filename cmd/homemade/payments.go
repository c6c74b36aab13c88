package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/joue-zero/homemade-dishes/internal/ledger"
	"github.com/joue-zero/homemade-dishes/internal/order"
	"github.com/joue-zero/homemade-dishes/internal/session"
)

type payView struct {
	OrderID       string              `json:"orderId" yaml:"orderId"`
	Paid          bool                `json:"paid" yaml:"paid"`
	PaymentStatus order.PaymentStatus `json:"paymentStatus" yaml:"paymentStatus"`
	TransactionID string              `json:"transactionId,omitempty" yaml:"transactionId,omitempty"`
	Message       string              `json:"message,omitempty" yaml:"message,omitempty"`
	Balance       decimal.Decimal     `json:"balance" yaml:"balance"`
	BalanceStale  bool                `json:"balanceStale,omitempty" yaml:"balanceStale,omitempty"`
}

func (rt *runtime) payCommand() *cli.Command {
	return &cli.Command{
		Name:      "pay",
		Usage:     "pay an accepted order from your balance",
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
			res, err := rt.app.Reconciler(t).Pay(c.Context, id)
			if err != nil {
				return err
			}
			view := payView{
				OrderID:       res.Order.ID,
				Paid:          res.Paid,
				PaymentStatus: res.Order.PaymentStatus,
				TransactionID: res.TransactionID,
				Message:       res.Message,
				Balance:       res.Balance,
				BalanceStale:  res.BalanceStale,
			}
			return rt.out.print(view, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "order %s paid\n", view.OrderID)
				if view.TransactionID != "" {
					fmt.Fprintf(tw, "transaction\t%s\n", view.TransactionID)
				}
				note := ""
				if view.BalanceStale {
					note = " (could not refresh, last known)"
				}
				fmt.Fprintf(tw, "balance\t%s%s\n", view.Balance.StringFixed(2), note)
			})
		},
	}
}

func (rt *runtime) paymentStatusCommand() *cli.Command {
	return &cli.Command{
		Name:      "payment-status",
		Usage:     "ask the payments service about an order",
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
			ps, err := rt.app.Reconciler(t).PaymentStatus(c.Context, id)
			if err != nil {
				return err
			}
			view := map[string]string{"orderId": id, "paymentStatus": string(ps)}
			return rt.out.print(view, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "order %s\t%s\n", id, orDash(string(ps)))
			})
		},
	}
}

func (rt *runtime) receiptsCommand() *cli.Command {
	return &cli.Command{
		Name:      "receipts",
		Usage:     "list the recorded payment attempts of an order",
		ArgsUsage: "ORDER_ID",
		Action: func(c *cli.Context) error {
			id, err := arg(c, 0, "ORDER_ID")
			if err != nil {
				return err
			}
			if rt.app.Ledger == nil {
				return errors.New("no receipt ledger configured, set LEDGER_DATABASE_URL")
			}
			s, err := rt.app.Session(c.Context)
			if err != nil {
				return err
			}
			if err := s.Require("view receipts"); err != nil {
				return err
			}
			list, err := rt.app.Ledger.ListForOrder(c.Context, id)
			if err != nil {
				return err
			}
			list = visibleReceipts(list, s)
			return rt.out.print(list, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "RECORDED\tOUTCOME\tAMOUNT\tTRANSACTION\tBALANCE AFTER\tMESSAGE")
				for _, r := range list {
					after := "-"
					if r.BalanceAfter.Valid {
						after = r.BalanceAfter.Decimal.StringFixed(2)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						stamp(r.RecordedAt), r.Outcome, r.Amount.StringFixed(2), orDash(r.TransactionID), after, orDash(r.Message))
				}
			})
		},
	}
}

// visibleReceipts keeps the receipts the session may see. Admins see all.
func visibleReceipts(in []ledger.Receipt, s session.Session) []ledger.Receipt {
	if s.Role == session.RoleAdmin {
		return in
	}
	out := make([]ledger.Receipt, 0, len(in))
	for _, r := range in {
		if r.UserID == s.UserID {
			out = append(out, r)
		}
	}
	return out
}

func (rt *runtime) balanceCommand() *cli.Command {
	return &cli.Command{
		Name:  "balance",
		Usage: "show your wallet balance",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "check", Usage: "only report whether AMOUNT can be paid"},
		},
		Action: func(c *cli.Context) error {
			t, err := rt.tracker(c)
			if err != nil {
				return err
			}
			if raw := c.String("check"); raw != "" {
				amount, err := decimal.NewFromString(raw)
				if err != nil {
					return fmt.Errorf("invalid amount %q: %w", raw, err)
				}
				ok, err := rt.app.Balance.Check(c.Context, t.Session(), amount)
				if err != nil {
					return err
				}
				view := map[string]any{"amount": amount, "sufficient": ok}
				return rt.out.print(view, func(tw *tabwriter.Writer) {
					fmt.Fprintf(tw, "%s\tsufficient: %t\n", amount.StringFixed(2), ok)
				})
			}
			bal, err := rt.app.Reconciler(t).Balance(c.Context)
			if err != nil {
				return err
			}
			view := map[string]decimal.Decimal{"balance": bal}
			return rt.out.print(view, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "balance\t%s\n", bal.StringFixed(2))
			})
		},
	}
}
