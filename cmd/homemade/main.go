package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/joue-zero/homemade-dishes/internal/app"
	"github.com/joue-zero/homemade-dishes/internal/config"
	"github.com/joue-zero/homemade-dishes/internal/logging"
)

// runtime is filled in by Before and shared by every command.
type runtime struct {
	app *app.App
	out *printer
}

func main() {
	rt := &runtime{}

	cliApp := &cli.App{
		Name:  "homemade",
		Usage: "order homemade dishes, pay from your wallet and manage your kitchen",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML config file", EnvVars: []string{"HOMEMADE_CONFIG"}},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "table", Usage: "table, json or yaml"},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			out, err := newPrinter(c.String("output"), c.App.Writer)
			if err != nil {
				return err
			}
			logger := logging.New("homemade", cfg.LogLevel, cfg.LogFormat, c.App.ErrWriter)
			a, err := app.New(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			rt.app, rt.out = a, out
			return nil
		},
		After: func(c *cli.Context) error {
			if rt.app == nil {
				return nil
			}
			return rt.app.Close()
		},
		Commands: []*cli.Command{
			rt.registerCommand(),
			rt.loginCommand(),
			rt.logoutCommand(),
			rt.whoamiCommand(),
			rt.dishesCommand(),
			rt.cartCommand(),
			rt.ordersCommand(),
			rt.payCommand(),
			rt.paymentStatusCommand(),
			rt.receiptsCommand(),
			rt.balanceCommand(),
			rt.usersCommand(),
			rt.healthCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}
