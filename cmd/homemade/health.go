package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/joue-zero/homemade-dishes/internal/clients"
)

func (rt *runtime) healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "probe every remote service",
		Action: func(c *cli.Context) error {
			probes := rt.app.Probes
			results := make([]clients.HealthResult, len(probes))

			var g errgroup.Group
			for i, p := range probes {
				g.Go(func() error {
					results[i] = clients.CheckHealth(c.Context, p)
					return nil
				})
			}
			_ = g.Wait()

			err := rt.out.print(results, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "SERVICE\tSTATUS\tDETAIL")
				for _, r := range results {
					status := "up"
					if !r.OK {
						status = "DOWN"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, status, orDash(r.Error))
				}
			})
			if err != nil {
				return err
			}
			for _, r := range results {
				if !r.OK {
					return errors.New("some services are down")
				}
			}
			return nil
		},
	}
}
