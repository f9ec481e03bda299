// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/bvk/hashbid/api"
	"github.com/bvk/hashbid/engine"
	"github.com/bvk/hashbid/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type History struct {
	cmdutil.ClientFlags

	limit int
}

func (c *History) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("history", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.IntVar(&c.limit, "limit", 5, "max number of recent control cycles to print")
	return "history", fset, cli.CmdFunc(c.run)
}

func (c *History) Purpose() string {
	return "Prints the price adjustments from recent control cycles"
}

func (c *History) Description() string {
	return `

Command "history" prints the per-order outcomes of the most recent control
cycles, newest first. Records older than the retention period are pruned by
the daemon.

`
}

func (c *History) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}
	if c.limit <= 0 {
		return fmt.Errorf("limit must be positive")
	}

	req := &api.HistoryRequest{Limit: c.limit}
	resp, err := cmdutil.Post[api.HistoryResponse](ctx, &c.ClientFlags, api.HistoryPath, req)
	if err != nil {
		return err
	}

	stdout := cli.Stdout(ctx)
	if len(resp.Cycles) == 0 {
		fmt.Fprintln(stdout, "No history records.")
		return nil
	}
	for i, cycle := range resp.Cycles {
		if i > 0 {
			fmt.Fprintln(stdout)
		}
		fmt.Fprintf(stdout, "## %s  %s  (%s)\n", cycle.Time.Local().Format(time.DateTime), cycle.Tier, cycle.CycleID)
		tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Id\tLoc\tAlgorithm\tPrice\tTarget\tDelta\tPrice Change\n")
		for _, r := range cycle.Records {
			target, delta := "-", "-"
			if r.HasTarget {
				target = r.TargetPrice.StringFixed(engine.PriceDigits)
				delta = r.Delta.StringFixed(engine.PriceDigits)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", r.OrderID, r.Region, r.Algorithm,
				r.Price.StringFixed(engine.PriceDigits), target, delta, r.Outcome)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
