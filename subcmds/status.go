// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/bvk/hashbid/api"
	"github.com/bvk/hashbid/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Status struct {
	cmdutil.ClientFlags

	failures bool
}

func (c *Status) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("status", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.BoolVar(&c.failures, "failures", true, "when true, failures from the last cycle are also printed")
	return "status", fset, cli.CmdFunc(c.run)
}

func (c *Status) Purpose() string {
	return "Prints the last control cycle report from the running daemon"
}

func (c *Status) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}

	resp, err := cmdutil.Post[api.StatusResponse](ctx, &c.ClientFlags, api.StatusPath, &api.StatusRequest{})
	if err != nil {
		return err
	}

	stdout := cli.Stdout(ctx)
	fmt.Fprintf(stdout, "Rate: %s\n", resp.Tier)
	fmt.Fprintf(stdout, "Uptime: %s\n", time.Since(resp.StartTime).Round(time.Second))
	fmt.Fprintf(stdout, "Segments: %v\n", resp.Segments)
	fmt.Fprintf(stdout, "Completed cycles: %d\n", resp.NumCycles)

	report := resp.LastReport
	if report == nil {
		fmt.Fprintln(stdout, "No control cycle has completed yet.")
		return nil
	}

	fmt.Fprintln(stdout)
	if err := report.WriteTable(stdout); err != nil {
		return err
	}
	if c.failures && len(report.Failures) > 0 {
		fmt.Fprintln(stdout)
		fmt.Fprintf(stdout, "Failures (%d):\n", len(report.Failures))
		for _, f := range report.Failures {
			fmt.Fprintf(stdout, "  [%s] %s\n", f.Kind, f.Error())
		}
	}
	return nil
}
