// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/bvk/hashbid/market"
	"github.com/visvasity/cli"
)

type Segments struct {
}

func (c *Segments) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("segments", flag.ContinueOnError)
	return "segments", fset, cli.CmdFunc(c.run)
}

func (c *Segments) Purpose() string {
	return "Prints the known marketplace regions and algorithms with their codes"
}

func (c *Segments) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}

	tw := tabwriter.NewWriter(cli.Stdout(ctx), 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Region\tCode\t\n")
	for _, r := range market.Regions() {
		fmt.Fprintf(tw, "%s\t%d\t\n", r, int(r))
	}
	fmt.Fprintf(tw, "\t\t\n")
	fmt.Fprintf(tw, "Algorithm\tCode\t\n")
	for _, a := range market.Algorithms() {
		fmt.Fprintf(tw, "%s\t%d\t\n", a, int(a))
	}
	return tw.Flush()
}
