// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/hashbid/config"
	"github.com/visvasity/cli"
)

type ConfigCheck struct {
	configPath string
}

func (c *ConfigCheck) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("check", flag.ContinueOnError)
	fset.StringVar(&c.configPath, "config-file", config.DefaultFile, "path to the TOML config file")
	return "check", fset, cli.CmdFunc(c.run)
}

func (c *ConfigCheck) Purpose() string {
	return "Validates a config file and prints the effective settings"
}

func (c *ConfigCheck) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	tier, err := cfg.Tier()
	if err != nil {
		return err
	}
	segments, err := cfg.Segments()
	if err != nil {
		return err
	}
	addr, err := cfg.ListenAddr()
	if err != nil {
		return err
	}

	stdout := cli.Stdout(ctx)
	fmt.Fprintf(stdout, "Rate: %s\n", tier)
	fmt.Fprintf(stdout, "Loop delay: %s\n", cfg.LoopDelay())
	fmt.Fprintf(stdout, "Call interval: %s\n", cfg.NiceHash.CallInterval)
	fmt.Fprintf(stdout, "Segments: %v\n", segments)
	fmt.Fprintf(stdout, "Listen address: %s\n", addr)
	fmt.Fprintf(stdout, "Alerts: %t\n", cfg.PushoverKeys() != nil)
	return nil
}

type ConfigExample struct {
}

func (c *ConfigExample) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("example", flag.ContinueOnError)
	return "example", fset, cli.CmdFunc(c.run)
}

func (c *ConfigExample) Purpose() string {
	return "Prints a minimal config file"
}

func (c *ConfigExample) run(ctx context.Context, args []string) error {
	_, err := fmt.Fprint(cli.Stdout(ctx), config.Example)
	return err
}
