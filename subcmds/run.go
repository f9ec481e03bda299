// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/bvk/hashbid/config"
	"github.com/bvk/hashbid/ctxutil"
	"github.com/bvk/hashbid/daemon"
	"github.com/bvk/hashbid/daemonize"
	"github.com/bvk/hashbid/engine"
	"github.com/bvk/hashbid/history"
	"github.com/bvk/hashbid/logdir"
	"github.com/bvk/hashbid/nicehash"
	"github.com/bvk/hashbid/pushover"
	"github.com/bvk/hashbid/subcmds/cmdutil"
	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
	"github.com/nightlyone/lockfile"
	"github.com/visvasity/cli"
)

type Run struct {
	cmdutil.ServerFlags

	background bool

	restart         bool
	shutdownTimeout time.Duration

	configPath string
	dataDir    string
}

func (c *Run) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("run", flag.ContinueOnError)
	c.ServerFlags.SetFlags(fset)
	fset.BoolVar(&c.background, "background", false, "runs the daemon in background")
	fset.BoolVar(&c.restart, "restart", false, "when true, kills any old instance")
	fset.DurationVar(&c.shutdownTimeout, "shutdown-timeout", 30*time.Second, "max timeout for shutdown when restarting")
	fset.StringVar(&c.configPath, "config-file", config.DefaultFile, "path to the TOML config file")
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory (default $HOME/.hashbid)")
	return "run", fset, cli.CmdFunc(c.run)
}

func (c *Run) Purpose() string {
	return "Runs the order price controller in foreground"
}

func (c *Run) Description() string {
	return `

Command "run" starts the price controller. Every cycle it reloads the
operator's hashpower orders from NiceHash, computes a target price for every
region and algorithm from the competing orders and moves each order's price
one bounded step toward its target. Cycles repeat after the configured loop
delay until the process is interrupted.

CONFIG FILE

A minimal config file is given below. Every key can also be set through an
environment variable, for example HASHBID_NICEHASH_API_KEY.
` + indent(config.Example, "    ") + `
PRICE_ADJUST_RATE must be one of "slow", "medium" or "fast".

`
}

func indent(s, prefix string) string {
	var sb strings.Builder
	for _, line := range strings.SplitAfter(s, "\n") {
		if strings.TrimSpace(line) != "" {
			sb.WriteString(prefix)
		}
		sb.WriteString(line)
	}
	return sb.String()
}

func printBanner(w io.Writer) {
	const width = 80
	title := "Hash Manager"
	pad := width - 4 - len(title)
	fmt.Fprintln(w, strings.Repeat("#", width))
	fmt.Fprintf(w, "##%s%s%s##\n", strings.Repeat(" ", pad/2), title, strings.Repeat(" ", pad-pad/2))
	fmt.Fprintln(w, strings.Repeat("#", width))
}

func (c *Run) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("could not load config file %q: %w", c.configPath, err)
	}
	c.ServerFlags.Apply(&cfg.Server)
	if err := cfg.Check(); err != nil {
		return err
	}

	addr, err := cfg.ListenAddr()
	if err != nil {
		return err
	}

	if c.background {
		// Verify that the responding http server is our child and not an older
		// instance.
		check := func(ctx context.Context, pid int) error {
			return checkPid(ctx, addr, pid)
		}
		if err := daemonize.Daemonize(ctx, "hashbid", check); err != nil {
			return err
		}
	}

	if len(c.dataDir) == 0 {
		c.dataDir = filepath.Join(os.Getenv("HOME"), ".hashbid")
	}
	if err := os.MkdirAll(c.dataDir, 0700); err != nil {
		return fmt.Errorf("could not create data directory %q: %w", c.dataDir, err)
	}
	dataDir, err := filepath.Abs(c.dataDir)
	if err != nil {
		return fmt.Errorf("could not determine data-dir %q absolute path: %w", c.dataDir, err)
	}

	level, err := logdir.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	// Standard log writes to syslog in the background process.
	logw := log.Writer()
	if len(cfg.Logging.Dir) != 0 {
		backend, err := logdir.New(cfg.Logging.Dir, "hashbid")
		if err != nil {
			return fmt.Errorf("could not create log directory: %w", err)
		}
		defer backend.Close()
		slog.SetDefault(slog.New(backend.NewHandler(level, logw)))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(logw, &slog.HandlerOptions{Level: level})))
	}

	if !c.background {
		printBanner(os.Stdout)
	}
	log.Printf("using data directory %s and config file %s", dataDir, c.configPath)

	lockPath := filepath.Join(dataDir, "hashbid.lock")
	flock, err := lockfile.New(lockPath)
	if err != nil {
		return fmt.Errorf("could not create lock file %q: %w", lockPath, err)
	}
	if err := flock.TryLock(); err != nil {
		if !c.restart {
			return fmt.Errorf("could not get lock on file %q: %w", lockPath, err)
		}
		owner, err := flock.GetOwner()
		if err != nil {
			return fmt.Errorf("could not get current owner of the lock file: %w", err)
		}
		if err := owner.Signal(os.Interrupt); err == nil {
			log.Printf("waiting for the previous instance to shutdown")
			if err := ctxutil.RetryTimeout(ctx, time.Second, c.shutdownTimeout, flock.TryLock); err != nil {
				if err := owner.Signal(os.Kill); err != nil {
					return fmt.Errorf("could not kill current owner of the lock file: %w", err)
				}
				ctxutil.Sleep(ctx, time.Millisecond)
			}
		}
		if err := flock.TryLock(); err != nil {
			return fmt.Errorf("could not get lock on file %q after killing previous instance: %w", lockPath, err)
		}
	}
	defer flock.Unlock()

	// Open the database.
	bopts := badger.DefaultOptions(filepath.Join(dataDir, "db"))
	bdb, err := badger.Open(bopts)
	if err != nil {
		return fmt.Errorf("could not open the database: %w", err)
	}
	defer bdb.Close()
	db := kvbadger.New(bdb, isGoodKey)

	store, err := history.New(db, nil)
	if err != nil {
		return err
	}

	creds, err := cfg.Credentials()
	if err != nil {
		return err
	}
	client, err := nicehash.New(creds, &nicehash.Options{
		CallInterval: cfg.NiceHash.CallInterval,
	})
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
	eng, err := engine.New(client, &engine.Options{
		Tier:     tier,
		Segments: segments,
	})
	if err != nil {
		return err
	}

	dopts := &daemon.Options{
		LoopDelay:   cfg.LoopDelay(),
		AlertFreeze: time.Hour,
	}
	var alerter *pushover.Alerter
	if keys := cfg.PushoverKeys(); keys != nil {
		pclient, err := pushover.New(keys, nil)
		if err != nil {
			return fmt.Errorf("could not create pushover client: %w", err)
		}
		alerter = pushover.NewAlerter(pclient, dopts.AlertFreeze)
	}

	d, err := daemon.New(eng, tier, store, alerter, dopts)
	if err != nil {
		return err
	}
	defer d.Close()

	// Start HTTP server.
	s, err := daemon.StartServer(ctx, addr)
	if err != nil {
		return fmt.Errorf("could not start http server on %s: %w", addr, err)
	}
	defer s.Close()

	handlers := d.HandlerMap()
	for k, v := range handlers {
		s.AddHandler(k, v)
	}
	defer func() {
		for k := range handlers {
			s.RemoveHandler(k)
		}
	}()
	s.AddHandler("/pid", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, strconv.Itoa(os.Getpid()))
	}))

	log.Printf("started hashbid server at %s managing %d segments with %s rate", s.Addr(), len(segments), tier)
	if err := d.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	log.Printf("hashbid server is shutting down")
	return nil
}

func checkPid(ctx context.Context, addr *net.TCPAddr, pid int) error {
	client := http.Client{Timeout: time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s/pid", addr), nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http status: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if v := string(data); v != strconv.Itoa(pid) {
		return fmt.Errorf("is another instance already running? pid mismatch: want %d got %s", pid, v)
	}
	return nil
}

func isGoodKey(k string) bool {
	return path.IsAbs(k) && k == path.Clean(k)
}
