// Copyright (c) 2025 BVK Chaitanya

// Package daemon drives the control cycles of an engine in a loop and serves
// the status and history apis.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bvk/hashbid/api"
	"github.com/bvk/hashbid/ctxutil"
	"github.com/bvk/hashbid/engine"
	"github.com/bvk/hashbid/history"
	"github.com/bvk/hashbid/pushover"
	"github.com/visvasity/topic"
)

// Daemon owns the engine and runs its cycles one after another. Only the
// loop goroutine touches the engine; everything else works on the published
// reports.
type Daemon struct {
	opts Options

	tier engine.Tier

	engine *engine.Engine

	store *history.Store

	alerter *pushover.Alerter

	reports *topic.Topic[*engine.Report]

	startTime  time.Time
	numCycles  atomic.Int64
	lastReport atomic.Pointer[engine.Report]

	cg ctxutil.CloseGroup
}

// New creates a daemon. History store and alerter are optional.
func New(eng *engine.Engine, tier engine.Tier, store *history.Store, alerter *pushover.Alerter, opts *Options) (*Daemon, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	d := &Daemon{
		opts:      *opts,
		tier:      tier,
		engine:    eng,
		store:     store,
		alerter:   alerter,
		reports:   topic.New[*engine.Report](),
		startTime: time.Now(),
	}
	return d, nil
}

// Close stops the background goroutines.
func (d *Daemon) Close() {
	d.cg.Close()
}

// Reports returns the topic that receives every completed cycle report.
func (d *Daemon) Reports() *topic.Topic[*engine.Report] {
	return d.reports
}

// LastReport returns the most recent cycle report or nil.
func (d *Daemon) LastReport() *engine.Report {
	return d.lastReport.Load()
}

// Run runs control cycles until the context is canceled. Cycle errors and
// panics are logged and the loop continues with the next cycle.
func (d *Daemon) Run(ctx context.Context) error {
	if d.store != nil {
		// Receiver must exist before the first report is sent.
		receiver, err := topic.Subscribe(d.reports, 0, false)
		if err != nil {
			return fmt.Errorf("could not subscribe to cycle reports: %w", err)
		}
		d.cg.Go("history", func(cctx context.Context) {
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			stop := context.AfterFunc(cctx, cancel)
			defer stop()

			if err := d.store.Run(ctx, receiver); err != nil && ctx.Err() == nil {
				slog.Error("history recorder has stopped", "err", err)
			}
		})
	}

	for ctx.Err() == nil {
		d.runOnce(ctx)
		if !ctxutil.Sleep(ctx, d.opts.LoopDelay) {
			break
		}
	}
	return context.Cause(ctx)
}

func (d *Daemon) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("CAUGHT PANIC", "panic", r)
			slog.Error(string(debug.Stack()))
			d.alert(ctx, "panic", "Control cycle has crashed: %v", r)
		}
	}()

	fmt.Fprintln(d.opts.Console, "Updating existing Nicehash orders...")
	report, err := d.engine.RunCycle(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("could not complete the control cycle", "err", err)
			d.alert(ctx, "cycle-error", "Control cycle has failed: %v", err)
		}
		return
	}

	d.numCycles.Add(1)
	d.lastReport.Store(report)
	d.reports.Send(report)

	if err := report.WriteTable(d.opts.Console); err != nil {
		slog.Warn("could not write the cycle report to console (ignored)", "err", err)
	}

	if n := len(report.Failures); n > 0 {
		var sb strings.Builder
		for i, f := range report.Failures {
			if i == 3 {
				fmt.Fprintf(&sb, "\n... and %d more", n-i)
				break
			}
			fmt.Fprintf(&sb, "\n%s", f.Error())
		}
		d.alert(ctx, "cycle-failures", "Control cycle %s completed with %d failure(s):%s", report.CycleID, n, sb.String())
	}
}

func (d *Daemon) alert(ctx context.Context, key, format string, args ...any) {
	if d.alerter == nil {
		return
	}
	if _, err := d.alerter.Alert(ctx, time.Now(), key, format, args...); err != nil {
		slog.Warn("could not send alert (ignored)", "key", key, "err", err)
	}
}

// HandlerMap returns the api handlers keyed by their url paths.
func (d *Daemon) HandlerMap() map[string]http.Handler {
	return map[string]http.Handler{
		api.StatusPath:  httpPostJSONHandler(d.doStatus),
		api.HistoryPath: httpPostJSONHandler(d.doHistory),
	}
}

func (d *Daemon) doStatus(ctx context.Context, req *api.StatusRequest) (*api.StatusResponse, error) {
	resp := &api.StatusResponse{
		Tier:       string(d.tier),
		StartTime:  d.startTime,
		NumCycles:  d.numCycles.Load(),
		LastReport: d.lastReport.Load(),
	}
	for _, seg := range d.engine.Segments() {
		resp.Segments = append(resp.Segments, seg.String())
	}
	return resp, nil
}

func (d *Daemon) doHistory(ctx context.Context, req *api.HistoryRequest) (*api.HistoryResponse, error) {
	if err := req.Check(); err != nil {
		return nil, err
	}
	if d.store == nil {
		return nil, fmt.Errorf("history is not enabled: %w", os.ErrNotExist)
	}
	limit := req.Limit
	if limit == 0 {
		limit = d.opts.HistoryLimit
	}
	cycles, err := d.store.Recent(ctx, limit)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not load history", "limit", limit, "err", err)
		}
		return nil, err
	}
	return &api.HistoryResponse{Cycles: cycles}, nil
}
