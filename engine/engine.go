// Copyright (c) 2025 BVK Chaitanya

// Package engine implements the order reconciliation and price control
// cycle. Each cycle refreshes a local cache of the operator's orders from the
// marketplace, computes a target price for every market segment from the
// competing orders and nudges every order's price toward its target with at
// most one bounded command per order.
//
// Failures are handled at the smallest scope possible. A failed fetch for one
// segment or a failed command for one order is recorded in the cycle report
// and never stops the processing of other segments and orders.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/bvk/hashbid/market"
	"github.com/google/uuid"
)

type Options struct {
	// Tier selects the price adjustment limits.
	Tier Tier

	// Segments lists the market segments to manage. Defaults to all known
	// segments.
	Segments []market.Segment

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

func (v *Options) setDefaults() {
	if len(v.Segments) == 0 {
		v.Segments = market.AllSegments(market.Regions(), market.Algorithms())
	}
	if v.Now == nil {
		v.Now = time.Now
	}
}

func (v *Options) Check() error {
	if !v.Tier.IsValid() {
		return fmt.Errorf("invalid rate tier %q: %w", v.Tier, os.ErrInvalid)
	}
	seen := make(map[market.Segment]bool)
	for _, seg := range v.Segments {
		if err := seg.Check(); err != nil {
			return err
		}
		if seen[seg] {
			return fmt.Errorf("segment %s is listed more than once: %w", seg, os.ErrInvalid)
		}
		seen[seg] = true
	}
	return nil
}

// Engine owns the order cache and runs reconciliation cycles against a
// marketplace client. Engine is not safe for concurrent use; cycles must run
// one after another.
type Engine struct {
	opts Options

	params TierParams

	client market.Client

	cache *Cache
}

func New(client market.Client, opts *Options) (*Engine, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	segs := slices.Clone(opts.Segments)
	sortSegments(segs)

	e := &Engine{
		opts:   *opts,
		params: opts.Tier.Params(),
		client: client,
		cache:  NewCache(),
	}
	e.opts.Segments = segs
	return e, nil
}

// Cache returns the engine's order cache.
func (e *Engine) Cache() *Cache {
	return e.cache
}

// Segments returns the market segments managed by the engine.
func (e *Engine) Segments() []market.Segment {
	return slices.Clone(e.opts.Segments)
}

// RunCycle runs one reconciliation cycle to completion and returns its
// report. Remote failures are recorded in the report; a non-nil error is
// returned only if the context is canceled.
func (e *Engine) RunCycle(ctx context.Context) (*Report, error) {
	start := e.opts.Now()
	cycleID := uuid.New().String()

	var failures []*Failure

	snap := NewSnapshot()
	for _, seg := range e.opts.Segments {
		orders, err := e.client.ListOwnOrders(ctx, seg)
		if err != nil {
			if ctx.Err() != nil {
				return nil, context.Cause(ctx)
			}
			slog.Warn("could not fetch own orders; segment is left unchanged", "cycle", cycleID, "segment", seg, "err", err)
			snap.Failed[seg] = err
			failures = append(failures, newFailure("list-own-orders", seg, "", err))
			continue
		}
		snap.Orders[seg] = orders
	}

	events := Reconcile(e.cache, snap)
	for _, ev := range events {
		if ev.Kind == OrderDuplicate {
			err := fmt.Errorf("order %s: %w", ev.OrderID, ErrDuplicateOrder)
			failures = append(failures, newFailure("reconcile", ev.Segment, ev.OrderID, err))
		}
	}

	targets, err := ComputeTargets(ctx, e.client, e.params, e.opts.Segments)
	if err != nil {
		return nil, err
	}
	for _, seg := range e.opts.Segments {
		if t := targets[seg]; !t.Available() {
			failures = append(failures, newFailure("list-market-orders", seg, "", t.Err))
		}
	}

	adjustFailures, err := ApplyAdjustments(ctx, e.client, e.cache, targets, e.params, e.opts.Now())
	if err != nil {
		return nil, err
	}
	failures = append(failures, adjustFailures...)

	report := newReport(cycleID, e.opts.Tier, start, e.opts.Now(), e.cache, events, failures)
	slog.Info("completed control cycle", "cycle", cycleID, "tier", e.opts.Tier, "norders", e.cache.Len(), "nfailures", len(failures), "duration", report.EndTime.Sub(report.StartTime))
	return report, nil
}

func sortSegments(segs []market.Segment) {
	slices.SortFunc(segs, market.CompareSegments)
}
