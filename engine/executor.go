// Copyright (c) 2025 BVK Chaitanya

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bvk/hashbid/market"
	"github.com/shopspring/decimal"
)

const (
	OutcomeDecreased     = "decreased"
	OutcomeNoChange      = "no change needed"
	outcomeUnavailable   = "unavailable target"
	outcomeStale         = "stale data"
	outcomeCommandFailed = "error"
)

// ApplyAdjustments compares every cached order against its segment's target
// price and issues at most one price command per order. Outcomes are recorded
// on the cached orders and per-order failures are returned; a failure on one
// order never stops processing of the others. Returns a non-nil error only
// when the context is canceled.
func ApplyAdjustments(ctx context.Context, client market.Client, cache *Cache, targets map[market.Segment]*Target, params TierParams, now time.Time) ([]*Failure, error) {
	var failures []*Failure
	for _, v := range cache.Orders() {
		if err := context.Cause(ctx); err != nil {
			return failures, err
		}

		if v.stale != nil {
			v.HasTarget, v.TargetPrice, v.Delta = false, decimal.Zero, decimal.Zero
			v.Outcome, v.OutcomeErr = outcomeStale, v.stale
			continue
		}

		target := targets[v.Segment]
		if !target.Available() {
			err := ErrNoComparableOrders
			if target != nil {
				err = target.Err
			}
			v.HasTarget, v.TargetPrice, v.Delta = false, decimal.Zero, decimal.Zero
			v.Outcome, v.OutcomeErr = fmt.Sprintf("%s: %v", outcomeUnavailable, err), err
			continue
		}

		v.HasTarget, v.TargetPrice = true, target.Price
		v.Delta = v.Price.Sub(target.Price)

		var err error
		switch v.Price.Cmp(target.Price) {
		case 1:
			err = decrease(ctx, client, v, now)
		case -1:
			err = increase(ctx, client, v, params)
		default:
			v.Outcome, v.OutcomeErr = OutcomeNoChange, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return failures, context.Cause(ctx)
			}
			op := "increase-price"
			if v.Delta.IsPositive() {
				op = "decrease-price"
			}
			v.Outcome, v.OutcomeErr = fmt.Sprintf("%s: %v", outcomeCommandFailed, err), err
			failures = append(failures, newFailure(op, v.Segment, v.ID, err))
		}
	}
	return failures, nil
}

func decrease(ctx context.Context, client market.Client, v *TrackedOrder, now time.Time) error {
	if err := client.DecreasePrice(ctx, v.Segment, v.ID); err != nil {
		slog.Warn("could not decrease order price", "order", v, "target", v.TargetPrice, "err", err)
		return err
	}
	if now.After(v.LastDecreased) {
		v.LastDecreased = now
	}
	v.Outcome, v.OutcomeErr = OutcomeDecreased, nil
	slog.Info("decreased order price", "order", v, "target", v.TargetPrice)
	return nil
}

// ProposedPrice returns the price an under-priced order is raised to in one
// cycle. The result has at most PriceDigits fraction digits and never exceeds
// the target nor price + MaxIncrease.
func ProposedPrice(price, target decimal.Decimal, params TierParams) decimal.Decimal {
	return decimal.Min(price.Add(params.MaxIncrease), target).Truncate(PriceDigits)
}

func increase(ctx context.Context, client market.Client, v *TrackedOrder, params TierParams) error {
	proposed := ProposedPrice(v.Price, v.TargetPrice, params)
	if err := client.IncreasePrice(ctx, v.Segment, v.ID, proposed); err != nil {
		slog.Warn("could not increase order price", "order", v, "proposed", proposed, "err", err)
		return err
	}
	applied := proposed.Sub(v.Price)
	v.Price = proposed
	v.Delta = v.Price.Sub(v.TargetPrice)
	v.Outcome, v.OutcomeErr = "+"+applied.StringFixed(PriceDigits), nil
	slog.Info("increased order price", "order", v, "target", v.TargetPrice, "applied", applied)
	return nil
}
