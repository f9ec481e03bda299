// Copyright (c) 2025 BVK Chaitanya

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/bvk/hashbid/market"
	"github.com/shopspring/decimal"
)

// Competing orders with too few workers or too little accepted speed have no
// real hashpower behind them and would drag the floor price to near zero.
const minCompetingWorkers = 2

var minCompetingSpeed = decimal.New(5, -8)

// PriceDigits is the number of fraction digits in marketplace prices.
const PriceDigits = 4

// Target is the target price for a segment in one cycle. A non-nil Err means
// the target is unavailable and no order in the segment is adjusted.
type Target struct {
	Segment market.Segment
	Price   decimal.Decimal
	Err     error
}

func (t *Target) Available() bool {
	return t != nil && t.Err == nil
}

// FilterComparable returns the rental orders that have more than two workers
// and more than 0.00000005 accepted speed.
func FilterComparable(orders []*market.Order) []*market.Order {
	var result []*market.Order
	for _, v := range orders {
		if v.Type != market.RentalOrder {
			continue
		}
		if v.Workers <= minCompetingWorkers {
			continue
		}
		if v.AcceptedSpeed.LessThanOrEqual(minCompetingSpeed) {
			continue
		}
		result = append(result, v)
	}
	return result
}

// TargetFor returns the lowest price among comparable orders plus the
// tier's offset, rounded to PriceDigits. Returns ErrNoComparableOrders if no
// order passes the filter.
func TargetFor(orders []*market.Order, params TierParams) (decimal.Decimal, error) {
	candidates := FilterComparable(orders)
	if len(candidates) == 0 {
		return decimal.Zero, ErrNoComparableOrders
	}
	prices := make([]decimal.Decimal, 0, len(candidates))
	for _, v := range candidates {
		prices = append(prices, v.Price)
	}
	slices.SortFunc(prices, func(a, b decimal.Decimal) int { return a.Cmp(b) })
	return prices[0].Add(params.TargetMinAdd).Round(PriceDigits), nil
}

// ComputeTargets fetches the market orders for every segment and computes
// their target prices. A fetch failure or an empty comparable set makes the
// segment's target unavailable; other segments are not affected. Returns a
// non-nil error only when the context is canceled.
func ComputeTargets(ctx context.Context, client market.Client, params TierParams, segs []market.Segment) (map[market.Segment]*Target, error) {
	targets := make(map[market.Segment]*Target)
	for _, seg := range segs {
		orders, err := client.ListMarketOrders(ctx, seg)
		if err != nil {
			if ctx.Err() != nil {
				return nil, context.Cause(ctx)
			}
			slog.Warn("could not fetch market orders; target is unavailable", "segment", seg, "err", err)
			targets[seg] = &Target{Segment: seg, Err: fmt.Errorf("could not fetch market orders: %w", err)}
			continue
		}
		price, err := TargetFor(orders, params)
		if err != nil {
			slog.Warn("no target price for segment", "segment", seg, "norders", len(orders), "err", err)
			targets[seg] = &Target{Segment: seg, Err: err}
			continue
		}
		targets[seg] = &Target{Segment: seg, Price: price}
	}
	return targets, nil
}
