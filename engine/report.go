// Copyright (c) 2025 BVK Chaitanya

package engine

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/bvk/hashbid/market"
	"github.com/shopspring/decimal"
)

// Row is the state of one tracked order at the end of a cycle.
type Row struct {
	OrderID market.OrderID
	Segment market.Segment

	Price       decimal.Decimal
	HasTarget   bool
	TargetPrice decimal.Decimal
	Delta       decimal.Decimal
	Outcome     string

	Workers       int
	AcceptedSpeed decimal.Decimal
	Alive         bool
	LastDecreased time.Time
}

// Report is an immutable summary of one cycle. Reports are safe to share
// with other goroutines.
type Report struct {
	CycleID string
	Tier    Tier

	StartTime time.Time
	EndTime   time.Time

	Rows     []*Row
	Events   []*Event
	Failures []*Failure
}

func newReport(id string, tier Tier, start, end time.Time, cache *Cache, events []*Event, failures []*Failure) *Report {
	r := &Report{
		CycleID:   id,
		Tier:      tier,
		StartTime: start,
		EndTime:   end,
		Events:    events,
		Failures:  failures,
	}
	for _, v := range cache.Orders() {
		r.Rows = append(r.Rows, &Row{
			OrderID:       v.ID,
			Segment:       v.Segment,
			Price:         v.Price,
			HasTarget:     v.HasTarget,
			TargetPrice:   v.TargetPrice,
			Delta:         v.Delta,
			Outcome:       v.Outcome,
			Workers:       v.Workers,
			AcceptedSpeed: v.AcceptedSpeed,
			Alive:         v.Alive,
			LastDecreased: v.LastDecreased,
		})
	}
	return r
}

// Row returns the report row for an order id.
func (r *Report) Row(id market.OrderID) (*Row, bool) {
	for _, v := range r.Rows {
		if v.OrderID == id {
			return v, true
		}
	}
	return nil, false
}

// WriteTable writes one line per tracked order with the order id, region,
// algorithm, current price, target price, delta and the adjustment outcome.
func (r *Report) WriteTable(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "## Completed control loop: %s - %s\n", r.Tier, r.EndTime.Format(time.DateTime)); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Id\tLoc\tAlgorithm\tCurrent Price\tTarget Price\tDelta\tPrice Change\n")
	for _, v := range r.Rows {
		target, delta := "-", "-"
		if v.HasTarget {
			target = v.TargetPrice.StringFixed(PriceDigits)
			delta = v.Delta.StringFixed(PriceDigits)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", v.OrderID, v.Segment.Region, v.Segment.Algorithm,
			v.Price.StringFixed(PriceDigits), target, delta, v.Outcome)
	}
	return tw.Flush()
}
