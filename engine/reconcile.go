// Copyright (c) 2025 BVK Chaitanya

package engine

import (
	"fmt"
	"log/slog"

	"github.com/bvk/hashbid/market"
)

type EventKind string

const (
	OrderAdded     EventKind = "added"
	OrderRemoved   EventKind = "removed"
	OrderDuplicate EventKind = "duplicate"
)

// Event describes a change made to the cache during reconciliation.
type Event struct {
	Kind    EventKind
	OrderID market.OrderID
	Segment market.Segment
}

func (e *Event) String() string {
	return fmt.Sprintf("%s:%s@%s", e.Kind, e.OrderID, e.Segment)
}

// Snapshot holds the operator's own orders fetched in one cycle. Segments
// present in Orders were fetched successfully, even when they have no orders.
// Segments in Failed could not be fetched and their cached orders are left
// untouched.
type Snapshot struct {
	Orders map[market.Segment][]*market.Order
	Failed map[market.Segment]error
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Orders: make(map[market.Segment][]*market.Order),
		Failed: make(map[market.Segment]error),
	}
}

// Reconcile updates the cache to match the snapshot and returns the list of
// additions, removals and duplicates. Reconciling the same snapshot again
// leaves the cache unchanged.
func Reconcile(cache *Cache, snap *Snapshot) []*Event {
	var events []*Event

	// Collect live orders from the successfully fetched segments. Order ids are
	// expected to be unique across segments; a duplicate is reported and the
	// copy in the cached order's segment wins, else the first occurrence.
	live := make(map[market.OrderID]*market.Order)
	segs := make([]market.Segment, 0, len(snap.Orders))
	for seg := range snap.Orders {
		segs = append(segs, seg)
	}
	sortSegments(segs)
	for _, seg := range segs {
		for _, order := range snap.Orders[seg] {
			kept, ok := live[order.ID]
			if !ok {
				live[order.ID] = order
				continue
			}
			dup := order
			if v, cached := cache.Get(order.ID); cached && v.Segment == seg && kept.Segment != seg {
				live[order.ID], kept, dup = order, order, kept
			}
			slog.Error("order id is reported in multiple segments (ignored)", "order", order.ID, "tracked", kept.Segment, "duplicate", dup.Segment)
			events = append(events, &Event{Kind: OrderDuplicate, OrderID: order.ID, Segment: dup.Segment})
		}
	}

	// Remove orders that no longer exist. Orders from segments that were not
	// fetched in this cycle are unknown, not gone.
	for _, v := range cache.Orders() {
		if _, fetched := snap.Orders[v.Segment]; !fetched {
			continue
		}
		order, ok := live[v.ID]
		if ok && order.Segment == v.Segment {
			continue
		}
		slog.Info("order no longer exists", "order", v.ID, "segment", v.Segment)
		cache.remove(v.ID)
		events = append(events, &Event{Kind: OrderRemoved, OrderID: v.ID, Segment: v.Segment})
	}

	// Add new orders and refresh the mutable fields on existing orders.
	for _, seg := range segs {
		for _, order := range snap.Orders[seg] {
			if live[order.ID] != order {
				continue
			}
			if v, ok := cache.Get(order.ID); ok {
				if v.Segment == order.Segment {
					v.refresh(order)
					v.stale = nil
					continue
				}
				// Cached entry belongs to a segment that was not fetched in this
				// cycle. It stays tracked in its own segment.
				slog.Error("order id is reported in multiple segments (ignored)", "order", order.ID, "tracked", v.Segment, "duplicate", order.Segment)
				events = append(events, &Event{Kind: OrderDuplicate, OrderID: order.ID, Segment: order.Segment})
				continue
			}
			slog.Info("new order added", "order", order.ID, "segment", order.Segment)
			cache.put(newTrackedOrder(order))
			events = append(events, &Event{Kind: OrderAdded, OrderID: order.ID, Segment: order.Segment})
		}
	}

	// Mark orders from unfetched segments as stale for this cycle.
	for _, v := range cache.Orders() {
		if _, fetched := snap.Orders[v.Segment]; fetched {
			continue
		}
		err, failed := snap.Failed[v.Segment]
		if !failed || err == nil {
			err = fmt.Errorf("segment %s was not fetched", v.Segment)
		}
		v.stale = fmt.Errorf("%w: %v", ErrStaleData, err)
	}
	return events
}
