// Copyright (c) 2025 BVK Chaitanya

package engine

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/bvk/hashbid/market"
	"github.com/shopspring/decimal"
)

// epochStart is the last-decreased time for newly tracked orders. It makes a
// new order eligible for an immediate decrease.
var epochStart = time.Unix(0, 0).UTC()

// TrackedOrder is the cached state for one of the operator's orders.
type TrackedOrder struct {
	ID      market.OrderID
	Segment market.Segment

	Price         decimal.Decimal
	Workers       int
	AcceptedSpeed decimal.Decimal
	Alive         bool
	LimitSpeed    decimal.Decimal

	// LastDecreased is updated only after a successful decrease and never
	// moves backwards.
	LastDecreased time.Time

	// HasTarget is false when no target price could be computed for the
	// order's segment in the last cycle.
	HasTarget   bool
	TargetPrice decimal.Decimal

	// Delta is Price - TargetPrice when HasTarget is true.
	Delta decimal.Decimal

	// Outcome is a human-readable label for the last adjustment attempt and
	// OutcomeErr is the error, if any, behind it.
	Outcome    string
	OutcomeErr error

	// stale holds the fetch error when the own-orders fetch for the order's
	// segment failed in the current cycle.
	stale error
}

func newTrackedOrder(order *market.Order) *TrackedOrder {
	v := &TrackedOrder{
		ID:            order.ID,
		Segment:       order.Segment,
		LastDecreased: epochStart,
	}
	v.refresh(order)
	return v
}

func (v *TrackedOrder) refresh(order *market.Order) {
	v.Price = order.Price
	v.Workers = order.Workers
	v.AcceptedSpeed = order.AcceptedSpeed
	v.Alive = order.Alive
	v.LimitSpeed = order.LimitSpeed
}

func (v *TrackedOrder) String() string {
	return fmt.Sprintf("order:%s@%s", v.ID, v.Segment)
}

func (v *TrackedOrder) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", string(v.ID)),
		slog.Any("segment", v.Segment),
		slog.String("price", v.Price.StringFixed(4)),
		slog.Int("workers", v.Workers),
		slog.Bool("alive", v.Alive),
	)
}

// IsStale returns true if the order's segment could not be refreshed in the
// current cycle.
func (v *TrackedOrder) IsStale() bool {
	return v.stale != nil
}

// Cache maps order ids to their last known state. A Cache is owned by a
// single engine and is not safe for concurrent use.
type Cache struct {
	orderMap map[market.OrderID]*TrackedOrder
}

func NewCache() *Cache {
	return &Cache{
		orderMap: make(map[market.OrderID]*TrackedOrder),
	}
}

func (c *Cache) Len() int {
	return len(c.orderMap)
}

func (c *Cache) Get(id market.OrderID) (*TrackedOrder, bool) {
	v, ok := c.orderMap[id]
	return v, ok
}

func (c *Cache) put(v *TrackedOrder) {
	c.orderMap[v.ID] = v
}

func (c *Cache) remove(id market.OrderID) {
	delete(c.orderMap, id)
}

// Orders returns the tracked orders sorted by segment and then by id.
func (c *Cache) Orders() []*TrackedOrder {
	orders := make([]*TrackedOrder, 0, len(c.orderMap))
	for _, v := range c.orderMap {
		orders = append(orders, v)
	}
	slices.SortFunc(orders, func(a, b *TrackedOrder) int {
		if v := market.CompareSegments(a.Segment, b.Segment); v != 0 {
			return v
		}
		return compareOrderIDs(a.ID, b.ID)
	})
	return orders
}

// compareOrderIDs orders ids by length and then lexically, which keeps
// numeric ids in numeric order.
func compareOrderIDs(a, b market.OrderID) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
