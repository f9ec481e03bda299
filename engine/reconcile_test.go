// Copyright (c) 2025 BVK Chaitanya

package engine

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/bvk/hashbid/market"
)

func cacheState(c *Cache) []TrackedOrder {
	var vs []TrackedOrder
	for _, v := range c.Orders() {
		vs = append(vs, *v)
	}
	return vs
}

func countEvents(events []*Event, kind EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestReconcileAddRemove(t *testing.T) {
	f := newFakeClient()
	f.addOwn(ownOrder("1", euC29, "0.0050"))
	f.addOwn(ownOrder("2", euC29, "0.0040"))
	f.addOwn(ownOrder("3", usaC31, "0.0060"))

	cache := NewCache()
	events := Reconcile(cache, snapshotOf(f, euC29, usaC31))
	if n := countEvents(events, OrderAdded); n != 3 {
		t.Fatalf("want 3 additions, got %d (%v)", n, events)
	}
	if cache.Len() != 3 {
		t.Fatalf("want 3 cached orders, got %d", cache.Len())
	}
	v, ok := cache.Get("1")
	if !ok {
		t.Fatalf("order 1 must be cached")
	}
	if !v.LastDecreased.Equal(time.Unix(0, 0)) {
		t.Fatalf("new orders must start with epoch last-decreased time, got %v", v.LastDecreased)
	}

	f.removeOwn("3")
	events = Reconcile(cache, snapshotOf(f, euC29, usaC31))
	if n := countEvents(events, OrderRemoved); n != 1 {
		t.Fatalf("want 1 removal, got %d (%v)", n, events)
	}
	if _, ok := cache.Get("3"); ok {
		t.Fatalf("order 3 must be removed from the cache")
	}
	if cache.Len() != 2 {
		t.Fatalf("want 2 cached orders, got %d", cache.Len())
	}
}

func TestReconcileIdempotent(t *testing.T) {
	f := newFakeClient()
	for i := 0; i < 5; i++ {
		seg := euC29
		if i%2 == 1 {
			seg = usaC29
		}
		f.addOwn(ownOrder(fmt.Sprintf("%d", 100+i), seg, "0.0042"))
	}
	snap := snapshotOf(f, euC29, usaC29)

	cache := NewCache()
	Reconcile(cache, snap)
	first := cacheState(cache)

	events := Reconcile(cache, snap)
	if len(events) != 0 {
		t.Fatalf("second reconcile with the same snapshot must not change the cache: %v", events)
	}
	if second := cacheState(cache); !reflect.DeepEqual(first, second) {
		t.Fatalf("cache changed on second reconcile:\nfirst=%#v\nsecond=%#v", first, second)
	}
}

func TestReconcileRefreshKeepsAdjustmentFields(t *testing.T) {
	f := newFakeClient()
	f.addOwn(ownOrder("7", euC31, "0.0050"))

	cache := NewCache()
	Reconcile(cache, snapshotOf(f, euC31))

	v, _ := cache.Get("7")
	decreasedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	v.LastDecreased = decreasedAt
	v.Outcome = OutcomeDecreased

	if err := f.setOwnPrice(euC31, "7", d("0.0049")); err != nil {
		t.Fatal(err)
	}
	f.own[euC31][0].Workers = 3

	Reconcile(cache, snapshotOf(f, euC31))
	v, _ = cache.Get("7")
	if !v.Price.Equal(d("0.0049")) {
		t.Fatalf("price must be refreshed, got %s", v.Price)
	}
	if v.Workers != 3 {
		t.Fatalf("workers must be refreshed, got %d", v.Workers)
	}
	if !v.LastDecreased.Equal(decreasedAt) {
		t.Fatalf("last-decreased must be untouched, got %v", v.LastDecreased)
	}
	if v.Outcome != OutcomeDecreased {
		t.Fatalf("outcome must be untouched, got %q", v.Outcome)
	}
}

func TestReconcileFailedSegmentIsUnknown(t *testing.T) {
	f := newFakeClient()
	f.addOwn(ownOrder("1", euC29, "0.0050"))
	f.addOwn(ownOrder("2", usaC31, "0.0050"))

	cache := NewCache()
	Reconcile(cache, snapshotOf(f, euC29, usaC31))

	// Order 2 disappears remotely, but its segment fetch fails; order 1 also
	// disappears and its segment fetch succeeds.
	f.removeOwn("1")
	f.removeOwn("2")
	f.addOwn(ownOrder("9", usaC31, "0.0050"))
	f.ownErr[usaC31] = fmt.Errorf("timeout: %w", market.ErrTransport)

	events := Reconcile(cache, snapshotOf(f, euC29, usaC31))
	if _, ok := cache.Get("1"); ok {
		t.Fatalf("order 1 must be removed")
	}
	v, ok := cache.Get("2")
	if !ok {
		t.Fatalf("order 2 in the failed segment must be kept")
	}
	if !v.IsStale() {
		t.Fatalf("order 2 must be marked stale")
	}
	if _, ok := cache.Get("9"); ok {
		t.Fatalf("orders from a failed segment must not be added")
	}
	if n := countEvents(events, OrderRemoved); n != 1 {
		t.Fatalf("want exactly one removal, got %v", events)
	}

	// Recovered fetch clears the stale mark and removes the gone order.
	delete(f.ownErr, usaC31)
	Reconcile(cache, snapshotOf(f, euC29, usaC31))
	if _, ok := cache.Get("2"); ok {
		t.Fatalf("order 2 must be removed after a successful fetch")
	}
	if v, ok := cache.Get("9"); !ok || v.IsStale() {
		t.Fatalf("order 9 must be added and fresh")
	}
}

func TestReconcileDuplicateOrder(t *testing.T) {
	f := newFakeClient()
	f.addOwn(ownOrder("5", euC29, "0.0050"))
	f.addOwn(ownOrder("5", usaC29, "0.0070"))

	cache := NewCache()
	events := Reconcile(cache, snapshotOf(f, euC29, usaC29))
	if n := countEvents(events, OrderDuplicate); n != 1 {
		t.Fatalf("want one duplicate event, got %v", events)
	}
	v, ok := cache.Get("5")
	if !ok {
		t.Fatalf("order 5 must be cached")
	}
	if v.Segment != euC29 || !v.Price.Equal(d("0.0050")) {
		t.Fatalf("first occurrence must win, got %v at %s", v.Segment, v.Price)
	}

	// Duplicate must not cause the entry to flap on the next cycle.
	Reconcile(cache, snapshotOf(f, euC29, usaC29))
	if v2, _ := cache.Get("5"); v2 != v {
		t.Fatalf("cached entry must survive duplicate reports")
	}
}

func TestReconcileDuplicateOfCachedOrder(t *testing.T) {
	f := newFakeClient()
	f.addOwn(ownOrder("7", usaC29, "0.0030"))

	cache := NewCache()
	Reconcile(cache, snapshotOf(f, euC29, usaC29))
	v, ok := cache.Get("7")
	if !ok {
		t.Fatalf("order 7 must be cached")
	}
	decreased := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	v.LastDecreased = decreased

	// Same id now also shows up in a segment that sorts earlier.
	f.addOwn(ownOrder("7", euC29, "0.0010"))
	events := Reconcile(cache, snapshotOf(f, euC29, usaC29))
	if len(events) != 1 || events[0].Kind != OrderDuplicate || events[0].Segment != euC29 {
		t.Fatalf("want one duplicate event for the new copy, got %v", events)
	}
	v2, _ := cache.Get("7")
	if v2 != v {
		t.Fatalf("cached entry must not be replaced by a duplicate")
	}
	if v2.Segment != usaC29 || !v2.Price.Equal(d("0.0030")) {
		t.Fatalf("cached entry must keep its segment and price, got %v at %s", v2.Segment, v2.Price)
	}
	if !v2.LastDecreased.Equal(decreased) {
		t.Fatalf("last-decreased moved from %v to %v", decreased, v2.LastDecreased)
	}

	// Cached segment fails to fetch while the duplicate is still reported.
	f.ownErr[usaC29] = fmt.Errorf("timeout")
	events = Reconcile(cache, snapshotOf(f, euC29, usaC29))
	if n := countEvents(events, OrderDuplicate); n != 1 || len(events) != 1 {
		t.Fatalf("want only a duplicate event, got %v", events)
	}
	v3, _ := cache.Get("7")
	if v3 != v || v3.Segment != usaC29 || !v3.IsStale() || !v3.LastDecreased.Equal(decreased) {
		t.Fatalf("cached entry must stay in its own segment as stale data")
	}
}
