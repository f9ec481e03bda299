// Copyright (c) 2025 BVK Chaitanya

package engine

import (
	"context"
	"fmt"

	"github.com/bvk/hashbid/market"
	"github.com/shopspring/decimal"
)

var (
	euC29  = market.Segment{Region: market.RegionEU, Algorithm: market.GrinCuckaroo29}
	euC31  = market.Segment{Region: market.RegionEU, Algorithm: market.GrinCuckaroo31}
	usaC29 = market.Segment{Region: market.RegionUSA, Algorithm: market.GrinCuckaroo29}
	usaC31 = market.Segment{Region: market.RegionUSA, Algorithm: market.GrinCuckaroo31}
)

// decreaseStep is the fixed amount the fake marketplace subtracts on a
// decrease command.
var decreaseStep = decimal.RequireFromString("0.0001")

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ownOrder(id string, seg market.Segment, price string) *market.Order {
	return &market.Order{
		ID:            market.OrderID(id),
		Segment:       seg,
		Type:          market.RentalOrder,
		Price:         d(price),
		Workers:       10,
		AcceptedSpeed: d("0.000002"),
		Alive:         true,
	}
}

func competitor(seg market.Segment, price string, workers int, speed string) *market.Order {
	return &market.Order{
		ID:            market.OrderID(fmt.Sprintf("c-%s-%d-%s", price, workers, speed)),
		Segment:       seg,
		Type:          market.RentalOrder,
		Price:         d(price),
		Workers:       workers,
		AcceptedSpeed: d(speed),
		Alive:         true,
	}
}

type priceCall struct {
	ID    market.OrderID
	Price decimal.Decimal
}

type fakeClient struct {
	own    map[market.Segment][]*market.Order
	ownErr map[market.Segment]error

	book    map[market.Segment][]*market.Order
	bookErr map[market.Segment]error

	increaseErr map[market.OrderID]error
	decreaseErr map[market.OrderID]error

	increases []priceCall
	decreases []market.OrderID
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		own:         make(map[market.Segment][]*market.Order),
		ownErr:      make(map[market.Segment]error),
		book:        make(map[market.Segment][]*market.Order),
		bookErr:     make(map[market.Segment]error),
		increaseErr: make(map[market.OrderID]error),
		decreaseErr: make(map[market.OrderID]error),
	}
}

func (f *fakeClient) addOwn(o *market.Order) {
	f.own[o.Segment] = append(f.own[o.Segment], o)
}

func (f *fakeClient) removeOwn(id market.OrderID) {
	for seg, orders := range f.own {
		var keep []*market.Order
		for _, o := range orders {
			if o.ID != id {
				keep = append(keep, o)
			}
		}
		f.own[seg] = keep
	}
}

func (f *fakeClient) ownPrice(id market.OrderID) decimal.Decimal {
	for _, orders := range f.own {
		for _, o := range orders {
			if o.ID == id {
				return o.Price
			}
		}
	}
	return decimal.Zero
}

// setOwnPrice replaces the order snapshot, since fetched orders are treated
// as immutable.
func (f *fakeClient) setOwnPrice(seg market.Segment, id market.OrderID, price decimal.Decimal) error {
	for i, o := range f.own[seg] {
		if o.ID == id {
			v := *o
			v.Price = price
			f.own[seg][i] = &v
			return nil
		}
	}
	return fmt.Errorf("order %s not found: %w", id, market.ErrRemote)
}

func (f *fakeClient) ListOwnOrders(ctx context.Context, seg market.Segment) ([]*market.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.ownErr[seg]; err != nil {
		return nil, err
	}
	return append([]*market.Order(nil), f.own[seg]...), nil
}

func (f *fakeClient) ListMarketOrders(ctx context.Context, seg market.Segment) ([]*market.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.bookErr[seg]; err != nil {
		return nil, err
	}
	return append([]*market.Order(nil), f.book[seg]...), nil
}

func (f *fakeClient) IncreasePrice(ctx context.Context, seg market.Segment, id market.OrderID, price decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.increaseErr[id]; err != nil {
		return err
	}
	f.increases = append(f.increases, priceCall{ID: id, Price: price})
	return f.setOwnPrice(seg, id, price)
}

func (f *fakeClient) DecreasePrice(ctx context.Context, seg market.Segment, id market.OrderID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.decreaseErr[id]; err != nil {
		return err
	}
	f.decreases = append(f.decreases, id)
	return f.setOwnPrice(seg, id, f.ownPrice(id).Sub(decreaseStep))
}

// snapshotOf returns a complete live-order snapshot from the fake client.
func snapshotOf(f *fakeClient, segs ...market.Segment) *Snapshot {
	snap := NewSnapshot()
	for _, seg := range segs {
		orders, err := f.ListOwnOrders(context.Background(), seg)
		if err != nil {
			snap.Failed[seg] = err
			continue
		}
		snap.Orders[seg] = orders
	}
	return snap
}
