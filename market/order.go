// Copyright (c) 2025 BVK Chaitanya

package market

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type OrderID string

// OrderType is the marketplace code for the kind of an order. Only rental
// orders compete on price; fixed orders buy a guaranteed speed and are priced
// differently.
type OrderType int

const (
	RentalOrder OrderType = 0
	FixedOrder  OrderType = 1
)

func (t OrderType) String() string {
	switch t {
	case RentalOrder:
		return "rental"
	case FixedOrder:
		return "fixed"
	}
	return fmt.Sprintf("type-%d", int(t))
}

// Order is a snapshot of one order as reported by the marketplace. Order
// values are not modified after they are fetched.
type Order struct {
	ID      OrderID
	Segment Segment
	Type    OrderType

	// Price is the bid price per unit of hashpower per day.
	Price decimal.Decimal

	Workers int

	// AcceptedSpeed is the hashpower accepted by the pool for this order.
	AcceptedSpeed decimal.Decimal

	Alive bool

	// LimitSpeed is the maximum rental speed. Zero means no limit.
	LimitSpeed decimal.Decimal
}

func (v *Order) String() string {
	return fmt.Sprintf("order:%s@%s", v.ID, v.Segment)
}
