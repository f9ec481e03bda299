// Copyright (c) 2025 BVK Chaitanya

// Package market defines the segment keys, order snapshots and the client
// contract for a hashpower rental marketplace.
package market

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrTransport indicates a network or http level failure, including non-2xx
	// status codes and timeouts.
	ErrTransport = errors.New("transport failure")

	// ErrRemote indicates a well-formed response that carries an application
	// level error message.
	ErrRemote = errors.New("remote error")
)

// Client issues calls to the remote marketplace. Implementations pace their
// calls to respect the remote rate limits and never retry on their own.
type Client interface {
	// ListOwnOrders returns the operator's orders in a segment.
	ListOwnOrders(ctx context.Context, seg Segment) ([]*Order, error)

	// ListMarketOrders returns all orders, from all users, in a segment.
	ListMarketOrders(ctx context.Context, seg Segment) ([]*Order, error)

	// IncreasePrice sets a new, higher price for an order.
	IncreasePrice(ctx context.Context, seg Segment, id OrderID, price decimal.Decimal) error

	// DecreasePrice lowers an order's price by the amount fixed by the
	// marketplace.
	DecreasePrice(ctx context.Context, seg Segment, id OrderID) error
}
