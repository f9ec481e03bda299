// Copyright (c) 2025 BVK Chaitanya

package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bvk/hashbid/market"
)

var (
	// ErrNoComparableOrders indicates that no competing order in a segment
	// passed the activity filter, so no target price exists.
	ErrNoComparableOrders = errors.New("no comparable orders")

	// ErrStaleData indicates that the operator's orders for a segment could not
	// be fetched in this cycle, so the cached state may be out of date.
	ErrStaleData = errors.New("stale data")

	// ErrDuplicateOrder indicates that an order id was reported in more than
	// one segment.
	ErrDuplicateOrder = errors.New("duplicate order")
)

type FailureKind string

const (
	TransportFailure   FailureKind = "transport"
	RemoteError        FailureKind = "remote"
	NoComparableOrders FailureKind = "no-comparable-orders"
	StaleData          FailureKind = "stale-data"
	DuplicateOrder     FailureKind = "duplicate-order"
	UnknownFailure     FailureKind = "unknown"
)

// KindOf classifies an error into one of the failure kinds.
func KindOf(err error) FailureKind {
	switch {
	case errors.Is(err, market.ErrTransport):
		return TransportFailure
	case errors.Is(err, market.ErrRemote):
		return RemoteError
	case errors.Is(err, ErrNoComparableOrders):
		return NoComparableOrders
	case errors.Is(err, ErrStaleData):
		return StaleData
	case errors.Is(err, ErrDuplicateOrder):
		return DuplicateOrder
	}
	return UnknownFailure
}

// Failure records a per-segment or per-order failure in a cycle. Failures
// are collected into the cycle report instead of aborting the cycle.
type Failure struct {
	Kind FailureKind

	// Op names the stage or the remote call that failed.
	Op string

	Segment market.Segment

	// OrderID is empty for segment level failures.
	OrderID market.OrderID

	Detail string

	err error
}

func newFailure(op string, seg market.Segment, id market.OrderID, err error) *Failure {
	return &Failure{
		Kind:    KindOf(err),
		Op:      op,
		Segment: seg,
		OrderID: id,
		Detail:  err.Error(),
		err:     err,
	}
}

func (f *Failure) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", f.Op, f.Segment)
	if f.OrderID != "" {
		fmt.Fprintf(&sb, ": order %s", f.OrderID)
	}
	fmt.Fprintf(&sb, ": %s", f.Detail)
	return sb.String()
}

func (f *Failure) Unwrap() error {
	return f.err
}
