// Copyright (c) 2025 BVK Chaitanya

// Package nicehash implements market.Client for the NiceHash hashpower
// marketplace.
package nicehash

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/bvk/hashbid/market"
	"github.com/bvk/hashbid/nicehash/internal"
	"github.com/shopspring/decimal"
)

type Client struct {
	opts Options

	client *internal.Client
}

var _ market.Client = &Client{}

// New creates a marketplace client with the given credentials.
func New(creds *Credentials, opts *Options) (*Client, error) {
	if opts == nil {
		opts = new(Options)
	}
	if err := opts.Check(); err != nil {
		return nil, err
	}
	if err := creds.Check(); err != nil {
		return nil, err
	}

	iopts := &internal.Options{
		RestURL:           opts.RestURL,
		HttpClientTimeout: opts.HttpClientTimeout,
		CallInterval:      opts.CallInterval,
	}
	client, err := internal.New(creds.APIID, creds.APIKey, iopts)
	if err != nil {
		return nil, fmt.Errorf("could not create nicehash client: %w", err)
	}
	c := &Client{
		opts:   *opts,
		client: client,
	}
	return c, nil
}

func (c *Client) ListOwnOrders(ctx context.Context, seg market.Segment) ([]*market.Order, error) {
	resp, err := c.client.GetMyOrders(ctx, int(seg.Region), int(seg.Algorithm))
	if err != nil {
		return nil, err
	}
	return toOrders(seg, resp.Orders), nil
}

func (c *Client) ListMarketOrders(ctx context.Context, seg market.Segment) ([]*market.Order, error) {
	resp, err := c.client.GetOrders(ctx, int(seg.Region), int(seg.Algorithm))
	if err != nil {
		return nil, err
	}
	return toOrders(seg, resp.Orders), nil
}

func (c *Client) IncreasePrice(ctx context.Context, seg market.Segment, id market.OrderID, price decimal.Decimal) error {
	orderID, err := parseOrderID(id)
	if err != nil {
		return err
	}
	if _, err := c.client.SetPrice(ctx, int(seg.Region), int(seg.Algorithm), orderID, price); err != nil {
		return err
	}
	return nil
}

func (c *Client) DecreasePrice(ctx context.Context, seg market.Segment, id market.OrderID) error {
	orderID, err := parseOrderID(id)
	if err != nil {
		return err
	}
	if _, err := c.client.DecreasePrice(ctx, int(seg.Region), int(seg.Algorithm), orderID); err != nil {
		return err
	}
	return nil
}

func parseOrderID(id market.OrderID) (int64, error) {
	v, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("order id %q is not numeric: %w", id, os.ErrInvalid)
	}
	return v, nil
}

func toOrders(seg market.Segment, items []*internal.OrderData) []*market.Order {
	orders := make([]*market.Order, 0, len(items))
	for _, v := range items {
		if v.Algo != 0 && market.Algorithm(v.Algo) != seg.Algorithm {
			slog.Warn("order algorithm does not match the queried segment (ignored)", "segment", seg, "order", int64(v.ID), "algo", int64(v.Algo))
		}
		orders = append(orders, &market.Order{
			ID:            market.OrderID(strconv.FormatInt(int64(v.ID), 10)),
			Segment:       seg,
			Type:          market.OrderType(v.Type),
			Price:         v.Price,
			Workers:       int(v.Workers),
			AcceptedSpeed: v.AcceptedSpeed,
			Alive:         v.Alive,
			LimitSpeed:    v.LimitSpeed,
		})
	}
	return orders
}
