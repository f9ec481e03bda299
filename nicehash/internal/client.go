// Copyright (c) 2025 BVK Chaitanya

package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bvk/hashbid/market"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

type Client struct {
	opts Options

	restURL *url.URL

	apiID, apiKey string

	client http.Client

	limiter *rate.Limiter
}

// New returns a new client instance.
func New(apiID, apiKey string, opts *Options) (*Client, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	restURL, err := url.Parse(opts.RestURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		opts:    *opts,
		restURL: restURL,
		apiID:   apiID,
		apiKey:  apiKey,
		client: http.Client{
			Timeout: opts.HttpClientTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(opts.CallInterval), 1),
	}
	return c, nil
}

func (c *Client) segmentValues(location, algo int) url.Values {
	values := make(url.Values)
	values.Set("id", c.apiID)
	values.Set("key", c.apiKey)
	values.Set("location", strconv.Itoa(location))
	values.Set("algo", strconv.Itoa(algo))
	return values
}

// GetMyOrders returns the orders owned by the api user in a location and
// algorithm.
func (c *Client) GetMyOrders(ctx context.Context, location, algo int) (*GetOrdersResponse, error) {
	resp := new(GetOrdersResponse)
	values := c.segmentValues(location, algo)
	if err := callJSON(ctx, c, "orders.get", []string{"my"}, values, resp); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not get own orders", "location", location, "algo", algo, "err", err)
		}
		return nil, err
	}
	return resp, nil
}

// GetOrders returns all orders in a location and algorithm.
func (c *Client) GetOrders(ctx context.Context, location, algo int) (*GetOrdersResponse, error) {
	resp := new(GetOrdersResponse)
	values := c.segmentValues(location, algo)
	if err := callJSON(ctx, c, "orders.get", nil, values, resp); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not get market orders", "location", location, "algo", algo, "err", err)
		}
		return nil, err
	}
	return resp, nil
}

// SetPrice updates an order's price. Marketplace only accepts increases
// through this method.
func (c *Client) SetPrice(ctx context.Context, location, algo int, orderID int64, price decimal.Decimal) (*SetPriceResponse, error) {
	resp := new(SetPriceResponse)
	values := c.segmentValues(location, algo)
	values.Set("order", strconv.FormatInt(orderID, 10))
	values.Set("price", price.StringFixed(4))
	if err := callJSON(ctx, c, "orders.set.price", nil, values, resp); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not set order price", "order", orderID, "price", price, "err", err)
		}
		return nil, err
	}
	return resp, nil
}

// DecreasePrice lowers an order's price by a fixed step chosen by the
// marketplace.
func (c *Client) DecreasePrice(ctx context.Context, location, algo int, orderID int64) (*SetPriceResponse, error) {
	resp := new(SetPriceResponse)
	values := c.segmentValues(location, algo)
	values.Set("order", strconv.FormatInt(orderID, 10))
	if err := callJSON(ctx, c, "orders.set.price.decrease", nil, values, resp); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not decrease order price", "order", orderID, "err", err)
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) methodURL(method string, flags []string, values url.Values) *url.URL {
	var sb strings.Builder
	sb.WriteString("method=")
	sb.WriteString(url.QueryEscape(method))
	for _, f := range flags {
		sb.WriteRune('&')
		sb.WriteString(url.QueryEscape(f))
	}
	if len(values) != 0 {
		sb.WriteRune('&')
		sb.WriteString(values.Encode())
	}
	return &url.URL{
		Scheme:   c.restURL.Scheme,
		Host:     c.restURL.Host,
		Path:     c.restURL.Path,
		RawQuery: sb.String(),
	}
}

// callJSON waits for the rate limiter, performs a single api call and decodes
// the result object into the response. Application level errors in the
// result object are reported as market.ErrRemote and everything else, except
// context errors, as market.ErrTransport.
func callJSON[PT *T, T any](ctx context.Context, c *Client, method string, flags []string, values url.Values, response PT) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return err
	}

	addrURL := c.methodURL(method, flags, values)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addrURL.String(), nil)
	if err != nil {
		slog.Error("could not create http get request with context", "method", method, "err", err)
		return err
	}

	s := time.Now()
	resp, err := c.client.Do(req)
	if d := time.Since(s); d > c.opts.HttpClientTimeout {
		slog.Warn(fmt.Sprintf("%s request took %s which is more than the http client timeout %s", method, d, c.opts.HttpClientTimeout))
	}
	if err != nil {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return fmt.Errorf("could not call %s: %v: %w", method, err, market.ErrTransport)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if body, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
			slog.Warn("http get returned unsuccessful status code", "method", method, "status-code", resp.StatusCode, "response", string(body))
		}
		return fmt.Errorf("%s returned http status %d (%s): %w", method, resp.StatusCode, http.StatusText(resp.StatusCode), market.ErrTransport)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return fmt.Errorf("could not read %s response: %v: %w", method, err, market.ErrTransport)
	}

	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		slog.Error("could not unmarshal into response envelope", "method", method, "response", string(data), "err", err)
		return fmt.Errorf("could not decode %s response: %v: %w", method, err, market.ErrTransport)
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return fmt.Errorf("%s response has no result object: %w", method, market.ErrTransport)
	}

	var errResult ErrorResult
	if err := json.Unmarshal(envelope.Result, &errResult); err == nil && errResult.Error != "" {
		name := envelope.Method
		if name == "" {
			name = method
		}
		return fmt.Errorf("%s failed with %q: %w", name, errResult.Error, market.ErrRemote)
	}

	if err := json.Unmarshal(envelope.Result, response); err != nil {
		slog.Error("could not decode result object", "method", method, "err", err)
		return fmt.Errorf("could not decode %s result: %v: %w", method, err, market.ErrTransport)
	}
	return nil
}
