// Copyright (c) 2025 BVK Chaitanya

package internal

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

var RestURL = url.URL{
	Scheme: "https",
	Host:   "api.nicehash.com",
	Path:   "/api",
}

type Options struct {
	// RestURL is the base endpoint for all api methods.
	RestURL string

	// HttpClientTimeout is the timeout for a single api call, including the
	// response body.
	HttpClientTimeout time.Duration

	// CallInterval is the minimum spacing between two api calls. Marketplace
	// rejects price updates that arrive faster than its rate limit.
	CallInterval time.Duration
}

func (v *Options) setDefaults() {
	if v.RestURL == "" {
		v.RestURL = RestURL.String()
	}
	if v.HttpClientTimeout == 0 {
		v.HttpClientTimeout = 30 * time.Second
	}
	if v.CallInterval == 0 {
		v.CallInterval = 5 * time.Second
	}
}

// Check validates the options.
func (v *Options) Check() error {
	u, err := url.Parse(v.RestURL)
	if err != nil {
		return fmt.Errorf("invalid rest url %q: %w", v.RestURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("rest url %q must use http or https scheme: %w", v.RestURL, os.ErrInvalid)
	}
	if v.HttpClientTimeout < 0 {
		return fmt.Errorf("http client timeout cannot be negative: %w", os.ErrInvalid)
	}
	if v.CallInterval < 0 {
		return fmt.Errorf("call interval cannot be negative: %w", os.ErrInvalid)
	}
	return nil
}
