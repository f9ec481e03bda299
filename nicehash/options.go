// Copyright (c) 2025 BVK Chaitanya

package nicehash

import (
	"fmt"
	"os"
	"time"
)

type Credentials struct {
	APIID  string `json:"api_id"`
	APIKey string `json:"api_key"`
}

func (v *Credentials) Check() error {
	if len(v.APIID) == 0 {
		return fmt.Errorf("nicehash api id cannot be empty: %w", os.ErrInvalid)
	}
	if len(v.APIKey) == 0 {
		return fmt.Errorf("nicehash api key cannot be empty: %w", os.ErrInvalid)
	}
	return nil
}

// Options configure the client. Zero values select the api layer defaults.
type Options struct {
	// RestURL overrides the api endpoint; used by tests.
	RestURL string

	// Timeout to use for the HTTP requests.
	HttpClientTimeout time.Duration

	// CallInterval is the minimum time between two api calls.
	CallInterval time.Duration
}

// Check validates the options.
func (v *Options) Check() error {
	if v.CallInterval < 0 {
		return fmt.Errorf("call interval cannot be negative: %w", os.ErrInvalid)
	}
	return nil
}
