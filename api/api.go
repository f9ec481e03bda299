// Copyright (c) 2025 BVK Chaitanya

package api

import (
	"fmt"
	"os"
	"time"

	"github.com/bvk/hashbid/engine"
	"github.com/bvk/hashbid/history"
)

const (
	StatusPath  = "/hashbid/status"
	HistoryPath = "/hashbid/history"
)

type StatusRequest struct {
}

type StatusResponse struct {
	Tier     string
	Segments []string

	StartTime time.Time

	// NumCycles is the number of completed cycles since the daemon started.
	NumCycles int64

	// LastReport is nil until the first cycle completes.
	LastReport *engine.Report
}

type HistoryRequest struct {
	// Limit is the maximum number of cycles to return. Zero means the server
	// default.
	Limit int
}

func (r *HistoryRequest) Check() error {
	if r.Limit < 0 {
		return fmt.Errorf("history limit cannot be negative: %w", os.ErrInvalid)
	}
	return nil
}

type HistoryResponse struct {
	Cycles []*history.Cycle
}
