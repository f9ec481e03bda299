// Copyright (c) 2025 BVK Chaitanya

package daemon

import (
	"fmt"
	"io"
	"os"
	"time"
)

type Options struct {
	// LoopDelay is the pause between the end of one cycle and the start of the
	// next.
	LoopDelay time.Duration

	// AlertFreeze is the minimum interval between two alerts of the same kind.
	AlertFreeze time.Duration

	// HistoryLimit is the default number of cycles returned by the history
	// api.
	HistoryLimit int

	// Console receives the per-cycle report tables. Defaults to os.Stdout.
	Console io.Writer
}

func (v *Options) setDefaults() {
	if v.AlertFreeze == 0 {
		v.AlertFreeze = time.Hour
	}
	if v.HistoryLimit == 0 {
		v.HistoryLimit = 10
	}
	if v.Console == nil {
		v.Console = os.Stdout
	}
}

func (v *Options) Check() error {
	if v.LoopDelay <= 0 {
		return fmt.Errorf("loop delay must be positive: %w", os.ErrInvalid)
	}
	if v.AlertFreeze < 0 {
		return fmt.Errorf("alert freeze interval cannot be negative: %w", os.ErrInvalid)
	}
	if v.HistoryLimit < 0 {
		return fmt.Errorf("history limit cannot be negative: %w", os.ErrInvalid)
	}
	return nil
}
