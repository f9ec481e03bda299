// Copyright (c) 2025 BVK Chaitanya

package engine

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// Tier is a named aggressiveness profile for price adjustments.
type Tier string

const (
	Slow   Tier = "slow"
	Medium Tier = "medium"
	Fast   Tier = "fast"
)

// TierParams holds the per-cycle limits for a tier.
type TierParams struct {
	// MaxIncrease is the largest price increase applied to an order in one
	// cycle.
	MaxIncrease decimal.Decimal

	// TargetMinAdd is added to the lowest competing price to derive the target
	// price.
	TargetMinAdd decimal.Decimal
}

var tierParams = map[Tier]TierParams{
	Slow: {
		MaxIncrease:  decimal.RequireFromString("0.0001"),
		TargetMinAdd: decimal.RequireFromString("0.0000"),
	},
	Medium: {
		MaxIncrease:  decimal.RequireFromString("0.0002"),
		TargetMinAdd: decimal.RequireFromString("0.0001"),
	},
	Fast: {
		MaxIncrease:  decimal.RequireFromString("0.0005"),
		TargetMinAdd: decimal.RequireFromString("0.0001"),
	},
}

// ParseTier returns the tier for a case-insensitive tier name.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tierParams[t]; !ok {
		return "", fmt.Errorf("rate tier %q must be one of slow, medium or fast: %w", s, os.ErrInvalid)
	}
	return t, nil
}

func (t Tier) IsValid() bool {
	_, ok := tierParams[t]
	return ok
}

// Params returns the limits for the tier. Params of an unknown tier are zero.
func (t Tier) Params() TierParams {
	return tierParams[t]
}
