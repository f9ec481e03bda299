// Copyright (c) 2025 BVK Chaitanya

package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Int is an integer that is encoded either as a json number or as a json
// string holding a number. Marketplace responses are not consistent about it.
type Int int64

func (v *Int) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	if s == "null" || s == "" {
		*v = 0
		return nil
	}
	x, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("could not parse %s as an integer: %w", data, err)
	}
	*v = Int(x)
	return nil
}

func (v Int) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(v), 10)), nil
}

// Envelope is the common wrapper around every api response.
type Envelope struct {
	Result json.RawMessage `json:"result"`
	Method string          `json:"method"`
}

// ErrorResult is the payload of a result object that reports a failure.
type ErrorResult struct {
	Error string `json:"error"`
}

type OrderData struct {
	ID   Int `json:"id"`
	Type Int `json:"type"`
	Algo Int `json:"algo"`

	Price         decimal.Decimal `json:"price"`
	Workers       Int             `json:"workers"`
	AcceptedSpeed decimal.Decimal `json:"accepted_speed"`
	LimitSpeed    decimal.Decimal `json:"limit_speed"`
	Alive         bool            `json:"alive"`
}

type GetOrdersResponse struct {
	Orders []*OrderData `json:"orders"`
}

type SetPriceResponse struct {
	Success string `json:"success"`
}
