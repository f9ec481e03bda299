// Copyright (c) 2025 BVK Chaitanya

package nicehash

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/bvk/hashbid/market"
	"github.com/shopspring/decimal"
)

func TestListOrders(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"result":{"orders":[
			{"id":5001,"type":0,"algo":39,"price":"0.0045","workers":5,"accepted_speed":"0.00000120","limit_speed":"0","alive":true}
		]},"method":"orders.get"}`)
	}))
	defer s.Close()

	creds := &Credentials{APIID: "1", APIKey: "k"}
	c, err := New(creds, &Options{RestURL: s.URL, CallInterval: time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	seg := market.Segment{Region: market.RegionUSA, Algorithm: market.GrinCuckaroo31}
	orders, err := c.ListMarketOrders(context.Background(), seg)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 {
		t.Fatalf("want one order, got %d", len(orders))
	}
	o := orders[0]
	if o.ID != "5001" || o.Segment != seg || o.Type != market.RentalOrder || o.Workers != 5 || !o.Alive {
		t.Fatalf("unexpected order %#v", o)
	}
	if !o.Price.Equal(decimal.RequireFromString("0.0045")) {
		t.Fatalf("unexpected price %s", o.Price)
	}
}

func TestInvalidInputs(t *testing.T) {
	if _, err := New(&Credentials{APIID: "1"}, nil); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want ErrInvalid for missing key, got %v", err)
	}

	c, err := New(&Credentials{APIID: "1", APIKey: "k"}, &Options{RestURL: "http://127.0.0.1:1/api", CallInterval: time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	seg := market.Segment{Region: market.RegionEU, Algorithm: market.GrinCuckaroo29}
	if err := c.DecreasePrice(context.Background(), seg, "abc"); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want ErrInvalid for non-numeric id, got %v", err)
	}
	if err := c.DecreasePrice(context.Background(), seg, "42"); !errors.Is(err, market.ErrTransport) {
		t.Fatalf("want ErrTransport for unreachable endpoint, got %v", err)
	}
}
