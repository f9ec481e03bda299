// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bvk/hashbid/api"
	"github.com/bvk/hashbid/engine"
	"github.com/bvk/hashbid/history"
	"github.com/bvk/hashbid/market"
	"github.com/bvk/hashbid/subcmds/cmdutil"
	"github.com/shopspring/decimal"
	"github.com/visvasity/cli"
)

func TestBanner(t *testing.T) {
	var sb strings.Builder
	printBanner(&sb)
	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("want 3 banner lines, got %d", len(lines))
	}
	for _, line := range lines {
		if len(line) != 80 {
			t.Fatalf("banner line %q is not 80 columns", line)
		}
	}
	if !strings.Contains(lines[1], " Hash Manager ") {
		t.Fatalf("banner has no title: %q", lines[1])
	}
}

func newTestAPI(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(api.StatusPath, func(w http.ResponseWriter, r *http.Request) {
		seg := market.Segment{Region: market.RegionUSA, Algorithm: market.GrinCuckaroo31}
		resp := &api.StatusResponse{
			Tier:      "fast",
			Segments:  []string{seg.String()},
			StartTime: time.Now().Add(-time.Hour),
			NumCycles: 3,
			LastReport: &engine.Report{
				CycleID: "c3",
				Tier:    engine.Fast,
				Rows: []*engine.Row{{
					OrderID:     "4711",
					Segment:     seg,
					Price:       decimal.RequireFromString("0.0031"),
					HasTarget:   true,
					TargetPrice: decimal.RequireFromString("0.0036"),
					Delta:       decimal.RequireFromString("-0.0005"),
					Outcome:     "+0.0005",
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc(api.HistoryPath, func(w http.ResponseWriter, r *http.Request) {
		req := new(api.HistoryRequest)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil || req.Limit != 2 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		resp := &api.HistoryResponse{
			Cycles: []*history.Cycle{{
				CycleID: "c9",
				Tier:    "slow",
				Time:    time.Now(),
				Records: []*history.Record{{
					OrderID:   "4711",
					Region:    "EU",
					Algorithm: "GrinCuckaroo29",
					Price:     decimal.RequireFromString("0.0040"),
					Outcome:   "unavailable target: timeout",
				}},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	})
	s := httptest.NewServer(mux)
	t.Cleanup(s.Close)

	_, port, err := net.SplitHostPort(s.Listener.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv(cmdutil.PortEnv, port)
}

func runCommand(t *testing.T, cmd cli.Command, args ...string) string {
	t.Helper()
	_, fset, fun := cmd.Command()
	if err := fset.Parse(args); err != nil {
		t.Fatal(err)
	}
	var sb strings.Builder
	if err := fun(cli.WithStdout(context.Background(), &sb), fset.Args()); err != nil {
		t.Fatal(err)
	}
	return sb.String()
}

func TestStatusCommand(t *testing.T) {
	newTestAPI(t)
	out := runCommand(t, new(Status))
	for _, want := range []string{"Rate: fast", "Completed cycles: 3", "## Completed control loop: fast", "4711", "0.0036", "+0.0005"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output has no %q:\n%s", want, out)
		}
	}
}

func TestHistoryCommand(t *testing.T) {
	newTestAPI(t)
	out := runCommand(t, new(History), "-limit", "2")
	for _, want := range []string{"c9", "4711", "GrinCuckaroo29", "0.0040", "unavailable target: timeout"} {
		if !strings.Contains(out, want) {
			t.Errorf("history output has no %q:\n%s", want, out)
		}
	}
}

func TestSegmentsCommand(t *testing.T) {
	out := runCommand(t, new(Segments))
	for _, want := range []string{"EU", "US", "GrinCuckaroo29", "38", "GrinCuckaroo31", "39"} {
		if !strings.Contains(out, want) {
			t.Errorf("segments output has no %q:\n%s", want, out)
		}
	}
}
