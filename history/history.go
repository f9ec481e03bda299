// Copyright (c) 2025 BVK Chaitanya

// Package history keeps a persistent log of the per-order outcomes of every
// control cycle. The in-memory order cache is never restored from it.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/bvk/hashbid/engine"
	"github.com/bvk/hashbid/kvutil"
	"github.com/bvkgo/kv"
	"github.com/shopspring/decimal"
	"github.com/visvasity/topic"
)

const Keyspace = "/hashbid/history"

// Record is the stored outcome for one order in one cycle.
type Record struct {
	CycleID string
	Tier    string
	Time    time.Time

	OrderID   string
	Region    string
	Algorithm string

	Price       decimal.Decimal
	HasTarget   bool
	TargetPrice decimal.Decimal
	Delta       decimal.Decimal
	Outcome     string
}

// Cycle groups the records of one control cycle.
type Cycle struct {
	CycleID string
	Tier    string
	Time    time.Time

	Records []*Record
}

type Options struct {
	// MaxAge is the retention period for history records.
	MaxAge time.Duration
}

func (v *Options) setDefaults() {
	if v.MaxAge == 0 {
		v.MaxAge = 30 * 24 * time.Hour
	}
}

func (v *Options) Check() error {
	if v.MaxAge < 0 {
		return fmt.Errorf("history retention period cannot be negative: %w", os.ErrInvalid)
	}
	return nil
}

type Store struct {
	db kv.Database

	opts Options
}

func New(db kv.Database, opts *Options) (*Store, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	return &Store{db: db, opts: *opts}, nil
}

// cycleDir returns the key directory for a cycle. Zero padded nanoseconds
// keep the keys in time order.
func cycleDir(at time.Time) string {
	return path.Join(Keyspace, fmt.Sprintf("%020d", at.UnixNano()))
}

func parseCycleTime(key string) (time.Time, error) {
	rest := strings.TrimPrefix(key, Keyspace+"/")
	dir, _, ok := strings.Cut(rest, "/")
	if !ok {
		return time.Time{}, fmt.Errorf("history key %q has no cycle directory: %w", key, os.ErrInvalid)
	}
	nanos, err := strconv.ParseInt(dir, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("history key %q has an invalid cycle time: %w", key, os.ErrInvalid)
	}
	return time.Unix(0, nanos).UTC(), nil
}

// Save stores one record per report row. Reports with no rows are not
// stored.
func (s *Store) Save(ctx context.Context, report *engine.Report) error {
	if len(report.Rows) == 0 {
		return nil
	}
	dir := cycleDir(report.EndTime)
	save := func(ctx context.Context, rw kv.ReadWriter) error {
		for _, row := range report.Rows {
			rec := &Record{
				CycleID:     report.CycleID,
				Tier:        string(report.Tier),
				Time:        report.EndTime,
				OrderID:     string(row.OrderID),
				Region:      row.Segment.Region.String(),
				Algorithm:   row.Segment.Algorithm.String(),
				Price:       row.Price,
				HasTarget:   row.HasTarget,
				TargetPrice: row.TargetPrice,
				Delta:       row.Delta,
				Outcome:     row.Outcome,
			}
			key := path.Join(dir, rec.OrderID)
			if err := kvutil.Set(ctx, rw, key, rec); err != nil {
				return fmt.Errorf("could not save history record at %q: %w", key, err)
			}
		}
		return nil
	}
	if err := kv.WithReadWriter(ctx, s.db, save); err != nil {
		slog.Error("could not save cycle history", "cycle", report.CycleID, "err", err)
		return err
	}
	return nil
}

// Recent returns up to limit most recent cycles, newest first. A zero limit
// returns all cycles.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Cycle, error) {
	var cycles []*Cycle
	collect := func(ctx context.Context, key string, rec *Record) error {
		at, err := parseCycleTime(key)
		if err != nil {
			slog.Warn("skipping malformed history key", "key", key, "err", err)
			return nil
		}
		if n := len(cycles); n == 0 || !cycles[n-1].Time.Equal(at) {
			if limit > 0 && n == limit {
				return kvutil.ErrStop
			}
			cycles = append(cycles, &Cycle{CycleID: rec.CycleID, Tier: rec.Tier, Time: at})
		}
		last := cycles[len(cycles)-1]
		last.Records = append(last.Records, rec)
		return nil
	}
	begin, end := kvutil.PathRange(Keyspace)
	load := func(ctx context.Context, r kv.Reader) error {
		return kvutil.Descend(ctx, r, begin, end, collect)
	}
	if err := kv.WithReader(ctx, s.db, load); err != nil {
		return nil, fmt.Errorf("could not load history records: %w", err)
	}
	// Records within a cycle are in descending key order.
	for _, c := range cycles {
		for i, j := 0, len(c.Records)-1; i < j; i, j = i+1, j-1 {
			c.Records[i], c.Records[j] = c.Records[j], c.Records[i]
		}
	}
	return cycles, nil
}

// Prune deletes the records older than the retention period and returns the
// number of deleted records.
func (s *Store) Prune(ctx context.Context, now time.Time) (n int, err error) {
	begin, _ := kvutil.PathRange(Keyspace)
	end := cycleDir(now.Add(-s.opts.MaxAge))
	prune := func(ctx context.Context, rw kv.ReadWriter) (err error) {
		n, err = kvutil.DeleteRange(ctx, rw, begin, end)
		return err
	}
	if err := kv.WithReadWriter(ctx, s.db, prune); err != nil {
		return 0, fmt.Errorf("could not prune history records: %w", err)
	}
	return n, nil
}

// Run saves every report delivered to the receiver until the context is
// canceled. Old records are pruned once per saved report. Receiver is closed
// when Run returns.
func (s *Store) Run(ctx context.Context, receiver *topic.Receiver[*engine.Report]) error {
	defer receiver.Close()

	reportCh, err := topic.ReceiveCh(receiver)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)

		case report, ok := <-reportCh:
			if !ok {
				return nil
			}
			if err := s.Save(ctx, report); err != nil {
				continue
			}
			if n, err := s.Prune(ctx, report.EndTime); err != nil {
				slog.Warn("could not prune old history records (ignored)", "err", err)
			} else if n > 0 {
				slog.Info("pruned old history records", "count", n)
			}
		}
	}
}
