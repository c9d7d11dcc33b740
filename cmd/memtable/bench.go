// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/memtable"
	"github.com/olekukonko/tablewriter"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

var benchConfig struct {
	arenaSize     int
	keys          int
	valueSize     int
	deletePercent int
	numOps        uint64
	seed          uint64
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "run a single-writer, multi-reader memtable benchmark",
	Long: `
Run one writer adding random keys to a memtable while --concurrency readers
perform point lookups at the latest published sequence number. When a
memtable's arena fills up the writer rotates to a fresh one, releasing its
reference on the old table; readers keep old tables alive until they are done
with them.
`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

// tableSet holds the memtable currently receiving writes.
type tableSet struct {
	opts      memtable.Options
	rotations atomic.Int64
	mu        sync.RWMutex
	cur       *memtable.Table
}

func newTableSet(opts memtable.Options) (*tableSet, error) {
	s := &tableSet{opts: opts}
	t, err := s.newTable()
	if err != nil {
		return nil, err
	}
	s.cur = t
	return s, nil
}

func (s *tableSet) newTable() (*memtable.Table, error) {
	opts := s.opts
	t, err := memtable.NewTable(&opts)
	if err != nil {
		return nil, err
	}
	t.Ref()
	return t, nil
}

// acquire returns the current table with a reference held for the caller.
func (s *tableSet) acquire() *memtable.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.cur.Ref()
	return s.cur
}

// mutable returns the current table. Only the writer may call it.
func (s *tableSet) mutable() *memtable.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func (s *tableSet) rotate() error {
	t, err := s.newTable()
	if err != nil {
		return err
	}
	s.mu.Lock()
	old := s.cur
	s.cur = t
	s.mu.Unlock()
	old.Unref()
	s.rotations.Add(1)
	return nil
}

func (s *tableSet) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.Unref()
	s.cur = nil
}

func makeKey(buf []byte, i int) []byte {
	return fmt.Appendf(buf[:0], "key%012d", i)
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg := benchConfig
	if duration == 0 && cfg.numOps == 0 {
		return errors.New("one of --duration or --num-ops must be set")
	}
	if cfg.keys <= 0 {
		return errors.Newf("--keys must be positive: %d", cfg.keys)
	}

	metrics := memtable.NewTableMetrics("bench")
	opts := memtable.Options{
		ArenaSize:  cfg.arenaSize,
		Metrics:    metrics,
		RandomSeed: cfg.seed,
	}
	if verbose {
		el := memtable.MakeLoggingEventListener(memtable.DefaultLogger)
		opts.EventListener = &el
	}
	tables, err := newTableSet(opts)
	if err != nil {
		return err
	}
	defer tables.close()

	ctx := context.Background()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}
	ctx, stopReaders := context.WithCancel(ctx)
	defer stopReaders()

	writeHist := newSharedHistogram()
	readHist := newSharedHistogram()
	var published atomic.Uint64

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stopReaders()
		rng := rand.New(rand.NewSource(cfg.seed))
		hist := newHistogram()
		defer func() { writeHist.merge(hist) }()

		value := make([]byte, cfg.valueSize)
		var key []byte
		for seq := memtable.SeqNum(1); cfg.numOps == 0 || uint64(seq) <= cfg.numOps; seq++ {
			if ctx.Err() != nil {
				return nil
			}
			key = makeKey(key, rng.Intn(cfg.keys))
			kind := memtable.InternalKeyKindSet
			if rng.Intn(100) < cfg.deletePercent {
				kind = memtable.InternalKeyKindDelete
			}
			_, _ = rng.Read(value)

			opStart := time.Now()
			err := tables.mutable().Add(seq, kind, key, value)
			if errors.Is(err, memtable.ErrArenaFull) {
				if err := tables.rotate(); err != nil {
					return err
				}
				err = tables.mutable().Add(seq, kind, key, value)
			}
			if err != nil {
				return errors.Wrapf(err, "writing seq %d", seq)
			}
			_ = hist.RecordValue(clampLatency(time.Since(opStart)).Nanoseconds())
			published.Store(uint64(seq))
		}
		return nil
	})

	for i := 0; i < concurrency; i++ {
		seed := cfg.seed + uint64(i) + 1
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed))
			hist := newHistogram()
			defer func() { readHist.merge(hist) }()

			var key []byte
			for ctx.Err() == nil {
				key = makeKey(key, rng.Intn(cfg.keys))
				t := tables.acquire()
				opStart := time.Now()
				t.Get(key, memtable.SeqNum(published.Load()))
				_ = hist.RecordValue(clampLatency(time.Since(opStart)).Nanoseconds())
				t.Unref()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	out := cmd.OutOrStdout()
	printLatencies(out, elapsed, writeHist.snapshot(), readHist.snapshot())
	fmt.Fprintln(out)
	printGetResults(out, metrics)
	fmt.Fprintf(out, "\nrotations: %d, %s\n", tables.rotations.Load(), memtable.GetArenaMetrics())
	return nil
}

func clampLatency(d time.Duration) time.Duration {
	if d < minLatency {
		return minLatency
	}
	if d > maxLatency {
		return maxLatency
	}
	return d
}

func printLatencies(w io.Writer, elapsed time.Duration, add, get *hdrhistogram.Histogram) {
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"op", "ops", "ops/sec", "avg(ns)", "p50(ns)", "p95(ns)", "p99(ns)", "pMax(ns)"})
	for _, row := range []struct {
		name string
		h    *hdrhistogram.Histogram
	}{{"add", add}, {"get", get}} {
		tbl.Append([]string{
			row.name,
			fmt.Sprintf("%d", row.h.TotalCount()),
			fmt.Sprintf("%.1f", float64(row.h.TotalCount())/elapsed.Seconds()),
			fmt.Sprintf("%.1f", row.h.Mean()),
			fmt.Sprintf("%d", row.h.ValueAtQuantile(50)),
			fmt.Sprintf("%d", row.h.ValueAtQuantile(95)),
			fmt.Sprintf("%d", row.h.ValueAtQuantile(99)),
			fmt.Sprintf("%d", row.h.ValueAtQuantile(100)),
		})
	}
	tbl.Render()
}

func printGetResults(w io.Writer, metrics *memtable.TableMetrics) {
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"get result", "count"})
	for _, label := range []string{"found", "deleted", "not_found"} {
		var m dto.Metric
		if err := metrics.Gets.WithLabelValues(label).Write(&m); err != nil {
			continue
		}
		tbl.Append([]string{label, fmt.Sprintf("%.0f", m.GetCounter().GetValue())})
	}
	tbl.Render()
}
