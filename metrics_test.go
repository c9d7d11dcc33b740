// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package memtable

import (
	"testing"

	"github.com/cockroachdb/memtable/internal/base"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func verifyCounter(t *testing.T, c prometheus.Counter, expected float64) {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, c.Write(metric))
	require.Equal(t, expected, metric.GetCounter().GetValue())
}

func verifyHistogramCount(t *testing.T, hist prometheus.Histogram, expectedCount uint64) {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, hist.Write(metric))
	require.Equal(t, expectedCount, metric.GetHistogram().GetSampleCount(), "histogram sample count mismatch")
}

func TestTableMetrics(t *testing.T) {
	metrics := NewTableMetrics("test")
	m := newTestTable(t, &Options{Metrics: metrics, ArenaSize: minArenaSize + 256})

	set(t, m, 1, "a", "1")
	set(t, m, 2, "b", "2")
	del(t, m, 3, "a")
	verifyCounter(t, metrics.Adds, 3)
	verifyCounter(t, metrics.Tombstones, 1)
	verifyHistogramCount(t, metrics.EntryBytes, 3)

	m.Get([]byte("a"), 3)
	m.Get([]byte("a"), 2)
	m.Get([]byte("b"), 3)
	m.Get([]byte("c"), 3)
	verifyCounter(t, metrics.Gets.WithLabelValues("deleted"), 1)
	verifyCounter(t, metrics.Gets.WithLabelValues("found"), 2)
	verifyCounter(t, metrics.Gets.WithLabelValues("not_found"), 1)

	// Fill the arena.
	var err error
	for i := 0; err == nil; i++ {
		err = m.Add(SeqNum(10+i), InternalKeyKindSet, []byte("c"), make([]byte, 100))
	}
	require.ErrorIs(t, err, ErrArenaFull)
	verifyCounter(t, metrics.ArenaFull, 1)

	metric := &dto.Metric{}
	require.NoError(t, metrics.ArenaInUseBytes.Write(metric))
	require.GreaterOrEqual(t, metric.GetGauge().GetValue(), float64(minArenaSize+256))
}

func TestTableMetricsRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewTableMetrics("test")
	require.NoError(t, metrics.Register(reg))
	// Registering the same collectors twice fails.
	require.Error(t, metrics.Register(reg))

	// Partially populated metrics register only what is set.
	partial := &TableMetrics{
		Adds: prometheus.NewCounter(prometheus.CounterOpts{Name: "partial_adds_total"}),
	}
	require.NoError(t, partial.Register(prometheus.NewRegistry()))
	m := newTestTable(t, &Options{Metrics: partial, Logger: base.NoopLogger{}})
	set(t, m, 1, "a", "1")
	m.Get([]byte("a"), 1)
	verifyCounter(t, partial.Adds, 1)

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	require.Contains(t, names, "test_memtable_adds_total")
	require.Contains(t, names, "test_memtable_arena_in_use_bytes")
}

func TestArenaMetrics(t *testing.T) {
	before := GetArenaMetrics()
	m, err := NewTable(&Options{Logger: base.NoopLogger{}, ArenaSize: 1 << 16})
	require.NoError(t, err)
	m.Ref()
	during := GetArenaMetrics()
	require.Equal(t, before.InUseBytes+1<<16, during.InUseBytes)
	require.True(t, m.Unref())
	after := GetArenaMetrics()
	require.Equal(t, before.InUseBytes, after.InUseBytes)
	require.Equal(t, before.TotalBytes+1<<16, after.TotalBytes)
	require.Contains(t, after.String(), "in use")
}
