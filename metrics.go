// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package memtable

import (
	"github.com/cockroachdb/memtable/internal/manual"
	"github.com/cockroachdb/redact"
	"github.com/prometheus/client_golang/prometheus"
)

// TableMetrics holds the counters updated by tables. A single TableMetrics is
// typically shared by every table in a process. Nil fields are skipped.
type TableMetrics struct {
	// Adds counts entries added, including deletions.
	Adds prometheus.Counter
	// Tombstones counts deletion entries added.
	Tombstones prometheus.Counter
	// EntryBytes observes the encoded size of each added entry.
	EntryBytes prometheus.Histogram
	// Gets counts point lookups, labeled by result ("found", "deleted" or
	// "not_found").
	Gets *prometheus.CounterVec
	// ArenaFull counts adds rejected because the arena was full.
	ArenaFull prometheus.Counter
	// ArenaInUseBytes reports the arena memory currently held by live tables
	// across the process.
	ArenaInUseBytes prometheus.GaugeFunc
}

// NewTableMetrics constructs a full set of table metrics under the given
// namespace.
func NewTableMetrics(namespace string) *TableMetrics {
	const subsystem = "memtable"
	return &TableMetrics{
		Adds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "adds_total",
			Help:      "Number of entries added to memtables.",
		}),
		Tombstones: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tombstones_total",
			Help:      "Number of deletion entries added to memtables.",
		}),
		EntryBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "entry_bytes",
			Help:      "Encoded size of entries added to memtables.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		}),
		Gets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "gets_total",
			Help:      "Number of memtable point lookups by result.",
		}, []string{"result"}),
		ArenaFull: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "arena_full_total",
			Help:      "Number of adds rejected because the memtable arena was full.",
		}),
		ArenaInUseBytes: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "arena_in_use_bytes",
			Help:      "Bytes of arena memory held by live memtables.",
		}, func() float64 {
			return float64(manual.GetMetrics().InUseBytes)
		}),
	}
}

// Register registers every non-nil collector with r.
func (m *TableMetrics) Register(r prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *TableMetrics) collectors() []prometheus.Collector {
	var cs []prometheus.Collector
	add := func(c prometheus.Collector, ok bool) {
		if ok {
			cs = append(cs, c)
		}
	}
	add(m.Adds, m.Adds != nil)
	add(m.Tombstones, m.Tombstones != nil)
	add(m.EntryBytes, m.EntryBytes != nil)
	add(m.Gets, m.Gets != nil)
	add(m.ArenaFull, m.ArenaFull != nil)
	add(m.ArenaInUseBytes, m.ArenaInUseBytes != nil)
	return cs
}

func (m *TableMetrics) recordAdd(kind InternalKeyKind, entrySize int) {
	if m == nil {
		return
	}
	if m.Adds != nil {
		m.Adds.Inc()
	}
	if m.Tombstones != nil && kind == InternalKeyKindDelete {
		m.Tombstones.Inc()
	}
	if m.EntryBytes != nil {
		m.EntryBytes.Observe(float64(entrySize))
	}
}

func (m *TableMetrics) recordGet(res GetResult) {
	if m == nil || m.Gets == nil {
		return
	}
	m.Gets.WithLabelValues(res.label()).Inc()
}

func (m *TableMetrics) recordArenaFull() {
	if m == nil || m.ArenaFull == nil {
		return
	}
	m.ArenaFull.Inc()
}

// ArenaMetrics describes arena memory across all tables in the process.
type ArenaMetrics struct {
	// InUseBytes is the arena memory held by tables that have not yet been
	// destroyed.
	InUseBytes uint64
	// TotalBytes is the cumulative arena memory allocated since the process
	// started.
	TotalBytes uint64
}

// GetArenaMetrics returns process-wide arena memory statistics.
func GetArenaMetrics() ArenaMetrics {
	m := manual.GetMetrics()
	return ArenaMetrics{InUseBytes: m.InUseBytes, TotalBytes: m.TotalBytes}
}

func (m ArenaMetrics) String() string {
	return redact.StringWithoutMarkers(m)
}

// SafeFormat implements redact.SafeFormatter.
func (m ArenaMetrics) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("arena: %d in use, %d total", redact.Safe(m.InUseBytes), redact.Safe(m.TotalBytes))
}
