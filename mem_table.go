// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package memtable

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/memtable/internal/arenaskl"
	"github.com/cockroachdb/memtable/internal/base"
	"github.com/cockroachdb/memtable/internal/invariants"
	"github.com/cockroachdb/memtable/internal/manual"
	"github.com/cockroachdb/memtable/internal/memrepr"
)

// GetResult is the outcome of a point lookup.
type GetResult int8

const (
	// NotFound means no version of the key is visible at the snapshot.
	NotFound GetResult = iota
	// Found means the newest visible version of the key is a value.
	Found
	// Deleted means the newest visible version of the key is a deletion. The
	// caller must not consult older layers of the LSM for the key.
	Deleted
)

func (r GetResult) String() string {
	switch r {
	case NotFound:
		return "not found"
	case Found:
		return "found"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

func (r GetResult) label() string {
	switch r {
	case Found:
		return "found"
	case Deleted:
		return "deleted"
	default:
		return "not_found"
	}
}

var nextTableID atomic.Uint64

// A Table implements the in-memory layer of the LSM. A Table is mutable, but
// append-only. Records are added, but never removed. Deletion is supported via
// tombstones, but it is up to higher level code to process those tombstones
// when merging the table with older data.
//
// A Table is implemented on top of a lock-free arena-backed skiplist. An arena
// is a fixed size contiguous chunk of memory (see Options.ArenaSize). A
// table's memory consumption is thus fixed at the time of creation. The
// arena-backed skiplist provides both forward and reverse links which makes
// forward and reverse iteration the same speed.
//
// Add must be called by a single writer at a time. Get, NewIter and the
// accessors may be called concurrently with Add and with each other.
//
// A Table is reference counted. It starts with zero references; its creator is
// expected to take one with Ref. The arena is released when the count drops
// back to zero. Readers must hold a reference for as long as they use keys or
// values returned by the table, since those point into the arena.
type Table struct {
	cmp      Comparer
	skl      *arenaskl.Skiplist
	arenaBuf manual.Buf
	id       uint64

	refs       atomic.Int32
	destroyed  atomic.Bool
	entries    atomic.Uint64
	tombstones atomic.Uint64

	// writing is set for the duration of Add in invariant builds, to catch
	// concurrent writers.
	writing atomic.Bool
	// scratch is used by the writer to encode entries before they are copied
	// into the arena.
	scratch []byte

	events  EventListener
	metrics *TableMetrics
}

// NewTable returns a new, empty Table with zero references.
func NewTable(opts *Options) (*Table, error) {
	opts = opts.EnsureDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	m := &Table{
		cmp:      opts.Comparer,
		arenaBuf: manual.New(uintptr(opts.ArenaSize)),
		id:       nextTableID.Add(1),
		events:   *opts.EventListener,
		metrics:  opts.Metrics,
	}
	arena := arenaskl.NewArena(m.arenaBuf.Slice())
	m.skl = arenaskl.NewSkiplist(arena, memrepr.Compare(m.cmp))
	if opts.RandomSeed != 0 {
		m.skl.Seed(opts.RandomSeed)
	}
	m.events.TableCreated(m.Info())
	return m, nil
}

// Ref takes a reference on the table.
func (m *Table) Ref() {
	if invariants.Enabled && m.destroyed.Load() {
		panic(errors.AssertionFailedf("memtable: Ref of destroyed table %d", errors.Safe(m.id)))
	}
	m.refs.Add(1)
}

// Unref releases a reference. When the last reference is released the table
// is destroyed and Unref returns true. Releasing more references than were
// taken panics.
func (m *Table) Unref() bool {
	switch v := m.refs.Add(-1); {
	case v < 0:
		panic(errors.AssertionFailedf("memtable: inconsistent reference count: %d", errors.Safe(v)))
	case v == 0:
		m.destroy()
		return true
	default:
		return false
	}
}

// Refs returns the current reference count.
func (m *Table) Refs() int32 {
	return m.refs.Load()
}

func (m *Table) destroy() {
	if !m.destroyed.CompareAndSwap(false, true) {
		panic(errors.AssertionFailedf("memtable: table %d destroyed twice", errors.Safe(m.id)))
	}
	info := m.Info()
	manual.Free(m.arenaBuf)
	m.arenaBuf = manual.Buf{}
	m.events.TableDestroyed(info)
}

// Add adds an entry for userKey at seqNum. The value of a deletion is ignored
// and stored empty. The caller assigns sequence numbers; a (userKey, seqNum)
// pair must not be added twice and seqNum must not exceed SeqNumMax.
//
// If the arena has no room for the entry, Add returns ErrArenaFull and the
// table is unchanged. The caller is expected to stop writing to the table and
// continue in a new one.
//
// Add must not be called concurrently with another Add.
func (m *Table) Add(seqNum SeqNum, kind InternalKeyKind, userKey, value []byte) error {
	if invariants.Enabled {
		if !m.writing.CompareAndSwap(false, true) {
			panic(errors.AssertionFailedf("memtable: concurrent Add on table %d", errors.Safe(m.id)))
		}
		defer m.writing.Store(false)
		if m.destroyed.Load() {
			panic(errors.AssertionFailedf("memtable: Add to destroyed table %d", errors.Safe(m.id)))
		}
	}
	if seqNum > SeqNumMax {
		return base.AssertionFailedf("memtable: sequence number %d overflows the trailer", errors.Safe(uint64(seqNum)))
	}
	switch kind {
	case InternalKeyKindSet:
	case InternalKeyKindDelete:
		value = nil
	default:
		return errors.Newf("memtable: invalid key kind %s", kind)
	}

	m.scratch = memrepr.AppendEntry(m.scratch[:0], seqNum, kind, userKey, value)
	if err := m.skl.Add(m.scratch); err != nil {
		if errors.Is(err, arenaskl.ErrArenaFull) {
			m.metrics.recordArenaFull()
			m.events.ArenaFull(m.Info())
			return err
		}
		return errors.Wrapf(err, "memtable: adding %s", base.MakeInternalKey(userKey, seqNum, kind))
	}

	m.entries.Add(1)
	if kind == InternalKeyKindDelete {
		m.tombstones.Add(1)
	}
	m.metrics.recordAdd(kind, len(m.scratch))

	if invariants.Sometimes(1) {
		if _, res := m.get(userKey, seqNum); res == NotFound {
			panic(errors.AssertionFailedf("memtable: %s not found after Add",
				base.MakeInternalKey(userKey, seqNum, kind)))
		}
	}
	return nil
}

// Get returns the newest version of userKey visible at snapshot: Found with
// its value, Deleted if that version is a deletion, or NotFound if no version
// at or below snapshot exists. The returned value points into the arena and
// is only valid while the caller holds a reference on the table.
func (m *Table) Get(userKey []byte, snapshot SeqNum) (value []byte, res GetResult) {
	if invariants.Enabled && m.destroyed.Load() {
		panic(errors.AssertionFailedf("memtable: Get on destroyed table %d", errors.Safe(m.id)))
	}
	value, res = m.get(userKey, snapshot)
	m.metrics.recordGet(res)
	return value, res
}

func (m *Table) get(userKey []byte, snapshot SeqNum) ([]byte, GetResult) {
	lkey := memrepr.MakeLookupKey(userKey, snapshot)
	it := m.skl.NewIter()
	if !it.SeekGE(lkey.MemtableKey()) {
		return nil, NotFound
	}
	ikey, v, err := memrepr.DecodeEntry(it.Entry())
	if err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "memtable: table %d", errors.Safe(m.id)))
	}
	if !base.Equal(m.cmp, ikey.UserKey, userKey) {
		return nil, NotFound
	}
	if invariants.Enabled && !ikey.Visible(snapshot) {
		panic(errors.AssertionFailedf("memtable: lookup at %s returned %s", snapshot, ikey))
	}
	if ikey.Kind() == InternalKeyKindDelete {
		return nil, Deleted
	}
	return v, Found
}

// NewIter returns an iterator over every entry in the table, in internal key
// order: user keys ascending and, within a user key, newest version first.
// The iterator holds a reference on the table until it is closed.
//
// Entries added after the iterator is created may or may not be observed.
func (m *Table) NewIter() *Iterator {
	m.Ref()
	return &Iterator{table: m, iter: m.skl.NewIter()}
}

// ApproximateMemoryUsage returns the number of arena bytes in use, including
// the skiplist's own overhead.
func (m *Table) ApproximateMemoryUsage() uint64 {
	return uint64(min(m.skl.Size(), m.skl.Arena().Capacity()))
}

// Available returns the number of bytes left in the arena.
func (m *Table) Available() uint64 {
	return uint64(m.skl.Arena().Capacity()) - m.ApproximateMemoryUsage()
}

// HasRoom returns true if an entry with the given user key and value lengths
// is guaranteed to fit in the remaining arena space.
func (m *Table) HasRoom(userKeyLen, valueLen int) bool {
	size := arenaskl.MaxNodeSize(uint32(memrepr.EntrySize(userKeyLen, valueLen)))
	return size <= m.Available()
}

// Empty returns true if no entry has been added to the table.
func (m *Table) Empty() bool {
	return m.entries.Load() == 0
}

// Comparer returns the user key comparer of the table.
func (m *Table) Comparer() Comparer {
	return m.cmp
}

// Info returns a snapshot of the table's size and contents.
func (m *Table) Info() TableInfo {
	return TableInfo{
		ID:            m.id,
		Entries:       m.entries.Load(),
		Tombstones:    m.tombstones.Load(),
		ArenaSize:     m.ApproximateMemoryUsage(),
		ArenaCapacity: uint64(m.skl.Arena().Capacity()),
	}
}

// String implements fmt.Stringer.
func (m *Table) String() string {
	return m.Info().String()
}
