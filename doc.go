// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package memtable provides the in-memory write buffer of a log-structured
// key-value store: an ordered, versioned, append-only table that absorbs
// writes before they are flushed to immutable sorted files.
//
// Every write is stored under an internal key combining the user key, a
// caller-assigned sequence number and the kind of write (a value or a
// deletion). For a given user key newer versions sort first, so a point
// lookup at a snapshot sequence number seeks directly to the newest visible
// version:
//
//	opts := &memtable.Options{ArenaSize: 64 << 20}
//	t, err := memtable.NewTable(opts)
//	if err != nil {
//		return err
//	}
//	t.Ref()
//	defer t.Unref()
//
//	_ = t.Add(1, memtable.InternalKeyKindSet, []byte("a"), []byte("v1"))
//	_ = t.Add(2, memtable.InternalKeyKindDelete, []byte("a"), nil)
//	v, res := t.Get([]byte("a"), 1) // "v1", memtable.Found
//	_, res = t.Get([]byte("a"), 2)  // memtable.Deleted
//
// A table has one writer and any number of concurrent readers. Its memory is
// a fixed-size arena allocated up front; when the arena is exhausted Add
// returns ErrArenaFull and the owner is expected to freeze the table and
// continue in a new one. The arena is released when the last reference to the
// table is dropped.
//
// The ordering of user keys is pluggable through the Comparer interface, which
// also produces the short separator and successor keys used by the builders
// of on-disk index blocks.
package memtable // import "github.com/cockroachdb/memtable"
