// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package memtable

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/memtable/internal/arenaskl"
	"github.com/cockroachdb/memtable/internal/base"
	"github.com/cockroachdb/memtable/internal/invariants"
	"github.com/cockroachdb/memtable/internal/memrepr"
)

// Iterator iterates over the entries of a Table in internal key order. It is
// not safe for concurrent use, but any number of iterators may run alongside
// the table's writer.
//
// Keys and values returned by the iterator point into the table's arena and
// remain valid until the iterator is closed.
type Iterator struct {
	table *Table
	iter  arenaskl.Iterator
	key   InternalKey
	value []byte
	err   error

	// seekBuf holds the encoded search key of the last seek.
	seekBuf    []byte
	closeCheck invariants.CloseChecker
}

// SeekGE moves the iterator to the first entry whose user key is greater than
// or equal to the given key. It returns true if the iterator is positioned at
// a valid entry.
func (it *Iterator) SeekGE(userKey []byte) bool {
	return it.SeekInternalGE(base.MakeSearchKey(userKey, SeqNumMax))
}

// SeekInternalGE moves the iterator to the first entry whose internal key is
// greater than or equal to the given key. Seeking to MakeInternalKey(k, s,
// InternalKeyKindMax) positions the iterator at the newest version of k
// visible at snapshot s, if any.
func (it *Iterator) SeekInternalGE(key InternalKey) bool {
	it.seekBuf = memrepr.AppendLookupKey(it.seekBuf[:0], key.UserKey, key.SeqNum())
	if key.Kind() != InternalKeyKindMax {
		// AppendLookupKey always encodes the maximal kind; patch in the
		// requested trailer.
		n := len(it.seekBuf) - base.InternalTrailerLen
		it.seekBuf = base.MakeInternalKey(nil, key.SeqNum(), key.Kind()).Append(it.seekBuf[:n])
	}
	return it.decode(it.iter.SeekGE(it.seekBuf))
}

// SeekLT moves the iterator to the last entry whose user key is less than the
// given key. It returns true if the iterator is positioned at a valid entry.
func (it *Iterator) SeekLT(userKey []byte) bool {
	it.seekBuf = memrepr.AppendLookupKey(it.seekBuf[:0], userKey, SeqNumMax)
	return it.decode(it.iter.SeekLT(it.seekBuf))
}

// First moves the iterator to the first entry.
func (it *Iterator) First() bool {
	return it.decode(it.iter.First())
}

// Last moves the iterator to the last entry.
func (it *Iterator) Last() bool {
	return it.decode(it.iter.Last())
}

// Next moves the iterator to the next entry. Calling Next on an iterator that
// is not positioned at an entry is not permitted.
func (it *Iterator) Next() bool {
	if invariants.Enabled && !it.iter.Valid() {
		panic(errors.AssertionFailedf("memtable: Next on unpositioned iterator"))
	}
	return it.decode(it.iter.Next())
}

// Prev moves the iterator to the previous entry. Calling Prev on an iterator
// that is not positioned at an entry is not permitted.
func (it *Iterator) Prev() bool {
	if invariants.Enabled && !it.iter.Valid() {
		panic(errors.AssertionFailedf("memtable: Prev on unpositioned iterator"))
	}
	return it.decode(it.iter.Prev())
}

// Valid returns true if the iterator is positioned at an entry.
func (it *Iterator) Valid() bool {
	return it.err == nil && it.iter.Valid()
}

// Key returns the internal key of the current entry.
func (it *Iterator) Key() InternalKey {
	return it.key
}

// Value returns the value of the current entry. Deletions have an empty
// value.
func (it *Iterator) Value() []byte {
	return it.value
}

// Error returns any error encountered while decoding an entry. Once set, the
// iterator is no longer valid.
func (it *Iterator) Error() error {
	return it.err
}

// Close releases the iterator's reference on the table, which may destroy
// it. The iterator must not be used afterwards. Closing an iterator twice is
// a no-op outside of invariant builds.
func (it *Iterator) Close() error {
	it.closeCheck.Close()
	if it.table == nil {
		return it.err
	}
	err := it.err
	it.key, it.value = InternalKey{}, nil
	it.table.Unref()
	it.table = nil
	return err
}

func (it *Iterator) decode(valid bool) bool {
	it.closeCheck.AssertNotClosed()
	if !valid || it.err != nil {
		it.key, it.value = InternalKey{}, nil
		return false
	}
	k, v, err := memrepr.DecodeEntry(it.iter.Entry())
	if err != nil {
		it.err = errors.Wrapf(err, "memtable: table %d", errors.Safe(it.table.id))
		it.key, it.value = InternalKey{}, nil
		return false
	}
	it.key, it.value = k, v
	return true
}
