// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package memrepr provides functions for reading and writing the binary
// representation of memtable entries and lookup keys.
//
// An entry is stored in the memtable skiplist as
//
//	varint32(len(ikey)) || ikey || varint32(len(value)) || value
//
// where ikey is the encoded internal key (user key followed by the 8-byte
// trailer). A lookup key is the prefix of that layout,
//
//	varint32(len(ikey)) || ikey
//
// so entries and lookup keys can be ordered by the same comparison, which
// only looks at the length-prefixed internal key.
package memrepr

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/memtable/internal/base"
)

// ErrInvalidEntry indicates that an encoded entry is malformed.
var ErrInvalidEntry = base.MarkCorruptionError(errors.New("memtable: invalid entry"))

// EntrySize returns the encoded size of an entry with the given user key and
// value lengths.
func EntrySize(userKeyLen, valueLen int) int {
	ikeyLen := userKeyLen + base.InternalTrailerLen
	return uvarintLen(uint32(ikeyLen)) + ikeyLen + uvarintLen(uint32(valueLen)) + valueLen
}

// AppendEntry appends the encoded entry for (seqNum, kind, userKey, value) to
// buf and returns the extended buffer. The value of a deletion is expected to
// be empty but is encoded as given.
func AppendEntry(
	buf []byte, seqNum base.SeqNum, kind base.InternalKeyKind, userKey, value []byte,
) []byte {
	ikey := base.MakeInternalKey(userKey, seqNum, kind)
	buf = binary.AppendUvarint(buf, uint64(ikey.Size()))
	buf = ikey.Append(buf)
	buf = binary.AppendUvarint(buf, uint64(len(value)))
	return append(buf, value...)
}

// DecodeEntry splits an encoded entry into its internal key and value. Both
// returned slices alias entry.
func DecodeEntry(entry []byte) (base.InternalKey, []byte, error) {
	ikey, rest, ok := decodeStr(entry)
	if !ok || len(ikey) < base.InternalTrailerLen {
		return base.InvalidInternalKey, nil, errors.Wrapf(ErrInvalidEntry, "decoding internal key")
	}
	value, rest, ok := decodeStr(rest)
	if !ok {
		return base.InvalidInternalKey, nil, errors.Wrapf(ErrInvalidEntry, "decoding value")
	}
	if len(rest) != 0 {
		return base.InvalidInternalKey, nil, errors.Wrapf(ErrInvalidEntry, "%d trailing bytes", len(rest))
	}
	k := base.DecodeInternalKey(ikey)
	if !k.Valid() {
		return base.InvalidInternalKey, nil, errors.Wrapf(ErrInvalidEntry, "invalid key kind %s", k.Kind())
	}
	return k, value, nil
}

// InternalKey returns the length-prefixed internal key at the start of an
// encoded entry or lookup key, without the prefix. It returns nil if the
// prefix is malformed.
func InternalKey(b []byte) []byte {
	ikey, _, ok := decodeStr(b)
	if !ok {
		return nil
	}
	return ikey
}

// Compare returns a comparison over encoded entries and lookup keys that
// orders them by their internal keys under the given user key comparer.
func Compare(userCmp base.Comparer) func(a, b []byte) int {
	icmp := base.InternalKeyComparer{User: userCmp}
	return func(a, b []byte) int {
		return icmp.Compare(InternalKey(a), InternalKey(b))
	}
}

// LookupKey is an encoded search key for a user key as of a snapshot
// sequence number. Seeking a memtable to a LookupKey positions it at the
// newest entry for the user key whose sequence number is at or below the
// snapshot.
type LookupKey []byte

// MakeLookupKey encodes a lookup key for userKey at snapshot seqNum.
func MakeLookupKey(userKey []byte, snapshot base.SeqNum) LookupKey {
	return AppendLookupKey(nil, userKey, snapshot)
}

// AppendLookupKey appends the lookup key for userKey at snapshot seqNum to buf.
func AppendLookupKey(buf []byte, userKey []byte, snapshot base.SeqNum) LookupKey {
	ikey := base.MakeSearchKey(userKey, snapshot)
	buf = binary.AppendUvarint(buf, uint64(ikey.Size()))
	return ikey.Append(buf)
}

// MemtableKey returns the key suitable for seeking the memtable skiplist.
func (k LookupKey) MemtableKey() []byte {
	return k
}

// InternalKey returns the encoded internal key.
func (k LookupKey) InternalKey() []byte {
	return InternalKey(k)
}

// UserKey returns the user key.
func (k LookupKey) UserKey() []byte {
	ikey := k.InternalKey()
	return ikey[:len(ikey)-base.InternalTrailerLen]
}

// decodeStr decodes a varint length-prefixed string from data, returning the
// string and the remainder of data. It returns ok=false if the varint is
// invalid or the string is truncated.
func decodeStr(data []byte) (s []byte, rest []byte, ok bool) {
	v, n := binary.Uvarint(data)
	if n <= 0 || v > uint64(len(data)-n) {
		return nil, nil, false
	}
	data = data[n:]
	return data[:v:v], data[v:], true
}

func uvarintLen(v uint32) int {
	i := 1
	for v >= 0x80 {
		v >>= 7
		i++
	}
	return i
}
