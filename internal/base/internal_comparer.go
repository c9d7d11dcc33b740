// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

// InternalKeyComparerName is the name reported by InternalKeyComparer. It
// matches the name used by LevelDB for the same ordering.
const InternalKeyComparerName = "leveldb.InternalKeyComparator"

// InternalKeyComparer is a Comparer over encoded internal keys (see
// InternalKey.Encode). It orders keys by user key under the wrapped User
// comparer and then by descending trailer, so that for a given user key newer
// versions sort first. Keys shorter than the trailer are decoded as invalid
// keys with an empty user key.
type InternalKeyComparer struct {
	User Comparer
}

var _ Comparer = InternalKeyComparer{}

// Compare implements Comparer.
func (c InternalKeyComparer) Compare(a, b []byte) int {
	return InternalCompare(c.User, DecodeInternalKey(a), DecodeInternalKey(b))
}

// Name implements Comparer.
func (c InternalKeyComparer) Name() string { return InternalKeyComparerName }

// Separator implements Comparer. The user key portion of start is shortened
// with the wrapped comparer; when that yields a user key that is physically
// shorter but logically larger, the separator carries the maximal trailer so
// that it sorts before every real key with the same user key. Otherwise start
// is appended unchanged.
func (c InternalKeyComparer) Separator(dst, start, limit []byte) []byte {
	sk, lk := DecodeInternalKey(start), DecodeInternalKey(limit)
	n := len(dst)
	dst = c.User.Separator(dst, sk.UserKey, lk.UserKey)
	if sep := dst[n:]; len(sep) < len(sk.UserKey) && c.User.Compare(sk.UserKey, sep) < 0 {
		return MakeInternalKey(nil, SeqNumMax, InternalKeyKindMax).Append(dst)
	}
	return append(dst[:n], start...)
}

// Successor implements Comparer, following the same rules as Separator.
func (c InternalKeyComparer) Successor(dst, key []byte) []byte {
	k := DecodeInternalKey(key)
	n := len(dst)
	dst = c.User.Successor(dst, k.UserKey)
	if succ := dst[n:]; len(succ) < len(k.UserKey) && c.User.Compare(k.UserKey, succ) < 0 {
		return MakeInternalKey(nil, SeqNumMax, InternalKeyKindMax).Append(dst)
	}
	return append(dst[:n], key...)
}
