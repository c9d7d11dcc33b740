// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package base defines fundamental types used across the memtable module:
// comparers, internal keys and their trailers, and the error markers and
// logger interface shared by the other packages.
//
// # Internal keys
//
// Every write is stored under an internal key: the user key followed by an
// 8-byte little-endian trailer packing the sequence number (upper 56 bits)
// and the key kind (lower 8 bits). Internal keys order by user key ascending
// and then by trailer descending, so the newest version of a user key is
// encountered first. A reader at snapshot s seeks to the internal key
// (ukey, s, InternalKeyKindMax) and the first entry at or after that position
// is the newest version visible to it.
//
// # Comparers
//
// A Comparer orders user keys and produces shortened separator and successor
// keys. DefaultComparer is the bytewise order. InternalKeyComparer lifts a
// user Comparer to encoded internal keys.
package base
