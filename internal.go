// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package memtable

import (
	"github.com/cockroachdb/memtable/internal/arenaskl"
	"github.com/cockroachdb/memtable/internal/base"
)

// Comparer exports the base.Comparer type.
type Comparer = base.Comparer

// DefaultComparer exports the base.DefaultComparer variable.
var DefaultComparer = base.DefaultComparer

// InternalKeyComparer exports the base.InternalKeyComparer type.
type InternalKeyComparer = base.InternalKeyComparer

// SeqNum exports the base.SeqNum type.
type SeqNum = base.SeqNum

// SeqNumMax is the largest valid sequence number.
const SeqNumMax = base.SeqNumMax

// InternalKeyKind exports the base.InternalKeyKind type.
type InternalKeyKind = base.InternalKeyKind

// These constants are part of the entry format, and should not be changed.
const (
	InternalKeyKindDelete  = base.InternalKeyKindDelete
	InternalKeyKindSet     = base.InternalKeyKindSet
	InternalKeyKindMax     = base.InternalKeyKindMax
	InternalKeyKindInvalid = base.InternalKeyKindInvalid
)

// InternalKeyTrailer exports the base.InternalKeyTrailer type.
type InternalKeyTrailer = base.InternalKeyTrailer

// InternalKey exports the base.InternalKey type.
type InternalKey = base.InternalKey

// MakeInternalKey constructs an internal key from a specified user key,
// sequence number and kind.
func MakeInternalKey(userKey []byte, seqNum SeqNum, kind InternalKeyKind) InternalKey {
	return base.MakeInternalKey(userKey, seqNum, kind)
}

// MakeInternalKeyTrailer constructs a trailer from a specified sequence number
// and kind.
func MakeInternalKeyTrailer(seqNum SeqNum, kind InternalKeyKind) InternalKeyTrailer {
	return base.MakeTrailer(seqNum, kind)
}

// Logger exports the base.Logger type.
type Logger = base.Logger

// DefaultLogger exports the base.DefaultLogger variable.
var DefaultLogger = base.DefaultLogger

// CheckComparerName returns an error marked with ErrComparerMismatch if the
// comparer name recorded alongside persisted data differs from c.Name().
func CheckComparerName(persisted string, c Comparer) error {
	return base.CheckComparerName(persisted, c)
}

var (
	// ErrArenaFull is returned by Table.Add when the table's arena has no room
	// for the entry. The table is unchanged and remains readable.
	ErrArenaFull = arenaskl.ErrArenaFull
	// ErrRecordExists is returned by Table.Add when an entry with the same
	// internal key was already added.
	ErrRecordExists = arenaskl.ErrRecordExists
	// ErrComparerMismatch marks errors returned by CheckComparerName.
	ErrComparerMismatch = base.ErrComparerMismatch
	// ErrCorruption marks errors caused by malformed entries.
	ErrCorruption = base.ErrCorruption
)

// IsCorruptionError returns true if the given error indicates corruption.
func IsCorruptionError(err error) bool {
	return base.IsCorruptionError(err)
}
