// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/memtable/internal/invariants"
)

// ErrCorruption is a marker to indicate that data in a file (WAL, MANIFEST,
// sstable) or an in-memory entry is corrupted.
var ErrCorruption = errors.New("memtable: corruption")

// ErrComparerMismatch is a marker for errors returned when data ordered by one
// comparer is opened with a comparer of a different name.
var ErrComparerMismatch = errors.New("memtable: comparer mismatch")

// MarkCorruptionError marks given error as a corruption error.
func MarkCorruptionError(err error) error {
	if errors.Is(err, ErrCorruption) {
		return err
	}
	return errors.Mark(err, ErrCorruption)
}

// IsCorruptionError returns true if the given error indicates corruption.
func IsCorruptionError(err error) bool {
	return errors.Is(err, ErrCorruption)
}

// AssertionFailedf creates an assertion error and panics in invariants.Enabled
// builds. It should only be used when it indicates a bug.
func AssertionFailedf(format string, args ...interface{}) error {
	err := errors.AssertionFailedf(format, args...)
	if invariants.Enabled {
		panic(err)
	}
	return err
}
