// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package memtable

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/memtable/internal/arenaskl"
)

const (
	// DefaultArenaSize is the arena size used when Options.ArenaSize is zero.
	DefaultArenaSize = 4 << 20
	// MaxArenaSize is the largest supported arena. Arena offsets are 32 bits.
	MaxArenaSize = math.MaxUint32
)

// minArenaSize is the space taken by the skiplist head and tail nodes, plus
// the reserved nil offset.
var minArenaSize = 2*int(arenaskl.MaxNodeSize(0)) + 1

// Options holds the optional parameters for constructing a Table.
type Options struct {
	// Comparer defines the order of user keys. The name of the comparer is
	// recorded by whatever persists the table's contents; reading the data
	// back with a differently named comparer must fail (see
	// CheckComparerName).
	//
	// The default value uses the same ordering as bytes.Compare.
	Comparer Comparer

	// ArenaSize is the fixed amount of memory allocated for the table's
	// arena. Once it is exhausted, Add returns ErrArenaFull and the caller is
	// expected to freeze the table and continue in a new one.
	//
	// The default value is 4 MiB.
	ArenaSize int

	// Logger used to write log messages.
	//
	// The default logger uses the Go standard library log package.
	Logger Logger

	// EventListener provides hooks to listening to significant table events.
	// Unset hooks are no-ops.
	EventListener *EventListener

	// Metrics, if set, receives per-operation counters. Nil counters within
	// Metrics are skipped.
	Metrics *TableMetrics

	// RandomSeed seeds the generator that picks skiplist node heights. Zero
	// means a random seed; tests set it to get reproducible layouts.
	RandomSeed uint64
}

// EnsureDefaults ensures that the default values for all options are set if a
// valid value was not already specified. Returns the new options.
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	n := *o
	if n.Comparer == nil {
		n.Comparer = DefaultComparer
	}
	if n.ArenaSize <= 0 {
		n.ArenaSize = DefaultArenaSize
	}
	if n.Logger == nil {
		n.Logger = DefaultLogger
	}
	if n.EventListener == nil {
		n.EventListener = &EventListener{}
	}
	n.EventListener.EnsureDefaults(n.Logger)
	return &n
}

// Validate verifies that the options are mutually consistent.
func (o *Options) Validate() error {
	switch {
	case o.ArenaSize < minArenaSize:
		return errors.Newf("memtable: ArenaSize (%d) must be at least %d", errors.Safe(o.ArenaSize), errors.Safe(minArenaSize))
	case uint64(o.ArenaSize) > MaxArenaSize:
		return errors.Newf("memtable: ArenaSize (%d) must be less than %d", errors.Safe(o.ArenaSize), errors.Safe(uint64(MaxArenaSize)))
	case o.Comparer.Name() == "":
		return errors.New("memtable: Comparer must have a name")
	}
	return nil
}
