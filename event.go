// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package memtable

import (
	"github.com/cockroachdb/crlib/crhumanize"
	"github.com/cockroachdb/redact"
)

// TableInfo contains the info for a table event.
type TableInfo struct {
	// ID is a process-unique identifier assigned when the table is created.
	ID uint64
	// Entries is the number of entries added to the table.
	Entries uint64
	// Tombstones is the number of deletion entries among Entries.
	Tombstones uint64
	// ArenaSize is the number of arena bytes in use.
	ArenaSize uint64
	// ArenaCapacity is the fixed size of the arena.
	ArenaCapacity uint64
}

func (i TableInfo) String() string {
	return redact.StringWithoutMarkers(i)
}

// SafeFormat implements redact.SafeFormatter.
func (i TableInfo) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("[memtable %d] %d entries (%d tombstones), %s of %s",
		redact.Safe(i.ID), redact.Safe(i.Entries), redact.Safe(i.Tombstones),
		crhumanize.Bytes(i.ArenaSize, crhumanize.Compact, crhumanize.OmitI),
		crhumanize.Bytes(i.ArenaCapacity, crhumanize.Compact, crhumanize.OmitI))
}

// EventListener contains a set of functions that will be invoked when various
// significant table events occur. Note that the functions should not run for
// an excessive amount of time as they are invoked synchronously by the table
// and may block the writer or the goroutine releasing the last reference.
type EventListener struct {
	// TableCreated is invoked after a table has been constructed.
	TableCreated func(TableInfo)

	// TableDestroyed is invoked when the last reference to a table is released
	// and its arena is freed.
	TableDestroyed func(TableInfo)

	// ArenaFull is invoked when an Add is rejected because the arena has no
	// room left for the entry.
	ArenaFull func(TableInfo)
}

// EnsureDefaults ensures that background error events are logged to the
// specified logger if a handler for those events hasn't been otherwise
// specified. Ensure all handlers are non-nil so that we don't have to check
// for nil-ness before invoking.
func (l *EventListener) EnsureDefaults(logger Logger) {
	if l.ArenaFull == nil {
		if logger != nil {
			l.ArenaFull = func(info TableInfo) {
				logger.Infof("%s: arena full", info)
			}
		} else {
			l.ArenaFull = func(info TableInfo) {}
		}
	}
	if l.TableCreated == nil {
		l.TableCreated = func(info TableInfo) {}
	}
	if l.TableDestroyed == nil {
		l.TableDestroyed = func(info TableInfo) {}
	}
}

// MakeLoggingEventListener creates an EventListener that logs all events to the
// specified logger.
func MakeLoggingEventListener(logger Logger) EventListener {
	if logger == nil {
		logger = DefaultLogger
	}

	return EventListener{
		TableCreated: func(info TableInfo) {
			logger.Infof("%s: created", info)
		},
		TableDestroyed: func(info TableInfo) {
			logger.Infof("%s: destroyed", info)
		},
		ArenaFull: func(info TableInfo) {
			logger.Infof("%s: arena full", info)
		},
	}
}

// TeeEventListener wraps two EventListeners, forwarding all events to both.
func TeeEventListener(a, b EventListener) EventListener {
	a.EnsureDefaults(nil)
	b.EnsureDefaults(nil)
	return EventListener{
		TableCreated: func(info TableInfo) {
			a.TableCreated(info)
			b.TableCreated(info)
		},
		TableDestroyed: func(info TableInfo) {
			a.TableDestroyed(info)
			b.TableDestroyed(info)
		},
		ArenaFull: func(info TableInfo) {
			a.ArenaFull(info)
			b.ArenaFull(info)
		},
	}
}
