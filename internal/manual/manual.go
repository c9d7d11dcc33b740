// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package manual provides explicitly released byte buffers for memtable
// arenas. A buffer is acquired once when a table is created and returned in a
// single step when the table is destroyed; released buffers are pooled by
// size class and reused by later tables.
package manual

import (
	"math/bits"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/memtable/internal/invariants"
)

// Metrics contains memory statistics for memtable arenas.
type Metrics struct {
	// InUseBytes is the total number of bytes currently allocated. This is just
	// the sum of the lengths of the allocations and does not include any
	// overhead or fragmentation.
	InUseBytes uint64
	// TotalBytes is the total cumulative number of bytes allocated since the
	// process started.
	TotalBytes uint64
}

var counters struct {
	TotalAllocated atomic.Uint64
	TotalFreed     atomic.Uint64
}

// GetMetrics returns manual memory usage statistics.
func GetMetrics() Metrics {
	total := counters.TotalAllocated.Load()
	return Metrics{
		InUseBytes: total - counters.TotalFreed.Load(),
		TotalBytes: total,
	}
}

// Buf is a buffer allocated by New. It must be released with Free.
type Buf struct {
	data unsafe.Pointer
	n    uintptr
}

// Data returns a pointer to the buffer data, or nil for the empty buffer.
func (b Buf) Data() unsafe.Pointer {
	return b.data
}

// Len returns the buffer length.
func (b Buf) Len() uintptr {
	return b.n
}

// Slice converts the buffer to a byte slice.
func (b Buf) Slice() []byte {
	return unsafe.Slice((*byte)(b.data), b.n)
}

// New allocates a zeroed buffer of size n.
func New(n uintptr) Buf {
	if n == 0 {
		return Buf{}
	}
	counters.TotalAllocated.Add(uint64(n))
	b := Buf{
		data: pools[sizeClass(n)].Get().(unsafe.Pointer),
		n:    n,
	}
	// Pooled buffers may hold the contents of a previous table.
	clear(b.Slice())
	return b
}

// Free releases the buffer. It has to be exactly the buffer that was returned
// by New, and it must not be used afterwards.
func Free(b Buf) {
	if b.data == nil {
		return
	}
	invariants.MaybeMangle(b.Slice())
	counters.TotalFreed.Add(uint64(b.n))
	pools[sizeClass(b.n)].Put(b.data)
}

// pools[n] is for allocs of size 1 << n.
var pools [bits.UintSize]sync.Pool

func init() {
	for i := range pools {
		pools[i].New = func() any {
			return unsafe.Pointer(unsafe.SliceData(make([]byte, 1<<i)))
		}
	}
}

// sizeClass determines the smallest n such that 1 << n >= size.
func sizeClass(size uintptr) int {
	return bits.UintSize - bits.LeadingZeros(uint(size-1))
}
