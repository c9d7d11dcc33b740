/*
 * Copyright 2017 Dgraph Labs, Inc. and Contributors
 * Modifications copyright (C) 2017 Andy Kimball and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Adapted from RocksDB inline skiplist.

Key differences:
- No optimization for sequential inserts (no "prev").
- Entries are opaque byte strings ordered by a caller-supplied comparison.
  Versioning is the caller's business: versions of the same key are encoded
  into distinct entries that the comparison orders.
- A single writer. Concurrent Add calls must be serialized by the caller;
  any number of readers may run alongside the writer without locks.
- No AllocateNode or other pointer arithmetic.
- We combine the findLessThan, findGreaterOrEqual, etc into one function.
*/

/*
Further adapted from Badger: https://github.com/dgraph-io/badger.

Key differences:
- Support for previous pointers - doubly linked lists. Note that it's up to higher
  level code to deal with the intermediate state that occurs during insertion,
  where node A is linked to node B, but node B is not yet linked back to node A.
*/

// Package arenaskl implements a single-writer, lock-free-reader skiplist whose
// nodes and entries live in a fixed-size Arena and reference each other by
// uint32 offsets.
package arenaskl // import "github.com/cockroachdb/memtable/internal/arenaskl"

import (
	"math"
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/rand"
)

const (
	maxHeight   = 20
	maxNodeSize = int(unsafe.Sizeof(node{}))
	linksSize   = int(unsafe.Sizeof(links{}))
	pValue      = 1 / math.E
)

// ErrRecordExists indicates that an entry that compares equal to the one
// being added is already present.
var ErrRecordExists = errors.New("record with this key already exists")

// Compare orders two entries, or an entry and a search key. It returns -1, 0,
// or +1 like bytes.Compare.
type Compare func(a, b []byte) int

// Skiplist is a fast, concurrent skiplist implementation that supports
// forward and backward iteration. Entries are added by a single writer and are
// never removed or modified. Readers do not take locks.
//
// A node becomes visible to readers at a level when its predecessor's next
// link at that level is stored. Every link of the node is initialized before
// the first such store, and all link accesses are atomic, so a reader that
// observes a node also observes its entry and its links.
type Skiplist struct {
	arena  *Arena
	cmp    Compare
	head   *node
	tail   *node
	height atomic.Uint32 // Current height. 1 <= height <= maxHeight.

	// rng is only used by the writer.
	rng *rand.Rand

	// If set to true by tests, then extra delays are added to make it easier to
	// detect unusual race conditions.
	testing bool
}

var (
	probabilities [maxHeight]uint32
)

func init() {
	// Precompute the skiplist probabilities so that only a single random number
	// needs to be generated and so that the optimal pvalue can be used (inverse
	// of Euler's number).
	p := float64(1.0)
	for i := 0; i < maxHeight; i++ {
		probabilities[i] = uint32(float64(math.MaxUint32) * p)
		p *= pValue
	}
}

// NewSkiplist constructs and initializes a new, empty skiplist. All nodes and
// entries in the skiplist will be allocated from the given arena.
func NewSkiplist(arena *Arena, cmp Compare) *Skiplist {
	skl := &Skiplist{}
	skl.Reset(arena, cmp)
	return skl
}

// Reset the skiplist to empty and re-initialize.
func (s *Skiplist) Reset(arena *Arena, cmp Compare) {
	// Allocate head and tail nodes.
	head, err := newRawNode(arena, maxHeight, 0)
	if err != nil {
		panic("arenaSize is not large enough to hold the head node")
	}
	head.entryOffset = 0

	tail, err := newRawNode(arena, maxHeight, 0)
	if err != nil {
		panic("arenaSize is not large enough to hold the tail node")
	}
	tail.entryOffset = 0

	// Link all head/tail levels together.
	headOffset := arena.getPointerOffset(unsafe.Pointer(head))
	tailOffset := arena.getPointerOffset(unsafe.Pointer(tail))
	for i := 0; i < maxHeight; i++ {
		head.tower[i].nextOffset.Store(tailOffset)
		tail.tower[i].prevOffset.Store(headOffset)
	}

	*s = Skiplist{
		arena: arena,
		cmp:   cmp,
		head:  head,
		tail:  tail,
		rng:   rand.New(rand.NewSource(rand.Uint64())),
	}
	s.height.Store(1)
}

// Seed reseeds the random source used to pick node heights. Tests use it to
// make the shape of the skiplist reproducible. Like Add, it must not be called
// concurrently with other writes.
func (s *Skiplist) Seed(seed uint64) {
	s.rng.Seed(seed)
}

// Height returns the height of the highest tower within any of the nodes that
// have ever been allocated as part of this skiplist.
func (s *Skiplist) Height() uint32 { return s.height.Load() }

// Arena returns the arena backing this skiplist.
func (s *Skiplist) Arena() *Arena { return s.arena }

// Size returns the number of bytes that have allocated from the arena.
func (s *Skiplist) Size() uint32 { return s.arena.Size() }

// Add adds a new entry if an equal one does not yet exist. If it exists, Add
// returns ErrRecordExists. If there isn't enough room in the arena, Add
// returns ErrArenaFull and the skiplist is unchanged (though the arena may
// have been partially consumed by the failed allocation).
//
// Add must not be called concurrently with another Add.
func (s *Skiplist) Add(entry []byte) error {
	var spl [maxHeight]splice
	if s.findSplice(entry, &spl) {
		return ErrRecordExists
	}

	nd, height, err := s.newNode(entry)
	if err != nil {
		return err
	}
	ndOffset := s.arena.getPointerOffset(unsafe.Pointer(nd))

	// Fully link the new node before making it reachable from any level.
	for i := 0; i < int(height); i++ {
		if spl[i].prev == nil {
			// New node increased the height of the skiplist, so assume that the
			// new level has not yet been populated.
			if spl[i].next != nil {
				panic(errors.AssertionFailedf("next is expected to be nil, since prev is nil"))
			}
			spl[i].init(s.head, s.tail)
		}
		prevOffset := s.arena.getPointerOffset(unsafe.Pointer(spl[i].prev))
		nextOffset := s.arena.getPointerOffset(unsafe.Pointer(spl[i].next))
		nd.tower[i].init(prevOffset, nextOffset)
	}

	// Publish from the base level up. Once a node is reachable at level i, a
	// search descending from level i+1 may land on it, so the lower levels
	// must already be linked.
	//
	// +----------------+     +------------+     +----------------+
	// |      prev      |     |     nd     |     |      next      |
	// | prevNextOffset |---->|            |     |                |
	// |                |<----| prevOffset |     |                |
	// |                |     | nextOffset |---->|                |
	// |                |     |            |<----| nextPrevOffset |
	// +----------------+     +------------+     +----------------+
	for i := 0; i < int(height); i++ {
		spl[i].prev.tower[i].nextOffset.Store(ndOffset)
		if s.testing {
			// Add delay to make it easier to test races between this goroutine
			// and a reader that sees the intermediate state between setting
			// next and setting prev.
			runtime.Gosched()
		}
		spl[i].next.tower[i].prevOffset.Store(ndOffset)
	}

	if height > s.Height() {
		s.height.Store(height)
	}
	return nil
}

// NewIter returns a new, unpositioned Iterator. Note that it is safe for an
// iterator to be copied by value.
func (s *Skiplist) NewIter() Iterator {
	return Iterator{list: s, nd: s.head}
}

func (s *Skiplist) newNode(entry []byte) (nd *node, height uint32, err error) {
	height = s.randomHeight()
	nd, err = newNode(s.arena, height, entry)
	return
}

func (s *Skiplist) randomHeight() uint32 {
	rnd := s.rng.Uint32()
	h := uint32(1)
	for h < maxHeight && rnd <= probabilities[h] {
		h++
	}
	return h
}

func (s *Skiplist) findSplice(key []byte, spl *[maxHeight]splice) (found bool) {
	var prev, next *node
	prev = s.head

	for level := int(s.Height() - 1); level >= 0; level-- {
		prev, next, found = s.findSpliceForLevel(key, level, prev)
		if next == nil {
			next = s.tail
		}
		spl[level].init(prev, next)
	}
	return
}

func (s *Skiplist) findSpliceForLevel(
	key []byte, level int, start *node,
) (prev, next *node, found bool) {
	prev = start

	for {
		// Assume prev.entry < key.
		next = s.getNext(prev, level)
		if next == s.tail {
			// Tail node, so done.
			break
		}

		cmp := s.cmp(key, next.getEntry(s.arena))
		if cmp == 0 {
			// Equality case.
			found = true
			break
		}

		if cmp < 0 {
			// We are done for this level, since prev.entry < key < next.entry.
			break
		}

		// Keep moving right on this level.
		prev = next
	}

	return
}

func (s *Skiplist) getNext(nd *node, h int) *node {
	offset := nd.tower[h].nextOffset.Load()
	return (*node)(s.arena.getPointer(offset))
}

func (s *Skiplist) getPrev(nd *node, h int) *node {
	offset := nd.tower[h].prevOffset.Load()
	return (*node)(s.arena.getPointer(offset))
}
