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

package arenaskl

import (
	"math"
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// MaxNodeSize returns the maximum space needed for a node with the specified
// entry size, including alignment padding.
func MaxNodeSize(entrySize uint32) uint64 {
	return uint64(maxNodeSize) + uint64(entrySize) + nodeAlignment - 1
}

type links struct {
	nextOffset atomic.Uint32
	prevOffset atomic.Uint32
}

func (l *links) init(prevOffset, nextOffset uint32) {
	l.nextOffset.Store(nextOffset)
	l.prevOffset.Store(prevOffset)
}

type node struct {
	// Immutable fields, so no need to lock to access the entry.
	entryOffset uint32
	entrySize   uint32
	height      uint32

	// Most nodes do not need to use the full height of the tower, since the
	// probability of each successive level decreases exponentially. Because
	// these elements are never accessed, they do not need to be allocated.
	// Therefore, when a node is allocated in the arena, its memory footprint
	// is deliberately truncated to not include unneeded tower elements.
	//
	// All accesses to elements should use atomic operations: the single
	// writer stores, concurrent readers load.
	tower [maxHeight]links
}

func newNode(arena *Arena, height uint32, entry []byte) (nd *node, err error) {
	if height < 1 || height > maxHeight {
		panic(errors.AssertionFailedf("height %d cannot be less than one or greater than the max height", height))
	}
	if len(entry) > math.MaxUint32 {
		panic(errors.AssertionFailedf("entry is too large: %d", len(entry)))
	}

	nd, err = newRawNode(arena, height, uint32(len(entry)))
	if err != nil {
		return
	}
	copy(nd.getEntry(arena), entry)
	return
}

func newRawNode(arena *Arena, height uint32, entrySize uint32) (nd *node, err error) {
	// Compute the amount of the tower that will never be used, since the height
	// is less than maxHeight.
	unusedSize := uint32((maxHeight - int(height)) * linksSize)
	nodeSize := uint32(maxNodeSize) - unusedSize

	nodeOffset, err := arena.alloc(nodeSize+entrySize, nodeAlignment, unusedSize)
	if err != nil {
		return
	}

	nd = (*node)(arena.getPointer(nodeOffset))
	nd.entryOffset = nodeOffset + nodeSize
	nd.entrySize = entrySize
	nd.height = height
	return
}

func (n *node) getEntry(arena *Arena) []byte {
	return arena.getBytes(n.entryOffset, n.entrySize)
}
