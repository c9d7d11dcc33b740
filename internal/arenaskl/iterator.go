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

type splice struct {
	prev *node
	next *node
}

func (s *splice) init(prev, next *node) {
	s.prev = prev
	s.next = next
}

// Iterator is an iterator over the skiplist object. Use Skiplist.NewIter to
// construct an iterator. The current state of the iterator can be cloned by
// simply value copying the struct. All iterator methods are safe to call
// concurrently with Skiplist.Add.
type Iterator struct {
	list *Skiplist
	nd   *node
}

// Valid returns true iff the iterator is positioned at a valid node.
func (it *Iterator) Valid() bool {
	return it.nd != nil && it.nd != it.list.head && it.nd != it.list.tail
}

// Entry returns the entry at the current position. The returned slice points
// into the arena and must not be modified.
func (it *Iterator) Entry() []byte {
	return it.nd.getEntry(it.list.arena)
}

// SeekGE moves the iterator to the first entry that is greater than or equal
// to the given key. Returns true if the iterator is pointing at a valid entry.
func (it *Iterator) SeekGE(key []byte) bool {
	_, it.nd = it.seekForBaseSplice(key)
	return it.Valid()
}

// SeekLT moves the iterator to the last entry that is less than the given
// key. Returns true if the iterator is pointing at a valid entry.
func (it *Iterator) SeekLT(key []byte) bool {
	it.nd, _ = it.seekForBaseSplice(key)
	return it.Valid()
}

// First seeks position at the first entry in list. Returns true if the list
// is not empty.
func (it *Iterator) First() bool {
	it.nd = it.list.getNext(it.list.head, 0)
	return it.Valid()
}

// Last seeks position at the last entry in list. Returns true if the list is
// not empty.
func (it *Iterator) Last() bool {
	it.nd = it.list.getPrev(it.list.tail, 0)
	return it.Valid()
}

// Next advances to the next position. Returns false once the iterator moves
// past the last entry.
func (it *Iterator) Next() bool {
	it.nd = it.list.getNext(it.nd, 0)
	return it.Valid()
}

// Prev moves to the previous position. Returns false once the iterator moves
// before the first entry.
func (it *Iterator) Prev() bool {
	it.nd = it.list.getPrev(it.nd, 0)
	return it.Valid()
}

func (it *Iterator) seekForBaseSplice(key []byte) (prev, next *node) {
	prev = it.list.head
	for level := int(it.list.Height() - 1); level >= 0; level-- {
		// Search this level for the key.
		prevLevelNext := next
		for {
			// Assume prev.entry < key.
			next = it.list.getNext(prev, level)

			// Consecutive levels frequently share a next pointer. If the next
			// node is the same one the level above stopped at, we already know
			// key <= next.entry without comparing.
			if next == prevLevelNext {
				break
			}
			if next == it.list.tail {
				// Tail node, so done.
				break
			}

			if it.list.cmp(key, next.getEntry(it.list.arena)) <= 0 {
				// We are done for this level, since prev.entry < key <= next.entry.
				break
			}
			// Keep moving right on this level.
			prev = next
		}
	}
	return prev, next
}
