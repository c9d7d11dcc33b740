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
	"bytes"
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/crlib/testutils/leaktest"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

const arenaSize = 1 << 20

func makeEntry(i int) []byte {
	return []byte(fmt.Sprintf("%05d", i))
}

func length(s *Skiplist) int {
	count := 0
	it := s.NewIter()
	for valid := it.First(); valid; valid = it.Next() {
		count++
	}
	return count
}

func lengthRev(s *Skiplist) int {
	count := 0
	it := s.NewIter()
	for valid := it.Last(); valid; valid = it.Prev() {
		count++
	}
	return count
}

func TestEmpty(t *testing.T) {
	l := NewSkiplist(newArena(arenaSize), bytes.Compare)
	it := l.NewIter()

	require.False(t, it.Valid())
	require.False(t, it.First())
	require.False(t, it.Last())
	require.False(t, it.SeekGE([]byte("aaa")))
	require.False(t, it.SeekLT([]byte("aaa")))
	require.Equal(t, uint32(1), l.Height())
}

// TestFull tests that Add fails with ErrArenaFull once the arena is exhausted
// and that the entries added before that remain intact.
func TestFull(t *testing.T) {
	l := NewSkiplist(newArena(1000), bytes.Compare)

	added := 0
	for i := 0; ; i++ {
		err := l.Add(makeEntry(i))
		if err != nil {
			require.True(t, errors.Is(err, ErrArenaFull))
			break
		}
		added++
	}
	require.Greater(t, added, 0)
	require.Equal(t, added, length(l))
	require.Equal(t, added, lengthRev(l))
}

// TestBasic tests single-threaded adds and seeks.
func TestBasic(t *testing.T) {
	l := NewSkiplist(newArena(arenaSize), bytes.Compare)
	it := l.NewIter()

	// Try adding values.
	require.NoError(t, l.Add([]byte("key1")))
	require.NoError(t, l.Add([]byte("key3")))
	require.NoError(t, l.Add([]byte("key2")))

	require.True(t, it.SeekGE([]byte("key")))
	require.EqualValues(t, "key1", it.Entry())

	require.True(t, it.SeekGE([]byte("key2")))
	require.EqualValues(t, "key2", it.Entry())

	require.False(t, it.SeekGE([]byte("key4")))

	require.True(t, it.SeekLT([]byte("key2")))
	require.EqualValues(t, "key1", it.Entry())

	require.False(t, it.SeekLT([]byte("key1")))

	require.Equal(t, 3, length(l))
	require.Equal(t, 3, lengthRev(l))
}

func TestRecordExists(t *testing.T) {
	l := NewSkiplist(newArena(arenaSize), bytes.Compare)
	require.NoError(t, l.Add([]byte("00001")))
	size := l.Size()

	err := l.Add([]byte("00001"))
	require.True(t, errors.Is(err, ErrRecordExists))
	// A rejected duplicate does not consume arena space.
	require.Equal(t, size, l.Size())
	require.Equal(t, 1, length(l))
}

func TestIteratorNext(t *testing.T) {
	const n = 100
	l := NewSkiplist(newArena(arenaSize), bytes.Compare)
	it := l.NewIter()

	require.False(t, it.Valid())
	it.First()
	require.False(t, it.Valid())

	for i := n - 1; i >= 0; i-- {
		require.NoError(t, l.Add(makeEntry(i)))
	}

	it.First()
	for i := 0; i < n; i++ {
		require.True(t, it.Valid())
		require.EqualValues(t, makeEntry(i), it.Entry())
		it.Next()
	}
	require.False(t, it.Valid())
}

func TestIteratorPrev(t *testing.T) {
	const n = 100
	l := NewSkiplist(newArena(arenaSize), bytes.Compare)
	it := l.NewIter()

	require.False(t, it.Valid())
	it.Last()
	require.False(t, it.Valid())

	for i := 0; i < n; i++ {
		require.NoError(t, l.Add(makeEntry(i)))
	}

	it.Last()
	for i := n - 1; i >= 0; i-- {
		require.True(t, it.Valid())
		require.EqualValues(t, makeEntry(i), it.Entry())
		it.Prev()
	}
	require.False(t, it.Valid())
}

func TestIteratorSeekGE(t *testing.T) {
	const n = 100
	l := NewSkiplist(newArena(arenaSize), bytes.Compare)
	it := l.NewIter()

	require.False(t, it.SeekGE(makeEntry(1010)))

	// 1000, 1010, 1020, ..., 1990.
	for i := n - 1; i >= 0; i-- {
		require.NoError(t, l.Add(makeEntry(1000+i*10)))
	}

	require.True(t, it.SeekGE([]byte("")))
	require.EqualValues(t, "01000", it.Entry())

	require.True(t, it.SeekGE([]byte("01000")))
	require.EqualValues(t, "01000", it.Entry())

	require.True(t, it.SeekGE([]byte("01005")))
	require.EqualValues(t, "01010", it.Entry())

	require.True(t, it.SeekGE([]byte("01990")))
	require.EqualValues(t, "01990", it.Entry())

	require.False(t, it.SeekGE([]byte("99999")))

	// Seek repeatedly with the same iterator; copies are independent.
	require.True(t, it.SeekGE([]byte("01500")))
	cp := it
	require.True(t, it.Next())
	require.EqualValues(t, "01510", it.Entry())
	require.EqualValues(t, "01500", cp.Entry())
}

func TestIteratorSeekLT(t *testing.T) {
	const n = 100
	l := NewSkiplist(newArena(arenaSize), bytes.Compare)
	it := l.NewIter()

	require.False(t, it.SeekLT(makeEntry(1010)))

	// 1000, 1010, 1020, ..., 1990.
	for i := n - 1; i >= 0; i-- {
		require.NoError(t, l.Add(makeEntry(1000+i*10)))
	}

	require.False(t, it.SeekLT([]byte("")))
	require.False(t, it.SeekLT([]byte("01000")))

	require.True(t, it.SeekLT([]byte("01001")))
	require.EqualValues(t, "01000", it.Entry())

	require.True(t, it.SeekLT([]byte("01005")))
	require.EqualValues(t, "01000", it.Entry())

	require.True(t, it.SeekLT([]byte("01991")))
	require.EqualValues(t, "01990", it.Entry())

	require.True(t, it.SeekLT([]byte("99999")))
	require.EqualValues(t, "01990", it.Entry())
}

// TestSeed tests that seeding the height generator makes the skiplist shape
// reproducible.
func TestSeed(t *testing.T) {
	build := func() *Skiplist {
		l := NewSkiplist(newArena(arenaSize), bytes.Compare)
		l.Seed(42)
		for i := 0; i < 1000; i++ {
			require.NoError(t, l.Add(makeEntry(i)))
		}
		return l
	}
	a, b := build(), build()
	require.Equal(t, a.Height(), b.Height())
	require.Equal(t, a.Size(), b.Size())
}

func TestRandomHeight(t *testing.T) {
	l := NewSkiplist(newArena(arenaSize), bytes.Compare)
	l.Seed(1)
	var counts [maxHeight + 1]int
	const n = 100000
	for i := 0; i < n; i++ {
		h := l.randomHeight()
		require.GreaterOrEqual(t, h, uint32(1))
		require.LessOrEqual(t, h, uint32(maxHeight))
		counts[h]++
	}
	// Roughly 1-1/e of the towers have height one.
	require.InDelta(t, 0.632, float64(counts[1])/n, 0.02)
}

// TestConcurrentReaders tests that readers running alongside the writer only
// ever observe fully linked nodes in sorted order.
func TestConcurrentReaders(t *testing.T) {
	defer leaktest.AfterTest(t)()

	const n = 2000
	l := NewSkiplist(newArena(arenaSize), bytes.Compare)
	// Set testing flag to make it easier to trigger unusual race conditions.
	l.testing = true

	rng := rand.New(rand.NewSource(0))
	perm := rng.Perm(n)

	var done atomic.Bool
	var g errgroup.Group
	g.Go(func() error {
		defer done.Store(true)
		for _, i := range perm {
			if err := l.Add(makeEntry(i)); err != nil {
				return err
			}
		}
		return nil
	})
	for r := 0; r < 4; r++ {
		g.Go(func() error {
			// Bound the reader work so that the readers cannot starve the
			// writer, which yields at every level.
			for round := 0; round < 50 && !done.Load(); round++ {
				it := l.NewIter()
				var prev []byte
				for valid := it.First(); valid; valid = it.Next() {
					if prev != nil && bytes.Compare(prev, it.Entry()) >= 0 {
						return errors.Newf("out of order: %q >= %q", prev, it.Entry())
					}
					prev = it.Entry()
				}
				prev = nil
				for valid := it.Last(); valid; valid = it.Prev() {
					if prev != nil && bytes.Compare(prev, it.Entry()) <= 0 {
						return errors.Newf("out of order: %q <= %q", prev, it.Entry())
					}
					prev = it.Entry()
				}
				k := makeEntry(rand.Intn(n))
				if it.SeekGE(k) && bytes.Compare(it.Entry(), k) < 0 {
					return errors.Newf("SeekGE(%q) landed on %q", k, it.Entry())
				}
				runtime.Gosched()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, n, length(l))
	require.Equal(t, n, lengthRev(l))
}

func BenchmarkOrderedWrite(b *testing.B) {
	l := NewSkiplist(newArena(8<<20), bytes.Compare)
	var buf [8]byte

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		entry := fmt.Appendf(buf[:0], "%08d", i)
		if err := l.Add(entry); errors.Is(err, ErrArenaFull) {
			b.StopTimer()
			l = NewSkiplist(newArena(8<<20), bytes.Compare)
			b.StartTimer()
		}
	}
}

func BenchmarkIterNext(b *testing.B) {
	l := NewSkiplist(newArena(64<<10), bytes.Compare)
	rng := rand.New(rand.NewSource(0))
	for {
		if err := l.Add(makeEntry(rng.Intn(100000))); errors.Is(err, ErrArenaFull) {
			break
		}
	}

	it := l.NewIter()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !it.Valid() {
			it.First()
		}
		it.Next()
	}
}
