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
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func newArena(n uint32) *Arena {
	return NewArena(make([]byte, n))
}

func TestArenaAlloc(t *testing.T) {
	a := newArena(64)
	require.Equal(t, uint32(1), a.Size())
	require.Equal(t, uint32(64), a.Capacity())

	// Offset zero is reserved, so the first aligned allocation lands at 4.
	offset, err := a.alloc(8, nodeAlignment, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(4), offset)
	require.Zero(t, offset%nodeAlignment)

	offset, err = a.alloc(3, 1, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(12), offset)
	require.Equal(t, uint32(15), a.Size())

	// The overflow bytes must fit even though they are not part of the size.
	_, err = a.alloc(8, 1, 64)
	require.True(t, errors.Is(err, ErrArenaFull))

	// The failed allocation still consumed its padded size, but a smaller
	// allocation can succeed.
	require.Equal(t, uint32(23), a.Size())
	offset, err = a.alloc(1, 1, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(23), offset)
}

func TestArenaNilOffset(t *testing.T) {
	a := newArena(16)
	require.Nil(t, a.getPointer(0))
	require.Nil(t, a.getBytes(0, 4))
	require.Equal(t, uint32(0), a.getPointerOffset(nil))

	offset, err := a.alloc(4, nodeAlignment, 0)
	require.NoError(t, err)
	require.Equal(t, offset, a.getPointerOffset(a.getPointer(offset)))
	require.Len(t, a.getBytes(offset, 4), 4)
}

// TestArenaSizeOverflow tests that large allocations do not cause Arena's
// internal size accounting to overflow and produce incorrect results.
func TestArenaSizeOverflow(t *testing.T) {
	if math.MaxInt == math.MaxInt32 {
		t.Skip("requires a 64-bit platform")
	}
	a := newArena(math.MaxUint32)

	// Allocating under the limit throws no error.
	offset, err := a.alloc(math.MaxUint16, 1, 0)
	require.Nil(t, err)
	require.Equal(t, uint32(1), offset)
	require.Equal(t, uint32(math.MaxUint16)+1, a.Size())

	// Allocating over the limit could cause an accounting
	// overflow if 32-bit arithmetic was used. It shouldn't.
	_, err = a.alloc(math.MaxUint32, 1, 0)
	require.Equal(t, ErrArenaFull, err)
	require.Equal(t, uint32(math.MaxUint32), a.Size())

	// Continuing to allocate continues to throw an error.
	_, err = a.alloc(math.MaxUint16, 1, 0)
	require.Equal(t, ErrArenaFull, err)
	require.Equal(t, uint32(math.MaxUint32), a.Size())
}
