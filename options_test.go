// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package memtable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptionsEnsureDefaults(t *testing.T) {
	var nilOpts *Options
	o := nilOpts.EnsureDefaults()
	require.Equal(t, DefaultComparer, o.Comparer)
	require.Equal(t, DefaultArenaSize, o.ArenaSize)
	require.Equal(t, DefaultLogger, o.Logger)
	require.NotNil(t, o.EventListener.TableCreated)
	require.NotNil(t, o.EventListener.TableDestroyed)
	require.NotNil(t, o.EventListener.ArenaFull)
	require.NoError(t, o.Validate())

	// The receiver is not modified.
	orig := &Options{ArenaSize: 1 << 20}
	o = orig.EnsureDefaults()
	require.Nil(t, orig.Comparer)
	require.Equal(t, 1<<20, o.ArenaSize)
}

func TestOptionsValidate(t *testing.T) {
	for _, tc := range []struct {
		opts *Options
		err  string
	}{
		{&Options{ArenaSize: minArenaSize}, ""},
		{&Options{ArenaSize: minArenaSize - 1}, "must be at least"},
		{&Options{ArenaSize: MaxArenaSize + 1}, "must be less than"},
		{&Options{Comparer: namelessComparer{}}, "must have a name"},
	} {
		err := tc.opts.EnsureDefaults().Validate()
		if tc.err == "" {
			require.NoError(t, err)
			continue
		}
		require.ErrorContains(t, err, tc.err)
	}
}

type namelessComparer struct{ reverseComparer }

func (namelessComparer) Name() string { return "" }

func TestCheckComparerName(t *testing.T) {
	require.NoError(t, CheckComparerName("leveldb.BytewiseComparator", DefaultComparer))
	err := CheckComparerName("leveldb.BytewiseComparator", reverseComparer{})
	require.ErrorIs(t, err, ErrComparerMismatch)
}
