// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package memtable

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/redact"
	"github.com/stretchr/testify/require"
)

type testLogger struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (l *testLogger) Infof(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(&l.buf, format+"\n", args...)
}

func (l *testLogger) Errorf(format string, args ...interface{}) {
	l.Infof(format, args...)
}

func (l *testLogger) Fatalf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

func (l *testLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

func TestLoggingEventListener(t *testing.T) {
	logger := &testLogger{}
	el := MakeLoggingEventListener(logger)
	m, err := NewTable(&Options{
		ArenaSize:     minArenaSize + 128,
		Logger:        logger,
		EventListener: &el,
	})
	require.NoError(t, err)
	m.Ref()
	for i := 0; ; i++ {
		if err := m.Add(SeqNum(i+1), InternalKeyKindSet, []byte("k"), make([]byte, 32)); err != nil {
			require.ErrorIs(t, err, ErrArenaFull)
			break
		}
	}
	m.Unref()

	lines := strings.Split(strings.TrimSpace(logger.String()), "\n")
	require.Len(t, lines, 3)
	id := fmt.Sprintf("[memtable %d]", m.Info().ID)
	require.True(t, strings.HasPrefix(lines[0], id), lines[0])
	require.True(t, strings.HasSuffix(lines[0], ": created"), lines[0])
	require.True(t, strings.HasSuffix(lines[1], ": arena full"), lines[1])
	require.True(t, strings.HasSuffix(lines[2], ": destroyed"), lines[2])
	require.Contains(t, lines[0], "0 entries (0 tombstones)")
}

func TestDefaultEventListener(t *testing.T) {
	logger := &testLogger{}
	var el EventListener
	el.EnsureDefaults(logger)
	el.TableCreated(TableInfo{ID: 1})
	el.TableDestroyed(TableInfo{ID: 1})
	el.ArenaFull(TableInfo{ID: 1, Entries: 3})
	// Only arena exhaustion is logged by default.
	out := logger.String()
	require.True(t, strings.HasPrefix(out, "[memtable 1] 3 entries (0 tombstones), "), out)
	require.True(t, strings.HasSuffix(out, ": arena full\n"), out)
	require.Equal(t, 1, strings.Count(out, "\n"))
}

func TestTeeEventListener(t *testing.T) {
	var a, b []string
	tee := TeeEventListener(
		EventListener{TableCreated: func(info TableInfo) { a = append(a, "created") }},
		EventListener{ArenaFull: func(info TableInfo) { b = append(b, "full") }},
	)
	tee.TableCreated(TableInfo{})
	tee.ArenaFull(TableInfo{})
	tee.TableDestroyed(TableInfo{})
	require.Equal(t, []string{"created"}, a)
	require.Equal(t, []string{"full"}, b)
}

func TestTableInfoRedaction(t *testing.T) {
	info := TableInfo{ID: 7, Entries: 10, Tombstones: 2, ArenaSize: 2048, ArenaCapacity: 4 << 20}
	// Table info contains no user data, so nothing is redacted.
	require.Equal(t, info.String(), string(redact.Sprint(info).Redact()))
}
