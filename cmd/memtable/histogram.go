// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	minLatency = 10 * time.Nanosecond
	maxLatency = 10 * time.Second
)

func newHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(minLatency.Nanoseconds(), maxLatency.Nanoseconds(), 1)
}

// sharedHistogram accumulates the latency histograms of several goroutines.
// Each goroutine records into its own histogram and merges it in when done.
type sharedHistogram struct {
	mu struct {
		sync.Mutex
		current *hdrhistogram.Histogram
	}
}

func newSharedHistogram() *sharedHistogram {
	w := &sharedHistogram{}
	w.mu.current = newHistogram()
	return w
}

func (w *sharedHistogram) merge(h *hdrhistogram.Histogram) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.mu.current.Merge(h)
}

func (w *sharedHistogram) snapshot() *hdrhistogram.Histogram {
	w.mu.Lock()
	defer w.mu.Unlock()
	return hdrhistogram.Import(w.mu.current.Export())
}
