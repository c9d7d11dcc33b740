// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package invariants provides helpers for assertions that are only checked in
// builds with the "invariants" or "race" build tags.
package invariants

import "golang.org/x/exp/rand"

// Sometimes returns true percent% of the time if we were built with the
// "invariants" or "race" build tags.
func Sometimes(percent int) bool {
	return Enabled && rand.Uint32()%100 < uint32(percent)
}
