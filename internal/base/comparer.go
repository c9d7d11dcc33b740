// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// Comparer defines a total ordering over the space of []byte keys: a 'less
// than' relationship. Besides the ordering itself, a Comparer knows how to
// produce short keys that still fall between (Separator) or after (Successor)
// existing keys. Collaborators building index blocks use them to keep block
// boundaries compact.
type Comparer interface {
	// Compare returns -1, 0, or +1 depending on whether a is 'less than',
	// 'equal to' or 'greater than' b. It must be antisymmetric, transitive and
	// total.
	Compare(a, b []byte) int

	// Name is the name of the comparer.
	//
	// Any persisted format that depends on the ordering records this name, and
	// reopening such data with a comparer of a different name must fail (see
	// CheckComparerName).
	Name() string

	// Separator appends to dst a key k such that Compare(start, k) <= 0 and
	// Compare(k, limit) < 0, given Compare(start, limit) < 0. Appending fewer
	// bytes than start is the point; a trivial implementation appends start
	// unchanged.
	//
	// For example, given "abcd" and "abzz" the default comparer appends "abd".
	Separator(dst, start, limit []byte) []byte

	// Successor appends to dst a shortened key k such that Compare(key, k) <=
	// 0. A trivial implementation appends key unchanged.
	Successor(dst, key []byte) []byte
}

// Equal returns true if a and b are equivalent under c.
func Equal(c Comparer, a, b []byte) bool {
	if c == DefaultComparer {
		return bytes.Equal(a, b)
	}
	return c.Compare(a, b) == 0
}

type bytewiseComparer struct{}

// DefaultComparer is the default implementation of the Comparer interface.
// It uses the natural ordering, consistent with bytes.Compare.
var DefaultComparer Comparer = bytewiseComparer{}

// DefaultComparerName is the name of DefaultComparer.
//
// This name is part of the C++ Level-DB implementation's default file format,
// and should not be changed.
const DefaultComparerName = "leveldb.BytewiseComparator"

func (bytewiseComparer) Compare(a, b []byte) int { return bytes.Compare(a, b) }

func (bytewiseComparer) Name() string { return DefaultComparerName }

func (bytewiseComparer) Separator(dst, start, limit []byte) []byte {
	i, n := SharedPrefixLen(start, limit), len(dst)
	dst = append(dst, start...)

	if i >= min(len(start), len(limit)) {
		// Do not shorten if one string is a prefix of the other.
		return dst
	}

	// Only shorten when the incremented byte stays strictly below limit's
	// byte; otherwise the result could reach or pass limit.
	if diff := start[i]; diff < 0xff && diff+1 < limit[i] {
		dst[n+i]++
		return dst[:n+i+1]
	}
	return dst
}

func (bytewiseComparer) Successor(dst, key []byte) []byte {
	for i := 0; i < len(key); i++ {
		if key[i] != 0xff {
			dst = append(dst, key[:i+1]...)
			dst[len(dst)-1]++
			return dst
		}
	}
	// key is a run of 0xffs, leave it alone.
	return append(dst, key...)
}

// SharedPrefixLen returns the largest i such that a[:i] equals b[:i].
// This function can be useful in implementing the Comparer interface.
func SharedPrefixLen(a, b []byte) int {
	i, n := 0, min(len(a), len(b))
	asUint64 := func(c []byte, i int) uint64 {
		return binary.LittleEndian.Uint64(c[i:])
	}
	for i < n-7 && asUint64(a, i) == asUint64(b, i) {
		i += 8
	}
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// CheckComparerName returns an error marked with ErrComparerMismatch if the
// name recorded alongside persisted data differs from c.Name(). Data ordered
// by one comparer must never be read back through another.
func CheckComparerName(persisted string, c Comparer) error {
	if name := c.Name(); persisted != name {
		return errors.Mark(
			errors.Newf("comparer name from file %q != comparer name from options %q",
				errors.Safe(persisted), errors.Safe(name)),
			ErrComparerMismatch)
	}
	return nil
}

// CheckComparer is a mini test suite that verifies a comparer implementation
// over the given keys: the ordering must be a total order consistent with
// itself, and Separator and Successor must respect their bounds for every pair
// of keys.
func CheckComparer(c Comparer, keys [][]byte) error {
	keys = slices.Clone(keys)
	slices.SortFunc(keys, c.Compare)
	if !slices.IsSortedFunc(keys, c.Compare) {
		return errors.Errorf("%s: Compare is inconsistent", c.Name())
	}

	for _, a := range keys {
		if r := c.Compare(a, a); r != 0 {
			return errors.Errorf("%s: Compare(%s, %s)=%d, expected 0", c.Name(), FormatBytes(a), FormatBytes(a), r)
		}
		succ := c.Successor(nil, a)
		if c.Compare(a, succ) > 0 {
			return errors.Errorf("%s: Successor(%s)=%s sorts before the key", c.Name(), FormatBytes(a), FormatBytes(succ))
		}
		for _, b := range keys {
			ab, ba := c.Compare(a, b), c.Compare(b, a)
			if ab != -ba {
				return errors.Errorf("%s: Compare(%s, %s)=%d but Compare(%s, %s)=%d",
					c.Name(), FormatBytes(a), FormatBytes(b), ab, FormatBytes(b), FormatBytes(a), ba)
			}
			if ab >= 0 {
				continue
			}
			sep := c.Separator(nil, a, b)
			if c.Compare(a, sep) > 0 || c.Compare(sep, b) >= 0 {
				return errors.Errorf("%s: Separator(%s, %s)=%s is out of bounds",
					c.Name(), FormatBytes(a), FormatBytes(b), FormatBytes(sep))
			}
		}
	}
	return nil
}

// FormatBytes formats a byte slice using hexadecimal escapes for non-ASCII
// data.
type FormatBytes []byte

const lowerhex = "0123456789abcdef"

// Format implements the fmt.Formatter interface.
func (p FormatBytes) Format(s fmt.State, c rune) {
	buf := make([]byte, 0, len(p))
	for _, b := range p {
		if b < utf8.RuneSelf && strconv.IsPrint(rune(b)) {
			buf = append(buf, b)
			continue
		}
		buf = append(buf, `\x`...)
		buf = append(buf, lowerhex[b>>4])
		buf = append(buf, lowerhex[b&0xF])
	}
	s.Write(buf)
}
