// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/memtable"
	"github.com/spf13/cobra"
)

var sepCmd = &cobra.Command{
	Use:   "sep <start> <limit>",
	Short: "print the shortest separator between two keys",
	Long: `
Print the key produced by the default comparer's Separator for start and
limit. Keys may be given as Go-quoted strings to include arbitrary bytes,
e.g. "\xff\x01".
`,
	Args: cobra.ExactArgs(2),
	RunE: runSep,
}

var succCmd = &cobra.Command{
	Use:   "succ <key>",
	Short: "print the short successor of a key",
	Long: `
Print the key produced by the default comparer's Successor for key. Keys may
be given as Go-quoted strings to include arbitrary bytes.
`,
	Args: cobra.ExactArgs(1),
	RunE: runSucc,
}

func parseKey(s string) ([]byte, error) {
	if strings.HasPrefix(s, `"`) {
		u, err := strconv.Unquote(s)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid quoted key %s", s)
		}
		return []byte(u), nil
	}
	return []byte(s), nil
}

func runSep(cmd *cobra.Command, args []string) error {
	start, err := parseKey(args[0])
	if err != nil {
		return err
	}
	limit, err := parseKey(args[1])
	if err != nil {
		return err
	}
	cmp := memtable.DefaultComparer
	if cmp.Compare(start, limit) >= 0 {
		return errors.Newf("start %q must sort before limit %q", start, limit)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%q\n", cmp.Separator(nil, start, limit))
	return nil
}

func runSucc(cmd *cobra.Command, args []string) error {
	key, err := parseKey(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%q\n", memtable.DefaultComparer.Successor(nil, key))
	return nil
}
