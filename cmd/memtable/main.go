// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	concurrency int
	duration    time.Duration
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "memtable [command] (flags)",
	Short: "memtable benchmarking/introspection tool",
	Long:  ``,
}

func main() {
	log.SetFlags(0)

	cobra.EnableCommandSorting = false
	rootCmd.AddCommand(
		benchCmd,
		sepCmd,
		succCmd,
	)

	benchCmd.Flags().IntVarP(
		&concurrency, "concurrency", "c", 4, "number of concurrent readers")
	benchCmd.Flags().DurationVarP(
		&duration, "duration", "d", 10*time.Second, "the duration to run (0, run until --num-ops writes)")
	benchCmd.Flags().BoolVarP(
		&verbose, "verbose", "v", false, "enable verbose event logging")
	benchCmd.Flags().IntVar(
		&benchConfig.arenaSize, "arena-size", 64<<20, "size of each memtable arena")
	benchCmd.Flags().IntVar(
		&benchConfig.keys, "keys", 1000000, "number of distinct user keys")
	benchCmd.Flags().IntVar(
		&benchConfig.valueSize, "value", 100, "size of values to write")
	benchCmd.Flags().IntVar(
		&benchConfig.deletePercent, "delete-percent", 10,
		"Percent (0-100) of writes that are deletions")
	benchCmd.Flags().Uint64VarP(
		&benchConfig.numOps, "num-ops", "n", 0, "maximum number of writes (0 means unlimited)")
	benchCmd.Flags().Uint64Var(
		&benchConfig.seed, "seed", 1, "random seed for keys and skiplist heights")

	if err := rootCmd.Execute(); err != nil {
		// Cobra has already printed the error message.
		os.Exit(1)
	}
}
