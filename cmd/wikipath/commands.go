// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagInMemory bool
)

var rootCmd = &cobra.Command{
	Use:   "wikipath",
	Short: "Shortest link paths between people on Wikipedia",
	Long: `wikipath runs a bidirectional search over Wikipedia's link graph to
find the shortest chain of person articles connecting two people.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML config file (optional)")
	rootCmd.PersistentFlags().BoolVar(&flagInMemory, "in-memory-cache", false, "keep the link cache in memory only")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
}
