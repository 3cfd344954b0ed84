// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/wikipath/wikipath/services/pathfinder/datatypes"
)

var searchCmd = &cobra.Command{
	Use:   "search <start> <end>",
	Short: "Find the shortest person-to-person link path",
	Example: `  wikipath search "Albert Einstein" "Genghis Khan"
  wikipath search --in-memory-cache "Marie Curie" "Elon Musk"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(args[0], args[1])
	},
}

func runSearch(start, end string) error {
	pretty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	s, err := buildStack(true)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Resolve fuzzy inputs the same way the HTTP front end does.
	if resolved, err := s.client.ResolveTitle(ctx, start); err == nil && resolved != "" {
		start = resolved
	}
	if resolved, err := s.client.ResolveTitle(ctx, end); err == nil && resolved != "" {
		end = resolved
	}

	if pretty {
		fmt.Printf("Searching: %s <-> %s\n", start, end)
	}

	var result *datatypes.Result
	for event := range s.engine.Search(ctx, start, end) {
		switch {
		case event.Terminal():
			result = event.Result
		case pretty && event.Type == datatypes.EventExploring:
			fmt.Printf("  [%s] %s (%d links, %d plausible, %d people)\n",
				event.Direction, event.Node, event.RawLinks, event.Plausible, event.Verified)
		}
	}
	if result == nil {
		return fmt.Errorf("search produced no result")
	}

	if !pretty {
		// Machine-readable output for pipes.
		return json.NewEncoder(os.Stdout).Encode(result)
	}
	return printResult(result)
}

func printResult(result *datatypes.Result) error {
	switch result.Outcome {
	case datatypes.PathFound:
		fmt.Printf("\nFound a %d-hop path (%d nodes visited, %.1fs):\n\n",
			result.Stats.Hops, result.Stats.Visited, float64(result.Stats.ElapsedMs)/1000)
		fmt.Println("  " + strings.Join(result.Path, " -> "))
		return nil
	case datatypes.TimedOut:
		fmt.Printf("\nTimed out: %s (%d nodes visited)\n", result.Reason, result.Stats.Visited)
	default:
		fmt.Printf("\nNo path found: %s (%d nodes visited)\n", result.Reason, result.Stats.Visited)
	}
	return nil
}
