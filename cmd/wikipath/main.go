// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// wikipath finds the shortest chain of article links between two
// people on Wikipedia. It runs as an HTTP service (wikipath serve) or
// as a one-shot CLI search (wikipath search).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
