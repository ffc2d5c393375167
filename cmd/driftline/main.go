// Driftline captures signals from conversations and synthesises them
// into living workspace documents with a tamper-evident commit history.
package main

import (
	"fmt"
	"os"

	"github.com/driftline/driftline/internal/adapters/driving/cli"
)

// Populated at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
