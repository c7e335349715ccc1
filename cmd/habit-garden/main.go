// Command habit-garden is the Smart Habit Garden client: a terminal CLI and
// a local web UI over the habit API.
package main

import (
	"fmt"
	"os"

	"github.com/justestif/habit-garden/internal/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return cli.Execute()
}
