package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hades-rgb/timesheets/internal/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersion(version, commit, date)
	if err := commands.Execute(); err != nil {
		// the outcome line was already printed
		if !errors.Is(err, commands.ErrActionFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
