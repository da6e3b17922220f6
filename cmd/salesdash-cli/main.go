// Command salesdash-cli prints dashboard totals and writes filtered exports
// from the terminal.
package main

import (
	"os"

	"github.com/pterm/pterm"

	"salesdash/internal/log"
)

func main() {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: log.ComponentApp,
		Output:    os.Stderr,
	})

	app := NewCLIApp(logger)
	if err := app.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
