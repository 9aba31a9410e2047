package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"tagwatch/internal/app"
	"tagwatch/internal/clock"
)

// main starts the alarm evaluation service from one TOML config file.
// Params: CLI flag --config-file.
// Returns: process exit code by startup/run result.
func main() {
	configFile := flag.String("config-file", "tagwatch.toml", "path to the TOML config file")
	flag.Parse()

	service, err := app.NewService(*configFile, clock.RealClock{})
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "service init failed:", err.Error())
		os.Exit(1)
	}

	if err := service.Run(context.Background()); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "service run failed:", err.Error())
		os.Exit(1)
	}
}
