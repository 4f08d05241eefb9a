// Package cli provides the command-line interface for mobile-harness.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config.yaml (default: <home>/config.yaml)",
		EnvVars: []string{"MOBILE_HARNESS_CONFIG"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"MOBILE_HARNESS_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the CLI application writing to out and errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:    "mobile-harness",
		Usage:   "End-to-end test harness for native mobile apps over Appium",
		Version: Version,
		Description: `mobile-harness drives the app under test through an Appium server,
one fresh session per test case, and records logs and failure evidence.

Examples:
  mobile-harness run
  mobile-harness run --platform ios --only LoginTest
  mobile-harness run --device emulator-5554,emulator-5556
  mobile-harness logs --keep 5`,
		Writer:    out,
		ErrWriter: errOut,
		Flags:     GlobalFlags,
		Commands: []*cli.Command{
			runCommand,
			listCommand,
			logsCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	app := NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
