// Package cli provides the command-line interface for the automation engine.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags returns the flags available to all commands.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to workspace config.yaml (default: $AUTOMATION_HOME or the current directory)",
			EnvVars: []string{"AUTOMATION_CONFIG"},
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Usage:   "Enable debug logging and mirror the application log to stderr",
			EnvVars: []string{"AUTOMATION_VERBOSE"},
		},
		&cli.BoolFlag{
			Name:  "no-ansi",
			Usage: "Disable ANSI colors",
		},
	}
}

// NewApp builds the CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "automation",
		Usage:   "Run JSON command test cases against Appium devices",
		Version: Version,
		Description: `Executes test case documents: expands common_command fragments,
dispatches each command to its action handler and resolves validation,
valid_match and clean_up blocks.

Examples:
  automation run
  automation run --group master/smoke.json --video
  automation --config rig/config.yaml test TC_001 TC_002
  automation validate
  automation handlers`,
		Flags: GlobalFlags(),
		Commands: []*cli.Command{
			newRunCommand(),
			newTestCommand(),
			newValidateCommand(),
			newHandlersCommand(),
		},
		ExitErrHandler: func(c *cli.Context, err error) {
			// Exit codes are applied by Execute so tests can call Run.
		},
	}
}

// Execute runs the CLI.
func Execute() {
	app := NewApp()
	if err := app.Run(os.Args); err != nil {
		if coder, ok := err.(cli.ExitCoder); ok {
			if msg := coder.Error(); msg != "" {
				fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
			}
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
