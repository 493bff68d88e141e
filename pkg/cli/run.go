package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mohanavadivelu2/automation-framework/pkg/command"
	"github.com/mohanavadivelu2/automation-framework/pkg/config"
	"github.com/mohanavadivelu2/automation-framework/pkg/core"
	"github.com/mohanavadivelu2/automation-framework/pkg/executor"
	"github.com/mohanavadivelu2/automation-framework/pkg/logger"
	"github.com/mohanavadivelu2/automation-framework/pkg/report"
)

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Resolve every command with the mock driver instead of Appium sessions",
		},
		&cli.BoolFlag{
			Name:    "video",
			Usage:   "Record each device's screen per test case (overrides config)",
			EnvVars: []string{"AUTOMATION_VIDEO"},
		},
		&cli.BoolFlag{
			Name:  "legacy-coerce",
			Usage: "Resolve success/failed/match branches as success regardless of sub-command outcomes",
		},
	}
}

func newRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the configured test case group",
		Description: `Runs every test case listed in the group document, in order.
A failing, invalid or crashing test case never stops the ones after it.

The group file defaults to groupFile from config.yaml; --group overrides it.
Logs and report.json are written under <logDir>/<timestamp>/.

Examples:
  automation run
  automation run --group master/smoke.json
  automation run --dry-run`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "group",
				Aliases: []string{"g"},
				Usage:   "Group document to run, relative to baseDir",
			},
		}, runFlags()...),
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return cli.Exit("run takes no arguments; use 'test <id>...' for individual test cases", 1)
			}
			return execute(c, nil)
		},
	}
}

func newTestCommand() *cli.Command {
	return &cli.Command{
		Name:      "test",
		Usage:     "Run individual test cases",
		ArgsUsage: "<test-case-id>...",
		Description: `Runs the named test cases from testCaseDir, in argument order.

Examples:
  automation test TC_001
  automation test TC_001 TC_002 --video`,
		Flags: runFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("at least one test case id is required", 1)
			}
			return execute(c, c.Args().Slice())
		},
	}
}

// execute runs ids, or the group document when ids is empty.
func execute(c *cli.Context, ids []string) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if c.IsSet("video") {
		cfg.Video = c.Bool("video")
	}

	log, err := openAppLogger(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := newConsole(c.App.Writer, c.Bool("no-ansi"))
	dryRun := c.Bool("dry-run")

	log.Info("=== Test execution started ===")
	log.Info("Base directory: %s", cfg.BaseDir)
	log.Info("Dry run: %v, video: %v", dryRun, cfg.Video)

	if dryRun {
		out.info("Dry run: no devices will be contacted")
	} else {
		out.info("Connecting %d device(s)...", len(cfg.Devices))
	}
	eng, err := newEngine(ctx, cfg, dryRun, log)
	if err != nil {
		log.Error("Engine setup failed: %v", err)
		return cli.Exit(err.Error(), 1)
	}
	defer eng.close()

	runner := executor.New(command.NewLoader(cfg.TestCasePath(), cfg.CommonPath()), eng.registry, log, runnerConfig(c, cfg, eng, out))

	result, err := runGroup(ctx, runner, cfg, c.String("group"), ids)
	if err != nil {
		log.Error("Run failed: %v", err)
		return cli.Exit(err.Error(), 1)
	}

	fmt.Fprintln(c.App.Writer)
	report.PrintSummary(c.App.Writer, result, out.colors)

	path, err := report.WriteJSON(result.OutputDir, result)
	if err != nil {
		out.warn("Failed to write report: %v", err)
		log.Error("Failed to write report: %v", err)
	} else {
		out.info("Report: %s", path)
		log.Info("Report written to %s", path)
	}
	log.Info("=== Test execution finished: %s ===", result.Status())

	if !result.Success() {
		return cli.Exit("", 1)
	}
	return nil
}

func runnerConfig(c *cli.Context, cfg *config.Config, eng *engine, out *console) executor.RunnerConfig {
	return executor.RunnerConfig{
		LogDir:     cfg.LogPath(),
		LogLevel:   logger.ParseLevel(cfg.LogLevel),
		GroupField: cfg.GroupField,
		GroupName:  "test",
		Expand: command.ExpandOptions{
			Strict:   cfg.StrictFragments,
			MaxDepth: cfg.MaxFragmentDepth,
		},
		Validate: executor.ValidatorOptions{
			LegacyCoerce: c.Bool("legacy-coerce"),
		},
		Video:             cfg.Video && eng.recorders != nil,
		Recorders:         eng.recorders,
		OnTestCaseStart:   out.onTestCaseStart,
		OnCommandComplete: out.onCommandComplete,
		OnTestCaseEnd:     out.onTestCaseEnd,
	}
}

func runGroup(ctx context.Context, runner *executor.Runner, cfg *config.Config, group string, ids []string) (*core.GroupResult, error) {
	if len(ids) > 0 {
		return runner.RunGroup(ctx, ids), nil
	}
	path := cfg.GroupPath()
	if group != "" {
		path = cfg.Resolve(group)
	}
	result, err := runner.RunGroupFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", path, err)
	}
	return result, nil
}
