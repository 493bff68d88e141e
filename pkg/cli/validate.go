package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mohanavadivelu2/automation-framework/pkg/command"
	"github.com/mohanavadivelu2/automation-framework/pkg/validator"
)

func newValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check test cases and their fragments without running them",
		ArgsUsage: "[<test-case-id>...]",
		Description: `Validates the named test cases, or every test case in the group
document, and every common_command fragment they reach. Reports missing
fragments, circular references, malformed documents and unknown action types
or operations. No device is contacted.

Examples:
  automation validate
  automation validate --group master/smoke.json
  automation validate TC_001 TC_002`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "group",
				Aliases: []string{"g"},
				Usage:   "Group document to validate, relative to baseDir",
			},
		},
		Action: runValidate,
	}
}

func runValidate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	out := newConsole(c.App.Writer, c.Bool("no-ansi"))
	loader := command.NewLoader(cfg.TestCasePath(), cfg.CommonPath())

	ids := c.Args().Slice()
	if len(ids) == 0 {
		path := cfg.GroupPath()
		if g := c.String("group"); g != "" {
			path = cfg.Resolve(g)
		}
		raw, err := loader.LoadRaw(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("group %s: %v", path, err), 1)
		}
		if err := validator.ValidateGroup(raw, cfg.GroupField); err != nil {
			return cli.Exit(fmt.Sprintf("group %s: %v", path, err), 1)
		}
		if ids, err = command.ParseGroup(raw, cfg.GroupField); err != nil {
			return cli.Exit(fmt.Sprintf("group %s: %v", path, err), 1)
		}
	}

	reg, err := offlineRegistry(cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	result := validator.New(loader, reg).ValidateTree(ids)

	for _, e := range result.Errors {
		out.printf("  %s✗%s %v\n", out.color(colorRed), out.color(colorReset), e)
	}
	if !result.IsValid() {
		return cli.Exit(fmt.Sprintf("%d validation error(s)", len(result.Errors)), 1)
	}
	out.printf("  %s✓%s %d test case(s), %d fragment(s) valid\n",
		out.color(colorGreen), out.color(colorReset), len(result.TestCases), len(result.Fragments))
	return nil
}
