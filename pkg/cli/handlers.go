package cli

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"
)

func newHandlersCommand() *cli.Command {
	return &cli.Command{
		Name:  "handlers",
		Usage: "List the registered action types and their operations",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			reg, err := offlineRegistry(cfg)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			t := table.NewWriter()
			t.SetOutputMirror(c.App.Writer)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"widget_type", "call_fun"})
			for _, name := range reg.Types() {
				t.AppendRow(table.Row{name, strings.Join(reg.Operations(name), ", ")})
			}
			t.Render()
			return nil
		},
	}
}
