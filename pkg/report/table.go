package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mohanavadivelu2/automation-framework/pkg/core"
)

// PrintSummary renders one row per test case plus a totals footer. With
// color set, the table style follows the group status.
func PrintSummary(w io.Writer, result *core.GroupResult, color bool) {
	if result == nil {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	title := fmt.Sprintf("Test Results (%s)", formatDuration(result.Duration))
	if result.Name != "" {
		title = fmt.Sprintf("%s: %s", result.Name, title)
	}
	t.SetTitle(title)

	t.AppendHeader(table.Row{"#", "Test Case", "Duration", "Commands", "Status", "Message"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "Test Case", WidthMax: 40, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Commands", Align: text.AlignRight},
		{Name: "Message", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	for i, tc := range result.TestCases {
		t.AppendRow(table.Row{
			i + 1,
			tc.ID,
			formatDuration(tc.Duration),
			fmt.Sprintf("%d/%d", tc.ExecutedCommands, tc.TotalCommands),
			statusString(tc.Status),
			message(tc),
		})
	}

	t.AppendFooter(table.Row{
		"", "TOTAL", formatDuration(result.Duration), "",
		statusString(result.Status()),
		fmt.Sprintf("%d passed, %d failed, %d errored, %d skipped",
			result.Passed, result.Failed, result.Errored, result.Skipped),
	})

	if color {
		switch result.Status() {
		case core.StatusPassed:
			t.SetStyle(table.StyleColoredBlackOnGreenWhite)
		case core.StatusSkipped:
			t.SetStyle(table.StyleColoredBlackOnYellowWhite)
		default:
			t.SetStyle(table.StyleColoredBlackOnRedWhite)
		}
	} else {
		t.SetStyle(table.StyleLight)
	}

	t.Render()
}

func message(tc core.TestCaseResult) string {
	if tc.Status == core.StatusPassed {
		return ""
	}
	return tc.Outcome.Message
}

func statusString(s core.Status) string {
	return strings.ToUpper(s.String())
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
