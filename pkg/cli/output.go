package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mohanavadivelu2/automation-framework/pkg/core"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Slow command threshold in milliseconds
const slowThresholdMs = 5000

// console prints live progress for a run.
type console struct {
	w      io.Writer
	colors bool
}

// newConsole disables colors for --no-ansi, NO_COLOR, or a non-terminal
// writer.
func newConsole(w io.Writer, noANSI bool) *console {
	colors := !noANSI && os.Getenv("NO_COLOR") == ""
	if f, ok := w.(*os.File); ok && colors {
		if info, err := f.Stat(); err != nil || info.Mode()&os.ModeCharDevice == 0 {
			colors = false
		}
	} else if !ok {
		colors = false
	}
	return &console{w: w, colors: colors}
}

func (c *console) color(code string) string {
	if c.colors {
		return code
	}
	return ""
}

func (c *console) printf(format string, v ...interface{}) {
	fmt.Fprintf(c.w, format, v...)
}

func (c *console) onTestCaseStart(idx, total int, id string) {
	c.printf("\n  %s[%d/%d]%s %s%s%s\n",
		c.color(colorCyan), idx+1, total, c.color(colorReset),
		c.color(colorBold), id, c.color(colorReset))
	c.printf("%s\n", strings.Repeat("─", 60))
}

func (c *console) onCommandComplete(id string, idx int, label string, outcome core.Outcome, durationMs int64) {
	dur := formatMs(durationMs)
	if outcome.Success {
		symbol, symbolColor, durColor := "✓", c.color(colorGreen), ""
		if durationMs >= slowThresholdMs {
			symbol, symbolColor, durColor = "⚠", c.color(colorYellow), c.color(colorYellow)
		}
		c.printf("    %s%s%s %s %s(%s)%s\n",
			symbolColor, symbol, c.color(colorReset), label, durColor, dur, c.color(colorReset))
		return
	}
	c.printf("    %s✗%s %s (%s)\n", c.color(colorRed), c.color(colorReset), label, dur)
	if outcome.Message != "" {
		c.printf("      %s╰─%s %s\n", c.color(colorGray), c.color(colorReset), outcome.Message)
	}
}

func (c *console) onTestCaseEnd(result core.TestCaseResult) {
	var code string
	switch result.Status {
	case core.StatusPassed:
		code = colorGreen
	case core.StatusSkipped:
		code = colorYellow
	default:
		code = colorRed
	}
	c.printf("  %s%s%s %s (%s)\n",
		c.color(code), strings.ToUpper(result.Status.String()), c.color(colorReset),
		result.ID, formatMs(result.Duration.Milliseconds()))
	if result.CleanupExecuted {
		c.printf("    %s╰─ clean_up %s executed%s\n", c.color(colorGray), result.Cleanup, c.color(colorReset))
	}
	for _, a := range result.Attachments {
		c.printf("    %s╰─ %s: %s%s\n", c.color(colorGray), a.Name, a.Path, c.color(colorReset))
	}
}

func (c *console) info(format string, v ...interface{}) {
	c.printf("  %s%s%s\n", c.color(colorCyan), fmt.Sprintf(format, v...), c.color(colorReset))
}

func (c *console) warn(format string, v ...interface{}) {
	c.printf("  %s⚠%s %s\n", c.color(colorYellow), c.color(colorReset), fmt.Sprintf(format, v...))
}

func formatMs(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(ms)/1000)
}
