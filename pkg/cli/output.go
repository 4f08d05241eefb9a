package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/devicelab-dev/mobile-harness/pkg/core"
	"github.com/devicelab-dev/mobile-harness/pkg/harness"
)

const tableWidth = 92

type palette struct {
	green, red, yellow, cyan, bold *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
		cyan:   color.New(color.FgCyan),
		bold:   color.New(color.Bold),
	}
	if noColor {
		for _, c := range []*color.Color{p.green, p.red, p.yellow, p.cyan, p.bold} {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) status(s core.TestStatus) string {
	switch s {
	case core.StatusPassed:
		return p.green.Sprintf("%-8s", "✓ PASS")
	case core.StatusFailed:
		return p.red.Sprintf("%-8s", "✗ FAIL")
	case core.StatusErrored:
		return p.yellow.Sprintf("%-8s", "! ERROR")
	default:
		return p.cyan.Sprintf("%-8s", "- SKIP")
	}
}

// printSummary prints the per-case table and totals.
func printSummary(w io.Writer, result *harness.RunResult, noColor bool) {
	p := newPalette(noColor)

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("═", tableWidth))
	fmt.Fprintf(w, "  %-40s %-8s %-24s %10s\n", "Test", "Status", "Device", "Duration")
	fmt.Fprintln(w, strings.Repeat("─", tableWidth))

	for _, c := range result.Cases {
		name := c.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		device := c.Device
		if device == "" {
			device = "-"
		}
		if len(device) > 24 {
			device = device[:21] + "..."
		}
		fmt.Fprintf(w, "  %-40s %s %-24s %10s\n", name, p.status(c.Status), device, formatDuration(c.Duration))
		if c.Err != nil {
			fmt.Fprintf(w, "      %s\n", p.red.Sprint(c.Err.Error()))
		}
	}

	fmt.Fprintln(w, strings.Repeat("─", tableWidth))
	total := p.green
	if result.Failed > 0 || result.Errored > 0 {
		total = p.red
	}
	fmt.Fprintf(w, "  %s %s   %d failed, %d errored, %d skipped   %s\n",
		p.bold.Sprintf("%-40s", "TOTAL"),
		total.Sprintf("%d/%d passed", result.Passed, result.Total),
		result.Failed, result.Errored, result.Skipped,
		formatDuration(result.Duration))
	fmt.Fprintln(w, strings.Repeat("═", tableWidth))
}

// formatDuration shows milliseconds below 1s, seconds below 1m, else minutes.
func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
