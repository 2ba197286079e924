// Package tui renders csvsift's CLI output. Simple, streaming, no
// complex TUI - just clean styled text and a progress bar.
package tui

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"github.com/csvsift/csvsift/pkg/sift"
)

// Colors (Swiss minimal)
var (
	accent  = lipgloss.Color("#FF0000")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
)

// PrintHeader prints the tool banner.
func PrintHeader(version string) {
	fmt.Println()
	fmt.Println(titleStyle.Render("  CSVSIFT") + mutedStyle.Render(" v"+version))
	fmt.Println(mutedStyle.Render("  Template-driven tabular filter"))
	fmt.Println()
}

// PrintReport prints the per-file outcome of a pipeline run.
func PrintReport(report *sift.Report) {
	fmt.Println()
	if report.AllSkipped() {
		fmt.Println(accentStyle.Render("  ✗ NO RESULTS"))
		fmt.Println(mutedStyle.Render("  Every target file was skipped."))
	} else {
		fmt.Println(successStyle.Render("  ✓ FILTERING COMPLETE"))
	}
	fmt.Println()
	fmt.Printf("  %s %s\n", mutedStyle.Render("Run:"), titleStyle.Render(report.ID))
	fmt.Printf("  %s %d\n", mutedStyle.Render("Template values:"), report.DistinctValues)
	fmt.Printf("  %s %s\n", mutedStyle.Render("Time:"), titleStyle.Render(formatDuration(report.Duration)))
	fmt.Println()

	if len(report.Results) > 0 {
		fmt.Printf("  %-32s %10s %10s\n",
			mutedStyle.Render("File"), mutedStyle.Render("Rows"), mutedStyle.Render("Kept"))
		for _, res := range report.Results {
			name := res.FileName
			if len(name) > 32 {
				name = name[:29] + "..."
			}
			fmt.Printf("  %-32s %10d %10d\n", name, res.OriginalRows, res.FilteredRows)
		}
		fmt.Println()
	}

	PrintWarnings(report.Warnings)
}

// PrintWarnings lists skipped files with reasons on stderr.
func PrintWarnings(warnings []sift.Warning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, accentStyle.Render("  ⚠ SKIPPED"))
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "  %s %s %s\n",
			titleStyle.Render(w.File),
			mutedStyle.Render(w.Reason+":"),
			w.Err)
	}
	fmt.Fprintln(os.Stderr)
}

// PrintError prints a run-level failure.
func PrintError(err error) {
	fmt.Fprintln(os.Stderr, accentStyle.Render("  ✗ "+err.Error()))
}

// PrintWritten reports an exported file.
func PrintWritten(path string) {
	fmt.Printf("  %s %s\n", successStyle.Render("→"), path)
}

// ShowProgress creates a progress bar for batch processing.
func ShowProgress(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
