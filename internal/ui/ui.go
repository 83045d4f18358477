package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/sokinpui/srctidy/model"
)

// Writer receives every console message. Messages go to stderr so stdout
// only carries data.
var Writer io.Writer = color.Error

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
	PathColor    = color.New(color.FgYellow)
)

// DisableColor turns off color output for every helper.
func DisableColor() {
	color.NoColor = true
}

func Header(format string, a ...interface{}) {
	HeaderColor.Fprintf(Writer, format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	InfoColor.Fprintf(Writer, format+"\n", a...)
}

func Success(format string, a ...interface{}) {
	SuccessColor.Fprintf(Writer, format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	WarningColor.Fprintf(Writer, format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	ErrorColor.Fprintf(Writer, format+"\n", a...)
}

func Path(format string, a ...interface{}) {
	PathColor.Fprintf(Writer, "  "+format+"\n", a...)
}

// --- Summaries ---

func PrintNormalizeSummary(s model.Summary) {
	Header("\n--- Normalize Summary ---")
	if s.Message != "" {
		Info("%s", s.Message)
	}

	if len(s.Modified) == 0 {
		Info("Checked %d file(s); all clean.", s.Visited)
		return
	}

	verb := "Rewrote"
	if s.DryRun {
		verb = "Would rewrite"
	}
	Success("%s %d of %d file(s):", verb, len(s.Modified), s.Visited)
	for _, f := range s.Modified {
		fmt.Fprintf(Writer, "  - %s\n", f)
	}
	if s.ReloadWarning != "" {
		Warning("%s", s.ReloadWarning)
	}
	PrintReloadSummary(s.Reloaded, s.ReloadFailed)
}

func PrintReloadSummary(reloaded, failed []string) {
	if len(reloaded) > 0 {
		Success("Reloaded %d buffer(s) in Neovim.", len(reloaded))
	}
	if len(failed) > 0 {
		Error("Failed to reload %d buffer(s):", len(failed))
		for _, f := range failed {
			fmt.Fprintf(Writer, "  - %s\n", f)
		}
	}
}
