package main

import (
	"errors"
	"os"

	"github.com/spf13/pflag"

	"github.com/sokinpui/srctidy/cli"
	"github.com/sokinpui/srctidy/internal/tui"
	"github.com/sokinpui/srctidy/internal/ui"
	"github.com/sokinpui/srctidy/wsnorm"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := cli.ParseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		ui.Error("%v", err)
		return 1
	}
	if cfg.NoColor {
		ui.DisableColor()
	}
	cfg.Quiet = cfg.TUI

	app, err := wsnorm.New(cfg)
	if err != nil {
		ui.Error("Failed to initialize application: %v", err)
		return 1
	}

	if cfg.TUI {
		if err := tui.Run(app); err != nil {
			ui.Error("Error: %v", err)
			return 1
		}
		return 0
	}

	summary, err := app.Execute()
	if err != nil {
		var detailed *wsnorm.DetailedError
		if errors.As(err, &detailed) {
			ui.Error("\n--- Stack Trace ---\n%s", detailed.Stack)
		}
		ui.Error("Error: %v", err)
		return 1
	}
	ui.PrintNormalizeSummary(summary)
	return 0
}
