package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/sokinpui/srctidy/cli"
	"github.com/sokinpui/srctidy/internal/ui"
	"github.com/sokinpui/srctidy/publish"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Getenv, os.Stdout)
	stop()
	os.Exit(code)
}

// run validates arguments and environment before any network activity.
func run(ctx context.Context, args []string, getenv func(string) string, stdout io.Writer) int {
	flags, err := cli.ParsePublishFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		ui.Error("Error: %v", err)
		return 1
	}
	if flags.NoColor {
		ui.DisableColor()
	}

	cfg, err := publish.LoadConfig(getenv)
	if err != nil {
		ui.Error("Error: %v", err)
		return 1
	}

	p := publish.New(cfg, publish.Options{
		QueryFile: flags.QueryFile,
		Format:    flags.Format,
		Copy:      flags.Copy,
		LocalPort: flags.LocalPort,
		SSHPort:   flags.SSHPort,
		DBPort:    flags.DBPort,
	})
	if err := p.Run(ctx, stdout); err != nil {
		ui.Error("Error: %v", err)
		return 1
	}
	return 0
}
