package cli

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/sokinpui/srctidy/internal/fs"
)

// Config holds all the command-line flag values of wsnorm.
type Config struct {
	Root       string
	Suffixes   []string
	Excludes   []string
	Jobs       int
	Encoding   string
	ConfigFile string
	DryRun     bool
	TUI        bool
	NoColor    bool
	ReloadNvim bool
	// Quiet suppresses per-file console messages. Set when the TUI renders
	// progress instead.
	Quiet bool
}

// ParseFlags defines and parses wsnorm's command-line flags using pflag.
// The optional positional argument is the root directory.
func ParseFlags(args []string) (*Config, error) {
	cfg := &Config{}
	flags := pflag.NewFlagSet("wsnorm", pflag.ContinueOnError)

	// Define flags
	flags.StringSliceVarP(&cfg.Suffixes, "suffix", "s", nil, "File suffixes to normalize (default: .cpp, .h or the project file's list).")
	flags.StringSliceVarP(&cfg.Excludes, "exclude", "x", nil, "Directory names to skip (default: .git).")
	flags.IntVarP(&cfg.Jobs, "jobs", "j", 0, "Number of files processed concurrently (default 1).")
	flags.StringVar(&cfg.Encoding, "encoding", "", "Text encoding of the source files, e.g. latin1 (default utf-8).")
	flags.StringVarP(&cfg.ConfigFile, "config", "c", "", "Project file to load (default: <root>/.wsnorm.toml when present).")
	flags.BoolVarP(&cfg.DryRun, "dry-run", "n", false, "Report files that would change without writing them.")
	flags.BoolVar(&cfg.TUI, "tui", false, "Show a progress spinner and a summary view.")
	flags.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output.")
	flags.BoolVar(&cfg.ReloadNvim, "reload-nvim", false, "Reload rewritten files in the Neovim instance at $NVIM_LISTEN_ADDRESS.")

	flags.Usage = func() {
		out := flags.Output()
		fmt.Fprintln(out, "Usage: wsnorm [flags] [root]")
		fmt.Fprintln(out, "\nStrip trailing whitespace, trailing blank lines and tabs from source files under root.")
		fmt.Fprintln(out, "\nExample: wsnorm -s cpp -s h -s mm ./modules")
		fmt.Fprintln(out, "\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	switch flags.NArg() {
	case 0:
	case 1:
		cfg.Root = flags.Arg(0)
	default:
		return nil, fmt.Errorf("error: expected at most one root directory, got %d", flags.NArg())
	}

	if cfg.Jobs < 0 {
		return nil, fmt.Errorf("error: --jobs must not be negative")
	}

	// Normalize suffixes
	cfg.Suffixes = fs.NormalizeSuffixes(cfg.Suffixes)

	return cfg, nil
}
