package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/sokinpui/srctidy/internal/render"
)

// ErrArgCount is returned when benchpub is not given exactly one query file.
var ErrArgCount = errors.New("expected exactly one argument: path to SQL query file")

// PublishConfig holds all the command-line flag values of benchpub.
type PublishConfig struct {
	QueryFile string
	Format    render.Format
	Copy      bool
	LocalPort int
	SSHPort   int
	DBPort    int
	NoColor   bool
}

// ParsePublishFlags defines and parses benchpub's command-line flags.
func ParsePublishFlags(args []string) (*PublishConfig, error) {
	cfg := &PublishConfig{}
	flags := pflag.NewFlagSet("benchpub", pflag.ContinueOnError)

	var format string
	flags.StringVarP(&format, "format", "f", string(render.FormatJSON), fmt.Sprintf("Output format: %v.", render.Formats()))
	flags.BoolVarP(&cfg.Copy, "copy", "c", false, "Also copy the rendered result to the clipboard.")
	flags.IntVar(&cfg.LocalPort, "local-port", 0, "Local port the tunnel binds to (default: any free port).")
	flags.IntVar(&cfg.SSHPort, "ssh-port", 22, "SSH port on DATABASE_HOST.")
	flags.IntVar(&cfg.DBPort, "db-port", 3306, "Database port as seen from DATABASE_HOST.")
	flags.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output.")

	flags.Usage = func() {
		out := flags.Output()
		fmt.Fprintln(out, "Usage: benchpub [flags] <query.sql>")
		fmt.Fprintln(out, "\nRun a query against the benchmark database through an SSH tunnel and print the rows.")
		fmt.Fprintln(out, "\nRequired environment: DATABASE_HOST, DATABASE_SSH_USER, DATABASE_SSH_PASS,")
		fmt.Fprintln(out, "DATABASE_SQL_USER, DATABASE_SQL_PASS, DATABASE_SQL_DATABASE")
		fmt.Fprintln(out, "\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() != 1 {
		return nil, ErrArgCount
	}
	cfg.QueryFile = flags.Arg(0)

	f, err := render.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	cfg.Format = f

	for name, port := range map[string]int{"local-port": cfg.LocalPort, "ssh-port": cfg.SSHPort, "db-port": cfg.DBPort} {
		if port < 0 || port > 65535 {
			return nil, fmt.Errorf("error: --%s %d is out of range", name, port)
		}
	}
	return cfg, nil
}
