package publish

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/go-sql-driver/mysql"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/sokinpui/srctidy/internal/records"
	"github.com/sokinpui/srctidy/internal/render"
	"github.com/sokinpui/srctidy/internal/tunnel"
	"github.com/sokinpui/srctidy/internal/ui"
)

// Options are the per-invocation settings of a publish run.
type Options struct {
	QueryFile string
	Format    render.Format
	Copy      bool
	LocalPort int
	SSHPort   int
	DBPort    int
}

// Publisher runs one query through an SSH tunnel.
type Publisher struct {
	cfg  *Config
	opts Options

	driver string
	dsn    func(port int) string
	copyFn func(string) error
}

// New creates a Publisher for the MySQL database behind cfg.Host.
func New(cfg *Config, opts Options) *Publisher {
	if opts.SSHPort == 0 {
		opts.SSHPort = 22
	}
	if opts.DBPort == 0 {
		opts.DBPort = 3306
	}
	if opts.Format == "" {
		opts.Format = render.FormatJSON
	}
	p := &Publisher{
		cfg:    cfg,
		opts:   opts,
		driver: "mysql",
		copyFn: clipboard.WriteAll,
	}
	p.dsn = p.mysqlDSN
	return p
}

func (p *Publisher) mysqlDSN(port int) string {
	c := mysql.NewConfig()
	c.User = p.cfg.SQLUser
	c.Passwd = p.cfg.SQLPass
	c.Net = "tcp"
	c.Addr = net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	c.DBName = p.cfg.Database
	c.Timeout = tunnel.DialTimeout
	return c.FormatDSN()
}

// Run reads the query file, opens the tunnel, executes the query and writes
// the rendered rows to out. The tunnel is closed on every return path.
func (p *Publisher) Run(ctx context.Context, out io.Writer) (err error) {
	query, err := os.ReadFile(p.opts.QueryFile)
	if err != nil {
		return fmt.Errorf("failed to read query file: %w", err)
	}
	if strings.TrimSpace(string(query)) == "" {
		return fmt.Errorf("query file %s is empty", p.opts.QueryFile)
	}

	hostKey, err := p.hostKeyCallback()
	if err != nil {
		return err
	}

	tun, err := tunnel.Open(ctx, tunnel.Config{
		SSHAddr:         net.JoinHostPort(p.cfg.Host, strconv.Itoa(p.opts.SSHPort)),
		User:            p.cfg.SSHUser,
		Password:        p.cfg.SSHPass,
		RemoteAddr:      net.JoinHostPort("127.0.0.1", strconv.Itoa(p.opts.DBPort)),
		LocalAddr:       net.JoinHostPort("127.0.0.1", strconv.Itoa(p.opts.LocalPort)),
		HostKeyCallback: hostKey,
	})
	if err != nil {
		return fmt.Errorf("failed to open ssh tunnel: %w", err)
	}
	defer func() {
		if cerr := tun.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close ssh tunnel: %w", cerr)
		}
	}()
	ui.Info("Local bind port: %d", tun.LocalPort())

	recs, err := p.query(ctx, tun.LocalPort(), string(query))
	if err != nil {
		if terr := tun.Err(); terr != nil {
			return fmt.Errorf("%w (tunnel: %v)", err, terr)
		}
		return err
	}
	text, err := render.Render(p.opts.Format, recs)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(out, text); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	if len(recs) == 0 {
		ui.Warning("Query returned no rows.")
		return nil
	}

	if p.opts.Copy {
		if err := p.copyFn(text); err != nil {
			ui.Warning("Failed to copy results to clipboard: %v", err)
		} else {
			ui.Success("Copied %d row(s) to clipboard.", len(recs))
		}
	}
	return nil
}

// query executes the whole query text as one statement.
func (p *Publisher) query(ctx context.Context, port int, query string) ([]records.Record, error) {
	db, err := sql.Open(p.driver, p.dsn(port))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return records.Scan(rows)
}

func (p *Publisher) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if p.cfg.KnownHosts == "" {
		return nil, nil
	}
	cb, err := knownhosts.New(p.cfg.KnownHosts)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", p.cfg.KnownHosts, err)
	}
	return cb, nil
}
