package publish

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	_ "modernc.org/sqlite"

	"github.com/sokinpui/srctidy/internal/render"
	"github.com/sokinpui/srctidy/internal/tunnel/tunneltest"
)

func writeQuery(t *testing.T, query string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "query.sql")
	require.NoError(t, os.WriteFile(path, []byte(query), 0o644))
	return path
}

// warmSQLite loads the SQLite driver once so that any goroutine it keeps for
// the life of the process is not reported as a leak.
func warmSQLite(t *testing.T) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	require.NoError(t, db.Close())
}

// newTestPublisher tunnels through an in-process SSH server and runs queries
// against an in-memory SQLite database instead of MySQL.
func newTestPublisher(t *testing.T, srv *tunneltest.Server, opts Options) *Publisher {
	t.Helper()
	opts.SSHPort = srv.Port()
	p := New(&Config{
		Host:     srv.Host(),
		SSHUser:  srv.User,
		SSHPass:  srv.Password,
		SQLUser:  "bench",
		SQLPass:  "secret",
		Database: "benchmarks",
	}, opts)
	p.driver = "sqlite"
	p.dsn = func(int) string { return ":memory:" }
	return p
}

func TestRun(t *testing.T) {
	warmSQLite(t)
	ignore := goleak.IgnoreCurrent()
	srv := tunneltest.NewServer(t, "tunnel", "pw")

	p := newTestPublisher(t, srv, Options{
		QueryFile: writeQuery(t, "SELECT 1 AS id, 'render' AS name, 2.5 AS ms, NULL AS note\n"),
	})

	var out bytes.Buffer
	require.NoError(t, p.Run(context.Background(), &out))
	assert.Equal(t, "[\n"+`  {"id":1,"name":"render","ms":2.5,"note":null}`+"\n]\n", out.String())

	srv.Close()
	goleak.VerifyNone(t, ignore)
}

func TestRunMarkdownAndCopy(t *testing.T) {
	srv := tunneltest.NewServer(t, "tunnel", "pw")

	p := newTestPublisher(t, srv, Options{
		QueryFile: writeQuery(t, "SELECT 'a' AS k UNION ALL SELECT 'b'"),
		Format:    render.FormatMarkdown,
		Copy:      true,
	})
	var copied string
	p.copyFn = func(s string) error {
		copied = s
		return nil
	}

	var out bytes.Buffer
	require.NoError(t, p.Run(context.Background(), &out))
	assert.Equal(t, "| k |\n| --- |\n| a |\n| b |\n", out.String())
	assert.Equal(t, out.String(), copied)
}

func TestRunClipboardFailureIsNotFatal(t *testing.T) {
	srv := tunneltest.NewServer(t, "tunnel", "pw")

	p := newTestPublisher(t, srv, Options{
		QueryFile: writeQuery(t, "SELECT 1 AS one"),
		Copy:      true,
	})
	p.copyFn = func(string) error { return errors.New("no clipboard") }

	var out bytes.Buffer
	require.NoError(t, p.Run(context.Background(), &out))
	assert.Equal(t, "[\n  {\"one\":1}\n]\n", out.String())
}

func TestRunQueryFailureReleasesTunnel(t *testing.T) {
	warmSQLite(t)
	ignore := goleak.IgnoreCurrent()
	srv := tunneltest.NewServer(t, "tunnel", "pw")

	p := newTestPublisher(t, srv, Options{
		QueryFile: writeQuery(t, "SELEC nonsense FROM nowhere"),
	})

	var out bytes.Buffer
	err := p.Run(context.Background(), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query failed")
	assert.Empty(t, out.String())

	srv.Close()
	goleak.VerifyNone(t, ignore)
}

func TestRunNoRows(t *testing.T) {
	srv := tunneltest.NewServer(t, "tunnel", "pw")

	p := newTestPublisher(t, srv, Options{
		QueryFile: writeQuery(t, "SELECT 1 AS one WHERE 0"),
		Copy:      true,
	})
	p.copyFn = func(string) error {
		t.Error("nothing should be copied for an empty result")
		return nil
	}

	var out bytes.Buffer
	require.NoError(t, p.Run(context.Background(), &out))
	assert.Equal(t, "[]\n", out.String())

	p = newTestPublisher(t, srv, Options{
		QueryFile: writeQuery(t, "SELECT 1 AS one WHERE 0"),
		Format:    render.FormatMarkdown,
	})
	out.Reset()
	require.NoError(t, p.Run(context.Background(), &out))
	assert.Empty(t, out.String())
}

func TestRunFailsBeforeTunnelOnBadQueryFile(t *testing.T) {
	p := New(&Config{Host: "127.0.0.1"}, Options{QueryFile: filepath.Join(t.TempDir(), "missing.sql")})
	err := p.Run(context.Background(), &bytes.Buffer{})
	assert.ErrorContains(t, err, "failed to read query file")

	p = New(&Config{Host: "127.0.0.1"}, Options{QueryFile: writeQuery(t, "  \n")})
	err = p.Run(context.Background(), &bytes.Buffer{})
	assert.ErrorContains(t, err, "empty")
}

func TestRunBadSSHPassword(t *testing.T) {
	srv := tunneltest.NewServer(t, "tunnel", "pw")

	p := newTestPublisher(t, srv, Options{QueryFile: writeQuery(t, "SELECT 1")})
	p.cfg.SSHPass = "wrong"

	err := p.Run(context.Background(), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open ssh tunnel")
}

func TestMySQLDSN(t *testing.T) {
	p := New(&Config{
		SQLUser:  "bench",
		SQLPass:  "p@ss",
		Database: "benchmarks",
	}, Options{})

	dsn := p.dsn(40123)
	assert.True(t, strings.HasPrefix(dsn, "bench:p@ss@tcp(127.0.0.1:40123)/benchmarks"), dsn)
	assert.Contains(t, dsn, "timeout=5s")
	assert.Equal(t, "mysql", p.driver)
}
