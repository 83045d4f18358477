package tunnel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

const (
	// DialTimeout bounds connecting and authenticating to the SSH server.
	DialTimeout = 5 * time.Second
	// ForwardTimeout bounds opening the remote leg of one forwarded connection.
	ForwardTimeout = 5 * time.Second
)

// Config describes a local port forward through an SSH server.
type Config struct {
	// SSHAddr is the SSH server as host:port.
	SSHAddr  string
	User     string
	Password string
	// RemoteAddr is the forward target as seen from the SSH server.
	RemoteAddr string
	// LocalAddr is where the tunnel listens. Defaults to 127.0.0.1:0.
	LocalAddr string
	// HostKeyCallback verifies the server. Defaults to accepting any key.
	HostKeyCallback ssh.HostKeyCallback
}

// Tunnel forwards connections accepted on a local listener to a remote
// address through one SSH client connection.
type Tunnel struct {
	client   *ssh.Client
	listener net.Listener
	remote   string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	closing bool
	conns   map[net.Conn]struct{}
	lastErr error

	closeOnce sync.Once
	closeErr  error
}

// Open connects to the SSH server and starts forwarding. The caller must
// Close the tunnel on every path.
func Open(ctx context.Context, cfg Config) (*Tunnel, error) {
	if cfg.LocalAddr == "" {
		cfg.LocalAddr = "127.0.0.1:0"
	}
	hostKey := cfg.HostKeyCallback
	if hostKey == nil {
		hostKey = ssh.InsecureIgnoreHostKey()
	}

	client, err := dial(ctx, cfg.SSHAddr, &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Password)},
		HostKeyCallback: hostKey,
		Timeout:         DialTimeout,
	})
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", cfg.LocalAddr)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.LocalAddr, err)
	}

	tctx, cancel := context.WithCancel(context.Background())
	t := &Tunnel{
		client:   client,
		listener: listener,
		remote:   cfg.RemoteAddr,
		ctx:      tctx,
		cancel:   cancel,
		conns:    make(map[net.Conn]struct{}),
	}
	t.wg.Add(1)
	go t.serve()
	return t, nil
}

func dial(ctx context.Context, addr string, cfg *ssh.ClientConfig) (*ssh.Client, error) {
	d := net.Dialer{Timeout: DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ssh server %s: %w", addr, err)
	}
	// The handshake has no timeout of its own.
	if err := conn.SetDeadline(time.Now().Add(DialTimeout)); err != nil {
		conn.Close()
		return nil, err
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s failed: %w", addr, err)
	}
	if err := conn.SetDeadline(time.Time{}); err != nil {
		c.Close()
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}

// LocalAddr returns the address the tunnel listens on.
func (t *Tunnel) LocalAddr() string {
	return t.listener.Addr().String()
}

// LocalPort returns the port the tunnel listens on.
func (t *Tunnel) LocalPort() int {
	_, port, err := net.SplitHostPort(t.LocalAddr())
	if err != nil {
		return 0
	}
	p, _ := strconv.Atoi(port)
	return p
}

// Err returns the most recent failure to open a forwarded connection.
func (t *Tunnel) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// Close stops accepting, tears down every forwarded connection and the SSH
// client, and waits for all forwarding goroutines to exit. It is safe to call
// more than once.
func (t *Tunnel) Close() error {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closing = true
		for c := range t.conns {
			c.Close()
		}
		t.mu.Unlock()

		t.cancel()
		lerr := t.listener.Close()
		cerr := t.client.Close()
		t.wg.Wait()
		if cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			t.closeErr = cerr
		} else if lerr != nil && !errors.Is(lerr, net.ErrClosed) {
			t.closeErr = lerr
		}
	})
	return t.closeErr
}

func (t *Tunnel) serve() {
	defer t.wg.Done()
	for {
		local, err := t.listener.Accept()
		if err != nil {
			return
		}
		t.wg.Add(1)
		go t.forward(local)
	}
}

func (t *Tunnel) forward(local net.Conn) {
	defer t.wg.Done()

	ctx, cancel := context.WithTimeout(t.ctx, ForwardTimeout)
	remote, err := t.client.DialContext(ctx, "tcp", t.remote)
	cancel()
	if err != nil {
		t.setErr(fmt.Errorf("failed to open %s through tunnel: %w", t.remote, err))
		local.Close()
		return
	}

	if !t.track(local, remote) {
		local.Close()
		remote.Close()
		return
	}
	defer t.untrack(local, remote)
	Pipe(local, remote)
}

func (t *Tunnel) track(conns ...net.Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closing {
		return false
	}
	for _, c := range conns {
		t.conns[c] = struct{}{}
	}
	return true
}

func (t *Tunnel) untrack(conns ...net.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range conns {
		delete(t.conns, c)
	}
}

func (t *Tunnel) setErr(err error) {
	t.mu.Lock()
	t.lastErr = err
	t.mu.Unlock()
}

// Pipe copies between a and b in both directions until either side is done,
// then closes both.
func Pipe(a, b io.ReadWriteCloser) {
	done := make(chan struct{}, 2)
	go func() {
		io.Copy(a, b)
		done <- struct{}{}
	}()
	go func() {
		io.Copy(b, a)
		done <- struct{}{}
	}()
	<-done
	a.Close()
	b.Close()
	<-done
}
