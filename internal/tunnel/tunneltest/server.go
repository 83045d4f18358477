// Package tunneltest provides an in-process SSH server that accepts
// password logins and serves direct-tcpip port forwards, for testing code
// that opens tunnels.
package tunneltest

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"

	"github.com/sokinpui/srctidy/internal/tunnel"
)

// Server is a minimal SSH server listening on 127.0.0.1.
type Server struct {
	User     string
	Password string

	listener net.Listener
	config   *ssh.ServerConfig
	wg       sync.WaitGroup

	mu    sync.Mutex
	conns []net.Conn
	once  sync.Once
}

// NewServer starts a server. It is closed when the test ends.
func NewServer(tb testing.TB, user, password string) *Server {
	tb.Helper()

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		tb.Fatalf("failed to generate host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(key)
	if err != nil {
		tb.Fatalf("failed to create signer: %v", err)
	}

	s := &Server{User: user, Password: password}
	s.config = &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == s.User && string(pass) == s.Password {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %q", c.User())
		},
	}
	s.config.AddHostKey(signer)

	s.listener, err = net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("failed to listen: %v", err)
	}
	s.wg.Add(1)
	go s.serve()
	tb.Cleanup(s.Close)
	return s
}

// Addr returns the server address as host:port.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Host returns the server host.
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.Addr())
	return host
}

// Port returns the server port.
func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.Addr())
	p, _ := strconv.Atoi(port)
	return p
}

// Close stops the server and waits for every connection handler to exit.
func (s *Server) Close() {
	s.once.Do(func() {
		s.listener.Close()
		s.mu.Lock()
		for _, c := range s.conns {
			c.Close()
		}
		s.mu.Unlock()
		s.wg.Wait()
	})
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		s.wg.Add(1)
		go s.handle(conn)
	}
}

// directTCPIP is the payload of a direct-tcpip channel open request.
type directTCPIP struct {
	Host       string
	Port       uint32
	OriginHost string
	OriginPort uint32
}

func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()

	sconn, chans, reqs, err := ssh.NewServerConn(conn, s.config)
	if err != nil {
		conn.Close()
		return
	}
	defer sconn.Close()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ssh.DiscardRequests(reqs)
	}()

	for newCh := range chans {
		if newCh.ChannelType() != "direct-tcpip" {
			newCh.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		var req directTCPIP
		if err := ssh.Unmarshal(newCh.ExtraData(), &req); err != nil {
			newCh.Reject(ssh.ConnectionFailed, "malformed direct-tcpip request")
			continue
		}
		target, err := net.Dial("tcp", net.JoinHostPort(req.Host, strconv.Itoa(int(req.Port))))
		if err != nil {
			newCh.Reject(ssh.ConnectionFailed, err.Error())
			continue
		}
		ch, chReqs, err := newCh.Accept()
		if err != nil {
			target.Close()
			continue
		}
		s.wg.Add(2)
		go func() {
			defer s.wg.Done()
			ssh.DiscardRequests(chReqs)
		}()
		go func() {
			defer s.wg.Done()
			tunnel.Pipe(ch, target)
		}()
	}
}

// Echo is a TCP server that writes back everything it reads.
type Echo struct {
	listener net.Listener
	wg       sync.WaitGroup
	once     sync.Once

	mu    sync.Mutex
	conns []net.Conn
}

// NewEcho starts an echo server. It is closed when the test ends.
func NewEcho(tb testing.TB) *Echo {
	tb.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("failed to listen: %v", err)
	}
	e := &Echo{listener: ln}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			e.mu.Lock()
			e.conns = append(e.conns, conn)
			e.mu.Unlock()
			e.wg.Add(1)
			go func() {
				defer e.wg.Done()
				defer conn.Close()
				io.Copy(conn, conn)
			}()
		}
	}()
	tb.Cleanup(e.Close)
	return e
}

// Addr returns the echo server address as host:port.
func (e *Echo) Addr() string {
	return e.listener.Addr().String()
}

// Close stops the server and waits for its goroutines to exit.
func (e *Echo) Close() {
	e.once.Do(func() {
		e.listener.Close()
		e.mu.Lock()
		for _, c := range e.conns {
			c.Close()
		}
		e.mu.Unlock()
		e.wg.Wait()
	})
}
