package redistest

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/quickvote-go/internal/storage/memory"
)

// Server is a RESP server over a memory store.
type Server struct {
	store  *memory.Store
	logger *slog.Logger

	ln      net.Listener
	running atomic.Bool
	wg      sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	commands atomic.Int64
}

// New creates a server over store. A nil store gets a fresh memory store.
func New(store *memory.Store, logger *slog.Logger) *Server {
	if store == nil {
		store = memory.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:  store,
		logger: logger,
		conns:  make(map[net.Conn]struct{}),
	}
}

// Start runs a server on a random loopback port and closes it when the
// test ends.
func Start(t testing.TB) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("redistest: listen: %v", err)
	}
	s := New(nil, nil)
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	go s.Serve(ln)
	t.Cleanup(func() { s.Close() })
	return s
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Store returns the backing store.
func (s *Server) Store() *memory.Store {
	return s.store
}

// Commands returns the number of commands served.
func (s *Server) Commands() int64 {
	return s.commands.Load()
}

// Serve accepts connections on ln until Close.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.running.Store(true)

	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		s.mu.Lock()
		s.conns[c] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(c)
		}()
	}
}

// Close stops accepting, drops every client and waits for them to exit.
func (s *Server) Close() error {
	s.running.Store(false)

	s.mu.Lock()
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

func (s *Server) serveConn(c net.Conn) {
	defer func() {
		c.Close()
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
	}()

	br := bufio.NewReader(c)
	bw := bufio.NewWriter(c)
	ctx := context.Background()

	for {
		args, err := ReadCommand(br)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Debug("redistest: bad command", "remote", c.RemoteAddr(), "error", err)
			writeError(bw, "ERR protocol error: "+err.Error())
			bw.Flush()
			return
		}
		if len(args) == 0 {
			continue
		}

		s.commands.Add(1)
		quit := s.dispatch(ctx, bw, args)

		c.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := bw.Flush(); err != nil || quit {
			return
		}
	}
}
