// Package tcpserver implements the line-oriented session protocol: one
// command per line in command(arg1,arg2,...) syntax, every response closed by
// an END_OF_RESPONSE sentinel line. Each connection is served by a worker
// drawn from a bounded pool; a saturated pool blocks new accepts rather than
// dropping connections.
package tcpserver

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/devpablofiz/Hotelier/internal/adapters/observability"
	"github.com/devpablofiz/Hotelier/internal/domain"
	"github.com/devpablofiz/Hotelier/internal/registry"
)

const endOfResponse = "END_OF_RESPONSE"

type Server struct {
	reg      *registry.Registry
	users    domain.UserStore
	sem      *semaphore.Weighted
	sessions *sessionTable

	mu     sync.Mutex
	ln     net.Listener
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(reg *registry.Registry, users domain.UserStore, maxConns int) *Server {
	if maxConns <= 0 {
		maxConns = 10
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		reg:      reg,
		users:    users,
		sem:      semaphore.NewWeighted(int64(maxConns)),
		sessions: newSessionTable(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections until Close. A worker slot is acquired before
// each accept, so a full pool exerts backpressure on the listen backlog
// instead of shedding clients.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return net.ErrClosed
	}
	s.ln = ln
	s.mu.Unlock()

	log.Info().Str("addr", ln.Addr().String()).Msg("TCP server listening")

	for {
		if err := s.sem.Acquire(s.ctx, 1); err != nil {
			return nil // Close was called
		}
		conn, err := ln.Accept()
		if err != nil {
			s.sem.Release(1)
			if errors.Is(err, net.ErrClosed) || s.ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

// Close stops accepting, unblocks the accept loop, and waits for in-flight
// connection workers to finish.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	ln := s.ln
	s.mu.Unlock()

	s.cancel()
	if ln != nil {
		_ = ln.Close()
	}
	s.wg.Wait()
	return nil
}

// Addr returns the bound listener address, for tests that listen on :0.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) handle(conn net.Conn) {
	defer s.sem.Release(1)
	defer s.sessions.drop(conn)
	defer conn.Close()

	observability.SessionsActive.Inc()
	defer observability.SessionsActive.Dec()

	remote := conn.RemoteAddr().String()
	log.Debug().Str("remote", remote).Msg("client connected")

	w := bufio.NewWriter(conn)
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		s.dispatch(conn, w, sc.Text())
	}
	if err := sc.Err(); err != nil {
		log.Debug().Err(err).Str("remote", remote).Msg("client read error")
	}
	log.Debug().Str("remote", remote).Msg("client disconnected")
}

// respond writes the content lines followed by the sentinel and flushes.
func respond(w *bufio.Writer, lines ...string) {
	for _, l := range lines {
		_, _ = w.WriteString(l)
		_ = w.WriteByte('\n')
	}
	_, _ = w.WriteString(endOfResponse)
	_ = w.WriteByte('\n')
	if err := w.Flush(); err != nil {
		log.Debug().Err(err).Msg("client write failed")
	}
}
