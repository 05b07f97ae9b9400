// Package server owns the listening socket, the route table, the shared
// Portal, and the reactor/executor pair every accepted connection is
// handed to. It is the component that turns the ambient and domain
// stacks into a running origin server, and the one that knows how to
// unbind cleanly on SIGINT/SIGTERM.
package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/originhttp/pkg/originhttp/conn"
	"github.com/yourusername/originhttp/pkg/originhttp/executor"
	"github.com/yourusername/originhttp/pkg/originhttp/portal"
	"github.com/yourusername/originhttp/pkg/originhttp/reactor"
	"github.com/yourusername/originhttp/pkg/originhttp/router"
	"github.com/yourusername/originhttp/pkg/originhttp/socket"
	"github.com/yourusername/originhttp/pkg/originhttp/stats"
)

// Server is the assembled runtime: a listening socket accepting
// connections via the reactor, each handed a conn.Conn wired against the
// shared route table and Portal.
type Server struct {
	listener net.Listener
	react    *reactor.Engine
	pool     *executor.Pool
	table    *router.Table
	portal   *portal.Portal
	log      *logrus.Logger
	connCfg  conn.Settings
	stats    *stats.Stats

	acceptToken struct{} // stable userdata identifying the listener's ACCEPT

	wg sync.WaitGroup
}

// New builds a Server from its already-constructed collaborators. The
// caller opens ln (for instance via socket.Listen) and builds
// pool/table/portal before this call; New does no fallible setup of its
// own. st may be
// nil, in which case accept/active counts are simply not tracked.
func New(ln net.Listener, react *reactor.Engine, pool *executor.Pool, table *router.Table, p *portal.Portal, log *logrus.Logger, connCfg conn.Settings, st *stats.Stats) *Server {
	return &Server{
		listener: ln,
		react:    react,
		pool:     pool,
		table:    table,
		portal:   p,
		log:      log,
		connCfg:  connCfg,
		stats:    st,
	}
}

// Open binds a listening socket with the spec's tuning and assembles a
// Server ready to Serve. This is the convenience path cmd/originhttpd
// uses; New builds a Server over a listener opened elsewhere.
func Open(sockCfg socket.Config, react *reactor.Engine, pool *executor.Pool, table *router.Table, p *portal.Portal, log *logrus.Logger, connCfg conn.Settings, st *stats.Stats) (*Server, error) {
	ln, err := socket.Listen(sockCfg)
	if err != nil {
		return nil, err
	}
	return New(ln, react, pool, table, p, log, connCfg, st), nil
}

// Addr returns the listening socket's local address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve submits the single long-lived ACCEPT loop to the reactor and
// blocks until it stops — either the listening socket being closed, or
// Unbind cancelling it by its userdata token and closing the listening
// socket. Any other accept error is logged and the loop accepts again. It returns as soon as no new connections will be accepted;
// call Drain afterward to let connections already in flight finish.
func (s *Server) Serve() {
	done := make(chan struct{})
	s.react.Submit(&s.acceptToken, func(res int32, _ any) {
		close(done)
	}, func(ctx context.Context) int32 {
		s.acceptLoop(ctx)
		return 0
	})
	<-done
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		netConn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			if s.log != nil {
				s.log.WithError(err).Error("accept failed")
			}
			continue
		}
		s.wg.Add(1)
		if s.stats != nil {
			s.stats.Accept()
		}
		c := conn.New(netConn, s.react, s.pool, s.table, s.portal, s.log, s.connCfg)
		c.OnClose(func() {
			if s.stats != nil {
				s.stats.Close()
			}
			s.wg.Done()
		})
		c.Start()
	}
}

// Unbind cancels the outstanding ACCEPT by its userdata token and closes
// the listening socket, per the SIGINT/SIGTERM path: stop taking new
// connections, then let the worker pool drain whatever is already in
// flight. It does not wait for existing connections to finish; call
// Drain for that.
func (s *Server) Unbind() {
	s.react.Cancel(&s.acceptToken)
	_ = s.listener.Close()
}

// Drain waits up to timeout for every accepted connection to reach
// Closing, then terminates the worker pool. Call after Unbind.
func (s *Server) Drain(timeout time.Duration, signal string) {
	doneCh := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(doneCh)
	}()
	select {
	case <-doneCh:
	case <-time.After(timeout):
	}
	s.pool.Terminate(signal)
}
