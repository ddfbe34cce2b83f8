/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package tcp assembles a single reactor.Readiness plus a plain listening
// socket into the lifecycle contract observed from
// the teacher's socket/server/tcp test suite: New, Listen, IsRunning,
// IsGone, Close, Shutdown, OpenConnections.
package tcp

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	sckcfg "github.com/printf033/mynet/socket/config"

	liberr "github.com/printf033/mynet/errors"
	"github.com/printf033/mynet/handler"
	"github.com/printf033/mynet/logger"
	"github.com/printf033/mynet/peer/tcp"
	"github.com/printf033/mynet/reactor"
)

// Server is a TCP listener driven by a single reactor.Readiness.
// Construct with New, then call Listen from a goroutine of the caller's
// choosing; Listen blocks until Close, Shutdown or a fatal reactor error.
type Server struct {
	cfg     sckcfg.ConfigServer
	process handler.Process
	log     *logger.Logger

	mu       sync.Mutex
	listenFd int
	running  atomic.Bool
	gone     atomic.Bool
	done     chan struct{}

	readiness *reactor.Readiness
}

// New validates cfg and builds a Server bound to cfg.BindIP/cfg.Port. It
// does not open the listening socket yet; that happens in Listen, matching
// the observed contract where IsGone() is true and IsRunning() is false
// immediately after construction.
func New(process handler.Process, cfg sckcfg.ConfigServer) (*Server, liberr.Error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if process == nil {
		process = handler.Reflect
	}

	s := &Server{
		cfg:      cfg,
		process:  process,
		listenFd: -1,
		done:     make(chan struct{}),
	}
	s.gone.Store(true)
	return s, nil
}

// IsRunning reports whether Listen is currently blocking in its accept
// loop.
func (s *Server) IsRunning() bool { return s.running.Load() }

// IsGone reports whether the server has never been started, or has fully
// torn down after Close/Shutdown.
func (s *Server) IsGone() bool { return s.gone.Load() }

// OpenConnections reports how many connections the underlying reactor
// currently owns.
func (s *Server) OpenConnections() int64 {
	s.mu.Lock()
	r := s.readiness
	s.mu.Unlock()
	if r == nil {
		return 0
	}
	return int64(r.OpenConnections())
}

// Done returns a channel closed once the server has fully stopped.
func (s *Server) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Listen opens the listening socket, builds the reactor and blocks
// servicing it until ctx is cancelled or Close/Shutdown is called. It
// returns nil when ctx is cancelled, ErrStopRequested after Close or
// Shutdown, and any other liberr.Error on a fatal failure.
func (s *Server) Listen(ctx context.Context) liberr.Error {
	s.mu.Lock()
	if s.running.Load() {
		s.mu.Unlock()
		return liberr.ErrConfigInvalidAddress.Error()
	}

	listenFd, err := tcp.Listen(s.cfg.BindIP, s.cfg.Port, s.cfg.Backlog)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	accept := reactor.NewTCPAcceptor(listenFd, s.cfg.ReceiveTimeout)
	r, rerr := reactor.NewReadiness(accept, reactor.ReadinessConfig{
		PoolSize: s.cfg.PoolSize,
		Process:  s.process,
		Logger:   s.log,
	})
	if rerr != nil {
		_ = tcp.Close(listenFd)
		s.mu.Unlock()
		return rerr
	}

	s.listenFd = listenFd
	s.readiness = r
	s.running.Store(true)
	s.gone.Store(false)
	s.done = make(chan struct{})
	s.mu.Unlock()

	stopOnCtx := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			r.Stop()
		case <-stopOnCtx:
		}
	}()

	runErr := r.Run()
	close(stopOnCtx)

	s.mu.Lock()
	_ = tcp.Close(s.listenFd)
	s.listenFd = -1
	s.running.Store(false)
	s.gone.Store(true)
	close(s.done)
	s.mu.Unlock()

	if ctx.Err() != nil && runErr != nil && runErr.IsCode(liberr.ErrStopRequested) {
		return nil
	}
	return runErr
}

// Close stops the reactor immediately, abandoning any in-flight
// connections. Safe to call more than once, including when not running.
func (s *Server) Close() liberr.Error {
	s.mu.Lock()
	r := s.readiness
	s.mu.Unlock()
	if r != nil {
		r.Stop()
	}
	return nil
}

// Shutdown stops the reactor the same way Close does, then waits for Done.
// Connections still open are closed when the reactor stops; responses not
// yet sent to them are not drained first. ctx, or a 5-second default, bounds
// how long Shutdown waits for Done.
func (s *Server) Shutdown(ctx context.Context) liberr.Error {
	_ = s.Close()

	select {
	case <-s.Done():
		return nil
	case <-ctx.Done():
		return liberr.ErrStopRequested.Error(ctx.Err())
	case <-time.After(5 * time.Second):
		return liberr.ErrStopRequested.Error()
	}
}
