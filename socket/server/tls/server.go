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

// Package tls mirrors socket/server/tcp's lifecycle contract over a
// TLS-terminating listener: the same New/Listen/IsRunning/IsGone/Close/
// Shutdown/OpenConnections surface, with every accepted connection
// completing a server handshake (reactor.TLSAcceptor) before the reactor
// ever sees it.
package tls

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	liberr "github.com/printf033/mynet/errors"
	"github.com/printf033/mynet/handler"
	"github.com/printf033/mynet/logger"
	"github.com/printf033/mynet/peer/tcp"
	"github.com/printf033/mynet/reactor"
	sckcfg "github.com/printf033/mynet/socket/config"
)

// Server is a TLS-terminating listener driven by a single
// reactor.Readiness over a reactor.TLSAcceptor.
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

// New validates cfg (requiring cfg.TLS to be set) and builds a Server
// bound to cfg.BindIP/cfg.Port.
func New(process handler.Process, cfg sckcfg.ConfigServer) (*Server, liberr.Error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.TLS == nil {
		return nil, liberr.ErrConfigMissingCert.Error()
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

func (s *Server) IsRunning() bool { return s.running.Load() }
func (s *Server) IsGone() bool    { return s.gone.Load() }

func (s *Server) OpenConnections() int64 {
	s.mu.Lock()
	r := s.readiness
	s.mu.Unlock()
	if r == nil {
		return 0
	}
	return int64(r.OpenConnections())
}

func (s *Server) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Listen opens the listening socket, builds a reactor.TLSAcceptor-backed
// reactor.Readiness, and blocks servicing it until ctx is cancelled or
// Close/Shutdown is called.
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

	accept := reactor.NewTLSAcceptor(listenFd, s.cfg.TLS, s.cfg.ReceiveTimeout, s.cfg.HandshakeTimeout)
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

// Close stops the reactor immediately. Safe to call more than once.
func (s *Server) Close() liberr.Error {
	s.mu.Lock()
	r := s.readiness
	s.mu.Unlock()
	if r != nil {
		r.Stop()
	}
	return nil
}

// Shutdown stops the reactor the same way Close does, then waits for Done,
// bounded by ctx or a 5-second default. Open sessions are closed without
// draining unsent responses.
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
