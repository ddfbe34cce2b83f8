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

//go:build linux

package reactor

import (
	"golang.org/x/sys/unix"

	liberr "github.com/printf033/mynet/errors"
	"github.com/printf033/mynet/handler"
	"github.com/printf033/mynet/logger"
)

// ReadinessConfig configures a Readiness reactor.
type ReadinessConfig struct {
	// PoolSize bounds how many connections this reactor can hold
	// concurrently; beyond it, newly accepted connections are dropped.
	PoolSize int
	// Process is the handler policy every accepted connection runs
	// (Reflect if nil).
	Process handler.Process
	Logger  *logger.Logger
}

// Readiness is the edge-triggered, single-threaded epoll reactor of
// spec.md §4.6: it owns the listening socket (via Acceptor) and adopts
// every accepted connection directly into its own fd map. Run must be
// called from a single goroutine, which is also the only goroutine
// permitted to touch any Event or Handler this reactor owns. Stop may be
// called from any goroutine.
type Readiness struct {
	core   *core
	accept Acceptor
}

// NewReadiness creates the epoll instance, registers the acceptor's
// listening fd for edge-triggered read interest, and preallocates cfg's
// pools.
func NewReadiness(accept Acceptor, cfg ReadinessConfig) (*Readiness, liberr.Error) {
	c, err := newCore(cfg.PoolSize, cfg.Process, cfg.Logger)
	if err != nil {
		return nil, err
	}

	if e := epollAdd(c.epfd, accept.ListenFd(), unix.EPOLLIN|unix.EPOLLET); e != nil {
		c.shutdown()
		return nil, liberr.ErrResourceEpoll.Error(e)
	}

	return &Readiness{core: c, accept: accept}, nil
}

// Stop signals the reactor to finish its current iteration and return. It
// is safe to call from any goroutine, any number of times.
func (r *Readiness) Stop() { r.core.signalStop() }

// OpenConnections reports how many connections this reactor currently owns.
func (r *Readiness) OpenConnections() int { return r.core.openConnections() }

// Run blocks, dispatching readiness events until Stop is called or a fatal
// epoll_wait failure occurs. It waits indefinitely between batches, per
// spec.md §4.6; the stop signal rides the eventfd registered by newCore so
// the indefinite wait does not delay shutdown.
func (r *Readiness) Run() liberr.Error {
	raw := make([]unix.EpollEvent, maxEpollEvents)
	listenFd := r.accept.ListenFd()

	for {
		n, err := unix.EpollWait(r.core.epfd, raw, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return liberr.ErrResourceEpoll.Error(err)
		}

		for i := 0; i < n; i++ {
			fd := int(raw[i].Fd)
			switch fd {
			case r.core.stopFd:
				r.core.shutdown()
				return liberr.ErrStopRequested.Error()
			case listenFd:
				r.handleAccept()
			default:
				r.core.handleConn(fd, raw[i].Events)
			}
		}
	}
}

// handleAccept drains the listener to would-block, admitting every pending
// connection into the shared core.
func (r *Readiness) handleAccept() {
	for {
		conn, err := r.accept.Accept()
		if err != nil {
			if err.IsCode(liberr.ErrTransportAgain) {
				return
			}
			if r.core.log != nil {
				r.core.log.Debug("accept failed", logger.NewFields().Add("error", err.Error()))
			}
			return
		}
		if !r.core.admit(conn) {
			_ = conn.Close()
		}
	}
}
