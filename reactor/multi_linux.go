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
	"time"

	"golang.org/x/sys/unix"

	liberr "github.com/printf033/mynet/errors"
	"github.com/printf033/mynet/handler"
	"github.com/printf033/mynet/logger"
	"github.com/printf033/mynet/ring"
)

// multiPollTimeout bounds each Worker's epoll_wait so it periodically comes
// back up to drain the shared ring, per spec.md §4.8: a worker cannot wait
// indefinitely on its fd set alone, since new connections arrive out of
// band via the ring rather than through its own epoll instance.
const multiPollTimeout = 50 * time.Millisecond

// ringTakeRetries bounds how many scheduler yields a Worker spends trying
// to dequeue one connection before giving up for this iteration and going
// back to epoll_wait.
const ringTakeRetries = 4

// WorkerConfig configures a ring-fed Worker.
type WorkerConfig struct {
	PoolSize int
	Process  handler.Process
	Logger   *logger.Logger
}

// Worker is a multi-reactor participant of spec.md §4.8: it never owns a
// listening socket, instead pulling already-accepted connections off a
// shared ring.MPMC and running the same epoll-driven read/write/close
// machinery as Readiness. Any number of Workers may share one ring, each
// pinned to its own goroutine.
type Worker struct {
	core *core
	in   *ring.MPMC[Conn]
}

// NewWorker builds a Worker draining in.
func NewWorker(in *ring.MPMC[Conn], cfg WorkerConfig) (*Worker, liberr.Error) {
	c, err := newCore(cfg.PoolSize, cfg.Process, cfg.Logger)
	if err != nil {
		return nil, err
	}
	return &Worker{core: c, in: in}, nil
}

// Stop signals the worker to finish its current iteration and return.
func (w *Worker) Stop() { w.core.signalStop() }

// OpenConnections reports how many connections this worker currently owns.
func (w *Worker) OpenConnections() int { return w.core.openConnections() }

// Run alternates between draining newly queued connections and servicing
// readiness events on the ones it already owns, until Stop is called.
func (w *Worker) Run() liberr.Error {
	raw := make([]unix.EpollEvent, maxEpollEvents)

	for {
		w.drainQueue()

		n, err := unix.EpollWait(w.core.epfd, raw, int(multiPollTimeout/time.Millisecond))
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return liberr.ErrResourceEpoll.Error(err)
		}

		for i := 0; i < n; i++ {
			fd := int(raw[i].Fd)
			if fd == w.core.stopFd {
				w.core.shutdown()
				return liberr.ErrStopRequested.Error()
			}
			w.core.handleConn(fd, raw[i].Events)
		}
	}
}

// drainQueue admits every connection currently waiting on the ring, up to
// one bounded retry window per call; it never blocks indefinitely, so a
// quiet ring never starves the epoll_wait half of the loop.
func (w *Worker) drainQueue() {
	for {
		var conn Conn
		if !w.in.Take(&conn, ringTakeRetries) {
			return
		}
		if !w.core.admit(conn) {
			_ = conn.Close()
		}
	}
}

// MainAcceptorConfig configures a Dispatcher.
type MainAcceptorConfig struct {
	// QueueRetries bounds how many scheduler yields a full ring is given to
	// drain before the dispatcher treats it as saturated.
	QueueRetries int
	Logger       *logger.Logger
}

// Dispatcher is the accept-only half of the multi-reactor arrangement of
// spec.md §4.8: a single goroutine that owns the listening socket, accepts
// connections as fast as the kernel hands them out, and pushes each onto a
// shared ring for a pool of Workers to service. It never touches a
// connection's read or write path itself.
type Dispatcher struct {
	epfd    int
	stopFd  int
	accept  Acceptor
	out     *ring.MPMC[Conn]
	retries int
	log     *logger.Logger
}

// NewDispatcher creates the epoll instance, registers accept's listening
// fd, and prepares to push accepted connections onto out.
func NewDispatcher(accept Acceptor, out *ring.MPMC[Conn], cfg MainAcceptorConfig) (*Dispatcher, liberr.Error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, liberr.ErrResourceEpoll.Error(err)
	}

	stopFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, liberr.ErrResourceEpoll.Error(err)
	}

	if e := epollAdd(epfd, stopFd, unix.EPOLLIN); e != nil {
		_ = unix.Close(stopFd)
		_ = unix.Close(epfd)
		return nil, liberr.ErrResourceEpoll.Error(e)
	}
	if e := epollAdd(epfd, accept.ListenFd(), unix.EPOLLIN|unix.EPOLLET); e != nil {
		_ = unix.Close(stopFd)
		_ = unix.Close(epfd)
		return nil, liberr.ErrResourceEpoll.Error(e)
	}

	retries := cfg.QueueRetries
	if retries <= 0 {
		retries = ringTakeRetries
	}

	return &Dispatcher{
		epfd:    epfd,
		stopFd:  stopFd,
		accept:  accept,
		out:     out,
		retries: retries,
		log:     cfg.Logger,
	}, nil
}

// Stop signals the dispatcher to finish its current iteration and return.
func (d *Dispatcher) Stop() {
	var buf [8]byte
	buf[0] = 1
	_, _ = unix.Write(d.stopFd, buf[:])
}

// Run blocks, accepting connections and handing them to the ring until
// Stop is called or a fatal epoll_wait failure occurs. A connection that
// cannot be queued after cfg.QueueRetries yields gets busySentinel written
// to it, then is closed: the Acceptor's Accept has already run the
// accept-side handshake (for TLS), so failing fast here is cheaper than
// letting the connection sit half-adopted.
func (d *Dispatcher) Run() liberr.Error {
	raw := make([]unix.EpollEvent, maxEpollEvents)
	listenFd := d.accept.ListenFd()

	for {
		n, err := unix.EpollWait(d.epfd, raw, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return liberr.ErrResourceEpoll.Error(err)
		}

		for i := 0; i < n; i++ {
			fd := int(raw[i].Fd)
			switch fd {
			case d.stopFd:
				d.shutdown()
				return liberr.ErrStopRequested.Error()
			case listenFd:
				d.handleAccept()
			}
		}
	}
}

// busySentinel is the short fixed frame written to a connection the ring
// could not accept (spec.md §4.8, §7 "Queue full"): a zero-length framed
// message, valid per spec.md §6 ("a payload length of zero is legal and is
// a no-op send"), distinguishable by any client speaking the length-prefix
// protocol from a real echo.
var busySentinel = [4]byte{0, 0, 0, 0}

func (d *Dispatcher) handleAccept() {
	for {
		conn, err := d.accept.Accept()
		if err != nil {
			if err.IsCode(liberr.ErrTransportAgain) {
				return
			}
			if d.log != nil {
				d.log.Debug("accept failed", logger.NewFields().Add("error", err.Error()))
			}
			return
		}
		if !d.out.Put(conn, d.retries) {
			if d.log != nil {
				d.log.Warn("worker queue saturated, dropping connection", nil)
			}
			_, _ = conn.Send(busySentinel[:])
			_ = conn.Close()
		}
	}
}

func (d *Dispatcher) shutdown() {
	_ = unix.Close(d.stopFd)
	_ = unix.Close(d.epfd)
}
