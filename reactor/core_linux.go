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
	"encoding/binary"

	"golang.org/x/sys/unix"

	liberr "github.com/printf033/mynet/errors"
	"github.com/printf033/mynet/handler"
	"github.com/printf033/mynet/logger"
	"github.com/printf033/mynet/pool"
)

// maxEpollEvents bounds one epoll_wait batch; the loop calls EpollWait
// again immediately if more are pending, so this is a throughput knob, not
// a correctness one.
const maxEpollEvents = 256

// scratchSize is the per-call recv buffer, matching spec.md's "4 KiB
// scratch buffer".
const scratchSize = 4096

// core is the epoll-driven connection machinery shared by Readiness (which
// also owns the listening socket) and the multi-reactor Worker (which only
// ever receives already-accepted connections off the ring buffer). Neither
// wrapper exposes core directly; each composes it to stay single-threaded
// per spec.md §5.
type core struct {
	epfd    int
	stopFd  int
	events  *pool.Pool[Event, *Event]
	handles *pool.Pool[handler.Handler, *handler.Handler]
	byFd    map[int]*Event
	process handler.Process
	log     *logger.Logger
}

func newCore(poolSize int, process handler.Process, log *logger.Logger) (*core, liberr.Error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, liberr.ErrResourceEpoll.Error(err)
	}

	stopFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, liberr.ErrResourceEpoll.Error(err)
	}

	c := &core{
		epfd:    epfd,
		stopFd:  stopFd,
		events:  pool.New[Event, *Event](poolSize),
		handles: pool.New[handler.Handler, *handler.Handler](poolSize),
		byFd:    make(map[int]*Event, poolSize),
		process: process,
		log:     log,
	}

	if e := epollAdd(epfd, stopFd, unix.EPOLLIN); e != nil {
		_ = unix.Close(stopFd)
		_ = unix.Close(epfd)
		return nil, liberr.ErrResourceEpoll.Error(e)
	}
	return c, nil
}

func epollAdd(epfd, fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	return unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func epollMod(epfd, fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	return unix.EpollCtl(epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

// signalStop wakes any blocked EpollWait on this core's epfd. Safe from any
// goroutine.
func (c *core) signalStop() {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, _ = unix.Write(c.stopFd, buf[:])
}

// admit registers a newly accepted (or dequeued) connection for
// edge-triggered read interest and assigns it a pooled Event/Handler. It
// reports ok=false when a pool is exhausted or registration failed, in
// which case the caller must close conn itself.
func (c *core) admit(conn Conn) bool {
	h := c.handles.Acquire()
	if h == nil {
		if c.log != nil {
			c.log.Warn("handler pool exhausted", nil)
		}
		return false
	}
	h.SetProcess(c.process)

	ev := c.events.Acquire()
	if ev == nil {
		if c.log != nil {
			c.log.Warn("event pool exhausted", nil)
		}
		c.handles.Release(h)
		return false
	}

	fd := conn.Fd()
	ev.Role = RoleRecv
	ev.Conn = conn
	ev.Handler = h
	ev.Interest = InterestRead

	if e := epollAdd(c.epfd, fd, unix.EPOLLIN|unix.EPOLLET); e != nil {
		c.releaseEvent(ev)
		return false
	}
	c.byFd[fd] = ev
	return true
}

func (c *core) handleConn(fd int, events uint32) {
	ev, ok := c.byFd[fd]
	if !ok {
		return
	}

	if events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		c.closeConn(ev)
		return
	}
	if events&unix.EPOLLIN != 0 {
		if !c.handleReadable(ev) {
			return
		}
	}
	if events&unix.EPOLLOUT != 0 {
		c.handleWritable(ev)
	}
}

// handleReadable drains ev's fd to would-block, per the edge-triggered
// discipline of spec.md §4.6, then runs the handler's process policy and
// arms write interest if a response became available. It returns false if
// the connection was closed in the process.
//
// ErrTransportAgain/ErrTransportWant (a TLS record straddling the read
// boundary, mid-WANT_READ) are transport-transient per spec.md §4.5/§7:
// whatever n came back is appended and the drain loop simply stops for
// this readiness batch, same as an ordinary would-block. Only
// ErrTransportReset/ErrTransportClosed/ErrTransportTLS close the
// connection.
func (c *core) handleReadable(ev *Event) bool {
	var scratch [scratchSize]byte

	for {
		n, err := ev.Conn.Recv(scratch[:])
		if n > 0 {
			ev.Handler.AppendRecv(scratch[:n])
		}
		if err != nil {
			if err.IsCode(liberr.ErrTransportAgain) || err.IsCode(liberr.ErrTransportWant) {
				break
			}
			c.closeConn(ev)
			return false
		}
		if n < len(scratch) {
			break
		}
	}

	ev.Handler.Process()
	if ev.Handler.HasResponse() {
		c.armWrite(ev)
	}
	return true
}

// handleWritable sends as much of the pending response as the transport
// accepts in one call; peer/tcp and peer/tls already loop internally until
// either the buffer drains or the kernel reports would-block, so a single
// call here satisfies spec.md §4.6's "repeatedly call send" requirement.
//
// ErrTransportAgain/ErrTransportWant (the TLS engine needing another
// WANT_WRITE round before it can flush) are transport-transient: n bytes
// already moved are still handed to StillSending, write interest stays
// armed, and the reactor retries on the next writable readiness. Only a
// hard error closes the connection.
func (c *core) handleWritable(ev *Event) {
	window := ev.Handler.ResponseWindow()
	if len(window) == 0 {
		c.disarmWrite(ev)
		return
	}

	n, err := ev.Conn.Send(window)
	if err != nil {
		if err.IsCode(liberr.ErrTransportAgain) || err.IsCode(liberr.ErrTransportWant) {
			if n > 0 {
				ev.Handler.StillSending(n)
			}
			return
		}
		c.closeConn(ev)
		return
	}
	if !ev.Handler.StillSending(n) {
		c.disarmWrite(ev)
	}
}

func (c *core) armWrite(ev *Event) {
	if ev.Interest&InterestWrite != 0 {
		return
	}
	ev.Interest |= InterestWrite
	_ = epollMod(c.epfd, ev.Conn.Fd(), unix.EPOLLIN|unix.EPOLLOUT|unix.EPOLLET)
}

func (c *core) disarmWrite(ev *Event) {
	if ev.Interest&InterestWrite == 0 {
		return
	}
	ev.Interest &^= InterestWrite
	_ = epollMod(c.epfd, ev.Conn.Fd(), unix.EPOLLIN|unix.EPOLLET)
}

func (c *core) closeConn(ev *Event) {
	fd := ev.Conn.Fd()
	_ = unix.EpollCtl(c.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	_ = ev.Conn.Close()
	delete(c.byFd, fd)
	c.releaseEvent(ev)
}

func (c *core) releaseEvent(ev *Event) {
	h := ev.Handler
	c.events.Release(ev)
	if h != nil {
		c.handles.Release(h)
	}
}

// shutdown closes every connection this core still owns and tears down the
// epoll instance and stop eventfd. It never touches a listening fd: that
// lifetime belongs to whoever built the Acceptor (spec.md §3).
func (c *core) shutdown() {
	for fd, ev := range c.byFd {
		_ = unix.EpollCtl(c.epfd, unix.EPOLL_CTL_DEL, fd, nil)
		_ = ev.Conn.Close()
	}
	c.byFd = make(map[int]*Event)

	_ = unix.Close(c.stopFd)
	_ = unix.Close(c.epfd)
}

func (c *core) openConnections() int {
	return len(c.byFd)
}
