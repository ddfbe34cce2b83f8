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

package completion

import (
	"encoding/binary"
	"unsafe"

	"golang.org/x/sys/unix"

	liberr "github.com/printf033/mynet/errors"
	"github.com/printf033/mynet/handler"
	"github.com/printf033/mynet/logger"
	"github.com/printf033/mynet/pool"
)

// Config controls buffer-ring sizing and the per-connection handler pool.
// BufCount should be a power of two per spec.md §4.7.
type Config struct {
	QueueEntries uint32
	BufGroupID   uint16
	BufCount     uint16
	BufSize      uint32
	PoolSize     int
	Process      handler.Process
	Logger       *logger.Logger
}

// reserved user-data values outside the connection id range (ids start at 3).
const (
	udAccept  uint64 = 0
	udStop    uint64 = 1
	udProvide uint64 = 2
	firstID   uint64 = 3

	sendBit uint64 = 1 << 63
)

type connState struct {
	id      uint64
	fd      int32
	handler *handler.Handler
	closing bool
}

// Completion is the io_uring-backed reactor of spec.md §4.7: multishot
// accept, a kernel-provided buffer ring feeding multishot receive, and
// one-shot send resubmitted on partial completion.
type Completion struct {
	ring *uring

	listenFd int32
	stopFd   int

	bgid    uint16
	bufSize uint32
	bufMem  []byte

	handles *pool.Pool[handler.Handler, *handler.Handler]
	byID    map[uint64]*connState

	nextID uint64
	log    *logger.Logger
	cfg    Config
}

// NewCompletion builds a Completion bound to an already-listening,
// non-blocking socket. listenFd's lifetime belongs to the caller, matching
// reactor.Readiness's contract for its Acceptor.
func NewCompletion(listenFd int, cfg Config) (*Completion, liberr.Error) {
	if cfg.QueueEntries == 0 {
		cfg.QueueEntries = 256
	}
	if cfg.BufCount == 0 {
		cfg.BufCount = 256
	}
	if cfg.BufSize == 0 {
		cfg.BufSize = 4096
	}

	r, err := newURing(cfg.QueueEntries)
	if err != nil {
		return nil, liberr.ErrResourceURing.Error(err)
	}

	stopFd, serr := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if serr != nil {
		_ = r.Close()
		return nil, liberr.ErrResourceURing.Error(serr)
	}

	c := &Completion{
		ring:     r,
		listenFd: int32(listenFd),
		stopFd:   stopFd,
		bgid:     cfg.BufGroupID,
		bufSize:  cfg.BufSize,
		bufMem:   make([]byte, int(cfg.BufCount)*int(cfg.BufSize)),
		handles:  pool.New[handler.Handler, *handler.Handler](cfg.PoolSize),
		byID:     make(map[uint64]*connState, cfg.PoolSize),
		nextID:   firstID,
		log:      cfg.Logger,
		cfg:      cfg,
	}

	if e := c.provideBuffers(0, cfg.BufCount); e != nil {
		_ = c.ring.Close()
		_ = unix.Close(stopFd)
		return nil, liberr.ErrResourceURing.Error(e)
	}

	return c, nil
}

// provideBuffers (re)seeds the buffer ring starting at buffer id `from` for
// `count` consecutive buffers, per spec.md §4.7's "returns the buffer to the
// ring" step.
func (c *Completion) provideBuffers(from, count uint16) error {
	if count == 0 {
		return nil
	}
	s := c.ring.nextSQE()
	if s == nil {
		if e := c.ring.submit(); e != nil {
			return e
		}
		s = c.ring.nextSQE()
		if s == nil {
			return unix.EBUSY
		}
	}
	base := uintptr(unsafe.Pointer(&c.bufMem[int(from)*int(c.bufSize)]))
	s.Opcode = opProvideBuffers
	s.Fd = int32(count)
	s.Addr = uint64(base)
	s.Len = c.bufSize
	s.Off = uint64(from)
	s.BufIndex = c.bgid
	s.UserData = udProvide // Run reads this completion and ignores its result
	c.ring.advanceSQ()
	return c.ring.submit()
}

func (c *Completion) submitAccept() error {
	s := c.ring.nextSQE()
	if s == nil {
		return unix.EBUSY
	}
	s.Opcode = opAccept
	s.Fd = c.listenFd
	s.IoPrio = acceptMultishot
	s.UserData = udAccept
	c.ring.advanceSQ()
	return c.ring.submit()
}

func (c *Completion) submitStopPoll() error {
	s := c.ring.nextSQE()
	if s == nil {
		return unix.EBUSY
	}
	s.Opcode = opPollAdd
	s.Fd = int32(c.stopFd)
	s.OpcodeFlags = unix.POLLIN
	s.UserData = udStop
	c.ring.advanceSQ()
	return c.ring.submit()
}

func (c *Completion) submitRecv(cs *connState) error {
	s := c.ring.nextSQE()
	if s == nil {
		return unix.EBUSY
	}
	s.Opcode = opRecv
	s.Fd = cs.fd
	s.IoPrio = recvMultishot
	s.Flags = sqeBufferSelect
	s.BufIndex = c.bgid
	s.Len = c.bufSize
	s.UserData = cs.id
	c.ring.advanceSQ()
	return c.ring.submit()
}

func (c *Completion) submitSend(cs *connState, window []byte) error {
	if len(window) == 0 {
		return nil
	}
	s := c.ring.nextSQE()
	if s == nil {
		return unix.EBUSY
	}
	s.Opcode = opSend
	s.Fd = cs.fd
	s.Addr = uint64(uintptr(unsafe.Pointer(&window[0])))
	s.Len = uint32(len(window))
	s.UserData = cs.id | sendBit
	c.ring.advanceSQ()
	return c.ring.submit()
}

// Stop wakes the reactor's next WaitCQE via the registered stop eventfd.
func (c *Completion) Stop() {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, _ = unix.Write(c.stopFd, buf[:])
}

func (c *Completion) OpenConnections() int {
	return len(c.byID)
}

// Run submits the multishot accept and the stop-poll, then drains
// completions until Stop is called.
func (c *Completion) Run() liberr.Error {
	if err := c.submitAccept(); err != nil {
		return liberr.ErrResourceURing.Error(err)
	}
	if err := c.submitStopPoll(); err != nil {
		return liberr.ErrResourceURing.Error(err)
	}

	for {
		ce, err := c.ring.waitCQE()
		if err != nil {
			return liberr.ErrResourceURing.Error(err)
		}
		ud := ce.UserData
		res := ce.Res
		flags := ce.Flags
		c.ring.advanceCQ()

		switch {
		case ud == udStop:
			c.shutdown()
			return liberr.ErrStopRequested.Error()
		case ud == udProvide:
		case ud == udAccept:
			c.handleAccept(res, flags)
		case ud&sendBit != 0:
			c.handleSendCompletion(ud&^sendBit, res)
		default:
			c.handleRecvCompletion(ud, res, flags)
		}
	}
}

func (c *Completion) handleAccept(res int32, flags uint32) {
	if res >= 0 {
		id := c.nextID
		c.nextID++
		cs := &connState{id: id, fd: res}
		h := c.handles.Acquire()
		if h == nil {
			if c.log != nil {
				c.log.Warn("handler pool exhausted, dropping accepted connection", nil)
			}
			_ = unix.Close(int(res))
		} else {
			h.SetProcess(c.cfg.Process)
			cs.handler = h
			c.byID[id] = cs
			if e := c.submitRecv(cs); e != nil && c.log != nil {
				c.log.Error("failed to submit multishot recv", nil)
			}
		}
	} else if c.log != nil {
		c.log.Warn("accept completion failed", nil)
	}

	if flags&cqeFMore == 0 {
		if e := c.submitAccept(); e != nil && c.log != nil {
			c.log.Error("failed to resubmit multishot accept", nil)
		}
	}
}

func (c *Completion) handleRecvCompletion(id uint64, res int32, flags uint32) {
	cs, ok := c.byID[id]
	if !ok {
		return
	}

	switch {
	case res == -int32(unix.ENOBUFS):
		// spec.md §9 open question (a): logged and closed, matching the
		// reference behavior rather than re-posting a buffer and retrying.
		if c.log != nil {
			c.log.Warn("buffer ring exhausted, closing connection", nil)
		}
		c.closeConn(cs)
		return
	case res <= 0:
		c.closeConn(cs)
		return
	}

	bid := uint16(flags >> cqeBufferShift)
	start := int(bid) * int(c.bufSize)
	data := c.bufMem[start : start+int(res)]
	cs.handler.AppendRecv(data)
	_ = c.provideBuffers(bid, 1)

	// A send is one-shot per submission (spec.md §4.7): while
	// HasResponse() is still latched true, send_buffer belongs to the
	// in-flight submission at submitSend's line and only
	// handleSendCompletion/StillSending may touch it (spec.md §4.3). Running
	// Process() here would let Reflect overwrite that buffer mid-flight.
	if !cs.handler.HasResponse() {
		cs.handler.Process()
		if cs.handler.HasResponse() {
			window := cs.handler.ResponseWindow()
			if e := c.submitSend(cs, window); e != nil && c.log != nil {
				c.log.Error("failed to submit send", nil)
			}
		}
	}

	if flags&cqeFMore == 0 && !cs.closing {
		if e := c.submitRecv(cs); e != nil {
			c.closeConn(cs)
		}
	}
}

func (c *Completion) handleSendCompletion(id uint64, res int32) {
	cs, ok := c.byID[id]
	if !ok {
		return
	}
	if res < 0 {
		c.closeConn(cs)
		return
	}
	if !cs.handler.StillSending(int(res)) {
		return
	}
	window := cs.handler.ResponseWindow()
	if e := c.submitSend(cs, window); e != nil {
		c.closeConn(cs)
	}
}

func (c *Completion) closeConn(cs *connState) {
	cs.closing = true
	_ = unix.Close(int(cs.fd))
	delete(c.byID, cs.id)
	if cs.handler != nil {
		c.handles.Release(cs.handler)
	}
}

func (c *Completion) shutdown() {
	for _, cs := range c.byID {
		_ = unix.Close(int(cs.fd))
	}
	c.byID = make(map[uint64]*connState)
	_ = unix.Close(c.stopFd)
	_ = c.ring.Close()
}
