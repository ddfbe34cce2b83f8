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

// Package completion implements spec.md §4.7's submission/completion
// reactor variant over raw io_uring: multishot accept, a kernel-provided
// buffer ring feeding multishot receive, and one-shot send resubmitted
// until drained. The ring mechanics here are grounded on the corpus's
// cloudwego-gopkg/internal/iouring package, reimplemented under this
// module's own path since that package is unimportable (internal/) from
// outside its module; the setup/enter/register syscalls use
// golang.org/x/sys/unix's per-architecture SYS_IO_URING_* numbers instead
// of hand-rolled ones, which is the one material difference from that
// reference.
package completion

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// uring owns one io_uring instance: its fd, the kernel parameters returned
// by setup, and the mmap'd SQ/CQ rings plus the separate SQE array mapping.
type uring struct {
	fd      int
	params  ringParams
	sq      submissionQueue
	cq      completionQueue
	sqeMem  []byte
	ringMem []byte
}

type submissionQueue struct {
	head        *uint32
	tail        *uint32
	ringMask    uint32
	ringEntries uint32
	array       *uint32
	sqes        []sqe
}

type completionQueue struct {
	head        *uint32
	tail        *uint32
	ringMask    uint32
	ringEntries uint32
	cqes        []cqe
}

func uringSetup(entries uint32, params *ringParams) (int, error) {
	fd, _, errno := unix.Syscall(unix.SYS_IO_URING_SETUP, uintptr(entries), uintptr(unsafe.Pointer(params)), 0)
	if errno != 0 {
		return -1, errno
	}
	return int(fd), nil
}

func uringEnter(fd int, toSubmit, minComplete, flags uint32) (int, error) {
	r, _, errno := unix.Syscall6(unix.SYS_IO_URING_ENTER, uintptr(fd), uintptr(toSubmit), uintptr(minComplete), uintptr(flags), 0, 0)
	if errno != 0 {
		return int(r), errno
	}
	return int(r), nil
}

func uringRegister(fd int, opcode uint32, arg unsafe.Pointer, nrArgs uint32) error {
	_, _, errno := unix.Syscall6(unix.SYS_IO_URING_REGISTER, uintptr(fd), uintptr(opcode), uintptr(arg), uintptr(nrArgs), 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

func newURing(entries uint32) (*uring, error) {
	var params ringParams
	fd, err := uringSetup(entries, &params)
	if err != nil {
		return nil, fmt.Errorf("io_uring_setup: %w", err)
	}

	if params.Features&featSingleMmap == 0 {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("kernel lacks IORING_FEAT_SINGLE_MMAP (need Linux 5.4+)")
	}

	r := &uring{fd: fd, params: params}

	page := uint32(unix.Getpagesize())
	sqRingSize := params.SqOff.Array + params.SqEntries*4
	cqRingSize := params.CqOff.Cqes + params.CqEntries*16
	ringSize := sqRingSize
	if cqRingSize > ringSize {
		ringSize = cqRingSize
	}
	ringSize = (ringSize + page - 1) &^ (page - 1)

	ringMem, err := unix.Mmap(fd, offSqRing, int(ringSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("mmap ring: %w", err)
	}
	r.ringMem = ringMem

	sqeSize := params.SqEntries * uint32(unsafe.Sizeof(sqe{}))
	sqeMem, err := unix.Mmap(fd, offSqes, int(sqeSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("mmap sqes: %w", err)
	}
	r.sqeMem = sqeMem

	r.sq.head = (*uint32)(unsafe.Pointer(&r.ringMem[params.SqOff.Head]))
	r.sq.tail = (*uint32)(unsafe.Pointer(&r.ringMem[params.SqOff.Tail]))
	r.sq.ringMask = *(*uint32)(unsafe.Pointer(&r.ringMem[params.SqOff.RingMask]))
	r.sq.ringEntries = *(*uint32)(unsafe.Pointer(&r.ringMem[params.SqOff.RingEntries]))
	r.sq.array = (*uint32)(unsafe.Pointer(&r.ringMem[params.SqOff.Array]))
	r.sq.sqes = unsafe.Slice((*sqe)(unsafe.Pointer(&r.sqeMem[0])), params.SqEntries)

	r.cq.head = (*uint32)(unsafe.Pointer(&r.ringMem[params.CqOff.Head]))
	r.cq.tail = (*uint32)(unsafe.Pointer(&r.ringMem[params.CqOff.Tail]))
	r.cq.ringMask = *(*uint32)(unsafe.Pointer(&r.ringMem[params.CqOff.RingMask]))
	r.cq.ringEntries = *(*uint32)(unsafe.Pointer(&r.ringMem[params.CqOff.RingEntries]))
	r.cq.cqes = unsafe.Slice((*cqe)(unsafe.Pointer(&r.ringMem[params.CqOff.Cqes])), params.CqEntries)

	return r, nil
}

// nextSQE returns a submission slot for the caller to fill, or nil if the
// submission queue is full. The caller must call advanceSQ after filling it.
func (r *uring) nextSQE() *sqe {
	q := &r.sq
	tail := atomic.LoadUint32(q.tail)
	head := atomic.LoadUint32(q.head)
	if tail-head >= q.ringEntries {
		return nil
	}

	idx := tail & q.ringMask
	s := &q.sqes[idx]
	*s = sqe{}

	arrPtr := (*uint32)(unsafe.Pointer(uintptr(unsafe.Pointer(q.array)) + uintptr(idx)*4))
	*arrPtr = idx
	return s
}

func (r *uring) advanceSQ() {
	atomic.AddUint32(r.sq.tail, 1)
}

func (r *uring) pendingSQEs() uint32 {
	return atomic.LoadUint32(r.sq.tail) - atomic.LoadUint32(r.sq.head)
}

// submit flushes queued SQEs to the kernel without waiting for completions.
func (r *uring) submit() error {
	toSubmit := r.pendingSQEs()
	if toSubmit == 0 {
		return nil
	}
	for {
		_, err := uringEnter(r.fd, toSubmit, 0, 0)
		if err == unix.EINTR {
			continue
		}
		return err
	}
}

// waitCQE blocks until at least one completion is available and returns it
// without advancing the head; the caller must call advanceCQ after use.
func (r *uring) waitCQE() (*cqe, error) {
	q := &r.cq
	head := atomic.LoadUint32(q.head)
	tail := atomic.LoadUint32(q.tail)

	for head == tail {
		_, err := uringEnter(r.fd, 0, 1, enterGetEvents)
		if err == unix.EINTR || err == unix.EAGAIN {
			tail = atomic.LoadUint32(q.tail)
			continue
		}
		if err != nil {
			return nil, err
		}
		tail = atomic.LoadUint32(q.tail)
	}

	c := &q.cqes[head&q.ringMask]
	return c, nil
}

func (r *uring) advanceCQ() {
	atomic.AddUint32(r.cq.head, 1)
}

func (r *uring) Close() error {
	if r == nil {
		return nil
	}
	var firstErr error
	if r.ringMem != nil {
		if err := unix.Munmap(r.ringMem); err != nil && firstErr == nil {
			firstErr = err
		}
		r.ringMem = nil
	}
	if r.sqeMem != nil {
		if err := unix.Munmap(r.sqeMem); err != nil && firstErr == nil {
			firstErr = err
		}
		r.sqeMem = nil
	}
	if r.fd > 0 {
		if err := unix.Close(r.fd); err != nil && firstErr == nil {
			firstErr = err
		}
		r.fd = -1
	}
	return firstErr
}
