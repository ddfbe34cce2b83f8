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

// sqe mirrors struct io_uring_sqe. Must stay 64 bytes for kernel ABI
// compatibility.
type sqe struct {
	Opcode      uint8
	Flags       uint8
	IoPrio      uint16
	Fd          int32
	Off         uint64
	Addr        uint64
	Len         uint32
	OpcodeFlags uint32
	UserData    uint64
	BufIndex    uint16
	Personality uint16
	SpliceFdIn  int32
	_           [2]uint64
}

// cqe mirrors struct io_uring_cqe. Must stay 16 bytes.
type cqe struct {
	UserData uint64
	Res      int32
	Flags    uint32
}

type sqRingOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Flags       uint32
	Dropped     uint32
	Array       uint32
	Resv1       uint32
	Resv2       uint64
}

type cqRingOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Overflow    uint32
	Cqes        uint32
	Flags       uint64
	Resv1       uint32
	Resv2       uint64
}

type ringParams struct {
	SqEntries    uint32
	CqEntries    uint32
	Flags        uint32
	SqThreadCpu  uint32
	SqThreadIdle uint32
	Features     uint32
	WqFd         uint32
	Resv         [3]uint32
	SqOff        sqRingOffsets
	CqOff        cqRingOffsets
}

// Opcodes exercised by this reactor. Everything beyond NOP/ACCEPT/RECV/SEND/
// PROVIDE_BUFFERS/POLL_ADD is out of scope for spec.md's completion reactor.
const (
	opNop            = 0
	opPollAdd        = 6
	opAccept         = 13
	opRecv           = 27
	opSend           = 26
	opProvideBuffers = 31
)

// Setup flags, feature bits and mmap offsets per the kernel UAPI
// (include/uapi/linux/io_uring.h). The corpus's iouring.go only modeled the
// single-mmap (IORING_FEAT_SINGLE_MMAP) layout this reactor also assumes.
const (
	featSingleMmap = 1 << 0

	offSqRing = 0x00000000
	offSqes   = 0x10000000
)

// Multishot/buffer-select bits. Not present in the corpus's iouring.go
// (which only covers the classic one-shot opcodes) — added here from the
// kernel UAPI to implement spec.md §4.7's multishot accept/recv and
// kernel-provided buffer ring; see DESIGN.md.
const (
	acceptMultishot = 1 << 0 // sqe.IoPrio bit, IORING_ACCEPT_MULTISHOT
	recvMultishot   = 1 << 1 // sqe.IoPrio bit, IORING_RECV_MULTISHOT

	sqeBufferSelect = 1 << 5 // sqe.Flags bit, IOSQE_BUFFER_SELECT

	cqeFBuffer = 1 << 0 // cqe.Flags bit, IORING_CQE_F_BUFFER
	cqeFMore   = 1 << 1 // cqe.Flags bit, IORING_CQE_F_MORE

	cqeBufferShift = 16 // cqe.Flags >> cqeBufferShift == buffer id
)

const enterGetEvents = 1 << 0
