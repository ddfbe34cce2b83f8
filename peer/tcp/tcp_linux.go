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

// Package tcp implements the non-blocking TCP transport primitives: listen,
// accept, connect, send, recv. Every operation returns a signed byte count
// (>= 0) or one of errors.CodeError's negative transport codes; callers
// never see a raw syscall.Errno.
package tcp

import (
	"net"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	liberr "github.com/printf033/mynet/errors"
)

// Listen creates a non-blocking, address-reusable IPv4 listening socket.
func Listen(ip string, port int, backlog int) (int, liberr.Error) {
	if port < 0 || port > 65535 {
		return -1, liberr.ErrConfigPortRange.Error()
	}

	addr := net.ParseIP(ip)
	if addr == nil || addr.To4() == nil {
		return -1, liberr.ErrConfigInvalidAddress.Error()
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, liberr.ErrResourceSocket.Error(err)
	}

	if err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return -1, liberr.ErrResourceSockOpt.Error(err)
	}
	if err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
		_ = unix.Close(fd)
		return -1, liberr.ErrResourceSockOpt.Error(err)
	}

	var sa unix.SockaddrInet4
	copy(sa.Addr[:], addr.To4())
	sa.Port = port

	if err = unix.Bind(fd, &sa); err != nil {
		_ = unix.Close(fd)
		return -1, liberr.ErrResourceBind.Error(err)
	}
	if err = unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return -1, liberr.ErrResourceListen.Error(err)
	}

	return fd, nil
}

// Accept returns the next pending connection as a non-blocking,
// close-on-exec descriptor. rcvTimeout, if non-zero, is applied via
// SO_RCVTIMEO. A negative return with ErrTransportAgain means no pending
// connection right now (edge-triggered readiness callers retry until this).
func Accept(listenFd int, rcvTimeout time.Duration) (int, liberr.Error) {
	for {
		fd, _, err := unix.Accept4(listenFd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err == nil {
			if rcvTimeout > 0 {
				tv := unix.NsecToTimeval(rcvTimeout.Nanoseconds())
				if e := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); e != nil {
					_ = unix.Close(fd)
					return -1, liberr.ErrResourceSockOpt.Error(e)
				}
			}
			return fd, nil
		}

		switch err {
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return -1, liberr.ErrTransportAgain.Error()
		default:
			return -1, liberr.ErrResourceSocket.Error(err)
		}
	}
}

// sendNoSignal is unix.Send's raw syscall, called directly because the
// wrapper in golang.org/x/sys/unix discards the partial byte count a
// short, non-blocking send(2) returns — and spec.md §4.4's partial-I/O
// accounting needs exactly that count.
func sendNoSignal(fd int, buf []byte) (int, error) {
	var p unsafe.Pointer
	if len(buf) > 0 {
		p = unsafe.Pointer(&buf[0])
	} else {
		p = unsafe.Pointer(&zeroByte)
	}
	r, _, errno := unix.Syscall6(unix.SYS_SENDTO, uintptr(fd), uintptr(p), uintptr(len(buf)), uintptr(unix.MSG_NOSIGNAL), 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return int(r), nil
}

var zeroByte byte

// Send writes buf to fd with MSG_NOSIGNAL, retrying on EINTR, until either
// every byte is delivered or EAGAIN is encountered. It returns the number
// of bytes actually written (possibly 0) and, on EAGAIN, no error —
// callers treat a non-negative n as "this much progress, arm writable
// interest for the rest." Any other failure closes fd and returns a
// negative code. MSG_NOSIGNAL suppresses SIGPIPE on a reset peer per
// spec.md §4.4/§6, matching the original's ::send(..., MSG_NOSIGNAL).
func Send(fd int, buf []byte) (int, liberr.Error) {
	n := 0
	for n < len(buf) {
		w, err := sendNoSignal(fd, buf[n:])
		if err == nil {
			n += w
			continue
		}

		switch err {
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return n, nil
		case unix.EPIPE, unix.ECONNRESET:
			_ = unix.Close(fd)
			return n, liberr.ErrTransportReset.Error(err)
		default:
			_ = unix.Close(fd)
			return n, liberr.ErrTransportClosed.Error(err)
		}
	}
	return n, nil
}

// Recv reads into buf, retrying on EINTR, until either buf is full or EAGAIN
// is encountered. A read returning 0 bytes with no errno means end of
// stream (peer closed); Recv reports that as ErrTransportClosed alongside
// whatever bytes were collected before the close, distinct from the nil
// error EAGAIN reports on a would-block.
func Recv(fd int, buf []byte) (int, liberr.Error) {
	n := 0
	for n < len(buf) {
		r, err := unix.Read(fd, buf[n:])
		if err == nil {
			if r == 0 {
				return n, liberr.ErrTransportClosed.Error()
			}
			n += r
			continue
		}

		switch err {
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return n, nil
		case unix.ECONNRESET:
			return n, liberr.ErrTransportReset.Error(err)
		default:
			return n, liberr.ErrTransportClosed.Error(err)
		}
	}
	return n, nil
}

// Connect performs a non-blocking connect, waiting up to timeout for the
// socket to become writable, then inspects SO_ERROR to finalize success or
// failure.
func Connect(ip string, port int, timeout time.Duration) (int, liberr.Error) {
	addr := net.ParseIP(ip)
	if addr == nil || addr.To4() == nil {
		return -1, liberr.ErrConfigInvalidAddress.Error()
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, liberr.ErrResourceSocket.Error(err)
	}

	var sa unix.SockaddrInet4
	copy(sa.Addr[:], addr.To4())
	sa.Port = port

	err = unix.Connect(fd, &sa)
	if err == nil {
		return fd, nil
	}
	if err != unix.EINPROGRESS {
		_ = unix.Close(fd)
		return -1, liberr.ErrTransportClosed.Error(err)
	}

	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
	deadline := int(timeout.Milliseconds())
	if deadline <= 0 {
		deadline = -1
	}

	for {
		n, perr := unix.Poll(fds, deadline)
		if perr == unix.EINTR {
			continue
		}
		if perr != nil {
			_ = unix.Close(fd)
			return -1, liberr.ErrTransportClosed.Error(perr)
		}
		if n == 0 {
			_ = unix.Close(fd)
			return -1, liberr.ErrTransportAgain.Error()
		}
		break
	}

	soErr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		_ = unix.Close(fd)
		return -1, liberr.ErrTransportClosed.Error(err)
	}
	if soErr != 0 {
		_ = unix.Close(fd)
		return -1, liberr.ErrTransportClosed.Error(unix.Errno(soErr))
	}

	return fd, nil
}

// Close closes fd. Callers must set their stored fd to a sentinel (e.g. -1)
// immediately after, to prevent double-close.
func Close(fd int) liberr.Error {
	if err := unix.Close(fd); err != nil {
		return liberr.ErrTransportClosed.Error(err)
	}
	return nil
}
