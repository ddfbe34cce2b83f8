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

// Package udp implements the broadcast-capable datagram peer: a secondary
// facility alongside the TCP/TLS stream peers, not driven by the reactor.
package udp

import (
	"net"

	"golang.org/x/sys/unix"

	liberr "github.com/printf033/mynet/errors"
)

// Peer owns one non-blocking UDP socket bound to ip:port with SO_BROADCAST
// enabled.
type Peer struct {
	fd int
}

// Listen creates and binds the datagram socket.
func Listen(ip string, port int) (*Peer, liberr.Error) {
	if port < 0 || port > 65535 {
		return nil, liberr.ErrConfigPortRange.Error()
	}

	addr := net.ParseIP(ip)
	if addr == nil || addr.To4() == nil {
		return nil, liberr.ErrConfigInvalidAddress.Error()
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, liberr.ErrResourceSocket.Error(err)
	}

	for _, opt := range []int{unix.SO_REUSEADDR, unix.SO_REUSEPORT, unix.SO_BROADCAST} {
		if err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, opt, 1); err != nil {
			_ = unix.Close(fd)
			return nil, liberr.ErrResourceSockOpt.Error(err)
		}
	}

	var sa unix.SockaddrInet4
	copy(sa.Addr[:], addr.To4())
	sa.Port = port

	if err = unix.Bind(fd, &sa); err != nil {
		_ = unix.Close(fd)
		return nil, liberr.ErrResourceBind.Error(err)
	}

	return &Peer{fd: fd}, nil
}

// Recv reads one or more datagrams into buf until it fills or EAGAIN is hit,
// returning the sender address of the last datagram received.
func (p *Peer) Recv(buf []byte) (int, *net.UDPAddr, liberr.Error) {
	n := 0
	var last *net.UDPAddr
	for n < len(buf) {
		r, from, err := unix.Recvfrom(p.fd, buf[n:], 0)
		if err == nil {
			if sa4, ok := from.(*unix.SockaddrInet4); ok {
				last = &net.UDPAddr{IP: net.IP(sa4.Addr[:]), Port: sa4.Port}
			}
			if r == 0 {
				break
			}
			n += r
			continue
		}

		switch err {
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return n, last, nil
		default:
			return n, last, liberr.ErrResourceSocket.Error(err)
		}
	}
	return n, last, nil
}

// Send delivers data to addr in a single datagram. unix.Sendto reports no
// byte count, so a successful send returns len(data).
func (p *Peer) Send(addr *net.UDPAddr, data []byte) (int, liberr.Error) {
	ip4 := addr.IP.To4()
	if ip4 == nil {
		return 0, liberr.ErrConfigInvalidAddress.Error()
	}

	var sa unix.SockaddrInet4
	copy(sa.Addr[:], ip4)
	sa.Port = addr.Port

	for {
		err := unix.Sendto(p.fd, data, 0, &sa)
		if err == nil {
			return len(data), nil
		}
		switch err {
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return 0, liberr.ErrTransportAgain.Error()
		default:
			return 0, liberr.ErrResourceSocket.Error(err)
		}
	}
}

// Close releases the socket.
func (p *Peer) Close() liberr.Error {
	if err := unix.Close(p.fd); err != nil {
		return liberr.ErrTransportClosed.Error(err)
	}
	return nil
}

// Fd returns the underlying descriptor.
func (p *Peer) Fd() int {
	return p.fd
}
