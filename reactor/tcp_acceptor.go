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

package reactor

import (
	"time"

	liberr "github.com/printf033/mynet/errors"
	"github.com/printf033/mynet/peer/tcp"
)

// TCPConn adapts a raw, non-blocking descriptor produced by peer/tcp to the
// Conn interface.
type TCPConn struct {
	fd     int
	closed bool
}

func NewTCPConn(fd int) *TCPConn { return &TCPConn{fd: fd} }

func (c *TCPConn) Fd() int                             { return c.fd }
func (c *TCPConn) Recv(buf []byte) (int, liberr.Error) { return tcp.Recv(c.fd, buf) }

// Send forwards to tcp.Send, which closes the fd itself on a hard error;
// Close then leaves it alone so the fd is closed once.
func (c *TCPConn) Send(buf []byte) (int, liberr.Error) {
	n, err := tcp.Send(c.fd, buf)
	if err != nil {
		c.closed = true
	}
	return n, err
}

func (c *TCPConn) Close() liberr.Error {
	if c.closed {
		return nil
	}
	c.closed = true
	return tcp.Close(c.fd)
}

// TCPAcceptor accepts plain, unencrypted connections off a listening socket
// already created by tcp.Listen.
type TCPAcceptor struct {
	listenFd   int
	rcvTimeout time.Duration
}

// NewTCPAcceptor wraps listenFd. rcvTimeout is applied to each accepted
// descriptor via SO_RCVTIMEO.
func NewTCPAcceptor(listenFd int, rcvTimeout time.Duration) *TCPAcceptor {
	return &TCPAcceptor{listenFd: listenFd, rcvTimeout: rcvTimeout}
}

func (a *TCPAcceptor) ListenFd() int { return a.listenFd }

func (a *TCPAcceptor) Accept() (Conn, liberr.Error) {
	fd, err := tcp.Accept(a.listenFd, a.rcvTimeout)
	if err != nil {
		return nil, err
	}
	return NewTCPConn(fd), nil
}

func (a *TCPAcceptor) Close() liberr.Error { return tcp.Close(a.listenFd) }
