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

// Package reactor implements the single-threaded event-driven demultiplexer
// that owns connection state and drives per-connection handlers through
// either a readiness (epoll) or completion (io_uring) kernel interface. The
// reactor depends only on a small capability interface (Conn, Acceptor) so
// the same loop logic runs unmodified over plain TCP or TLS-terminated
// connections.
package reactor

import liberr "github.com/printf033/mynet/errors"

// Conn is the capability set the reactor needs from a connection: send,
// recv, close and fd identity for kernel registration. peer/tcp's raw
// descriptors (wrapped by TCPConn) and peer/tls's Session both satisfy it.
type Conn interface {
	Fd() int
	Send(buf []byte) (int, liberr.Error)
	Recv(buf []byte) (int, liberr.Error)
	Close() liberr.Error
}

// Acceptor is the capability the reactor needs from its listening socket:
// expose the fd for registration and turn one readiness/completion event
// into a new Conn. Accept returns ErrTransportAgain when no connection is
// pending, matching edge-triggered drain discipline.
type Acceptor interface {
	ListenFd() int
	Accept() (Conn, liberr.Error)
	Close() liberr.Error
}
