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

// Package tls layers a TLS engine over the non-blocking descriptors produced
// by peer/tcp, driving the handshake with a WANT_READ/WANT_WRITE loop instead
// of the blocking crypto/tls.Conn.Handshake.
package tls

import (
	"crypto/tls"
	"io"
	"net"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/printf033/mynet/certificates"
	liberr "github.com/printf033/mynet/errors"
	"github.com/printf033/mynet/peer/tcp"
)

var ignoreSigpipeOnce sync.Once

// ignoreSigpipe masks SIGPIPE process-wide, once per process. rawConn's own
// writes already pass MSG_NOSIGNAL through tcp.Send; this is the
// process-level setting on top of that.
func ignoreSigpipe() {
	ignoreSigpipeOnce.Do(func() {
		signal.Ignore(syscall.SIGPIPE)
	})
}

// rawConn adapts a raw, non-blocking fd to net.Conn so crypto/tls can drive
// it. Reads and writes surface EAGAIN as io.EOF-free zero-n, zero-err pairs
// are not allowed by net.Conn, so rawConn maps EAGAIN to a sentinel timeout
// error that the handshake loop below recognizes.
type rawConn struct {
	fd int
}

var errWouldBlock = &timeoutError{}

type timeoutError struct{}

func (*timeoutError) Error() string   { return "would block" }
func (*timeoutError) Timeout() bool   { return true }
func (*timeoutError) Temporary() bool { return true }

func (c *rawConn) Read(b []byte) (int, error) {
	n, err := tcp.Recv(c.fd, b)
	if err != nil {
		if liberr.Is(err, liberr.ErrTransportClosed) {
			return n, io.EOF
		}
		return n, err
	}
	if n == 0 && len(b) > 0 {
		return 0, errWouldBlock
	}
	return n, nil
}

func (c *rawConn) Write(b []byte) (int, error) {
	n, err := tcp.Send(c.fd, b)
	if err != nil {
		return n, err
	}
	if n < len(b) {
		return n, errWouldBlock
	}
	return n, nil
}

// Close leaves the fd open: Session.shutdown closes it itself, after the TLS
// close, so the fd is closed exactly once.
func (c *rawConn) Close() error                       { return nil }
func (c *rawConn) LocalAddr() net.Addr                { return nil }
func (c *rawConn) RemoteAddr() net.Addr                { return nil }
func (c *rawConn) SetDeadline(t time.Time) error       { return nil }
func (c *rawConn) SetReadDeadline(t time.Time) error   { return nil }
func (c *rawConn) SetWriteDeadline(t time.Time) error  { return nil }

// Session owns one TLS connection's engine state and underlying fd. Shutdown
// order is always: session shutdown (Close on the tls.Conn, which sends
// close_notify best-effort), then fd close — never fd close first.
type Session struct {
	fd   int
	conn *tls.Conn
}

// handshakeLoop drives a non-blocking TLS handshake, calling Handshake again
// every millisecond while it reports would-block, until timeout elapses (a
// zero timeout sets no bound). It does not poll the fd for readability or
// writability between attempts.
// Any other failure terminates the handshake and closes fd.
func handshakeLoop(fd int, conn *tls.Conn, timeout time.Duration) liberr.Error {
	deadline := time.Now().Add(timeout)
	for {
		err := conn.Handshake()
		if err == nil {
			return nil
		}

		if err == errWouldBlock {
			if timeout > 0 && time.Now().After(deadline) {
				_ = tcp.Close(fd)
				return liberr.ErrTransportAgain.Error(err)
			}
			time.Sleep(time.Millisecond)
			continue
		}

		_ = tcp.Close(fd)
		return liberr.ErrTransportTLS.Error(err)
	}
}

// ServerHandshake accepts fd (already produced by tcp.Accept) and performs
// the server side of the handshake using cfg.
func ServerHandshake(fd int, cfg *certificates.Config, timeout time.Duration) (*Session, liberr.Error) {
	tlsCfg, err := cfg.Server()
	if err != nil {
		_ = tcp.Close(fd)
		return nil, err
	}

	conn := tls.Server(&rawConn{fd: fd}, tlsCfg)
	ignoreSigpipe()

	if e := handshakeLoop(fd, conn, timeout); e != nil {
		return nil, e
	}

	return &Session{fd: fd, conn: conn}, nil
}

// ClientHandshake connects to ip:port (via tcp.Connect) and performs the
// client side of the handshake using cfg.
func ClientHandshake(ip string, port int, cfg *certificates.Config, connectTimeout, handshakeTimeout time.Duration) (*Session, liberr.Error) {
	fd, err := tcp.Connect(ip, port, connectTimeout)
	if err != nil {
		return nil, err
	}

	tlsCfg, err := cfg.Client()
	if err != nil {
		_ = tcp.Close(fd)
		return nil, err
	}
	if tlsCfg.ServerName == "" {
		tlsCfg.ServerName = ip
	}

	conn := tls.Client(&rawConn{fd: fd}, tlsCfg)
	ignoreSigpipe()

	if e := handshakeLoop(fd, conn, handshakeTimeout); e != nil {
		return nil, e
	}

	return &Session{fd: fd, conn: conn}, nil
}

// Send writes buf through the TLS engine. A result <= 0 that is not
// WANT_READ/WANT_WRITE is a fatal engine error; WANT_* means try-again and
// the caller should return what was transferred so far (0 here, since
// crypto/tls.Conn.Write is all-or-nothing).
func (s *Session) Send(buf []byte) (int, liberr.Error) {
	n, err := s.conn.Write(buf)
	if err == nil {
		return n, nil
	}
	if err == errWouldBlock {
		return n, liberr.ErrTransportWant.Error()
	}
	_ = s.shutdown()
	return n, liberr.ErrTransportTLS.Error(err)
}

// Recv reads through the TLS engine into buf.
func (s *Session) Recv(buf []byte) (int, liberr.Error) {
	n, err := s.conn.Read(buf)
	if err == nil {
		return n, nil
	}
	if err == errWouldBlock {
		return n, liberr.ErrTransportWant.Error()
	}
	if err == io.EOF {
		_ = s.shutdown()
		return n, liberr.ErrTransportClosed.Error(err)
	}
	_ = s.shutdown()
	return n, liberr.ErrTransportTLS.Error(err)
}

// shutdown performs the mandated order: session shutdown, session free
// (garbage collected), then fd close.
func (s *Session) shutdown() liberr.Error {
	_ = s.conn.Close()
	if err := tcp.Close(s.fd); err != nil {
		return err
	}
	return nil
}

// Close tears the session down in the same fixed order as shutdown.
func (s *Session) Close() liberr.Error {
	return s.shutdown()
}

// Fd returns the underlying file descriptor for reactor registration.
func (s *Session) Fd() int {
	return s.fd
}
