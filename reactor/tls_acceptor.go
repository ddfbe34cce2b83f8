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

	"github.com/printf033/mynet/certificates"
	liberr "github.com/printf033/mynet/errors"
	"github.com/printf033/mynet/peer/tcp"
	"github.com/printf033/mynet/peer/tls"
)

// TLSAcceptor accepts a raw connection then drives the TLS server handshake
// to completion before handing the resulting Session back to the reactor.
// The handshake runs on the reactor's own goroutine: a slow or hostile
// handshake delays the next Accept, the same tradeoff the readiness loop's
// edge-triggered drain-to-EAGAIN discipline already accepts for every other
// per-connection operation.
type TLSAcceptor struct {
	listenFd         int
	cfg              *certificates.Config
	rcvTimeout       time.Duration
	handshakeTimeout time.Duration
}

// NewTLSAcceptor wraps listenFd, performing cfg.Server()'s handshake on each
// accepted connection within handshakeTimeout.
func NewTLSAcceptor(listenFd int, cfg *certificates.Config, rcvTimeout, handshakeTimeout time.Duration) *TLSAcceptor {
	return &TLSAcceptor{
		listenFd:         listenFd,
		cfg:              cfg,
		rcvTimeout:       rcvTimeout,
		handshakeTimeout: handshakeTimeout,
	}
}

func (a *TLSAcceptor) ListenFd() int { return a.listenFd }

func (a *TLSAcceptor) Accept() (Conn, liberr.Error) {
	fd, err := tcp.Accept(a.listenFd, a.rcvTimeout)
	if err != nil {
		return nil, err
	}
	sess, err := tls.ServerHandshake(fd, a.cfg, a.handshakeTimeout)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (a *TLSAcceptor) Close() liberr.Error { return tcp.Close(a.listenFd) }
