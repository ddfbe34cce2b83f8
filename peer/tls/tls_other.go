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

//go:build !linux

package tls

import (
	"time"

	"github.com/printf033/mynet/certificates"
	liberr "github.com/printf033/mynet/errors"
)

type Session struct{}

func ServerHandshake(fd int, cfg *certificates.Config, timeout time.Duration) (*Session, liberr.Error) {
	return nil, liberr.ErrResourceSocket.Error()
}

func ClientHandshake(ip string, port int, cfg *certificates.Config, connectTimeout, handshakeTimeout time.Duration) (*Session, liberr.Error) {
	return nil, liberr.ErrResourceSocket.Error()
}

func (s *Session) Send(buf []byte) (int, liberr.Error) { return 0, liberr.ErrResourceSocket.Error() }
func (s *Session) Recv(buf []byte) (int, liberr.Error) { return 0, liberr.ErrResourceSocket.Error() }
func (s *Session) Close() liberr.Error                 { return liberr.ErrResourceSocket.Error() }
func (s *Session) Fd() int                             { return -1 }
