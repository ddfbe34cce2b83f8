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

// Package tcp on non-Linux platforms only reports the platform mismatch;
// the reactor core targets Linux (epoll, SO_REUSEPORT, accept4).
package tcp

import (
	"time"

	liberr "github.com/printf033/mynet/errors"
)

func Listen(ip string, port int, backlog int) (int, liberr.Error) {
	return -1, liberr.ErrResourceSocket.Error()
}

func Accept(listenFd int, rcvTimeout time.Duration) (int, liberr.Error) {
	return -1, liberr.ErrResourceSocket.Error()
}

func Send(fd int, buf []byte) (int, liberr.Error) {
	return 0, liberr.ErrResourceSocket.Error()
}

func Recv(fd int, buf []byte) (int, liberr.Error) {
	return 0, liberr.ErrResourceSocket.Error()
}

func Connect(ip string, port int, timeout time.Duration) (int, liberr.Error) {
	return -1, liberr.ErrResourceSocket.Error()
}

func Close(fd int) liberr.Error {
	return liberr.ErrResourceSocket.Error()
}
