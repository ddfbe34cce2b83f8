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

package udp

import (
	"net"

	liberr "github.com/printf033/mynet/errors"
)

type Peer struct{}

func Listen(ip string, port int) (*Peer, liberr.Error) {
	return nil, liberr.ErrResourceSocket.Error()
}

func (p *Peer) Recv(buf []byte) (int, *net.UDPAddr, liberr.Error) {
	return 0, nil, liberr.ErrResourceSocket.Error()
}

func (p *Peer) Send(addr *net.UDPAddr, data []byte) (int, liberr.Error) {
	return 0, liberr.ErrResourceSocket.Error()
}

func (p *Peer) Close() liberr.Error { return liberr.ErrResourceSocket.Error() }
func (p *Peer) Fd() int             { return -1 }
