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

package tcp_test

import (
	"context"
	"io"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/printf033/mynet/handler"
	sckcfg "github.com/printf033/mynet/socket/config"
	tcp "github.com/printf033/mynet/socket/server/tcp"

	. "github.com/onsi/gomega"
)

var testPort int32 = 19400

// getTestAddr returns a fresh loopback port for each call, avoiding
// cross-spec collisions within one suite run.
func getTestAddr() (string, int) {
	port := int(atomic.AddInt32(&testPort, 1))
	return "127.0.0.1", port
}

func createDefaultConfig(ip string, port int) sckcfg.ConfigServer {
	return sckcfg.ConfigServer{
		BindIP:         ip,
		Port:           port,
		Backlog:        16,
		PoolSize:       64,
		ReceiveTimeout: time.Second,
	}
}

var echoHandler handler.Process = handler.Reflect

func startServerInBackground(c context.Context, srv *tcp.Server) {
	go func() { _ = srv.Listen(c) }()
}

func waitForServer(srv *tcp.Server, timeout time.Duration) {
	Eventually(func() bool { return srv.IsRunning() }, timeout, 10*time.Millisecond).Should(BeTrue())
}

func waitForServerStopped(srv *tcp.Server, timeout time.Duration) {
	Eventually(func() bool { return !srv.IsRunning() }, timeout, 10*time.Millisecond).Should(BeTrue())
}

func waitForServerAcceptingConnections(ip string, port int, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for {
		if c, e := net.DialTimeout("tcp", netAddr(ip, port), 100*time.Millisecond); e == nil {
			_ = c.Close()
			return
		}
		if time.Now().After(deadline) {
			Fail("timeout waiting for server to accept connections")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func connectToServer(ip string, port int) net.Conn {
	con, err := net.DialTimeout("tcp", netAddr(ip, port), 2*time.Second)
	Expect(err).ToNot(HaveOccurred())
	return con
}

func sendAndReceive(con net.Conn, data []byte) []byte {
	n, err := con.Write(data)
	Expect(err).ToNot(HaveOccurred())
	Expect(n).To(Equal(len(data)))

	buf := make([]byte, len(data))
	n, err = io.ReadFull(con, buf)
	Expect(err).ToNot(HaveOccurred())
	Expect(n).To(Equal(len(data)))
	return buf
}

func netAddr(ip string, port int) string {
	return net.JoinHostPort(ip, strconv.Itoa(port))
}
