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

package reactor

import (
	"bytes"
	"testing"
	"time"

	liberr "github.com/printf033/mynet/errors"
	"github.com/printf033/mynet/handler"
	"github.com/printf033/mynet/peer/tcp"
	"github.com/printf033/mynet/ring"
)

func TestDispatcherAndWorkerEchoOverLoopback(t *testing.T) {
	const port = 18514

	listenFd, err := tcp.Listen("127.0.0.1", port, 16)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	accept := NewTCPAcceptor(listenFd, time.Second)
	q := ring.New[Conn](8)

	dispatcher, derr := NewDispatcher(accept, q, MainAcceptorConfig{QueueRetries: 100})
	if derr != nil {
		t.Fatalf("NewDispatcher failed: %v", derr)
	}
	worker, werr := NewWorker(q, WorkerConfig{PoolSize: 4, Process: handler.Reflect})
	if werr != nil {
		t.Fatalf("NewWorker failed: %v", werr)
	}

	dispDone := make(chan liberr.Error, 1)
	workDone := make(chan liberr.Error, 1)
	go func() { dispDone <- dispatcher.Run() }()
	go func() { workDone <- worker.Run() }()

	var clientFd int
	var cerr liberr.Error
	deadline := time.Now().Add(time.Second)
	for {
		clientFd, cerr = tcp.Connect("127.0.0.1", port, time.Second)
		if cerr == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Connect failed: %v", cerr)
		}
		time.Sleep(5 * time.Millisecond)
	}

	msg := []byte("pong")
	sent := 0
	deadline = time.Now().Add(time.Second)
	for sent < len(msg) {
		n, serr := tcp.Send(clientFd, msg[sent:])
		if serr != nil {
			t.Fatalf("client send failed: %v", serr)
		}
		sent += n
		if time.Now().After(deadline) {
			t.Fatal("client send timed out")
		}
	}

	reply := make([]byte, len(msg))
	got := 0
	deadline = time.Now().Add(3 * time.Second)
	for got < len(reply) {
		n, rerr := tcp.Recv(clientFd, reply[got:])
		if rerr != nil {
			t.Fatalf("client recv failed: %v", rerr)
		}
		got += n
		if time.Now().After(deadline) {
			t.Fatal("client recv timed out")
		}
	}
	if !bytes.Equal(reply, msg) {
		t.Fatalf("echo = %q, want %q", reply, msg)
	}

	_ = tcp.Close(clientFd)
	dispatcher.Stop()
	worker.Stop()

	select {
	case <-dispDone:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop in time")
	}
	select {
	case <-workDone:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop in time")
	}
}
