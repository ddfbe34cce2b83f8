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

// Package errors classifies the error taxonomy of the reactor core into a
// small set of negative codes (configuration, resource, transport transient,
// transport fatal, buffer exhaustion, queue full, stop requested) instead of
// bare strings, so callers can branch on kind without parsing messages.
package errors

import "sort"

// CodeError is a compact negative-integer error classification.
type CodeError int32

const (
	UnknownError CodeError = 0

	// Configuration: returned before the reactor loop starts.
	ErrConfigInvalidAddress CodeError = -1
	ErrConfigPortRange      CodeError = -2
	ErrConfigMissingCert    CodeError = -3
	ErrConfigCertMismatch   CodeError = -4

	// Resource: socket/epoll/uring creation, pool exhaustion.
	ErrResourceSocket   CodeError = -10
	ErrResourceSockOpt  CodeError = -11
	ErrResourceBind     CodeError = -12
	ErrResourceListen   CodeError = -13
	ErrResourceEpoll    CodeError = -14
	ErrResourceURing    CodeError = -15
	ErrResourcePoolFull CodeError = -16

	// Transport transient: never escapes the reactor loop.
	ErrTransportAgain CodeError = -20
	ErrTransportIntr  CodeError = -21
	ErrTransportWant  CodeError = -22

	// Transport fatal: the connection is closed, the reactor continues.
	ErrTransportReset  CodeError = -30
	ErrTransportClosed CodeError = -31
	ErrTransportTLS    CodeError = -32

	// Buffer exhaustion: completion reactor ring starvation.
	ErrBufferExhausted CodeError = -40

	// Queue full: MPMC put failed after retries.
	ErrQueueFull CodeError = -50

	// Stop requested: cooperative shutdown.
	ErrStopRequested CodeError = -60
)

var messages = map[CodeError]string{
	UnknownError:            "unknown error",
	ErrConfigInvalidAddress: "invalid bind address",
	ErrConfigPortRange:      "port out of range",
	ErrConfigMissingCert:    "missing certificate or key",
	ErrConfigCertMismatch:   "certificate and key do not match",
	ErrResourceSocket:       "socket creation failed",
	ErrResourceSockOpt:      "socket option failed",
	ErrResourceBind:         "bind failed",
	ErrResourceListen:       "listen failed",
	ErrResourceEpoll:        "epoll creation failed",
	ErrResourceURing:        "io_uring setup failed",
	ErrResourcePoolFull:     "pool exhausted",
	ErrTransportAgain:       "operation would block",
	ErrTransportIntr:        "operation interrupted",
	ErrTransportWant:        "tls handshake wants more data",
	ErrTransportReset:       "connection reset by peer",
	ErrTransportClosed:      "connection closed",
	ErrTransportTLS:         "tls error",
	ErrBufferExhausted:      "buffer ring exhausted",
	ErrQueueFull:            "mpmc queue full",
	ErrStopRequested:        "stop requested",
}

// Message returns the registered message for code, or the message of the
// nearest lower registered code, matching the teacher's lookup discipline.
func (c CodeError) Message() string {
	if m, ok := messages[c]; ok {
		return m
	}

	keys := make([]CodeError, 0, len(messages))
	for k := range messages {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] > keys[j] })

	for _, k := range keys {
		if k <= c {
			return messages[k]
		}
	}

	return messages[UnknownError]
}

func (c CodeError) Int32() int32 {
	return int32(c)
}

func (c CodeError) String() string {
	return c.Message()
}

// Error builds an Error rooted at this code, with optional parents.
func (c CodeError) Error(parent ...error) Error {
	return New(c, c.Message(), parent...)
}

// RegisterMessage allows a caller to register or override the message for a
// given code, e.g. an application-defined Transport fatal sub-kind.
func RegisterMessage(code CodeError, message string) {
	messages[code] = message
}
