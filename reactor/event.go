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

import "github.com/printf033/mynet/handler"

// Role distinguishes what an Event represents to the kernel interface.
type Role uint8

const (
	RoleAccept Role = iota
	RoleRecv
	RoleSend
)

// Interest is the readiness mask the reactor currently has armed for a
// connection's fd (EPOLLIN always, EPOLLOUT only while a response drains).
type Interest uint32

const (
	InterestRead  Interest = 1 << 0
	InterestWrite Interest = 1 << 1
)

// Event is the reactor's per-fd bookkeeping record. It is acquired from a
// pool.Pool when a connection is admitted and released back to it once the
// fd is closed; between those points it is touched only by the reactor
// goroutine that owns the connection, so it carries no locking of its own.
// The completion reactor (reactor/completion) does not use Event: it passes
// an integer connection id to the kernel as submission user-data.
type Event struct {
	Role     Role
	Conn     Conn
	Handler  *handler.Handler
	Interest Interest

	// pending is a count of in-flight submissions referencing this Event.
	// Nothing in this package increments it; Reset clears it.
	pending int
}

// Reset clears an Event to its zero value, satisfying pool.resettable.
func (e *Event) Reset() {
	e.Role = 0
	e.Conn = nil
	e.Handler = nil
	e.Interest = 0
	e.pending = 0
}
