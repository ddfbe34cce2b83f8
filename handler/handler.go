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

// Package handler holds the per-connection receive/send state machine the
// reactor drives. A Handler is touched only by the reactor goroutine that
// owns its connection; there is no internal locking.
package handler

// Process is the swappable response-production policy. It runs against the
// accumulated recv buffer and writes (or clears) the send buffer.
type Process func(h *Handler)

// Reflect is the reference policy: it copies the entire recv buffer into the
// send buffer and clears the recv buffer.
func Reflect(h *Handler) {
	h.sendBuffer = append(h.sendBuffer[:0], h.recvBuffer...)
	h.recvBuffer = h.recvBuffer[:0]
}

// Handler holds one connection's recv/send buffers and the sending latch.
type Handler struct {
	recvBuffer []byte
	sendBuffer []byte
	sendOffset int
	isSending  bool

	process Process
}

// New builds a Handler running the given policy (Reflect if nil).
func New(process Process) *Handler {
	if process == nil {
		process = Reflect
	}
	return &Handler{process: process}
}

// Reset clears all four buffer fields to their defaults, satisfying
// pool.Resettable.
func (h *Handler) Reset() {
	h.recvBuffer = h.recvBuffer[:0]
	h.sendBuffer = h.sendBuffer[:0]
	h.sendOffset = 0
	h.isSending = false
}

// AppendRecv appends raw bytes to the recv buffer.
func (h *Handler) AppendRecv(b []byte) {
	h.recvBuffer = append(h.recvBuffer, b...)
}

// Process runs the configured policy against the current recv buffer. A
// zero-value Handler (e.g. fresh out of a pool.Pool) has no policy set yet
// and falls back to Reflect.
func (h *Handler) Process() {
	if h.process == nil {
		h.process = Reflect
	}
	h.process(h)
}

// HasResponse transitions is_sending false -> true iff the send buffer is
// non-empty. Once true it stays true until drain via StillSending.
func (h *Handler) HasResponse() bool {
	if !h.isSending && len(h.sendBuffer) > 0 {
		h.isSending = true
	}
	return h.isSending
}

// ResponseWindow returns the unsent tail of the send buffer.
func (h *Handler) ResponseWindow() []byte {
	return h.sendBuffer[h.sendOffset:]
}

// StillSending advances send_offset by n (bytes just transmitted; negative n
// is treated as 0). It resets and returns false once the buffer has fully
// drained, true otherwise.
func (h *Handler) StillSending(n int) bool {
	if n < 0 {
		n = 0
	}

	if !h.isSending {
		h.Reset()
		return false
	}

	h.sendOffset += n
	if h.sendOffset >= len(h.sendBuffer) {
		h.Reset()
		return false
	}
	return true
}

// RecvBuffer exposes the current recv buffer, for policies other than
// Reflect.
func (h *Handler) RecvBuffer() []byte {
	return h.recvBuffer
}

// SetProcess installs the policy a pooled Handler runs, since pool.Pool
// builds Handlers by zero value rather than through New.
func (h *Handler) SetProcess(process Process) {
	h.process = process
}

// SetSendBuffer installs buf as the pending response, for policies other
// than Reflect.
func (h *Handler) SetSendBuffer(buf []byte) {
	h.sendBuffer = append(h.sendBuffer[:0], buf...)
}
