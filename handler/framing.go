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

package handler

import "encoding/binary"

// FrameHeaderLen is the size of the little-endian length prefix.
const FrameHeaderLen = 4

// EncodeFrame prepends a 4-byte little-endian length prefix to payload.
func EncodeFrame(payload []byte) []byte {
	out := make([]byte, FrameHeaderLen+len(payload))
	binary.LittleEndian.PutUint32(out, uint32(len(payload)))
	copy(out[FrameHeaderLen:], payload)
	return out
}

// DecodeFrame reports whether buf holds at least one complete frame. On
// success it returns the payload and the total number of bytes (header +
// payload) consumed from buf.
func DecodeFrame(buf []byte) (payload []byte, consumed int, ok bool) {
	if len(buf) < FrameHeaderLen {
		return nil, 0, false
	}
	l := binary.LittleEndian.Uint32(buf)
	total := FrameHeaderLen + int(l)
	if len(buf) < total {
		return nil, 0, false
	}
	return buf[FrameHeaderLen:total], total, true
}
