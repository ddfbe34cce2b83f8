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

// Package ring implements the bounded Vyukov MPMC ring buffer used to hand
// accepted connections from an acceptor reactor to worker reactors. Capacity
// is fixed at construction and rounded up to a power of two; the hot path
// never allocates and never blocks.
package ring

import (
	"runtime"
	"sync/atomic"
)

type slot[T any] struct {
	sequence atomic.Uint64
	value    T
}

// MPMC is a fixed-capacity multi-producer, multi-consumer queue. The zero
// value is not usable; build one with New.
type MPMC[T any] struct {
	mask  uint64
	slots []slot[T]

	tail atomic.Uint64
	head atomic.Uint64
}

// New builds an MPMC ring of the given capacity, rounded up to the next
// power of two (minimum 2).
func New[T any](capacity int) *MPMC[T] {
	n := nextPow2(capacity)

	m := &MPMC[T]{
		mask:  uint64(n - 1),
		slots: make([]slot[T], n),
	}
	for i := range m.slots {
		m.slots[i].sequence.Store(uint64(i))
	}
	return m
}

func nextPow2(n int) int {
	if n < 2 {
		return 2
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Cap returns the ring's physical capacity.
func (m *MPMC[T]) Cap() int {
	return len(m.slots)
}

// TryPut attempts to enqueue x without blocking. It returns false if the
// ring is full.
func (m *MPMC[T]) TryPut(x T) bool {
	var s *slot[T]
	pos := m.tail.Load()

	for {
		s = &m.slots[pos&m.mask]
		seq := s.sequence.Load()

		diff := int64(seq) - int64(pos)
		if diff == 0 {
			if m.tail.CompareAndSwap(pos, pos+1) {
				break
			}
			pos = m.tail.Load()
		} else if diff < 0 {
			return false
		} else {
			pos = m.tail.Load()
		}
	}

	s.value = x
	s.sequence.Store(pos + 1)
	return true
}

// TryTake attempts to dequeue into *out without blocking. It returns false
// if the ring is empty.
func (m *MPMC[T]) TryTake(out *T) bool {
	var s *slot[T]
	pos := m.head.Load()

	for {
		s = &m.slots[pos&m.mask]
		seq := s.sequence.Load()

		diff := int64(seq) - int64(pos+1)
		if diff == 0 {
			if m.head.CompareAndSwap(pos, pos+1) {
				break
			}
			pos = m.head.Load()
		} else if diff < 0 {
			return false
		} else {
			pos = m.head.Load()
		}
	}

	*out = s.value
	var zero T
	s.value = zero
	s.sequence.Store(pos + uint64(len(m.slots)))
	return true
}

// Put retries TryPut up to retries times, yielding the scheduler between
// attempts, then reports whether it ultimately succeeded.
func (m *MPMC[T]) Put(x T, retries int) bool {
	if m.TryPut(x) {
		return true
	}
	for i := 0; i < retries; i++ {
		runtime.Gosched()
		if m.TryPut(x) {
			return true
		}
	}
	return false
}

// Take retries TryTake up to retries times, yielding the scheduler between
// attempts, then reports whether it ultimately succeeded.
func (m *MPMC[T]) Take(out *T, retries int) bool {
	if m.TryTake(out) {
		return true
	}
	for i := 0; i < retries; i++ {
		runtime.Gosched()
		if m.TryTake(out) {
			return true
		}
	}
	return false
}
