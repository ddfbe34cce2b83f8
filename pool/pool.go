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

// Package pool implements the preallocated, resettable object pool each
// reactor uses for its Event slots. acquire/release never allocate and never
// block; a reactor owns exactly one pool and touches it from a single
// goroutine, so no locking is needed.
package pool

// resettable pairs a value type T with its pointer type PT, requiring PT to
// implement Reset(). This is the standard way to express "the pointer type
// of T has method M" as a generic constraint in Go.
type resettable[T any] interface {
	*T
	Reset()
}

// Pool is a fixed-capacity free list over a preallocated slice of T, handing
// out *T. PT exists only to carry the Reset() constraint; callers instantiate
// Pool[Event, *Event].
type Pool[T any, PT resettable[T]] struct {
	storage []T
	free    []PT
}

// New preallocates n elements and fills the free list with pointers into the
// backing slice.
func New[T any, PT resettable[T]](n int) *Pool[T, PT] {
	p := &Pool[T, PT]{
		storage: make([]T, n),
		free:    make([]PT, 0, n),
	}
	for i := range p.storage {
		p.free = append(p.free, PT(&p.storage[i]))
	}
	return p
}

// Cap returns the pool's total capacity.
func (p *Pool[T, PT]) Cap() int {
	return len(p.storage)
}

// Available returns the number of currently free slots.
func (p *Pool[T, PT]) Available() int {
	return len(p.free)
}

// Acquire returns a free slot, or nil if the pool is exhausted. It never
// allocates and never blocks.
func (p *Pool[T, PT]) Acquire() PT {
	n := len(p.free)
	if n == 0 {
		return nil
	}
	last := p.free[n-1]
	p.free = p.free[:n-1]
	return last
}

// Release resets t and returns it to the free list. Releasing nil or a
// pointer not owned by this pool is the caller's error to avoid.
func (p *Pool[T, PT]) Release(t PT) {
	if t == nil {
		return
	}
	t.Reset()
	p.free = append(p.free, t)
}
