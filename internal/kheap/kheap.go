/*
 * pc32 - Bump kernel heap allocator.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package kheap is a bump-only allocator starting at the linker's
// _end symbol, matching src/kheap.c exactly: there is no free.
package kheap

import (
	"sync/atomic"

	"github.com/rcornwell/pc32/internal/ioport"
)

// Heap tracks the next free address above _end. Concurrent
// allocations (an IRQ handler calling kmalloc mid-syscall, per
// spec.md 9's defensibility note) are serialized with atomic CAS
// rather than a mutex, keeping the fast path allocation-free.
type Heap struct {
	end atomic.Uint64 // next free address; 64 bits avoids wraparound games
}

// New starts the heap at base, matching kheap_init's "heap_end =
// (uintptr_t)&_end".
func New(base uint32) *Heap {
	h := &Heap{}
	h.end.Store(uint64(base))
	return h
}

// Alloc bumps the heap by size bytes rounded up to an 8-byte boundary
// and returns the address of the allocation, matching kmalloc's
// "(addr + size + 7) & ~7" rounding. There is no corresponding free.
func (h *Heap) Alloc(size uint32) uint32 {
	for {
		cur := h.end.Load()
		next := cur + uint64(ioport.Align8(size))
		if h.end.CompareAndSwap(cur, next) {
			return uint32(cur)
		}
	}
}

// End returns the current bump pointer, for inspection/testing.
func (h *Heap) End() uint32 {
	return uint32(h.end.Load())
}
