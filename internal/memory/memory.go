/*
 * pc32 - Flat identity-mapped RAM.
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

// Package memory models the flat, byte-addressable, identity-mapped
// physical RAM backing paging.Directory's 4MiB pages: one contiguous
// slice sized at boot from the MEMORY config directive, read and
// written directly by address rather than through key-protected word
// storage.
package memory

import "github.com/rcornwell/pc32/internal/kerr"

// RAM is a flat byte-addressable address space. The zero value is not
// ready; use New.
type RAM struct {
	mem []byte
}

// New returns a zeroed RAM region of kib KiB.
func New(kib uint32) *RAM {
	return &RAM{mem: make([]byte, uint64(kib)*1024)}
}

// Size returns the region's size in bytes.
func (m *RAM) Size() uint32 {
	return uint32(len(m.mem))
}

func (m *RAM) bounds(addr, n uint32) error {
	if uint64(addr)+uint64(n) > uint64(len(m.mem)) {
		return kerr.New("memory.bounds", kerr.Invalid)
	}
	return nil
}

// ReadAt returns a copy of the n bytes at addr, matching
// internal/syscall.Memory's ReadAt for SYS_WRITE's buffer argument.
func (m *RAM) ReadAt(addr, n uint32) ([]byte, error) {
	if err := m.bounds(addr, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, m.mem[addr:addr+n])
	return out, nil
}

// WriteAt copies data into the region starting at addr, matching
// internal/elf32.Memory's WriteAt for PT_LOAD segment copies.
func (m *RAM) WriteAt(addr uint32, data []byte) error {
	if err := m.bounds(addr, uint32(len(data))); err != nil {
		return err
	}
	copy(m.mem[addr:], data)
	return nil
}

// ZeroAt clears n bytes starting at addr, matching
// internal/elf32.Memory's ZeroAt for a PT_LOAD segment's BSS tail.
func (m *RAM) ZeroAt(addr, n uint32) error {
	if err := m.bounds(addr, n); err != nil {
		return err
	}
	z := m.mem[addr : addr+n]
	for i := range z {
		z[i] = 0
	}
	return nil
}
