/*
 * pc32 - Simulated I/O port bus and low-level primitives.
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

// Package ioport models the x86 I/O address space that on real hardware
// is reached with IN/OUT.  Go has no such instructions, so every device
// in this module (PIC, PIT, ATA) is wired against a Bus value instead of
// literal ports; Bus keeps the read/write semantics (8 and 16 bit,
// last-value-wins per port) without pretending to fault real silicon.
package ioport

// Bus is a flat 64K simulated port space, shared by every device that
// would otherwise claim real I/O ports (0x20/0x21 PIC, 0x40/0x43 PIT,
// 0x1F0-0x1F7/0x3F6 ATA, 0x3F8 COM1).
type Bus struct {
	ports [0x10000]uint16
}

// NewBus returns a zeroed port space.
func NewBus() *Bus {
	return &Bus{}
}

// Out8 writes an 8-bit value to port.
func (b *Bus) Out8(port uint16, value uint8) {
	b.ports[port] = uint16(value)
}

// In8 reads an 8-bit value from port.
func (b *Bus) In8(port uint16) uint8 {
	return uint8(b.ports[port])
}

// Out16 writes a 16-bit value to port.
func (b *Bus) Out16(port uint16, value uint16) {
	b.ports[port] = value
}

// In16 reads a 16-bit value from port.
func (b *Bus) In16(port uint16) uint16 {
	return b.ports[port]
}

// Align8 rounds n up to the next multiple of 8, the alignment every
// kernel heap allocation and GDT/IDT/TSS structure must respect.
func Align8(n uint32) uint32 {
	return (n + 7) &^ 7
}

// Memset fills dst with value, mirroring the kernel's memset primitive.
func Memset(dst []byte, value byte) {
	for i := range dst {
		dst[i] = value
	}
}

// Memcpy copies min(len(dst), len(src)) bytes, mirroring memcpy.
func Memcpy(dst, src []byte) int {
	return copy(dst, src)
}
