/*
 * pc32 - Serial (COM1) and VGA text console sinks.
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

// Package console implements the two sinks SYS_WRITE fans a byte out
// to: a COM1 8250 UART (src/serial.c) and an 80x25 VGA text grid with
// its attribute byte, no mode-13h graphics (that stays the GUI's
// exclusive territory per the core's non-goals).
package console

import "github.com/rcornwell/pc32/internal/ioport"

// COM1 8250 UART registers (src/serial.c).
const (
	com1Port = 0x3F8

	regIER = com1Port + 1
	regLCR = com1Port + 3
	regFCR = com1Port + 2
	regMCR = com1Port + 4
	regLSR = com1Port + 5

	lsrTHREmpty = 0x20

	vgaCols = 80
	vgaRows = 25
)

// Serial is the modelled COM1 port.
type Serial struct {
	bus       *ioport.Bus
	installed bool
}

// NewSerial returns a serial sink bound to bus. The modelled UART's
// transmit holding register starts empty, so PutC's readiness poll
// completes immediately.
func NewSerial(bus *ioport.Bus) *Serial {
	bus.Out8(regLSR, lsrTHREmpty)
	return &Serial{bus: bus}
}

// Install programs 115200 8N1 with FIFOs enabled, matching
// serial_init's literal port sequence. Repeated calls are a no-op.
func (s *Serial) Install() {
	if s.installed {
		return
	}
	s.bus.Out8(regIER, 0x00)
	s.bus.Out8(regLCR, 0x80)
	s.bus.Out8(com1Port, 0x01)
	s.bus.Out8(regIER, 0x00)
	s.bus.Out8(regLCR, 0x03)
	s.bus.Out8(regFCR, 0xC7)
	s.bus.Out8(regMCR, 0x0B)
	s.installed = true
}

// PutC writes one byte to COM1, matching serial_putc's "wait for THR
// empty" loop. The modelled bus never reports busy, so this never
// blocks; it exists to keep the call site identical to real hardware.
func (s *Serial) PutC(c byte) {
	for s.bus.In8(regLSR)&lsrTHREmpty == 0 {
	}
	s.bus.Out8(com1Port, c)
}

// PutS writes every byte of str to COM1, matching serial_puts.
func (s *Serial) PutS(str string) {
	for i := 0; i < len(str); i++ {
		s.PutC(str[i])
	}
}

// Cell is one VGA text-mode character cell: a byte plus its attribute.
type Cell struct {
	Char byte
	Attr uint8
}

// VGA is an 80x25 text grid with a cursor, standing in for the
// 0xB8000 framebuffer SYS_WRITE's putc(c, 7) writes through.
type VGA struct {
	cells    [vgaRows][vgaCols]Cell
	row, col int
}

// NewVGA returns a cleared 80x25 grid with the cursor at (0,0).
func NewVGA() *VGA {
	return &VGA{}
}

// PutC writes c with attr at the cursor and advances it, wrapping to
// the next line on '\n' or at the last column, and scrolling the grid
// up one row once the cursor runs past the last row.
func (v *VGA) PutC(c byte, attr uint8) {
	if c == '\n' {
		v.row++
		v.col = 0
	} else {
		v.cells[v.row][v.col] = Cell{Char: c, Attr: attr}
		v.col++
		if v.col >= vgaCols {
			v.col = 0
			v.row++
		}
	}
	if v.row >= vgaRows {
		v.scroll()
		v.row = vgaRows - 1
	}
}

func (v *VGA) scroll() {
	for r := 1; r < vgaRows; r++ {
		v.cells[r-1] = v.cells[r]
	}
	v.cells[vgaRows-1] = [vgaCols]Cell{}
}

// Cell returns the character/attribute at (row, col), for
// inspection/testing.
func (v *VGA) Cell(row, col int) Cell { return v.cells[row][col] }

// Cursor returns the current write position.
func (v *VGA) Cursor() (row, col int) { return v.row, v.col }

// Console binds a VGA grid and a serial port behind the syscall
// layer's Console interface (spec.md 4.5's dual write).
type Console struct {
	VGA    *VGA
	Serial *Serial
}

// PutC implements internal/syscall.Console.
func (c *Console) PutC(ch byte, attr uint8) { c.VGA.PutC(ch, attr) }

// SerialPutC implements internal/syscall.Console.
func (c *Console) SerialPutC(ch byte) { c.Serial.PutC(ch) }
