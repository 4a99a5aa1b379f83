/*
 * pc32 - PS/2 scancode producer and keyboard ring buffer.
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

// Package keyboard decodes PS/2 Set-1 scancodes and exposes only the
// producer boundary spec.md names: a 256-byte drop-on-full ring for
// GUI mode, or a ShellFeed callback otherwise. The scancode-to-ASCII
// maps and the ring itself come from src/keyboard.c; the decoder is
// out of scope, this is strictly its producer interface.
package keyboard

import "sync/atomic"

const bufferSize = 256

const (
	scLeftShift  = 0x2A
	scRightShift = 0x36
	scRelease    = 0x80
)

var normalMap = buildMap(false)
var shiftMap = buildMap(true)

func buildMap(shift bool) [128]byte {
	type pair struct {
		sc         byte
		lower, upp byte
	}
	pairs := []pair{
		{0x02, '1', '!'}, {0x03, '2', '@'}, {0x04, '3', '#'}, {0x05, '4', '$'},
		{0x06, '5', '%'}, {0x07, '6', '^'}, {0x08, '7', '&'}, {0x09, '8', '*'},
		{0x0A, '9', '('}, {0x0B, '0', ')'}, {0x0C, '-', '_'}, {0x0D, '=', '+'},
		{0x10, 'q', 'Q'}, {0x11, 'w', 'W'}, {0x12, 'e', 'E'}, {0x13, 'r', 'R'},
		{0x14, 't', 'T'}, {0x15, 'y', 'Y'}, {0x16, 'u', 'U'}, {0x17, 'i', 'I'},
		{0x18, 'o', 'O'}, {0x19, 'p', 'P'}, {0x1A, '[', '{'}, {0x1B, ']', '}'},
		{0x1E, 'a', 'A'}, {0x1F, 's', 'S'}, {0x20, 'd', 'D'}, {0x21, 'f', 'F'},
		{0x22, 'g', 'G'}, {0x23, 'h', 'H'}, {0x24, 'j', 'J'}, {0x25, 'k', 'K'},
		{0x26, 'l', 'L'}, {0x27, ';', ':'}, {0x28, '\'', '"'}, {0x29, '`', '~'},
		{0x2C, 'z', 'Z'}, {0x2D, 'x', 'X'}, {0x2E, 'c', 'C'}, {0x2F, 'v', 'V'},
		{0x30, 'b', 'B'}, {0x31, 'n', 'N'}, {0x32, 'm', 'M'}, {0x33, ',', '<'},
		{0x34, '.', '>'}, {0x35, '/', '?'},
		{0x39, ' ', ' '}, {0x0F, '\t', '\t'}, {0x0E, '\b', '\b'}, {0x1C, '\n', '\n'},
	}
	var m [128]byte
	for _, p := range pairs {
		if shift {
			m[p.sc] = p.upp
		} else {
			m[p.sc] = p.lower
		}
	}
	return m
}

// ring is the 256-byte circular buffer GUI mode drains from,
// matching keyboard_buffer/buffer_read_index/buffer_write_index.
type ring struct {
	buf   [bufferSize]byte
	read  uint32
	write uint32
}

func (r *ring) add(c byte) {
	next := (r.write + 1) % bufferSize
	if next != r.read { // drop on full, matching keyboard_buffer_add
		r.buf[r.write] = c
		r.write = next
	}
}

func (r *ring) hasInput() bool { return r.read != r.write }

func (r *ring) get() (byte, bool) {
	if !r.hasInput() {
		return 0, false
	}
	c := r.buf[r.read]
	r.read = (r.read + 1) % bufferSize
	return c, true
}

// ShellFeed is the external shell's input sink, the boundary spec.md
// names as owned outside this core.
type ShellFeed func(c byte)

// Keyboard decodes scancodes into ASCII and routes them to either the
// ring buffer (GUI mode) or ShellFeed (shell mode), matching
// keyboard_handler's gui_is_active() branch.
type Keyboard struct {
	ring      ring
	guiActive atomic.Bool
	shiftDown atomic.Bool
	ShellFeed ShellFeed
}

// New returns a keyboard with GUI mode off (shell-fed) by default.
func New() *Keyboard {
	return &Keyboard{}
}

// SetGUIActive switches the producer between ring-buffer mode and
// shell-feed mode, standing in for gui_is_active().
func (k *Keyboard) SetGUIActive(active bool) { k.guiActive.Store(active) }

// Handler processes one scancode byte off port 0x60, matching
// keyboard_handler: shift tracking on press/release, map lookup, then
// either ring.add or ShellFeed.
func (k *Keyboard) Handler(sc byte) {
	if sc&scRelease != 0 {
		code := sc &^ scRelease
		if code == scLeftShift || code == scRightShift {
			k.shiftDown.Store(false)
		}
		return
	}
	if sc == scLeftShift || sc == scRightShift {
		k.shiftDown.Store(true)
		return
	}

	var c byte
	if k.shiftDown.Load() {
		c = shiftMap[sc]
	} else {
		c = normalMap[sc]
	}
	if c == 0 {
		return
	}

	if k.guiActive.Load() {
		k.ring.add(c)
		return
	}
	if k.ShellFeed != nil {
		k.ShellFeed(c)
	}
}

// HasInput reports whether the ring buffer holds an unread character,
// matching keyboard_has_input.
func (k *Keyboard) HasInput() bool { return k.ring.hasInput() }

// GetChar drains one character from the ring buffer, matching
// keyboard_get_char's "0 if empty" convention via the ok return.
func (k *Keyboard) GetChar() (byte, bool) { return k.ring.get() }
