/*
 * pc32 - Bitmap physical frame allocator.
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

// Package pmm tracks free 4 KiB physical frames across the first
// 16 MiB with a flat bitmap and a rotating allocation hint, matching
// src/pmm.c's frame_bitmap/last_frame pair.
package pmm

import "github.com/rcornwell/pc32/internal/kerr"

const (
	frameSize = 0x1000
	region    = 16 * 1024 * 1024
	// MaxFrames is the number of 4 KiB frames tracked (region / frameSize).
	MaxFrames = region / frameSize
)

// PMM is the bitmap allocator. The zero value is not ready; use New.
type PMM struct {
	bitmap [MaxFrames / 8]uint8
	last   uint32
}

// New returns a fully-free allocator, matching pmm_init's zero-fill.
func New() *PMM {
	return &PMM{}
}

// AllocFrame returns the lowest free frame number at or after the
// rotating hint, matching pmm_alloc_frame's "for i := last_frame;
// i < MAX_FRAMES; i++" scan. It returns kerr.Full when no frame below
// MaxFrames is free, standing in for the C function's (uint32_t)-1.
func (p *PMM) AllocFrame() (uint32, error) {
	for i := p.last; i < MaxFrames; i++ {
		idx, bit := i/8, i%8
		if p.bitmap[idx]&(1<<bit) == 0 {
			p.bitmap[idx] |= 1 << bit
			p.last = i + 1
			return i, nil
		}
	}
	return 0, kerr.New("pmm.AllocFrame", kerr.Full)
}

// FreeFrame clears frame's bit and pulls the rotating hint back to it
// if it is now the lowest free frame, matching pmm_free_frame's
// "if (frame < last_frame) last_frame = frame".
func (p *PMM) FreeFrame(frame uint32) {
	if frame >= MaxFrames {
		return
	}
	idx, bit := frame/8, frame%8
	p.bitmap[idx] &^= 1 << bit
	if frame < p.last {
		p.last = frame
	}
}

// Allocated reports whether frame is currently marked in-use.
func (p *PMM) Allocated(frame uint32) bool {
	if frame >= MaxFrames {
		return false
	}
	idx, bit := frame/8, frame%8
	return p.bitmap[idx]&(1<<bit) != 0
}
