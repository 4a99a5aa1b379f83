/*
 * pc32 - Identity-mapped page directory (4 MiB pages).
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

// Package paging models a single 1024-entry page directory of 4 MiB
// pages that identity-maps the full 32-bit address space, matching
// src/paging.c's pgdir/PSE setup.
package paging

const (
	// Entries is the number of page-directory slots (one per 4 MiB).
	Entries = 1024

	flagPresent = 1 << 0
	flagWrite   = 1 << 1
	flagUser    = 1 << 2
	flagSize    = 1 << 7 // PS bit: this entry maps a 4 MiB page

	cr4PSE = 1 << 4
	cr0PG  = 1 << 31
)

// Directory is the page directory plus the CR0/CR4 bits paging_init
// would set, modelled as fields instead of real control registers.
type Directory struct {
	entries   [Entries]uint32
	cr3       uint32
	cr4       uint32
	cr0       uint32
	installed bool
}

// New returns an uninstalled directory.
func New() *Directory {
	return &Directory{}
}

// Install identity-maps every 4 MiB region with P=1, RW=1, US=1, PS=1,
// loads CR3 with the directory base, and sets CR4.PSE and CR0.PG,
// matching paging_init. Repeated calls are a no-op, mirroring this
// module's idempotent-init convention shared with internal/cpu.
func (d *Directory) Install(base uint32) {
	if d.installed {
		return
	}
	for i := 0; i < Entries; i++ {
		d.entries[i] = uint32(i<<22) | flagPresent | flagWrite | flagUser | flagSize
	}
	d.cr3 = base
	d.cr4 |= cr4PSE
	d.cr0 |= cr0PG
	d.installed = true
}

// Installed reports whether Install has completed.
func (d *Directory) Installed() bool { return d.installed }

// Translate returns the identity-mapped physical address for a linear
// address, which for this flat map is always the linear address
// itself once paging is installed.
func (d *Directory) Translate(linear uint32) (uint32, bool) {
	if !d.installed {
		return 0, false
	}
	return linear, true
}

// Entry returns the raw page-directory entry for the 4 MiB region
// containing linear, for inspection/testing.
func (d *Directory) Entry(linear uint32) uint32 {
	return d.entries[linear>>22]
}

// CR3, CR4, CR0 expose the modelled control-register values.
func (d *Directory) CR3() uint32 { return d.cr3 }
func (d *Directory) CR4() uint32 { return d.cr4 }
func (d *Directory) CR0() uint32 { return d.cr0 }
