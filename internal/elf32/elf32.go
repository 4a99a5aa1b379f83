/*
 * pc32 - ELF32 PT_LOAD segment loader.
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

// Package elf32 loads PT_LOAD segments from a 32-bit little-endian ELF
// image into identity-mapped memory and returns the entry point,
// matching src/elf.c's load_elf. It never performs the Ring-0->Ring-3
// transition itself; that is internal/sched's job once a task has been
// created for the returned entry point.
package elf32

import "github.com/rcornwell/pc32/internal/kerr"

var magic = [4]byte{0x7F, 'E', 'L', 'F'}

const ptLoad = 1

// Header is the subset of Elf32_Ehdr the loader needs.
type Header struct {
	Entry uint32
	PhOff uint32
	PhNum uint16
}

// ProgramHeader is the subset of Elf32_Phdr the loader needs.
type ProgramHeader struct {
	Type   uint32
	Offset uint32
	Vaddr  uint32
	FileSz uint32
	MemSz  uint32
}

// Memory is the destination address space PT_LOAD segments are copied
// into, standing in for the direct pointer writes load_elf performs.
type Memory interface {
	WriteAt(vaddr uint32, data []byte) error
	ZeroAt(vaddr uint32, n uint32) error
}

func le32(b []byte, off int) uint32 {
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
}

func le16(b []byte, off int) uint16 {
	return uint16(b[off]) | uint16(b[off+1])<<8
}

// ParseHeader validates the ELF magic and extracts e_entry/e_phoff/
// e_phnum, matching load_elf's initial memcmp check.
func ParseHeader(image []byte) (Header, error) {
	if len(image) < 52 || [4]byte{image[0], image[1], image[2], image[3]} != magic {
		return Header{}, kerr.New("elf32.ParseHeader", kerr.Invalid)
	}
	return Header{
		Entry: le32(image, 24),
		PhOff: le32(image, 28),
		PhNum: le16(image, 44),
	}, nil
}

// ProgramHeaders decodes h.PhNum entries starting at h.PhOff, matching
// load_elf's Elf32_Phdr array walk.
func ProgramHeaders(image []byte, h Header) ([]ProgramHeader, error) {
	const phentsize = 32
	headers := make([]ProgramHeader, 0, h.PhNum)
	for i := uint16(0); i < h.PhNum; i++ {
		off := int(h.PhOff) + int(i)*phentsize
		if off+phentsize > len(image) {
			return nil, kerr.New("elf32.ProgramHeaders", kerr.Invalid)
		}
		headers = append(headers, ProgramHeader{
			Type:   le32(image, off),
			Offset: le32(image, off+4),
			Vaddr:  le32(image, off+8),
			FileSz: le32(image, off+16),
			MemSz:  le32(image, off+20),
		})
	}
	return headers, nil
}

// Load validates image, copies every PT_LOAD segment to its p_vaddr
// (zero-filling the BSS tail when p_memsz exceeds p_filesz), and
// returns e_entry. reinit, if non-nil, is invoked before any segment
// is copied, matching load_elf's re-arming of identity paging so Ring
// 3 can execute the freshly-placed code; like paging.Directory.Install
// it must be idempotent.
func Load(image []byte, mem Memory, reinit func()) (uint32, error) {
	hdr, err := ParseHeader(image)
	if err != nil {
		return 0, err
	}
	if reinit != nil {
		reinit()
	}

	phdrs, err := ProgramHeaders(image, hdr)
	if err != nil {
		return 0, err
	}
	for _, ph := range phdrs {
		if ph.Type != ptLoad {
			continue
		}
		if int(ph.Offset+ph.FileSz) > len(image) {
			return 0, kerr.New("elf32.Load", kerr.Invalid)
		}
		if err := mem.WriteAt(ph.Vaddr, image[ph.Offset:ph.Offset+ph.FileSz]); err != nil {
			return 0, err
		}
		if ph.MemSz > ph.FileSz {
			if err := mem.ZeroAt(ph.Vaddr+ph.FileSz, ph.MemSz-ph.FileSz); err != nil {
				return 0, err
			}
		}
	}
	return hdr.Entry, nil
}
