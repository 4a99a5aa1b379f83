package elf32

import (
	"testing"
)

// fakeMem is a flat byte space addressed directly by vaddr, standing
// in for the identity-mapped physical memory load_elf writes into.
type fakeMem struct {
	data [0x10000]byte
}

func (m *fakeMem) WriteAt(vaddr uint32, data []byte) error {
	copy(m.data[vaddr:], data)
	return nil
}

func (m *fakeMem) ZeroAt(vaddr uint32, n uint32) error {
	for i := uint32(0); i < n; i++ {
		m.data[vaddr+i] = 0
	}
	return nil
}

// buildELF assembles a minimal 32-bit ELF with one PT_LOAD segment
// carrying payload at vaddr, with bssExtra additional zero bytes.
func buildELF(entry, vaddr uint32, payload []byte, bssExtra uint32) []byte {
	const ehsize = 52
	const phoff = ehsize
	const phentsize = 32
	image := make([]byte, phoff+phentsize+len(payload))

	copy(image[0:4], []byte{0x7F, 'E', 'L', 'F'})
	putLE32(image, 24, entry)
	putLE32(image, 28, phoff)
	putLE16(image, 44, 1) // e_phnum

	ph := image[phoff:]
	putLE32(ph, 0, 1) // p_type = PT_LOAD
	putLE32(ph, 4, uint32(phoff+phentsize))
	putLE32(ph, 8, vaddr)
	putLE32(ph, 16, uint32(len(payload)))
	putLE32(ph, 20, uint32(len(payload))+bssExtra)

	copy(image[phoff+phentsize:], payload)
	return image
}

func putLE32(b []byte, off int, v uint32) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
	b[off+3] = byte(v >> 24)
}

func putLE16(b []byte, off int, v uint16) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
}

func TestLoadCopiesSegmentAndZeroesBSS(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	image := buildELF(0x8000, 0x9000, payload, 4)
	mem := &fakeMem{}
	for i := range mem.data {
		mem.data[i] = 0xFF
	}

	entry, err := Load(image, mem, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if entry != 0x8000 {
		t.Errorf("entry got %#x want %#x", entry, 0x8000)
	}
	for i, b := range payload {
		if mem.data[0x9000+uint32(i)] != b {
			t.Errorf("payload byte %d mismatch", i)
		}
	}
	for i := uint32(0); i < 4; i++ {
		if mem.data[0x9000+uint32(len(payload))+i] != 0 {
			t.Errorf("bss tail byte %d not zeroed", i)
		}
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	image := buildELF(0, 0, nil, 0)
	image[1] = 'X'
	if _, err := Load(image, &fakeMem{}, nil); err == nil {
		t.Errorf("expected error for bad ELF magic")
	}
}

func TestLoadInvokesReinit(t *testing.T) {
	image := buildELF(0x1000, 0x2000, []byte{1, 2, 3}, 0)
	called := false
	if _, err := Load(image, &fakeMem{}, func() { called = true }); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !called {
		t.Errorf("reinit callback was not invoked")
	}
}
