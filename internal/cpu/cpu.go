/*
 * pc32 - Descriptor tables: GDT, IDT, TSS.
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

// Package cpu models the descriptor tables a 32-bit protected-mode
// kernel installs once at boot: the GDT, the IDT, and the single TSS
// used for Ring-0 re-entry. There is no silicon to program here, so
// Install fills the same struct fields `lgdt`/`lidt`/`ltr` would load
// and records that the tables are live; the rest of the kernel reads
// those fields instead of faulting real descriptor-table registers.
package cpu

import (
	"errors"
	"log/slog"
)

// Selectors, fixed by the GDT layout installed below.
const (
	NullSel     uint16 = 0x00
	KernelCode  uint16 = 0x08
	KernelData  uint16 = 0x10
	UserCode    uint16 = 0x18 | 3 // RPL=3
	UserData    uint16 = 0x20 | 3
	TSSSel      uint16 = 0x28
	CallGateSel uint16 = 0x38 | 3
)

// Access byte values used when installing flat code/data descriptors.
const (
	AccessKernelCode uint8 = 0x9A
	AccessKernelData uint8 = 0x92
	AccessUserCode   uint8 = 0xFA
	AccessUserData   uint8 = 0xF2
	AccessTSS        uint8 = 0x89
	AccessCallGate   uint8 = 0xEC
)

// Granularity byte for 4 KiB granularity, 32-bit flat segments.
const FlatGranularity uint8 = 0xCF

// IDT gate flags.
const (
	GateInterrupt32 uint8 = 0x8E // present, DPL=0, 32-bit interrupt gate
	GateTrap32DPL3  uint8 = 0xEF // present, DPL=3, 32-bit trap gate (int 0x80)
)

const (
	numGDTSlots   = 8
	numIDTEntries = 256
	syscallVector = 0x80
	numExceptions = 32
	numIRQVectors = 16
)

// GDTEntry is the installed form of one descriptor-table slot. For
// the call gate at slot 7, Base carries the gate's target offset and
// Selector the code selector the gate transfers through; Selector is
// zero for ordinary segment descriptors.
type GDTEntry struct {
	Base     uint32
	Limit    uint32
	Selector uint16
	Access   uint8
	Gran     uint8
}

// IDTEntry is the installed form of one interrupt-descriptor-table slot.
type IDTEntry struct {
	Present  bool
	Base     uint32 // handler entry point (opaque token in this model)
	Selector uint16
	Flags    uint8
}

// TSS is the kernel's single Task State Segment.
type TSS struct {
	SS0       uint16 // kernel data selector
	ESP0      uint32 // kernel stack top used on every Ring-3 -> Ring-0 re-entry
	IOMapBase uint16 // == byte limit of the TSS: no I/O bitmap is consulted
}

// Tables holds the GDT, IDT and TSS for one kernel instance. A
// faithful re-implementation models each descriptor table as an
// explicit, once-initialized value rather than ambient global state,
// per spec.md's design notes; boot.Machine owns exactly one Tables.
type Tables struct {
	gdt       [numGDTSlots]GDTEntry
	idt       [numIDTEntries]IDTEntry
	tss       TSS
	installed bool
	tr        bool // true once TSS is loaded into TR
	debug     bool
}

// New returns an uninstalled descriptor-table set.
func New() *Tables {
	return &Tables{}
}

// Install zeroes and fills the 8 GDT slots, installs the TSS at slot 5,
// builds the 256-entry IDT (exceptions 0-31, IRQs 32-47 as interrupt
// gates, 0x80 as a DPL=3 trap gate), and marks the tables live. It is
// idempotent: a second call is a silent no-op, matching spec.md 4.1
// ("fails only if called twice; no error is reported").
func (t *Tables) Install(kernelStackTop uint32) {
	if t.installed {
		slog.Debug("descriptor tables already installed, ignoring")
		return
	}

	for i := range t.gdt {
		t.gdt[i] = GDTEntry{}
	}

	t.gdt[1] = GDTEntry{Base: 0, Limit: 0xFFFFFFFF, Access: AccessKernelCode, Gran: FlatGranularity}
	t.gdt[2] = GDTEntry{Base: 0, Limit: 0xFFFFFFFF, Access: AccessKernelData, Gran: FlatGranularity}
	t.gdt[3] = GDTEntry{Base: 0, Limit: 0xFFFFFFFF, Access: AccessUserCode, Gran: FlatGranularity}
	t.gdt[4] = GDTEntry{Base: 0, Limit: 0xFFFFFFFF, Access: AccessUserData, Gran: FlatGranularity}

	t.tss = TSS{SS0: KernelData, ESP0: kernelStackTop}
	tssSize := tssByteSize()
	t.gdt[5] = GDTEntry{Base: tssBase, Limit: tssSize - 1, Access: AccessTSS, Gran: 0x00}
	t.tss.IOMapBase = uint16(tssSize) - 1

	// Slot 6 unused/available. Slot 7 reserved for the call gate until
	// InstallCallGate is called.

	for v := 0; v < numExceptions; v++ {
		t.idt[v] = IDTEntry{Present: true, Base: uint32(v), Selector: KernelCode, Flags: GateInterrupt32}
	}
	for v := numExceptions; v < numExceptions+numIRQVectors; v++ {
		t.idt[v] = IDTEntry{Present: true, Base: uint32(v), Selector: KernelCode, Flags: GateInterrupt32}
	}
	t.idt[syscallVector] = IDTEntry{Present: true, Base: syscallVector, Selector: KernelCode, Flags: GateTrap32DPL3}

	t.installed = true
	t.tr = true
	slog.Info("descriptor tables installed", "esp0", kernelStackTop, "tss_size", tssSize)
}

// tssBase and tssByteSize stand in for &tss and sizeof(tss): the TSS is
// a fixed 104-byte structure on real x86; we only need a stable limit.
const tssBase uint32 = 0
const tssFixedSize uint32 = 104

func tssByteSize() uint32 { return tssFixedSize }

// InstallCallGate installs the Ring-3 call gate in the GDT slot
// CallGateSel names (slot 7), matching gdt_install_call_gate: the
// gate's offset is targetEntry, its target selector the Ring-3 user
// code selector, access 0xEC (present, DPL=3, 32-bit call gate). The
// scheduler's privilege-transition path never goes through it, and
// boot.Machine.Boot does not call InstallCallGate, so slot 7 stays
// empty on a booted machine.
func (t *Tables) InstallCallGate(targetEntry uint32) {
	t.gdt[CallGateSel>>3] = GDTEntry{
		Base:     targetEntry,
		Selector: UserCode,
		Access:   AccessCallGate,
	}
}

// Installed reports whether Install has run.
func (t *Tables) Installed() bool { return t.installed }

// TSSLoaded reports whether TR refers to this Tables' TSS, i.e. whether
// the invariant "once loaded, TR refers to this TSS for the kernel's
// lifetime" holds.
func (t *Tables) TSSLoaded() bool { return t.tr }

// SetKernelStack updates esp0, the anchor every Ring-3->Ring-0 re-entry
// uses; it does not otherwise touch the table.
func (t *Tables) SetKernelStack(esp0 uint32) {
	t.tss.ESP0 = esp0
}

// KernelStack returns the TSS's current esp0.
func (t *Tables) KernelStack() uint32 { return t.tss.ESP0 }

// IOMapBase returns the TSS's iomap_base field, which must equal the
// TSS byte limit so no I/O bitmap is ever consulted (spec.md 3).
func (t *Tables) IOMapBase() uint16 { return t.tss.IOMapBase }

// GDTEntryAt returns a copy of GDT slot idx for inspection/testing.
func (t *Tables) GDTEntryAt(idx int) (GDTEntry, error) {
	if idx < 0 || idx >= numGDTSlots {
		return GDTEntry{}, errors.New("cpu: GDT slot out of range")
	}
	return t.gdt[idx], nil
}

// IDTEntryAt returns a copy of IDT vector v for inspection/testing.
func (t *Tables) IDTEntryAt(v int) (IDTEntry, error) {
	if v < 0 || v >= numIDTEntries {
		return IDTEntry{}, errors.New("cpu: IDT vector out of range")
	}
	return t.idt[v], nil
}

// Debug toggles verbose descriptor-table logging, reached from the
// DEBUG CPU boot-config option via boot.Machine.ApplyDebug.
func (t *Tables) Debug(option string) error {
	switch option {
	case "TABLES", "ON":
		t.debug = true
	case "OFF":
		t.debug = false
	default:
		return errors.New("cpu: unknown debug option " + option)
	}
	return nil
}
