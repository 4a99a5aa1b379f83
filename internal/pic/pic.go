/*
 * pc32 - 8259 PIC remap and IRQ dispatch.
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

// Package pic models the 8259 master/slave PIC pair: the ICW/OCW remap
// sequence that moves IRQ0-15 off the reserved 0x00-0x1F exception
// range, the post-remap IRQ mask, and EOI-before-handler dispatch.
package pic

import (
	"log/slog"

	"github.com/rcornwell/pc32/internal/ioport"
)

// 8259 ports (src/irq.c).
const (
	Master    = 0x20
	MasterCmd = 0x20
	MasterImr = 0x21
	Slave     = 0xA0
	SlaveCmd  = 0xA0
	SlaveImr  = 0xA1

	icw1Init = 0x11
	eoi      = 0x20

	// MasterOffset/SlaveOffset are the post-remap vector bases: IRQ0-7
	// land on 0x20-0x27, IRQ8-15 on 0x28-0x2F.
	MasterOffset = 0x20
	SlaveOffset  = 0x28

	// NumIRQ is the number of IRQ lines across both controllers.
	NumIRQ = 16
)

// Handler services one IRQ line. It returns after the line's device
// state has been drained; EOI has already been sent by Dispatch.
type Handler func()

// PIC holds the remapped controller state and the installed handler
// table, standing in for the 8259 pair plus irq_handlers[16] in
// src/irq.c.
type PIC struct {
	bus      *ioport.Bus
	handlers [NumIRQ]Handler
	timer    Handler // IRQ0, always the PIT tick plus a reschedule
	keyboard Handler // IRQ1, always the scancode producer
	mask     uint16  // bit i set => IRQi masked, matches PIC1_DATA/PIC2_DATA
	remapped bool
}

// New returns an unremapped controller bound to bus.
func New(bus *ioport.Bus) *PIC {
	return &PIC{bus: bus, mask: 0xFFFF}
}

// Install remaps both controllers to MasterOffset/SlaveOffset and
// masks every line but IRQ0 (timer), IRQ1 (keyboard), IRQ2 (cascade),
// and IRQ12 (auxiliary PS/2), matching irq_install's "mask all but timer, keyboard,
// and PS/2 mouse" comment and its literal 0xF8/0xEF masks. Repeated
// calls are a no-op.
func (p *PIC) Install() {
	if p.remapped {
		return
	}
	p.bus.Out8(MasterCmd, icw1Init)
	p.bus.Out8(SlaveCmd, icw1Init)
	p.bus.Out8(MasterImr, MasterOffset)
	p.bus.Out8(SlaveImr, SlaveOffset)
	p.bus.Out8(MasterImr, 0x04) // tell master slave sits on IRQ2
	p.bus.Out8(SlaveImr, 0x02)  // tell slave its cascade identity
	p.bus.Out8(MasterImr, 0x01) // 8086 mode
	p.bus.Out8(SlaveImr, 0x01)

	p.bus.Out8(MasterImr, 0xF8)
	p.bus.Out8(SlaveImr, 0xEF)
	p.mask = 0xF8 | 0xEF<<8

	p.remapped = true
	slog.Info("pic remapped", "master", MasterOffset, "slave", SlaveOffset)
}

// Remapped reports whether Install has completed.
func (p *PIC) Remapped() bool { return p.remapped }

// SetTimerHandler wires the IRQ0 callback (PIT tick + reschedule),
// matching irq_handler's special-cased "if (irq == 0)" branch.
func (p *PIC) SetTimerHandler(handler Handler) { p.timer = handler }

// SetKeyboardHandler wires the IRQ1 callback (scancode producer),
// matching irq_handler's "if (irq == 1)" branch.
func (p *PIC) SetKeyboardHandler(handler Handler) { p.keyboard = handler }

// InstallHandler registers handler for irq (0-15), matching
// irq_install_handler's plain "irq >= 0 && irq < 16" bounds check. It
// never rejects IRQ0/IRQ1: those slots are stored like any other, but
// Dispatch always tries the timer/keyboard callbacks ahead of this
// table, so a handler installed here for IRQ0 or IRQ1 only fires once
// SetTimerHandler/SetKeyboardHandler has not been set.
func (p *PIC) InstallHandler(irq int, handler Handler) {
	if irq < 0 || irq >= NumIRQ {
		return
	}
	p.handlers[irq] = handler
}

// UninstallHandler clears the handler for irq, matching
// irq_uninstall_handler.
func (p *PIC) UninstallHandler(irq int) {
	if irq < 0 || irq >= NumIRQ {
		return
	}
	p.handlers[irq] = nil
}

// Masked reports whether irq is currently masked in the IMR.
func (p *PIC) Masked(irq int) bool {
	if irq < 0 || irq >= NumIRQ {
		return true
	}
	return p.mask&(1<<uint(irq)) != 0
}

// Dispatch services vector (32-47): it sends EOI to the slave first
// when the vector is on the slave's range, then always to the master,
// before invoking the installed handler, mirroring irq_handler's
// "acknowledge PIC" ordering ahead of the handler call.
func (p *PIC) Dispatch(vector int) {
	irq := vector - MasterOffset
	if irq < 0 || irq >= NumIRQ {
		return
	}
	if vector >= SlaveOffset {
		p.bus.Out8(SlaveCmd, eoi)
	}
	p.bus.Out8(MasterCmd, eoi)

	switch {
	case irq == 0 && p.timer != nil:
		p.timer()
	case irq == 1 && p.keyboard != nil:
		p.keyboard()
	case p.handlers[irq] != nil:
		p.handlers[irq]()
	}
}

// Debug implements the config registry's per-subsystem debug hook; pic
// has no runtime-toggleable debug options today.
func (p *PIC) Debug(option string) error {
	return nil
}
