/*
 * pc32 - 8253/8254 PIT programmed at 100 Hz.
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

// Package pit models the 8253/8254 timer programmed at 100 Hz, the
// tick at which internal/sched preempts the running task, matching
// src/pit.c.
package pit

import (
	"sync/atomic"

	"github.com/rcornwell/pc32/internal/ioport"
)

const (
	cmdPort  = 0x43
	chan0    = 0x40
	modeRate = 0x36 // channel 0, lobyte/hibyte, mode 3 (square wave), binary

	// Freq is the PIT's crystal frequency in Hz.
	Freq = 1193182
	// TargetHz is the scheduler tick rate.
	TargetHz = 100
	// Divisor is the programmed reload value for TargetHz.
	Divisor = Freq / TargetHz
)

// Callback runs once per tick, after the tick counter has advanced.
// internal/boot does not register one: its IRQ0 handler calls Tick and
// then reschedules, matching irq_handler's "pit_handler(r);
// schedule();" sequence.
type Callback func()

// PIT is the modelled timer: a monotonic tick counter plus the
// optional scheduler callback.
type PIT struct {
	bus       *ioport.Bus
	ticks     atomic.Uint32
	installed bool
	onTick    Callback
}

// New returns an unprogrammed timer bound to bus.
func New(bus *ioport.Bus) *PIT {
	return &PIT{bus: bus}
}

// Install programs the PIT divisor and unmasks IRQ0 on imr (the
// caller's PIC instance), matching pit_init's outb sequence to ports
// 0x43/0x40 followed by clearing bit 0 of the IMR.
func (p *PIT) Install(imr *uint8) {
	if p.installed {
		return
	}
	p.bus.Out8(cmdPort, modeRate)
	p.bus.Out8(chan0, byte(Divisor&0xFF))
	p.bus.Out8(chan0, byte(Divisor>>8))
	if imr != nil {
		*imr &^= 0x01
	}
	p.installed = true
}

// OnTick registers the per-tick callback.
func (p *PIT) OnTick(cb Callback) { p.onTick = cb }

// Tick advances the tick counter and invokes the registered callback,
// matching pit_handler's "ticks++" immediately followed by the IRQ0
// dispatch path's call into schedule().
func (p *PIT) Tick() {
	p.ticks.Add(1)
	if p.onTick != nil {
		p.onTick()
	}
}

// Ticks returns the tick count, matching pit_get_ticks.
func (p *PIT) Ticks() uint32 {
	return p.ticks.Load()
}
