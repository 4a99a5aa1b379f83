/*
 * pc32 - CPU exception vector names (0-31).
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

package cpu

import (
	"fmt"
	"log/slog"
)

// ExceptionNames gives the human-readable name for vectors 0-31, used
// by the fatal-exception handler (spec.md 4.1, 7: "Fatal enters an
// unrecoverable loop").
var ExceptionNames = [numExceptions]string{
	"Divide-by-zero", "Debug", "Non-maskable interrupt", "Breakpoint",
	"Overflow", "Bound-range exceeded", "Invalid opcode", "Device not available",
	"Double fault", "Coprocessor segment overrun", "Invalid TSS", "Segment not present",
	"Stack fault", "General protection fault", "Page fault", "Reserved",
	"x87 floating-point", "Alignment check", "Machine check", "SIMD floating-point",
	"Virtualisation", "Control-protection", "Reserved", "Reserved",
	"Reserved", "Reserved", "Reserved", "Reserved",
	"Reserved", "Security exception", "Reserved", "Triple fault",
}

// Halted reports, after Fault, whether the simulated CPU has entered
// the unrecoverable HLT loop.
type Halted struct {
	Vector  int
	Name    string
	Message string
}

func (h *Halted) Error() string { return h.Message }

// Fault raises CPU exception vector (0-31): it logs the vector name
// and returns a *Halted describing the unrecoverable state, mirroring
// isr_handler's "print the vector name and halt via HLT" (spec.md 7).
// The core does not attempt per-task fault recovery.
func Fault(vector int) error {
	name := "Reserved"
	if vector >= 0 && vector < numExceptions {
		name = ExceptionNames[vector]
	}
	msg := fmt.Sprintf("*** CPU Exception %d: %s ***", vector, name)
	slog.Error(msg)
	return &Halted{Vector: vector, Name: name, Message: msg}
}
