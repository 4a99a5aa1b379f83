/*
 * pc32 - int 0x80 syscall dispatch.
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

// Package syscall dispatches int 0x80 traps against the pushad
// register frame, matching src/syscall.c's syscall_handler and its
// REG_EAX..REG_EDI stack layout.
package syscall

import "log/slog"

// Syscall numbers (spec.md 4.5).
const (
	SysWrite uint32 = 1
	SysExit  uint32 = 2
)

// Regs mirrors the pushad frame syscall_handler indexes by esp[REG_*]:
// EDI, ESI, EBP, OldESP, EBX, EDX, ECX, EAX, in push order.
type Regs struct {
	EDI    uint32
	ESI    uint32
	EBP    uint32
	OldESP uint32
	EBX    uint32
	EDX    uint32
	ECX    uint32
	EAX    uint32
}

// Memory reads the user buffer a SYS_WRITE call names by address, the
// modelled stand-in for dereferencing a user pointer directly.
type Memory interface {
	ReadAt(addr uint32, n uint32) ([]byte, error)
}

// Console is the dual sink SYS_WRITE fans a byte out to: putc(c,7) to
// VGA plus serial_putc(c) to COM1.
type Console interface {
	PutC(c byte, attr uint8)
	SerialPutC(c byte)
}

// Handler dispatches syscalls. Exit is invoked for SYS_EXIT instead of
// the C kernel's infinite "hlt" loop, since a simulated task has a
// scheduler able to actually remove it (spec.md 9 notes the original
// never implemented that cleanly).
type Handler struct {
	Console Console
	Exit    func(code int)
}

// Dispatch services one int 0x80 trap, matching syscall_handler's
// switch on esp[REG_EAX] and its in-place write of the return value
// to esp[REG_EAX].
func (h *Handler) Dispatch(r *Regs, mem Memory) {
	switch r.EAX {
	case SysWrite:
		r.EAX = h.sysWrite(r, mem)
	case SysExit:
		h.sysExit(r)
	default:
		slog.Warn("unknown syscall", "eax", r.EAX)
		r.EAX = 0xFFFFFFFF
	}
}

func (h *Handler) sysWrite(r *Regs, mem Memory) uint32 {
	buf, err := mem.ReadAt(r.ECX, r.EDX)
	if err != nil {
		return 0
	}
	for _, c := range buf {
		h.Console.PutC(c, 7)
		h.Console.SerialPutC(c)
	}
	return uint32(len(buf))
}

func (h *Handler) sysExit(r *Regs) {
	code := int(int32(r.EBX))
	h.Console.PutC('\n', 7)
	for _, c := range []byte("[process exited]\n") {
		h.Console.PutC(c, 7)
	}
	if h.Exit != nil {
		h.Exit(code)
	}
}
