/*
 * pc32 - Ring-0 -> Ring-3 privilege transition.
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

// EFLAGSInterrupt is the IF bit pushed on every Ring-3 entry so the
// PIT can still preempt user code.
const EFLAGSInterrupt uint32 = 0x200

// IRETFrame describes, in order, the five words a real `iret` would
// pop: SS, ESP, EFLAGS, CS, EIP. Building one value and handing it to
// Enter is this module's encapsulation of the single inline-assembly
// routine spec.md 9 calls for: "one routine that constructs the full
// IRET frame from (entry, stack, user_cs, user_ss, eflags_template)."
type IRETFrame struct {
	SS     uint16
	ESP    uint32
	EFLAGS uint32
	CS     uint16
	EIP    uint32
}

// NewUserFrame builds the IRET frame for entering Ring-3 at entry with
// stack esp, using the flat user code/data selectors installed at GDT
// slots 3/4. This single path serves both the first launch of a task
// (entry == saved entry_point) and resumption (entry == saved esp's
// owning task's last EIP is not tracked — see internal/sched, which
// always treats resumption as "return to entry_point" because no
// instruction-level single-step state survives the model).
func NewUserFrame(entry, esp uint32) IRETFrame {
	return IRETFrame{
		SS:     UserData,
		ESP:    esp,
		EFLAGS: EFLAGSInterrupt,
		CS:     UserCode,
		EIP:    entry,
	}
}

// Transition is the outcome of simulating `iret` into the frame: the
// model's stand-in for "the CPU is now executing in Ring 3 at this
// state." Nothing is executed; internal/sched returns this value to its
// caller and does not store it.
type Transition struct {
	Frame IRETFrame
	Ring  int
}

// Enter performs the modelled Ring-0 -> Ring-3 transition.
func Enter(frame IRETFrame) Transition {
	return Transition{Frame: frame, Ring: 3}
}
