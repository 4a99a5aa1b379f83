/*
 * pc32 - Machine: wires the core subsystems and runs the boot loop.
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

// Package boot assembles every subsystem package into one Machine and
// drives its run loop, matching kernel.c's boot sequence (gdt/idt
// install, paging, pmm/kheap, irq/pit, ata/fs, then "jump" to user
// mode) and the teacher's goroutine-based Start/Stop lifecycle.
package boot

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rcornwell/pc32/internal/ata"
	"github.com/rcornwell/pc32/internal/console"
	"github.com/rcornwell/pc32/internal/cpu"
	"github.com/rcornwell/pc32/internal/elf32"
	"github.com/rcornwell/pc32/internal/fat12"
	"github.com/rcornwell/pc32/internal/ioport"
	"github.com/rcornwell/pc32/internal/keyboard"
	"github.com/rcornwell/pc32/internal/kheap"
	"github.com/rcornwell/pc32/internal/memory"
	"github.com/rcornwell/pc32/internal/paging"
	"github.com/rcornwell/pc32/internal/pic"
	"github.com/rcornwell/pc32/internal/pit"
	"github.com/rcornwell/pc32/internal/pmm"
	"github.com/rcornwell/pc32/internal/sched"
	"github.com/rcornwell/pc32/internal/syscall"
)

// kernelStackTop and heapBase stand in for the linker-provided
// addresses (_end, the kernel stack) a real image would carry.
const (
	kernelStackTop = 0x9FC00
	heapBase       = 0x00100000
	// defaultMemoryKiB is used when New is given a zero size.
	defaultMemoryKiB = 16 * 1024
)

// Machine wires every subsystem behind one boot sequence plus the
// goroutine run loop, matching emu/core.core's wg/done/running trio.
type Machine struct {
	Bus      *ioport.Bus
	Tables   *cpu.Tables
	Paging   *paging.Directory
	PMM      *pmm.PMM
	Heap     *kheap.Heap
	RAM      *memory.RAM
	PIC      *pic.PIC
	PIT      *pit.PIT
	ATA      *ata.Disk
	FS       *fat12.FS
	Sched    *sched.Scheduler
	Console  *console.Console
	Keyboard *keyboard.Keyboard
	Syscall  *syscall.Handler

	wg      sync.WaitGroup
	done    chan struct{}
	running bool
}

// New builds a Machine over diskImage (a raw FAT12 volume image) and
// a memKiB RAM region (falling back to defaultMemoryKiB when zero),
// but does not yet install any hardware state; call Boot for that.
func New(diskImage []byte, memKiB uint32) *Machine {
	if memKiB == 0 {
		memKiB = defaultMemoryKiB
	}
	bus := ioport.NewBus()
	m := &Machine{
		Bus:    bus,
		Tables: cpu.New(),
		Paging: paging.New(),
		PMM:    pmm.New(),
		RAM:    memory.New(memKiB),
		PIC:    pic.New(bus),
		PIT:    pit.New(bus),
		ATA:    ata.New(bus, diskImage),
		Sched:  sched.New(),
		Console: &console.Console{
			VGA:    console.NewVGA(),
			Serial: console.NewSerial(bus),
		},
		Keyboard: keyboard.New(),
		done:     make(chan struct{}),
	}
	m.FS = fat12.New(m.ATA)
	m.Syscall = &syscall.Handler{Console: m.Console, Exit: m.exitTask}
	return m
}

// Boot runs the fixed install sequence kernel.c performs between
// "Entering kernel_main" and "jumping to user mode", in this order:
// descriptor tables, paging, heap, serial bring-up, PIC remap + PIT
// program, and the FAT12 mount. It does not yet create any task; callers schedule
// the first user program separately.
func (m *Machine) Boot() error {
	m.Tables.Install(kernelStackTop)
	m.Paging.Install(uint32(heapBase))
	m.Heap = kheap.New(heapBase)

	m.Console.Serial.Install()
	m.PIC.Install()
	m.PIC.SetTimerHandler(func() {
		m.PIT.Tick()
		m.reschedule()
	})
	m.PIC.SetKeyboardHandler(func() {
		m.Keyboard.Handler(m.Bus.In8(0x60))
	})
	m.PIT.Install(nil)

	if err := m.FS.Init(); err != nil {
		return err
	}
	slog.Info("pc32 boot sequence complete")
	return nil
}

// ApplyDebug turns on verbose logging for each subsystem named true in
// flags, matching the boot config's DEBUG directive
// (config/bootconfig.Config.Debug). Unknown names are ignored: a
// config file listing "DEBUG FAT12 PIC" only reaches the subsystems
// this Machine actually has a debug hook for.
func (m *Machine) ApplyDebug(flags map[string]bool) error {
	if flags["CPU"] {
		if err := m.Tables.Debug("ON"); err != nil {
			return err
		}
	}
	if flags["PIC"] {
		if err := m.PIC.Debug("ON"); err != nil {
			return err
		}
	}
	return nil
}

// LoadProgram loads an ELF32 image's PT_LOAD segments into RAM and
// creates a user task at its entry point, matching kernel.c's
// "load_elf then task_create_user" sequence for the first user
// program. The new task's stack top sits at the end of RAM.
func (m *Machine) LoadProgram(image []byte) (int, error) {
	entry, err := elf32.Load(image, m.RAM, func() { m.Paging.Install(heapBase) })
	if err != nil {
		return -1, err
	}
	stackTop := m.RAM.Size() &^ 0xF
	return m.Sched.CreateUser(entry, stackTop)
}

// HandleSyscall dispatches an int 0x80 trap frame against RAM,
// matching syscall.c's isr128 handler.
func (m *Machine) HandleSyscall(r *syscall.Regs) {
	m.Syscall.Dispatch(r, m.RAM)
}

func (m *Machine) reschedule() {
	if m.Sched.Count() <= 1 {
		return
	}
	m.Sched.Schedule(m.Tables.KernelStack())
}

func (m *Machine) exitTask(code int) {
	slog.Info("task exited", "code", code)
	m.Sched.Kill(m.Sched.Current(), m.Tables.KernelStack())
}

// Start runs the machine's dispatch loop in its own goroutine, exactly
// like emu/core.core.Start's wg.Add(1)/defer wg.Done() pairing.
func (m *Machine) Start() {
	m.wg.Add(1)
	go m.run()
}

func (m *Machine) run() {
	defer m.wg.Done()
	m.running = true
	ticker := time.NewTicker(time.Second / time.Duration(pit.TargetHz))
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			slog.Info("pc32 machine stopped")
			return
		case <-ticker.C:
			if m.running {
				m.PIC.Dispatch(pic.MasterOffset) // IRQ0: PIT tick
			}
		}
	}
}

// Stop signals the run loop to exit and waits up to one second for
// it, matching emu/core.core.Stop's timeout fallback.
func (m *Machine) Stop() {
	close(m.done)
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		slog.Warn("timed out waiting for pc32 machine to stop")
	}
}
