package pic

import (
	"testing"

	"github.com/rcornwell/pc32/internal/ioport"
)

func TestInstallMasksAllButTimerKeyboardCascadeAux(t *testing.T) {
	p := New(ioport.NewBus())
	p.Install()

	if p.Masked(0) || p.Masked(1) || p.Masked(2) || p.Masked(12) {
		t.Errorf("IRQ0/1/2/12 should be unmasked after Install")
	}
	if !p.Masked(3) || !p.Masked(8) {
		t.Errorf("IRQ3/8 should remain masked after Install")
	}
	if !p.Remapped() {
		t.Errorf("Remapped should be true after Install")
	}
}

func TestInstallIdempotent(t *testing.T) {
	p := New(ioport.NewBus())
	p.Install()
	p.UninstallHandler(3) // no-op either way, just exercising the path
	before := p.mask
	p.Install()
	if p.mask != before {
		t.Errorf("second Install changed mask: got %#x want %#x", p.mask, before)
	}
}

func TestDispatchOrdersEOIBeforeHandler(t *testing.T) {
	bus := ioport.NewBus()
	p := New(bus)
	p.Install()

	var order []string
	p.InstallHandler(3, func() {
		if bus.In8(MasterCmd) == eoi {
			order = append(order, "eoi")
		}
		order = append(order, "handler")
	})
	p.Dispatch(MasterOffset + 3)
	if len(order) != 2 || order[0] != "eoi" || order[1] != "handler" {
		t.Errorf("EOI not sent before handler: %v", order)
	}
}

func TestDispatchSlaveSendsBothEOIs(t *testing.T) {
	bus := ioport.NewBus()
	p := New(bus)
	p.Install()
	called := false
	p.InstallHandler(12, func() { called = true })
	p.Dispatch(SlaveOffset + 4) // IRQ12
	if !called {
		t.Errorf("slave IRQ handler not invoked")
	}
	if bus.In8(SlaveCmd) != eoi || bus.In8(MasterCmd) != eoi {
		t.Errorf("EOIs got slave=%#x master=%#x want both %#x", bus.In8(SlaveCmd), bus.In8(MasterCmd), eoi)
	}
}

func TestTimerTakesPriorityOverHandlerTable(t *testing.T) {
	p := New(ioport.NewBus())
	fired := false
	tableFired := false
	p.SetTimerHandler(func() { fired = true })
	p.InstallHandler(0, func() { tableFired = true })
	p.Install()
	p.Dispatch(MasterOffset + 0)
	if !fired {
		t.Errorf("timer handler not invoked on IRQ0")
	}
	if tableFired {
		t.Errorf("IRQ0 table handler should not fire while a timer handler is set")
	}
}

func TestInstallHandlerAcceptsTimerAndKeyboardSlots(t *testing.T) {
	p := New(ioport.NewBus())
	p.Install()

	called := false
	p.InstallHandler(0, func() { called = true })
	p.Dispatch(MasterOffset + 0) // no timer handler set, falls through to the table
	if !called {
		t.Errorf("InstallHandler(0, ...) should be usable when no timer handler is set")
	}

	called = false
	p.InstallHandler(1, func() { called = true })
	p.Dispatch(MasterOffset + 1) // no keyboard handler set, falls through to the table
	if !called {
		t.Errorf("InstallHandler(1, ...) should be usable when no keyboard handler is set")
	}
}
