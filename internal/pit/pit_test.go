package pit

import (
	"testing"

	"github.com/rcornwell/pc32/internal/ioport"
)

func TestInstallProgramsDivisorAndUnmasksIRQ0(t *testing.T) {
	bus := ioport.NewBus()
	p := New(bus)
	imr := uint8(0xFF)
	p.Install(&imr)

	// The bus keeps the last value written per port, so after the
	// lobyte/hibyte sequence port 0x40 holds the divisor's high byte.
	if bus.In8(chan0) != byte(Divisor>>8) {
		t.Errorf("divisor high byte got %#x want %#x", bus.In8(chan0), byte(Divisor>>8))
	}
	if bus.In8(cmdPort) != modeRate {
		t.Errorf("command byte got %#x want %#x", bus.In8(cmdPort), modeRate)
	}
	if imr&0x01 != 0 {
		t.Errorf("IRQ0 still masked after Install: imr=%#x", imr)
	}
}

func TestTickAdvancesAndFiresCallback(t *testing.T) {
	p := New(ioport.NewBus())
	fired := 0
	p.OnTick(func() { fired++ })

	p.Tick()
	p.Tick()

	if p.Ticks() != 2 {
		t.Errorf("Ticks() got %d want 2", p.Ticks())
	}
	if fired != 2 {
		t.Errorf("callback fired %d times, want 2", fired)
	}
}

func TestInstallIdempotent(t *testing.T) {
	bus := ioport.NewBus()
	p := New(bus)
	imr := uint8(0xFF)
	p.Install(&imr)
	imr = 0x01 // re-mask IRQ0 by hand
	p.Install(&imr)
	if imr != 0x01 {
		t.Errorf("second Install touched imr: got %#x want %#x", imr, 0x01)
	}
}
