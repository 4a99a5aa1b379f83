package syscall

import "testing"

type fakeMem struct {
	data []byte
}

func (m *fakeMem) ReadAt(addr, n uint32) ([]byte, error) {
	return m.data[addr : addr+n], nil
}

type fakeConsole struct {
	vga    []byte
	serial []byte
}

func (c *fakeConsole) PutC(ch byte, attr uint8) { c.vga = append(c.vga, ch) }
func (c *fakeConsole) SerialPutC(ch byte)       { c.serial = append(c.serial, ch) }

func TestSysWriteFansOutToVGAAndSerial(t *testing.T) {
	mem := &fakeMem{data: []byte("hello")}
	con := &fakeConsole{}
	h := &Handler{Console: con}

	r := &Regs{EAX: SysWrite, EBX: 1, ECX: 0, EDX: 5}
	h.Dispatch(r, mem)

	if r.EAX != 5 {
		t.Errorf("return value got %d want 5", r.EAX)
	}
	if string(con.vga) != "hello" || string(con.serial) != "hello" {
		t.Errorf("fan-out wrong: vga=%q serial=%q", con.vga, con.serial)
	}
}

func TestSysExitInvokesCallbackWithCode(t *testing.T) {
	con := &fakeConsole{}
	var gotCode int
	var called bool
	h := &Handler{Console: con, Exit: func(code int) { called = true; gotCode = code }}

	r := &Regs{EAX: SysExit, EBX: 42}
	h.Dispatch(r, nil)

	if !called || gotCode != 42 {
		t.Errorf("Exit callback got called=%v code=%d, want true/42", called, gotCode)
	}
}

func TestUnknownSyscallReturnsMinusOne(t *testing.T) {
	con := &fakeConsole{}
	h := &Handler{Console: con}
	r := &Regs{EAX: 999}
	h.Dispatch(r, nil)
	if r.EAX != 0xFFFFFFFF {
		t.Errorf("unknown syscall got %#x want %#x", r.EAX, uint32(0xFFFFFFFF))
	}
}
