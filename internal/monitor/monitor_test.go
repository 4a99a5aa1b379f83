package monitor

import (
	"strings"
	"testing"

	"github.com/rcornwell/pc32/internal/boot"
)

func blankImage() []byte {
	const dataSectors = 8
	image := make([]byte, (1+1+1+dataSectors)*512)
	bs := image[:512]
	bs[11], bs[12] = 0x00, 0x02
	bs[13] = 1
	bs[14], bs[15] = 1, 0
	bs[16] = 1
	bs[17], bs[18] = 16, 0
	bs[22], bs[23] = 1, 0
	return image
}

func bootedMachine(t *testing.T) *boot.Machine {
	t.Helper()
	m := boot.New(blankImage(), 1024)
	if err := m.Boot(); err != nil {
		t.Fatalf("Boot: %v", err)
	}
	return m
}

func TestDispatchPS(t *testing.T) {
	m := bootedMachine(t)
	m.Sched.CreateUser(0x8000, 0x7FFF0)
	out, err := dispatch(m, "ps")
	if err != nil {
		t.Fatalf("dispatch(ps): %v", err)
	}
	if !strings.Contains(out, "1 task(s)") {
		t.Errorf("ps output missing task count: %q", out)
	}
}

func TestDispatchFree(t *testing.T) {
	m := bootedMachine(t)
	out, err := dispatch(m, "free")
	if err != nil {
		t.Fatalf("dispatch(free): %v", err)
	}
	if !strings.Contains(out, "bytes free") {
		t.Errorf("free output wrong: %q", out)
	}
}

func TestDispatchCat(t *testing.T) {
	m := bootedMachine(t)
	if err := m.FS.Write("HELLO.TXT", []byte("hi there\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out, err := dispatch(m, "cat HELLO.TXT")
	if err != nil {
		t.Fatalf("dispatch(cat): %v", err)
	}
	if out != "hi there" {
		t.Errorf("cat output got %q want %q", out, "hi there")
	}
	if _, err := dispatch(m, "cat NOPE.TXT"); err == nil {
		t.Errorf("expected error catting a missing file")
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	m := bootedMachine(t)
	if _, err := dispatch(m, "rm -rf"); err == nil {
		t.Errorf("expected error for unknown command")
	}
}

func TestCompleteFiltersByPrefix(t *testing.T) {
	got := complete("f")
	if len(got) != 1 || got[0] != "free" {
		t.Errorf("complete(\"f\") got %v want [free]", got)
	}
}
