package memory

import "testing"

func TestWriteAtThenReadAtRoundTrip(t *testing.T) {
	m := New(4)
	if err := m.WriteAt(0x100, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	got, err := m.ReadAt(0x100, 4)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(got) != "\x01\x02\x03\x04" {
		t.Errorf("ReadAt got %v want [1 2 3 4]", got)
	}
}

func TestZeroAtClearsRange(t *testing.T) {
	m := New(4)
	m.WriteAt(0x200, []byte{0xFF, 0xFF, 0xFF})
	if err := m.ZeroAt(0x200, 3); err != nil {
		t.Fatalf("ZeroAt: %v", err)
	}
	got, _ := m.ReadAt(0x200, 3)
	for i, b := range got {
		if b != 0 {
			t.Errorf("byte %d got %#x want 0", i, b)
		}
	}
}

func TestOutOfBoundsAccessRejected(t *testing.T) {
	m := New(1)
	if err := m.WriteAt(m.Size()-1, []byte{1, 2}); err == nil {
		t.Errorf("expected error writing past end of region")
	}
	if _, err := m.ReadAt(m.Size(), 1); err == nil {
		t.Errorf("expected error reading past end of region")
	}
}

func TestSizeReflectsConstructorArgument(t *testing.T) {
	m := New(8)
	if m.Size() != 8*1024 {
		t.Errorf("Size() got %d want %d", m.Size(), 8*1024)
	}
}
