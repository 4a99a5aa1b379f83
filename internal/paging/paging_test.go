package paging

import "testing"

func TestInstallIdentityMaps(t *testing.T) {
	d := New()
	d.Install(0x10000)

	for _, linear := range []uint32{0, 0x400000, 0xFFC00000} {
		phys, ok := d.Translate(linear)
		if !ok || phys != linear {
			t.Errorf("Translate(%#x) = (%#x, %v), want (%#x, true)", linear, phys, ok, linear)
		}
	}
}

func TestInstallSetsControlBits(t *testing.T) {
	d := New()
	d.Install(0x10000)

	if d.CR3() != 0x10000 {
		t.Errorf("CR3 got %#x want %#x", d.CR3(), 0x10000)
	}
	if d.CR4()&cr4PSE == 0 {
		t.Errorf("CR4.PSE not set")
	}
	if d.CR0()&cr0PG == 0 {
		t.Errorf("CR0.PG not set")
	}
}

func TestEntryFlags(t *testing.T) {
	d := New()
	d.Install(0)
	e := d.Entry(0x800000) // region 2
	want := uint32(2<<22) | flagPresent | flagWrite | flagUser | flagSize
	if e != want {
		t.Errorf("entry got %#x want %#x", e, want)
	}
}

func TestTranslateBeforeInstall(t *testing.T) {
	d := New()
	if _, ok := d.Translate(0); ok {
		t.Errorf("Translate should fail before Install")
	}
}

func TestInstallIdempotent(t *testing.T) {
	d := New()
	d.Install(0x1000)
	d.Install(0x2000)
	if d.CR3() != 0x1000 {
		t.Errorf("second Install changed CR3: got %#x want %#x", d.CR3(), 0x1000)
	}
}
