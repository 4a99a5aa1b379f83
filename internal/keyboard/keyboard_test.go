package keyboard

import "testing"

func TestHandlerFeedsShellWhenGUIInactive(t *testing.T) {
	k := New()
	var got []byte
	k.ShellFeed = func(c byte) { got = append(got, c) }

	k.Handler(0x1E) // 'a'
	k.Handler(0x1F) // 's'

	if string(got) != "as" {
		t.Errorf("got %q want %q", got, "as")
	}
}

func TestHandlerBuffersWhenGUIActive(t *testing.T) {
	k := New()
	k.SetGUIActive(true)
	k.Handler(0x1E) // 'a'

	if !k.HasInput() {
		t.Fatalf("expected buffered input")
	}
	c, ok := k.GetChar()
	if !ok || c != 'a' {
		t.Errorf("GetChar got (%q, %v) want ('a', true)", c, ok)
	}
	if k.HasInput() {
		t.Errorf("buffer should be empty after drain")
	}
}

func TestShiftAppliesUppercaseUntilRelease(t *testing.T) {
	k := New()
	var got []byte
	k.ShellFeed = func(c byte) { got = append(got, c) }

	k.Handler(scLeftShift)
	k.Handler(0x1E) // 'A' while shift held
	k.Handler(scLeftShift | scRelease)
	k.Handler(0x1E) // 'a' after release

	if string(got) != "Aa" {
		t.Errorf("got %q want %q", got, "Aa")
	}
}

func TestRingDropsOnFull(t *testing.T) {
	k := New()
	k.SetGUIActive(true)
	for i := 0; i < bufferSize+10; i++ {
		k.Handler(0x1E) // 'a', repeatedly
	}
	count := 0
	for k.HasInput() {
		k.GetChar()
		count++
	}
	if count >= bufferSize {
		t.Errorf("ring should drop once full, got %d entries for a %d-byte ring", count, bufferSize)
	}
}

func TestUnmappedScancodeIgnored(t *testing.T) {
	k := New()
	fed := false
	k.ShellFeed = func(c byte) { fed = true }
	k.Handler(0x01) // Escape, unmapped
	if fed {
		t.Errorf("unmapped scancode should not reach ShellFeed")
	}
}
