package kheap

import (
	"sync"
	"testing"
)

func TestAllocBumpsAndAligns(t *testing.T) {
	h := New(0x100000)
	a := h.Alloc(3)
	if a != 0x100000 {
		t.Fatalf("first alloc got %#x want %#x", a, 0x100000)
	}
	if h.End() != 0x100008 {
		t.Errorf("end got %#x want %#x (3 rounds up to 8)", h.End(), 0x100008)
	}
	b := h.Alloc(8)
	if b != 0x100008 {
		t.Errorf("second alloc got %#x want %#x", b, 0x100008)
	}
}

func TestAllocNeverFrees(t *testing.T) {
	h := New(0)
	first := h.Alloc(16)
	second := h.Alloc(16)
	if second <= first {
		t.Errorf("allocations must never overlap or shrink: %#x then %#x", first, second)
	}
}

func TestAllocConcurrentDisjoint(t *testing.T) {
	h := New(0)
	const n = 64
	addrs := make([]uint32, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			addrs[i] = h.Alloc(8)
		}(i)
	}
	wg.Wait()

	seen := make(map[uint32]bool, n)
	for _, a := range addrs {
		if seen[a] {
			t.Fatalf("duplicate allocation at %#x under concurrent Alloc", a)
		}
		seen[a] = true
	}
}
