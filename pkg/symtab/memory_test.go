package symtab

import (
	"errors"
	"testing"
)

// TestAllocateReturnsSequentialAddresses checks a fresh manager hands out
// addresses from the start of its region in allocation order when nothing
// has been freed yet.
func TestAllocateReturnsSequentialAddresses(t *testing.T) {
	m := NewMemoryManager(0x1000, 64)

	a, err := m.Allocate("x", 4)
	if err != nil {
		t.Fatalf("Allocate(x) failed: %v", err)
	}
	if a != 0x1000 {
		t.Errorf("Allocate(x) = %#x, want %#x", a, 0x1000)
	}

	b, err := m.Allocate("y", 8)
	if err != nil {
		t.Fatalf("Allocate(y) failed: %v", err)
	}
	if b != 0x1000+4 {
		t.Errorf("Allocate(y) = %#x, want %#x", b, 0x1000+4)
	}
}

// TestFreeCoalescesAdjacentSegments checks that freeing a segment merges it
// with free neighbours so a later allocation can span the reunited space —
// without coalescing, the region would stay fragmented into too-small
// pieces to satisfy it.
func TestFreeCoalescesAdjacentSegments(t *testing.T) {
	m := NewMemoryManager(0x1000, 16)

	if _, err := m.Allocate("a", 8); err != nil {
		t.Fatalf("Allocate(a) failed: %v", err)
	}
	if _, err := m.Allocate("b", 8); err != nil {
		t.Fatalf("Allocate(b) failed: %v", err)
	}
	// Region is now fully allocated; a further request must fail.
	if _, err := m.Allocate("c", 1); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("Allocate(c) on exhausted region: err = %v, want ErrOutOfMemory", err)
	}

	if err := m.Free("a"); err != nil {
		t.Fatalf("Free(a) failed: %v", err)
	}
	if err := m.Free("b"); err != nil {
		t.Fatalf("Free(b) failed: %v", err)
	}

	// Only coalescing back into one 16-word run makes this allocation fit.
	addr, err := m.Allocate("whole", 16)
	if err != nil {
		t.Fatalf("Allocate(whole) after freeing both neighbours failed: %v", err)
	}
	if addr != 0x1000 {
		t.Errorf("Allocate(whole) = %#x, want %#x", addr, 0x1000)
	}
}

// TestAllocateOutOfMemory checks that a request larger than the entire
// region fails with ErrOutOfMemory rather than panicking or wrapping
// around.
func TestAllocateOutOfMemory(t *testing.T) {
	m := NewMemoryManager(0x1000, 4)

	if _, err := m.Allocate("too-big", 5); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("Allocate(too-big): err = %v, want ErrOutOfMemory", err)
	}
}

// TestAllocateRejectsDuplicateName checks a name cannot be allocated twice
// without an intervening Free.
func TestAllocateRejectsDuplicateName(t *testing.T) {
	m := NewMemoryManager(0x1000, 64)

	if _, err := m.Allocate("x", 4); err != nil {
		t.Fatalf("first Allocate(x) failed: %v", err)
	}
	if _, err := m.Allocate("x", 4); err == nil {
		t.Fatal("second Allocate(x) succeeded, want an error")
	}
}

// TestAddressOfReflectsAllocation checks AddressOf reports the address an
// earlier Allocate call returned, and reports absence once freed.
func TestAddressOfReflectsAllocation(t *testing.T) {
	m := NewMemoryManager(0x1000, 64)

	addr, err := m.Allocate("x", 4)
	if err != nil {
		t.Fatalf("Allocate(x) failed: %v", err)
	}
	got, ok := m.AddressOf("x")
	if !ok || got != addr {
		t.Errorf("AddressOf(x) = (%#x, %v), want (%#x, true)", got, ok, addr)
	}

	if err := m.Free("x"); err != nil {
		t.Fatalf("Free(x) failed: %v", err)
	}
	if _, ok := m.AddressOf("x"); ok {
		t.Error("AddressOf(x) still reports an address after Free")
	}
}

// TestHeapAllocatorNeverRecyclesAddresses checks the bump allocator hands
// out strictly increasing, non-overlapping addresses and refuses a request
// that would run past its region.
func TestHeapAllocatorNeverRecyclesAddresses(t *testing.T) {
	h := NewHeapAllocator(0x1800, 16)

	a, err := h.Allocate(10)
	if err != nil {
		t.Fatalf("Allocate(10) failed: %v", err)
	}
	if a != 0x1800 {
		t.Errorf("first Allocate = %#x, want %#x", a, 0x1800)
	}

	b, err := h.Allocate(4)
	if err != nil {
		t.Fatalf("Allocate(4) failed: %v", err)
	}
	if b != 0x1800+10 {
		t.Errorf("second Allocate = %#x, want %#x", b, 0x1800+10)
	}

	if _, err := h.Allocate(4); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("Allocate past end: err = %v, want ErrOutOfMemory", err)
	}
}
