package graph

import "testing"

func TestBufferAllocator_ReusesFreedSlot(t *testing.T) {
	var a BufferAllocator

	id1, h1 := a.FindFreeBuffer()
	claim := h1.Clone()
	claim.Release()

	id2, _ := a.FindFreeBuffer()
	if id1 != id2 {
		t.Errorf("expected freed slot %d to be reused, got %d", id1, id2)
	}
	if a.Len() != 1 {
		t.Errorf("expected pool to stay at 1 buffer, got %d", a.Len())
	}
}

func TestBufferAllocator_GrowsWhenAllClaimed(t *testing.T) {
	var a BufferAllocator

	_, h1 := a.FindFreeBuffer()
	clone := h1.Clone()
	_ = clone

	id2, _ := a.FindFreeBuffer()
	if id2 != 1 {
		t.Errorf("expected a second, distinct buffer id, got %d", id2)
	}
	if a.Len() != 2 {
		t.Errorf("expected pool to grow to 2 buffers, got %d", a.Len())
	}
}
