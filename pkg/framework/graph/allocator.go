package graph

// BufferID names a runtime sample buffer slot. Ids are dense, starting at
// 0, and identical to the allocating vector's index.
type BufferID uint32

// claimToken is the reference-counted unit a BufferAllocator hands out in
// place of Rust's Rc<()>: the allocator's own slot entry starts with a
// count of 1 (itself), and a buffer is free to reuse exactly when nothing
// else holds a claim on it.
type claimToken struct{ refs int32 }

// ClaimHandle is a cloneable token representing a live claim on a buffer.
// Buffers stay claimed, and therefore unavailable for reuse, for as long as
// any clone of the handle that allocated them is still held. The handle
// FindFreeBuffer returns is the allocator's own claim: callers Clone it to
// register a claim and call Release exactly once per Clone, never on the
// returned handle itself.
type ClaimHandle struct{ token *claimToken }

// Clone registers another live claim on the same buffer.
func (h ClaimHandle) Clone() ClaimHandle {
	h.token.refs++
	return ClaimHandle{token: h.token}
}

// Release drops one claim on the buffer. Once every clone has been
// released, leaving only the allocator's own claim, the buffer becomes
// eligible for reuse again.
func (h ClaimHandle) Release() {
	h.token.refs--
}

func (h ClaimHandle) free() bool { return h.token.refs == 1 }

// BufferAllocator hands out BufferIds, reusing a slot as soon as no live
// claim remains on it, and growing the pool only when every existing slot
// is claimed.
type BufferAllocator struct {
	tokens []*claimToken
}

// Len returns the total number of distinct buffers ever allocated - the
// final schedule's NumBuffers.
func (a *BufferAllocator) Len() int { return len(a.tokens) }

// FindFreeBuffer returns the id of a reusable buffer (one with no live
// claim beyond the allocator's own) together with a handle for it, growing
// the pool by one slot if none is free.
func (a *BufferAllocator) FindFreeBuffer() (BufferID, ClaimHandle) {
	for i, tok := range a.tokens {
		if tok.refs == 1 {
			return BufferID(i), ClaimHandle{token: tok}
		}
	}
	tok := &claimToken{refs: 1}
	a.tokens = append(a.tokens, tok)
	return BufferID(len(a.tokens) - 1), ClaimHandle{token: tok}
}
