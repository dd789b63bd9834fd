package graph

// Sample is this runtime's sample element type: a single-voice,
// single-channel 32-bit float. Stereo2 below demonstrates a wider,
// multi-lane element for SIMD-clustered voices.
type Sample = float32

// SampleBuffer is one block's worth of samples for one buffer id. Go's
// memory model already permits many slice headers to alias the same
// backing array, so no wrapper type is needed for interior mutability
// under shared references.
type SampleBuffer []Sample

// BufferPool owns the storage for every intermediate buffer a compiled
// schedule references, indexed by BufferID.
type BufferPool struct {
	blockSize int
	buffers   []SampleBuffer
}

// NewBufferPool allocates numBuffers buffers of blockSize samples each.
func NewBufferPool(numBuffers, blockSize int) *BufferPool {
	p := &BufferPool{}
	p.Resize(numBuffers, blockSize)
	return p
}

// Resize grows or shrinks the pool to match a freshly compiled schedule.
// Called only from the control thread, between blocks - never from
// Executor.Process itself.
func (p *BufferPool) Resize(numBuffers, blockSize int) {
	p.blockSize = blockSize
	buffers := make([]SampleBuffer, numBuffers)
	for i := range buffers {
		buffers[i] = make(SampleBuffer, blockSize)
	}
	p.buffers = buffers
}

// BlockSize returns the sample count each buffer in the pool holds.
func (p *BufferPool) BlockSize() int { return p.blockSize }

func (p *BufferPool) buffer(id BufferID) SampleBuffer { return p.buffers[id] }

// BufferSlotKind names where one index-table entry resolves to.
type BufferSlotKind int

const (
	// SlotNone marks an unconnected input or an unused, elided output.
	SlotNone BufferSlotKind = iota
	// SlotIntermediate names a buffer in the current BufferNode's own
	// pool.
	SlotIntermediate
	// SlotGlobalOutput names a slot in the parent BufferHandle's output
	// table - nested invocation only.
	SlotGlobalOutput
	// SlotGlobalInput names a slot in the parent BufferHandle's input
	// table - nested invocation only.
	SlotGlobalInput
)

// BufferSlot is one resolved index-table entry.
type BufferSlot struct {
	Kind  BufferSlotKind
	Index int
}

// BufferNode represents one nesting frame: a local buffer pool plus an
// optional upward link to the caller's BufferHandle. The top-level
// invocation has a nil parent.
type BufferNode struct {
	pool   *BufferPool
	parent *BufferHandle
}

// NewBufferNode returns a nesting frame backed by pool, with the given
// (possibly nil) parent handle.
func NewBufferNode(pool *BufferPool, parent *BufferHandle) *BufferNode {
	return &BufferNode{pool: pool, parent: parent}
}

func (n *BufferNode) intermediate(k int) SampleBuffer { return n.pool.buffer(BufferID(k)) }

func (n *BufferNode) globalOutput(k int) SampleBuffer {
	if n.parent == nil {
		panic("graph: get_global_output called at the top-level nesting frame")
	}
	return n.parent.outputBuffer(k)
}

func (n *BufferNode) globalInput(k int) ReadOnly[Sample] {
	if n.parent == nil {
		panic("graph: get_global_input called at the top-level nesting frame")
	}
	return n.parent.inputBuffer(k)
}

// BufferHandle resolves one node's index table (its schedule binding,
// translated into BufferSlots by the Executor) against a BufferNode.
type BufferHandle struct {
	node    *BufferNode
	inputs  []BufferSlot
	outputs []BufferSlot
}

// NewBufferHandle pairs an index table with the frame it resolves
// against.
func NewBufferHandle(node *BufferNode, inputs, outputs []BufferSlot) *BufferHandle {
	return &BufferHandle{node: node, inputs: inputs, outputs: outputs}
}

// GetInput resolves input slot i to a read-only view, or false if it is
// unconnected.
func (h *BufferHandle) GetInput(i int) (ReadOnly[Sample], bool) {
	if i < 0 || i >= len(h.inputs) {
		return ReadOnly[Sample]{}, false
	}
	slot := h.inputs[i]
	switch slot.Kind {
	case SlotIntermediate:
		return NewReadOnly(h.node.intermediate(slot.Index)), true
	case SlotGlobalInput:
		return h.node.globalInput(slot.Index), true
	default:
		return ReadOnly[Sample]{}, false
	}
}

// GetOutput resolves output slot i to a writable view, or false if it
// has no downstream consumer (unused, elided at compile time).
func (h *BufferHandle) GetOutput(i int) (SampleBuffer, bool) {
	if i < 0 || i >= len(h.outputs) {
		return nil, false
	}
	slot := h.outputs[i]
	switch slot.Kind {
	case SlotIntermediate:
		return h.node.intermediate(slot.Index), true
	case SlotGlobalOutput:
		return h.node.globalOutput(slot.Index), true
	default:
		return nil, false
	}
}

func (h *BufferHandle) outputBuffer(k int) SampleBuffer {
	buf, ok := h.GetOutput(k)
	if !ok {
		panic("graph: parent output slot unresolved")
	}
	return buf
}

func (h *BufferHandle) inputBuffer(k int) ReadOnly[Sample] {
	view, ok := h.GetInput(k)
	if !ok {
		panic("graph: parent input slot unresolved")
	}
	return view
}

// Buffers narrows a BufferHandle's views to one sample window
// [start, start+len).
type Buffers struct {
	handle     *BufferHandle
	start, len int
}

// NewBuffers narrows handle to the given window.
func NewBuffers(handle *BufferHandle, start, length int) *Buffers {
	return &Buffers{handle: handle, start: start, len: length}
}

// Input returns the windowed read-only view for input slot i.
func (b *Buffers) Input(i int) (ReadOnly[Sample], bool) {
	view, ok := b.handle.GetInput(i)
	if !ok {
		return ReadOnly[Sample]{}, false
	}
	return view.slice(b.start, b.len), true
}

// Output returns the windowed writable view for output slot i.
func (b *Buffers) Output(i int) (SampleBuffer, bool) {
	buf, ok := b.handle.GetOutput(i)
	if !ok {
		return nil, false
	}
	return buf[b.start : b.start+b.len], true
}

// Len reports the width of this window, in samples.
func (b *Buffers) Len() int { return b.len }

// Append constructs a child BufferNode/Buffers nesting frame backed by
// localPool, whose parent is this Buffers' own handle. The caller's
// Buffers remains borrowed for the duration of the child's use; the
// child must not outlive this call.
// Each call allocates a new BufferNode, BufferHandle and Buffers.
func (b *Buffers) Append(localPool *BufferPool, inputs, outputs []BufferSlot) *Buffers {
	child := NewBufferNode(localPool, b.handle)
	handle := NewBufferHandle(child, inputs, outputs)
	return NewBuffers(handle, 0, localPool.blockSize)
}

// ReadOnly is a layout-preserving, copy-out view over a shared-mutable
// buffer: it exposes indexing and length but no mutation, so a slice of
// live cells can be reinterpreted as read-only without copying.
type ReadOnly[T any] struct {
	data       []T
	start, len int
}

// NewReadOnly wraps data in full as a read-only view.
func NewReadOnly[T any](data []T) ReadOnly[T] {
	return ReadOnly[T]{data: data, len: len(data)}
}

// At returns the i'th sample of the view.
func (r ReadOnly[T]) At(i int) T { return r.data[r.start+i] }

// Len reports the view's width.
func (r ReadOnly[T]) Len() int { return r.len }

func (r ReadOnly[T]) slice(start, length int) ReadOnly[T] {
	return ReadOnly[T]{data: r.data, start: r.start + start, len: length}
}

// Lanes is implemented by sample element types that carry more than one
// voice-cluster lane, letting the executor split one wide vector cell
// into its constituent stereo-pair sub-cells without copying.
type Lanes interface {
	NumLanes() int
}

// Mono is the default, single-lane sample element.
type Mono struct{ Value Sample }

// NumLanes implements Lanes.
func (Mono) NumLanes() int { return 1 }

// Stereo2 packs two voices' samples side by side, demonstrating a
// 2-voice SIMD cluster element.
type Stereo2 struct{ L, R Sample }

// NumLanes implements Lanes.
func (Stereo2) NumLanes() int { return 2 }

// Lane returns one constituent Mono sub-cell of a Stereo2 cell.
func (s Stereo2) Lane(i int) Mono {
	if i == 0 {
		return Mono{Value: s.L}
	}
	return Mono{Value: s.R}
}
