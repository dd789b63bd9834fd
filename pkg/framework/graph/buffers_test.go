package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Invariant 8 - round-trip of read-only view.
func TestReadOnly_RoundTrip(t *testing.T) {
	buf := SampleBuffer{1, 2, 3, 4}
	view := NewReadOnly[Sample](buf)

	for i := range buf {
		require.Equal(t, buf[i], view.At(i))
	}

	buf[2] = 99
	require.Equal(t, Sample(99), view.At(2))
}

func TestBufferHandle_InputOutputResolution(t *testing.T) {
	pool := NewBufferPool(2, 8)
	node := NewBufferNode(pool, nil)

	handle := NewBufferHandle(node, []BufferSlot{
		{Kind: SlotIntermediate, Index: 0},
		{Kind: SlotNone},
	}, []BufferSlot{
		{Kind: SlotIntermediate, Index: 1},
	})

	view, ok := handle.GetInput(0)
	require.True(t, ok)
	require.Equal(t, 8, view.Len())

	_, ok = handle.GetInput(1)
	require.False(t, ok)

	out, ok := handle.GetOutput(0)
	require.True(t, ok)
	out[0] = 42
	require.Equal(t, Sample(42), pool.buffer(1)[0])
}

func TestBufferHandle_GlobalPanicsAtTopLevel(t *testing.T) {
	pool := NewBufferPool(1, 4)
	node := NewBufferNode(pool, nil)
	handle := NewBufferHandle(node, nil, []BufferSlot{{Kind: SlotGlobalOutput, Index: 0}})

	require.Panics(t, func() { handle.outputBuffer(0) })
}

func TestBuffers_WindowAndAppend(t *testing.T) {
	pool := NewBufferPool(1, 16)
	node := NewBufferNode(pool, nil)
	handle := NewBufferHandle(node, nil, []BufferSlot{{Kind: SlotIntermediate, Index: 0}})
	buffers := NewBuffers(handle, 4, 4)

	out, ok := buffers.Output(0)
	require.True(t, ok)
	require.Len(t, out, 4)
	out[0] = 7
	require.Equal(t, Sample(7), pool.buffer(0)[4])

	child := NewBufferPool(1, 16)
	nested := buffers.Append(child, nil, []BufferSlot{{Kind: SlotIntermediate, Index: 0}})
	nestedOut, ok := nested.Output(0)
	require.True(t, ok)
	require.Len(t, nestedOut, 16)
}
