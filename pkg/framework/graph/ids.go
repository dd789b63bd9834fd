// Package graph compiles a latency-compensating audio node graph into a
// linear execution schedule, and runs that schedule against a pool of
// shared sample buffers.
package graph

import "fmt"

// NodeID is a stable identifier for a node, unique within one Graph.
type NodeID struct{ id uint32 }

// String implements fmt.Stringer.
func (n NodeID) String() string { return fmt.Sprintf("Node(%d)", n.id) }

// InputID is a stable identifier for an input port, unique within one Node.
type InputID struct{ id uint32 }

// String implements fmt.Stringer.
func (i InputID) String() string { return fmt.Sprintf("Input(%d)", i.id) }

// OutputID is a stable identifier for an output port, unique within one Node.
type OutputID struct{ id uint32 }

// String implements fmt.Stringer.
func (o OutputID) String() string { return fmt.Sprintf("Output(%d)", o.id) }

// idAllocator hands out small monotonically increasing, non-zero ids.
// An id is never handed out twice, even after its node or port is removed.
type idAllocator struct{ next uint32 }

func (a *idAllocator) next32() uint32 {
	a.next++
	return a.next
}

func newNodeID(a *idAllocator) NodeID     { return NodeID{a.next32()} }
func newInputID(a *idAllocator) InputID   { return InputID{a.next32()} }
func newOutputID(a *idAllocator) OutputID { return OutputID{a.next32()} }
