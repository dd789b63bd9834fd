package graph

import "sort"

// Node owns an output-latency table and an input-connection table. Inputs
// and outputs are added independently of edges; an edge only ever touches
// the destination input's PortConnections.
type Node struct {
	ids *idAllocator

	outputs map[OutputID]uint64
	inputs  map[InputID]*PortConnections
}

// NewNode returns an empty node: no input or output ports.
func NewNode() *Node {
	return &Node{
		ids:     &idAllocator{},
		outputs: make(map[OutputID]uint64),
		inputs:  make(map[InputID]*PortConnections),
	}
}

// AddInput adds a new, unconnected input port and returns its id.
func (n *Node) AddInput() InputID {
	id := newInputID(n.ids)
	n.inputs[id] = newPortConnections()
	return id
}

// AddOutput adds a new output port with the given intrinsic latency (in
// samples) and returns its id.
func (n *Node) AddOutput(latency uint64) OutputID {
	id := newOutputID(n.ids)
	n.outputs[id] = latency
	return id
}

// RemoveInput removes an input port and all of its connections.
func (n *Node) RemoveInput(id InputID) bool {
	if _, ok := n.inputs[id]; !ok {
		return false
	}
	delete(n.inputs, id)
	return true
}

// RemoveOutput removes an output port. Callers are responsible for also
// removing any edges that referenced it (Graph.RemoveOutput does this).
func (n *Node) RemoveOutput(id OutputID) bool {
	if _, ok := n.outputs[id]; !ok {
		return false
	}
	delete(n.outputs, id)
	return true
}

// SetLatency replaces the latency of an existing output (a second add
// for the same output replaces its latency rather than erroring).
func (n *Node) SetLatency(id OutputID, latency uint64) bool {
	if _, ok := n.outputs[id]; !ok {
		return false
	}
	n.outputs[id] = latency
	return true
}

// Latency returns an output's intrinsic latency.
func (n *Node) Latency(id OutputID) (uint64, bool) {
	lat, ok := n.outputs[id]
	return lat, ok
}

// HasInput reports whether the given input port exists on this node.
func (n *Node) HasInput(id InputID) bool {
	_, ok := n.inputs[id]
	return ok
}

// HasOutput reports whether the given output port exists on this node.
func (n *Node) HasOutput(id OutputID) bool {
	_, ok := n.outputs[id]
	return ok
}

// Port returns the connections recorded on an input port.
func (n *Node) Port(id InputID) *PortConnections {
	return n.inputs[id]
}

// InputIDs returns every input port id, sorted.
func (n *Node) InputIDs() []InputID {
	ids := make([]InputID, 0, len(n.inputs))
	for id := range n.inputs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].id < ids[j].id })
	return ids
}

// OutputIDs returns every output port id, sorted.
func (n *Node) OutputIDs() []OutputID {
	ids := make([]OutputID, 0, len(n.outputs))
	for id := range n.outputs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].id < ids[j].id })
	return ids
}

// removeEdgesTo drops any connection this node's inputs hold referencing
// (src, port).
func (n *Node) removeEdgesTo(src NodeID, port OutputID) {
	for _, conns := range n.inputs {
		conns.remove(src, port)
	}
}
