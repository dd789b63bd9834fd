package graph

import "sort"

// ConnectionSet maps a remote NodeID to a set of remote ports, rejecting
// duplicates. It backs two distinct relations in this package:
//
//   - PortConnections (ConnectionSet[OutputID]): the upstream producers
//     feeding one input port.
//   - a reverse-traversal output's "used_outputs" entry
//     (ConnectionSet[InputID]): the downstream consumers actually reached
//     from a declared sink for one output port.
type ConnectionSet[P comparable] struct {
	byNode map[NodeID]map[P]struct{}
}

func newConnectionSet[P comparable]() *ConnectionSet[P] {
	return &ConnectionSet[P]{byNode: make(map[NodeID]map[P]struct{})}
}

// PortConnections is the set of (node, output) pairs feeding one input.
type PortConnections = ConnectionSet[OutputID]

func newPortConnections() *PortConnections { return newConnectionSet[OutputID]() }

// IsEmpty reports whether this set carries no connections at all.
func (p *ConnectionSet[P]) IsEmpty() bool {
	return p == nil || p.Len() == 0
}

// Len returns the total number of (node, port) pairs recorded.
func (p *ConnectionSet[P]) Len() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, ports := range p.byNode {
		n += len(ports)
	}
	return n
}

// insert records a connection, returning true if it was new.
func (p *ConnectionSet[P]) insert(node NodeID, port P) bool {
	ports, ok := p.byNode[node]
	if !ok {
		ports = make(map[P]struct{})
		p.byNode[node] = ports
	}
	if _, exists := ports[port]; exists {
		return false
	}
	ports[port] = struct{}{}
	return true
}

// remove deletes a connection, reporting whether it had been present.
func (p *ConnectionSet[P]) remove(node NodeID, port P) bool {
	ports, ok := p.byNode[node]
	if !ok {
		return false
	}
	if _, exists := ports[port]; !exists {
		return false
	}
	delete(ports, port)
	if len(ports) == 0 {
		delete(p.byNode, node)
	}
	return true
}

// Nodes returns the node ids referenced by this set, sorted for
// reproducible iteration. Map iteration order affects only which buffer id
// gets assigned where, never task structure - sorting here just makes
// that easier to test and to log deterministically.
func (p *ConnectionSet[P]) Nodes() []NodeID {
	nodes := make([]NodeID, 0, len(p.byNode))
	for n := range p.byNode {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].id < nodes[j].id })
	return nodes
}

// Ports returns the remote ports a given remote node connects through this
// set, sorted.
func (p *ConnectionSet[P]) Ports(node NodeID) []P {
	raw := p.byNode[node]
	ports := make([]P, 0, len(raw))
	for o := range raw {
		ports = append(ports, o)
	}
	sort.Slice(ports, func(i, j int) bool { return portLess(ports[i], ports[j]) })
	return ports
}

// Each calls fn once per (node, port) connection, in sorted order.
func (p *ConnectionSet[P]) Each(fn func(node NodeID, port P)) {
	if p == nil {
		return
	}
	for _, node := range p.Nodes() {
		for _, port := range p.Ports(node) {
			fn(node, port)
		}
	}
}

// portLess orders the two port id kinds this package ever instantiates
// ConnectionSet with. Both are simple uint32-wrapping structs.
func portLess(a, b any) bool {
	switch av := a.(type) {
	case OutputID:
		return av.id < b.(OutputID).id
	case InputID:
		return av.id < b.(InputID).id
	default:
		return false
	}
}
