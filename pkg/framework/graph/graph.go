package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xlab/treeprint"
)

// Graph is a mutable collection of Nodes connected by typed edges. Nodes
// and edges persist for the graph's lifetime; they are not mutated during
// schedule compilation or execution.
type Graph struct {
	ids   *idAllocator
	nodes map[NodeID]*Node
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{ids: &idAllocator{}, nodes: make(map[NodeID]*Node)}
}

// AddNode inserts a fresh, empty node and returns its id together with a
// handle to populate it (add inputs/outputs).
func (g *Graph) AddNode() (NodeID, *Node) {
	id := newNodeID(g.ids)
	n := NewNode()
	g.nodes[id] = n
	return id, n
}

// Node returns the node for id, if it exists.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeIDs returns every node id in the graph, sorted.
func (g *Graph) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].id < ids[j].id })
	return ids
}

// TryInsertEdge connects src's output port to dst's input port.
//
// It fails with a *PortMissingError (wrapping ErrPortMissing) when either
// endpoint references an unknown node or port, and with a *CycleError
// (wrapping ErrWouldCreateCycle) when the edge would close a directed
// cycle. The cycle check runs before any mutation. On success it returns
// true if the edge is new, false if it was already present (idempotent).
func (g *Graph) TryInsertEdge(src NodeID, srcPort OutputID, dst NodeID, dstPort InputID) (bool, error) {
	srcNode, ok := g.nodes[src]
	if !ok {
		return false, &PortMissingError{Node: src, Port: srcPort}
	}
	if !srcNode.HasOutput(srcPort) {
		return false, &PortMissingError{Node: src, Port: srcPort}
	}

	dstNode, ok := g.nodes[dst]
	if !ok {
		return false, &PortMissingError{Node: dst, Port: dstPort}
	}
	if !dstNode.HasInput(dstPort) {
		return false, &PortMissingError{Node: dst, Port: dstPort}
	}

	if g.isConnected(src, dst) {
		return false, &CycleError{From: src, To: dst}
	}

	isNew := dstNode.inputs[dstPort].insert(src, srcPort)
	return isNew, nil
}

// isConnected reports whether to is reachable from from by following input
// ports back to their upstream producers (DFS). from == to is trivially
// true. Checking isConnected(src, dst) before inserting src -> dst tells us
// whether dst is already an (indirect) upstream producer of src, which is
// exactly when adding the edge would close a cycle.
func (g *Graph) isConnected(from, to NodeID) bool {
	if from == to {
		return true
	}
	node, ok := g.nodes[from]
	if !ok {
		return false
	}
	for _, conns := range node.inputs {
		for upstream := range conns.byNode {
			if g.isConnected(upstream, to) {
				return true
			}
		}
	}
	return false
}

// RemoveEdge disconnects src's output from dst's input, reporting whether
// it had been present.
func (g *Graph) RemoveEdge(src NodeID, srcPort OutputID, dst NodeID, dstPort InputID) (bool, error) {
	dstNode, ok := g.nodes[dst]
	if !ok {
		return false, &PortMissingError{Node: dst, Port: dstPort}
	}
	conns, ok := dstNode.inputs[dstPort]
	if !ok {
		return false, &PortMissingError{Node: dst, Port: dstPort}
	}
	return conns.remove(src, srcPort), nil
}

// RemoveInput removes an input port from a node.
func (g *Graph) RemoveInput(node NodeID, id InputID) bool {
	n, ok := g.nodes[node]
	if !ok {
		return false
	}
	return n.RemoveInput(id)
}

// RemoveOutput removes an output port from a node, and scrubs any
// downstream edges that referenced it so no dangling connection remains.
func (g *Graph) RemoveOutput(node NodeID, id OutputID) bool {
	n, ok := g.nodes[node]
	if !ok {
		return false
	}
	if !n.RemoveOutput(id) {
		return false
	}
	for _, other := range g.nodes {
		other.removeEdgesTo(node, id)
	}
	return true
}

// Scheduler returns a fresh Scheduler borrowing this graph.
func (g *Graph) Scheduler() *Scheduler {
	return newScheduler(g)
}

// Tree renders the graph's edges as a nested tree, each node showing its
// upstream producers, for debug logging and the graphc CLI tool.
func (g *Graph) Tree() string {
	root := treeprint.New()
	root.SetValue("graph")
	for _, id := range g.NodeIDs() {
		node := g.nodes[id]
		branch := root.AddBranch(id.String())
		for _, inID := range node.InputIDs() {
			inBranch := branch.AddBranch(inID.String())
			node.inputs[inID].Each(func(upstream NodeID, port OutputID) {
				inBranch.AddNode(upstream.String() + "." + port.String())
			})
		}
	}
	return root.String()
}

// DOT renders the graph in Graphviz dot format, for piping into a
// renderer from the command line.
func (g *Graph) DOT() string {
	var sb strings.Builder
	sb.WriteString("digraph graph {\n")
	for _, id := range g.NodeIDs() {
		node := g.nodes[id]
		fmt.Fprintf(&sb, "  %q;\n", id.String())
		for _, inID := range node.InputIDs() {
			node.inputs[inID].Each(func(upstream NodeID, port OutputID) {
				fmt.Fprintf(&sb, "  %q -> %q [label=%q];\n", upstream.String(), id.String(), port.String()+" -> "+inID.String())
			})
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}
