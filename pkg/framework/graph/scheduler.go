package graph

// ReverseReach records, for one node reverse-reachable from a declared
// sink, the maximum latency any of its inputs will have accumulated by the
// time it runs, and the set of its outputs' downstream consumers actually
// reached from a sink.
type ReverseReach struct {
	MaxInputLatency uint64
	// UsedOutputs[o] enumerates the (dst_node, dst_input) pairs of o that
	// were actually reached while walking backwards from a sink.
	UsedOutputs map[OutputID]*ConnectionSet[InputID]
}

func newReverseReach() *ReverseReach {
	return &ReverseReach{UsedOutputs: make(map[OutputID]*ConnectionSet[InputID])}
}

func (r *ReverseReach) usedOutput(o OutputID) *ConnectionSet[InputID] {
	set, ok := r.UsedOutputs[o]
	if !ok {
		set = newConnectionSet[InputID]()
		r.UsedOutputs[o] = set
	}
	return set
}

// Scheduler computes the reverse-reachable subgraph from a set of declared
// sink nodes: per-node max input latency, per-output used-connection sets,
// and a topological order in which every node appears before any node whose
// inputs it feeds.
type Scheduler struct {
	graph        *Graph
	order        []NodeID
	intermediate map[NodeID]*ReverseReach
}

func newScheduler(g *Graph) *Scheduler {
	return &Scheduler{graph: g, intermediate: make(map[NodeID]*ReverseReach)}
}

// Order returns the topological order computed so far.
func (s *Scheduler) Order() []NodeID { return s.order }

// Intermediate returns the per-node reverse-reachability records computed
// so far.
func (s *Scheduler) Intermediate() map[NodeID]*ReverseReach { return s.intermediate }

// AddSinkNode declares id as a node whose outputs are of interest (a
// master output, typically) and recursively walks its upstream producers,
// computing each visited node's max input latency and appending it to the
// topological order. Idempotent: re-declaring an already-visited node is a
// no-op.
func (s *Scheduler) AddSinkNode(id NodeID) {
	if _, visited := s.intermediate[id]; visited {
		return
	}

	node, ok := s.graph.Node(id)
	if !ok {
		return
	}

	var maxInputLatency uint64

	for _, destPort := range node.InputIDs() {
		conns := node.Port(destPort)
		for _, srcNode := range conns.Nodes() {
			s.AddSinkNode(srcNode)

			upstream := s.intermediate[srcNode]

			for _, srcPort := range conns.Ports(srcNode) {
				upstream.usedOutput(srcPort).insert(id, destPort)

				srcNodeHandle, _ := s.graph.Node(srcNode)
				srcPortLatency, _ := srcNodeHandle.Latency(srcPort)
				total := upstream.MaxInputLatency + srcPortLatency

				if total > maxInputLatency {
					maxInputLatency = total
				}
			}
		}
	}

	s.order = append(s.order, id)

	reach := newReverseReach()
	reach.MaxInputLatency = maxInputLatency
	s.intermediate[id] = reach
}
