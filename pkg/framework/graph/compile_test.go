package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two producers into one input: exactly one Sum task, and the
// delays resolve symmetrically regardless of claim order.
func TestCompile_TwoProducersOneInput(t *testing.T) {
	g := New()
	aID, a := g.AddNode()
	aOut := a.AddOutput(3)

	bID, b := g.AddNode()
	bOut := b.AddOutput(7)

	cID, c := g.AddNode()
	cIn := c.AddInput()

	_, err := g.TryInsertEdge(aID, aOut, cID, cIn)
	require.NoError(t, err)
	_, err = g.TryInsertEdge(bID, bOut, cID, cIn)
	require.NoError(t, err)

	s := g.Scheduler()
	s.AddSinkNode(cID)
	require.Equal(t, uint64(7), s.Intermediate()[cID].MaxInputLatency)

	sched := Compile(s)

	var sumCount int
	var sumTask SumTask
	var sumOutput OutputID
	for _, binding := range sched.Bindings {
		for port, sink := range binding.Outputs {
			sumCount += len(sink.SumTasks)
			if len(sink.SumTasks) > 0 {
				sumTask = sink.SumTasks[0]
				sumOutput = port
			}
		}
	}
	require.Equal(t, 1, sumCount)
	_ = sumOutput

	latOf := func(id NodeID, port OutputID) uint64 {
		node, _ := s.graph.Node(id)
		lat, _ := node.Latency(port)
		return lat
	}

	lhsLatency := latOf(sumTask.LHS.Node, sumTask.LHS.Port)
	var rhsNode NodeID
	var rhsPort OutputID
	for _, binding := range sched.Bindings {
		for port, sink := range binding.Outputs {
			for _, st := range sink.SumTasks {
				if st == sumTask {
					rhsPort = port
					for id, b := range sched.Bindings {
						if b == binding {
							rhsNode = id
						}
					}
				}
			}
		}
	}
	rhsLatency := latOf(rhsNode, rhsPort)

	assert.Equal(t, uint64(7)-lhsLatency, sumTask.LHS.IncomingDelay())
	assert.Equal(t, uint64(7)-rhsLatency, sumTask.RHSDelay)
}

// Three sources into one sink produce exactly two Sum tasks.
func TestCompile_Adders(t *testing.T) {
	g := New()
	aID, a := g.AddNode()
	aOut := a.AddOutput(6)

	bID, b := g.AddNode()
	bOut := b.AddOutput(8)

	cID, c := g.AddNode()
	cOut := c.AddOutput(13)

	sinkID, sink := g.AddNode()
	sinkIn := sink.AddInput()

	for _, e := range []struct {
		id   NodeID
		port OutputID
	}{{aID, aOut}, {bID, bOut}, {cID, cOut}} {
		_, err := g.TryInsertEdge(e.id, e.port, sinkID, sinkIn)
		require.NoError(t, err)
	}

	s := g.Scheduler()
	s.AddSinkNode(sinkID)
	require.Equal(t, uint64(13), s.Intermediate()[sinkID].MaxInputLatency)

	sched := Compile(s)

	var sumCount int
	for _, binding := range sched.Bindings {
		for _, snk := range binding.Outputs {
			sumCount += len(snk.SumTasks)
		}
	}
	require.Equal(t, 2, sumCount)
}

// Invariant 2 - topological order: Node(u) precedes Node(v) for every
// edge. This chain synthesizes no Sum tasks, so only Node order is checked.
func TestCompile_TopologicalOrder(t *testing.T) {
	g := New()
	aID, a := g.AddNode()
	aOut := a.AddOutput(1)

	bID, b := g.AddNode()
	bIn := b.AddInput()
	bOut := b.AddOutput(2)

	cID, c := g.AddNode()
	cIn := c.AddInput()

	_, err := g.TryInsertEdge(aID, aOut, bID, bIn)
	require.NoError(t, err)
	_, err = g.TryInsertEdge(bID, bOut, cID, cIn)
	require.NoError(t, err)

	s := g.Scheduler()
	s.AddSinkNode(cID)
	sched := Compile(s)

	pos := make(map[NodeID]int)
	for i, task := range sched.Tasks {
		if task.Kind == TaskNode {
			pos[task.Node] = i
		}
	}
	assert.Less(t, pos[aID], pos[bID])
	assert.Less(t, pos[bID], pos[cID])
}

// Invariant 6 - unused output elision.
func TestCompile_UnusedOutputElided(t *testing.T) {
	g := New()
	_, a := g.AddNode()
	a.AddOutput(0) // never connected, never declared as a sink path

	sinkID, sink := g.AddNode()
	sink.AddInput()

	s := g.Scheduler()
	s.AddSinkNode(sinkID)
	sched := Compile(s)

	binding := sched.Bindings[sinkID]
	require.Len(t, binding.Outputs, 0)
}
