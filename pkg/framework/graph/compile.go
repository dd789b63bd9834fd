package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/couchbase/ghistogram"
	"github.com/xlab/treeprint"
)

// SourceKind distinguishes a direct producer from a synthesized summation.
type SourceKind int

const (
	// SourceDirect means the input is fed straight from an upstream
	// output, delayed by Delay samples.
	SourceDirect SourceKind = iota
	// SourceSum means the input is fed from the SumIndex'th SumTask of
	// the producing output's Sink.
	SourceSum
)

// Source is the concrete producer of a destination input: either a direct
// upstream output (with its delay-matching offset) or a pointer into a
// sum chain.
type Source struct {
	Node NodeID
	Port OutputID
	Kind SourceKind
	// Delay is meaningful only when Kind == SourceDirect.
	Delay uint64
	// SumIndex is meaningful only when Kind == SourceSum.
	SumIndex int
}

// IncomingDelay returns the Direct delay, or 0 for a Sum source (a sum
// output already has delay baked into its two operands).
func (s Source) IncomingDelay() uint64 {
	if s.Kind == SourceDirect {
		return s.Delay
	}
	return 0
}

// SumTask is a synthesized binary addition: lhs (an already-claimed
// source) plus the current output's producer, delayed by RHSDelay,
// written into Output.
type SumTask struct {
	RHSDelay uint64
	LHS      Source
	Output   BufferID
}

// Sink describes an output with at least one downstream consumer: its
// allocated buffer, the largest per-consumer delay it must tolerate, and
// any sum tasks synthesized against it.
type Sink struct {
	BufID    BufferID
	MaxDelay uint64
	SumTasks []SumTask
}

// NodeBinding holds one node's compiled I/O: for each input, the Source
// feeding it (nil if unconnected); for each output, the Sink it was
// assigned (nil if it has no downstream consumer - unused output
// elision). InputOrder/OutputOrder record every port the node
// declared, in ascending id order, regardless of whether it ended up
// bound - this is what lets a Processor address its ports by stable
// positional index rather than by internal id.
type NodeBinding struct {
	Inputs      map[InputID]*Source
	Outputs     map[OutputID]*Sink
	InputOrder  []InputID
	OutputOrder []OutputID
}

// TaskKind distinguishes the two kinds of schedule task.
type TaskKind int

const (
	// TaskNode dispatches a node's processor.
	TaskNode TaskKind = iota
	// TaskSum performs one synthesized summation.
	TaskSum
)

// Task is one step of the linearised schedule.
type Task struct {
	Kind TaskKind
	Node NodeID
	// Port and Index are meaningful only when Kind == TaskSum.
	Port  OutputID
	Index int
}

// GraphSchedule is the compiled, immutable result of scheduling a graph:
// the number of distinct sample buffers it needs, each node's I/O
// bindings, and the linear task list an Executor walks once per block.
type GraphSchedule struct {
	NumBuffers int
	Bindings   map[NodeID]*NodeBinding
	Tasks      []Task
}

type claimEntry struct {
	handle ClaimHandle
	source Source
}

type repeatEntry struct {
	dstNode     NodeID
	dstPort     InputID
	otherHandle ClaimHandle
	delay       uint64
}

// Compile consumes a Scheduler (which must already have every sink
// declared via AddSinkNode) and produces the final GraphSchedule: for
// every node in topological order, it allocates a buffer per used
// output, records direct claims on first
// arrival at a destination input and synthesizes a Sum task on every
// subsequent arrival, then finalises the node's own inputs from whatever
// claims its upstream producers left for it.
func Compile(s *Scheduler) *GraphSchedule {
	var allocator BufferAllocator
	claims := make(map[NodeID]map[InputID]claimEntry)
	bindings := make(map[NodeID]*NodeBinding)
	var tasks []Task

	for _, nodeID := range s.order {
		reach := s.intermediate[nodeID]
		node, _ := s.graph.Node(nodeID)

		tasks = append(tasks, Task{Kind: TaskNode, Node: nodeID})

		binding := &NodeBinding{
			Inputs:      make(map[InputID]*Source),
			Outputs:     make(map[OutputID]*Sink),
			InputOrder:  node.InputIDs(),
			OutputOrder: node.OutputIDs(),
		}

		outputIDs := make([]OutputID, 0, len(reach.UsedOutputs))
		for o := range reach.UsedOutputs {
			outputIDs = append(outputIDs, o)
		}
		sort.Slice(outputIDs, func(i, j int) bool { return outputIDs[i].id < outputIDs[j].id })

		repeatsByOutput := make(map[OutputID][]repeatEntry)

		// Step 2: allocate a buffer for every used output, claiming each
		// downstream input on first arrival and stashing repeats.
		for _, srcPort := range outputIDs {
			used := reach.UsedOutputs[srcPort]
			if used.IsEmpty() {
				continue
			}

			bufID, handle := allocator.FindFreeBuffer()

			srcLatency, _ := node.Latency(srcPort)
			sourceTotalLat := reach.MaxInputLatency + srcLatency
			var maxDelay uint64

			var repeats []repeatEntry

			for _, dstNode := range used.Nodes() {
				dstReach := s.intermediate[dstNode]
				delay := dstReach.MaxInputLatency - sourceTotalLat
				if delay > maxDelay {
					maxDelay = delay
				}

				for _, dstPort := range used.Ports(dstNode) {
					h := handle.Clone()

					if m, ok := claims[dstNode]; ok {
						if _, exists := m[dstPort]; exists {
							repeats = append(repeats, repeatEntry{
								dstNode:     dstNode,
								dstPort:     dstPort,
								otherHandle: h,
								delay:       delay,
							})
							continue
						}
					} else {
						claims[dstNode] = make(map[InputID]claimEntry)
					}

					claims[dstNode][dstPort] = claimEntry{
						handle: h,
						source: Source{Node: nodeID, Port: srcPort, Kind: SourceDirect, Delay: delay},
					}
				}
			}

			repeatsByOutput[srcPort] = repeats
			binding.Outputs[srcPort] = &Sink{BufID: bufID, MaxDelay: maxDelay}
		}

		// Step 3: synthesize a Sum task per repeat, in the same
		// deterministic output order used above.
		for _, srcPort := range outputIDs {
			repeats := repeatsByOutput[srcPort]
			if len(repeats) == 0 {
				continue
			}
			sink := binding.Outputs[srcPort]

			for _, r := range repeats {
				entry := claims[r.dstNode][r.dstPort]
				delete(claims[r.dstNode], r.dstPort)

				// Drop whichever handle has zero incoming delay first -
				// its buffer may be reusable for the sum's own output.
				if r.delay == 0 {
					r.otherHandle.Release()
				}
				if entry.source.IncomingDelay() == 0 {
					entry.handle.Release()
				}

				outBufID, newHandle := allocator.FindFreeBuffer()

				if r.delay != 0 {
					r.otherHandle.Release()
				}
				if entry.source.IncomingDelay() != 0 {
					entry.handle.Release()
				}

				index := len(sink.SumTasks)

				claims[r.dstNode][r.dstPort] = claimEntry{
					handle: newHandle.Clone(),
					source: Source{Node: nodeID, Port: srcPort, Kind: SourceSum, SumIndex: index},
				}

				tasks = append(tasks, Task{Kind: TaskSum, Node: nodeID, Port: srcPort, Index: index})

				sink.SumTasks = append(sink.SumTasks, SumTask{
					RHSDelay: r.delay,
					LHS:      entry.source,
					Output:   outBufID,
				})
			}
		}

		// Step 4: finalise this node's own inputs from whatever its
		// upstream producers claimed for it.
		if m, ok := claims[nodeID]; ok {
			for dstPort, entry := range m {
				entry.handle.Release()
				src := entry.source
				binding.Inputs[dstPort] = &src
			}
			delete(claims, nodeID)
		}

		bindings[nodeID] = binding
	}

	return &GraphSchedule{
		NumBuffers: allocator.Len(),
		Bindings:   bindings,
		Tasks:      tasks,
	}
}

// Describe renders the schedule as an indented tree of tasks, annotated
// with buffer ids and delays - useful for logging and for the graphc CLI.
func (g *GraphSchedule) Describe() string {
	root := treeprint.New()
	root.SetValue(fmt.Sprintf("schedule (%d buffers)", g.NumBuffers))

	for _, t := range g.Tasks {
		switch t.Kind {
		case TaskNode:
			binding := g.Bindings[t.Node]
			branch := root.AddBranch(fmt.Sprintf("Node(%s)", t.Node))
			for _, port := range sortedOutputs(binding.Outputs) {
				sink := binding.Outputs[port]
				branch.AddNode(fmt.Sprintf("out %s -> buf %d (max_delay=%d)", port, sink.BufID, sink.MaxDelay))
			}
		case TaskSum:
			root.AddNode(fmt.Sprintf("Sum(node=%s, port=%s, index=%d)", t.Node, t.Port, t.Index))
		}
	}
	return root.String()
}

func sortedOutputs(m map[OutputID]*Sink) []OutputID {
	ids := make([]OutputID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].id < ids[j].id })
	return ids
}

// LatencyHistogram buckets the MaxInputLatency of every scheduled node
// (a compile-time diagnostic, never touched on the audio thread) into a
// couchbase/ghistogram histogram, and renders it.
func LatencyHistogram(s *Scheduler) string {
	h := ghistogram.NewHistogram(20, 1, 2.0)
	for _, reach := range s.intermediate {
		h.Add(reach.MaxInputLatency, 1)
	}
	var sb strings.Builder
	sb.WriteString(h.String())
	return sb.String()
}
