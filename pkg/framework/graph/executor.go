package graph

import (
	"github.com/justyntemme/audiograph/pkg/framework/debug"
)

// VoiceMask tracks which of a cluster's voice lanes are still live. A
// processor's returned mask is AND-accumulated into the executor's own
// mask for the block, so a single silent voice anywhere in the chain can
// retire that lane.
type VoiceMask uint64

// Processor is the runtime-plane contract every node in a schedule
// dispatches to. Concrete DSP algorithms living in pkg/dsp implement this
// to sit inside a compiled graph; the graph package itself never inspects
// their internals.
type Processor interface {
	// Initialize is called once, from the control thread, before the
	// processor's node first appears in an installed schedule. It
	// returns the processor's own internal latency in samples, which the
	// caller must have already registered as the node's output latency -
	// the graph does not discover latency dynamically.
	Initialize(sampleRate float64, maxBlockSize, maxClusters int) uint64

	// Process runs one block: buffers exposes this node's resolved
	// inputs/outputs, clusterIdx selects which voice cluster is being
	// rendered, and voiceMask carries which lanes of that cluster are
	// live on entry. It returns the mask of lanes still live on exit.
	Process(buffers *Buffers, clusterIdx int, voiceMask VoiceMask) VoiceMask
}

// Reset is an optional Processor extension for clearing internal state
// (delay lines, filter memory) without a full re-Initialize.
type Reset interface {
	Reset()
}

// nodeTable is the per-node, per-cluster index table an Executor
// resolves once per schedule install and reuses across blocks - Process
// never rebuilds it.
type nodeTable struct {
	inputs  []BufferSlot
	outputs []BufferSlot
}

// Executor walks a compiled GraphSchedule once per audio block,
// dispatching Node and Sum tasks against a fixed BufferPool. It owns its
// processors exclusively; they are never shared across threads.
type Executor struct {
	schedule   *GraphSchedule
	pool       *BufferPool
	processors map[NodeID]Processor
	tables     map[NodeID]nodeTable
	profile    *ExecutorProfile
}

// NewExecutor builds an Executor for schedule, backed by pool, with no
// processors yet assigned. Use Bind to attach a processor per node
// before the first Process call.
func NewExecutor(schedule *GraphSchedule, pool *BufferPool) *Executor {
	e := &Executor{
		schedule:   schedule,
		pool:       pool,
		processors: make(map[NodeID]Processor),
		profile:    NewExecutorProfile(),
	}
	e.buildTables()
	return e
}

// Bind attaches a processor to a node id. Must be called from the
// control thread before the schedule carrying that node is installed.
func (e *Executor) Bind(id NodeID, p Processor) {
	e.processors[id] = p
}

// ReplaceSchedule installs a newly compiled schedule and its matching
// pool atomically from the audio thread's point of view: callers are
// expected to have already produced pool via Compile and
// NewBufferPool on the control thread, and to swap the Executor pointer
// itself (or guard this call) with whatever handoff mechanism they use.
func (e *Executor) ReplaceSchedule(schedule *GraphSchedule, pool *BufferPool) {
	e.schedule = schedule
	e.pool = pool
	e.buildTables()
}

func (e *Executor) buildTables() {
	tables := make(map[NodeID]nodeTable, len(e.schedule.Bindings))
	for id, binding := range e.schedule.Bindings {
		tables[id] = nodeTable{
			inputs:  e.inputSlots(binding),
			outputs: outputSlots(binding),
		}
	}
	e.tables = tables
}

// inputSlots builds one slot per input port the node declared, in
// ascending id order, so a Processor can address "its i'th input"
// positionally. Unconnected ports resolve to SlotNone; connected ones
// resolve each Source to the concrete BufferID its producer was
// assigned, since the schedule is already fully compiled (every
// output's Sink.BufID and every SumTask.Output known) by the time
// tables are built.
func (e *Executor) inputSlots(binding *NodeBinding) []BufferSlot {
	slots := make([]BufferSlot, len(binding.InputOrder))
	for pos, id := range binding.InputOrder {
		src, ok := binding.Inputs[id]
		if !ok {
			slots[pos] = BufferSlot{Kind: SlotNone}
			continue
		}
		slots[pos] = BufferSlot{Kind: SlotIntermediate, Index: int(e.resolveBufID(*src))}
	}
	return slots
}

// outputSlots mirrors inputSlots for output ports: a port with no
// downstream consumer (elided from binding.Outputs at compile time)
// resolves to SlotNone.
func outputSlots(binding *NodeBinding) []BufferSlot {
	slots := make([]BufferSlot, len(binding.OutputOrder))
	for pos, id := range binding.OutputOrder {
		sink, ok := binding.Outputs[id]
		if !ok {
			slots[pos] = BufferSlot{Kind: SlotNone}
			continue
		}
		slots[pos] = BufferSlot{Kind: SlotIntermediate, Index: int(sink.BufID)}
	}
	return slots
}

// resolveBufID follows a Source back to the concrete buffer its
// producer was assigned: the producing output's own Sink.BufID for a
// direct source, or one of its synthesized SumTask outputs for a Sum
// source.
func (e *Executor) resolveBufID(src Source) BufferID {
	producer := e.schedule.Bindings[src.Node]
	sink := producer.Outputs[src.Port]
	if src.Kind == SourceSum {
		return sink.SumTasks[src.SumIndex].Output
	}
	return sink.BufID
}

// Process walks the schedule once, dispatching every task against
// buffers, and returns the accumulated live-voice mask for clusterIdx.
// The node/sum tables were built once at schedule-install time; each Node
// task still allocates its nesting frame through Buffers.Append.
func (e *Executor) Process(buffers *Buffers, clusterIdx int, voiceMask VoiceMask) VoiceMask {
	var accumulated VoiceMask = ^VoiceMask(0)

	e.profile.Time(func() {
		for _, task := range e.schedule.Tasks {
			switch task.Kind {
			case TaskNode:
				table := e.tables[task.Node]
				local := buffers.Append(e.pool, table.inputs, table.outputs)

				proc, ok := e.processors[task.Node]
				if !ok {
					continue
				}
				mask := proc.Process(local, clusterIdx, voiceMask)
				accumulated &= mask

			case TaskSum:
				e.runSum(buffers, task)
			}
		}
	})

	return accumulated
}

// runSum resolves both operands of one synthesized Sum task and writes
// their delay-matched sum into the sink's sum buffer. Delay is applied
// as an implicit pre-read offset on each operand's buffer (see
// DESIGN.md for why this core has no separate delay task).
func (e *Executor) runSum(buffers *Buffers, task Task) {
	binding := e.schedule.Bindings[task.Node]
	sink := binding.Outputs[task.Port]
	sum := sink.SumTasks[task.Index]

	lhsBuf := e.resolveSourceBuffer(sum.LHS)
	rhsBuf := e.pool.buffer(sink.BufID) // current producer's own output buffer
	outBuf := e.pool.buffer(sum.Output)

	rhsDelay := int(sum.RHSDelay)
	lhsDelay := int(sum.LHS.IncomingDelay())

	n := len(outBuf)
	for i := 0; i < n; i++ {
		var l, r Sample
		if li := i - lhsDelay; li >= 0 {
			l = lhsBuf[li]
		}
		if ri := i - rhsDelay; ri >= 0 {
			r = rhsBuf[ri]
		}
		outBuf[i] = l + r
	}
}

func (e *Executor) resolveSourceBuffer(src Source) SampleBuffer {
	return e.pool.buffer(e.resolveBufID(src))
}

// ExecutorProfile times each Executor.Process call under a named
// section, built on pkg/framework/debug.Profiler rather than introducing
// a second timing mechanism.
type ExecutorProfile struct {
	profiler *debug.Profiler
	section  string
}

// NewExecutorProfile wraps a fresh debug.Profiler under the section name
// "graph.Executor.Process".
func NewExecutorProfile() *ExecutorProfile {
	return &ExecutorProfile{profiler: debug.NewProfiler(1000), section: "graph.Executor.Process"}
}

// Time runs fn once, recording its duration.
func (p *ExecutorProfile) Time(fn func()) {
	p.profiler.Time(p.section, fn)
}

// Measurement exposes the accumulated timing stats for Process calls.
func (p *ExecutorProfile) Measurement() (*debug.Measurement, bool) {
	return p.profiler.GetMeasurement(p.section)
}
