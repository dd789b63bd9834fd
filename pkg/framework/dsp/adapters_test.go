package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justyntemme/audiograph/pkg/dsp/utility"
	"github.com/justyntemme/audiograph/pkg/framework/graph"
)

// runThroughGraph wires source -> proc -> capture, compiles the graph, and
// runs one block. It exercises the adapter through a compiled schedule and
// Executor, never by calling Process directly on a bare struct. The BufferPool backing a
// schedule is the graph package's own concern, so the captured output comes
// back through a terminal node's own recorded samples rather than a direct
// peek into pool storage.
func runThroughGraph(t *testing.T, proc graph.Processor, sampleRate float64, input []graph.Sample) []graph.Sample {
	t.Helper()

	g := graph.New()
	srcID, src := g.AddNode()
	srcOut := src.AddOutput(0)

	procID, procNode := g.AddNode()
	procIn := procNode.AddInput()

	var outputLatency uint64
	if withLatency, ok := proc.(interface{ Latency() uint64 }); ok {
		outputLatency = withLatency.Latency()
	}
	procOut := procNode.AddOutput(outputLatency)

	sinkID, sinkNode := g.AddNode()
	sinkIn := sinkNode.AddInput()

	_, err := g.TryInsertEdge(srcID, srcOut, procID, procIn)
	require.NoError(t, err)
	_, err = g.TryInsertEdge(procID, procOut, sinkID, sinkIn)
	require.NoError(t, err)

	s := g.Scheduler()
	s.AddSinkNode(sinkID)
	sched := graph.Compile(s)

	blockLen := len(input)
	pool := graph.NewBufferPool(sched.NumBuffers, blockLen)

	exec := graph.NewExecutor(sched, pool)
	exec.Bind(srcID, &fixedSource{sequence: input})
	proc.Initialize(sampleRate, blockLen, 1)
	exec.Bind(procID, proc)
	capture := &captureSink{}
	exec.Bind(sinkID, capture)

	topNode := graph.NewBufferNode(pool, nil)
	topHandle := graph.NewBufferHandle(topNode, nil, nil)
	top := graph.NewBuffers(topHandle, 0, blockLen)

	exec.Process(top, 0, ^graph.VoiceMask(0))

	return capture.got
}

// fixedSource writes a fixed sequence into its single output; the same
// shape as the sourceProcessor used by the graph package's own tests.
type fixedSource struct{ sequence []graph.Sample }

func (p *fixedSource) Initialize(sampleRate float64, maxBlockSize, maxClusters int) uint64 {
	return 0
}

func (p *fixedSource) Process(buffers *graph.Buffers, clusterIdx int, voiceMask graph.VoiceMask) graph.VoiceMask {
	out, ok := buffers.Output(0)
	if !ok {
		return voiceMask
	}
	copy(out, p.sequence)
	return voiceMask
}

// captureSink records whatever block it was handed, so a test can inspect a
// node's output without reaching into the Executor's BufferPool.
type captureSink struct{ got []graph.Sample }

func (c *captureSink) Initialize(sampleRate float64, maxBlockSize, maxClusters int) uint64 {
	return 0
}

func (c *captureSink) Process(buffers *graph.Buffers, clusterIdx int, voiceMask graph.VoiceMask) graph.VoiceMask {
	in, ok := buffers.Input(0)
	if !ok {
		return voiceMask
	}
	got := make([]graph.Sample, in.Len())
	for i := range got {
		got[i] = in.At(i)
	}
	c.got = got
	return voiceMask
}

func TestGainAdapter_Graph(t *testing.T) {
	adapter := NewGainAdapter(-6.0206) // half amplitude
	input := []graph.Sample{1, 1, 1, 1}
	out := runThroughGraph(t, adapter, 48000, input)
	for _, v := range out {
		require.InDelta(t, 0.5, v, 0.01)
	}
}

func TestOscillatorAdapter_Graph(t *testing.T) {
	adapter := NewOscillatorAdapter(1000, WaveSine)
	out := runThroughGraph(t, adapter, 48000, make([]graph.Sample, 48))

	nonZero := false
	for _, v := range out {
		if v != 0 {
			nonZero = true
			break
		}
	}
	require.True(t, nonZero, "oscillator produced silence")
}

func TestDelayAdapter_Graph(t *testing.T) {
	adapter := NewDelayAdapter(2, 1.0)
	input := []graph.Sample{1, 2, 3, 4, 5, 6}
	out := runThroughGraph(t, adapter, 48000, input)
	require.Equal(t, []graph.Sample{0, 0, 1, 2, 3, 4}, out)
}

func TestLowpassAdapter_Graph(t *testing.T) {
	adapter := NewLowpassAdapter(200, 0.707)
	input := make([]graph.Sample, 64)
	for i := range input {
		if i%2 == 0 {
			input[i] = 1
		} else {
			input[i] = -1
		}
	}
	out := runThroughGraph(t, adapter, 48000, input)

	var peak float32
	for _, v := range out {
		if abs := float32(math.Abs(float64(v))); abs > peak {
			peak = abs
		}
	}
	require.Less(t, peak, float32(1.0), "lowpass should attenuate the Nyquist-rate input")
}

func TestCompressorAdapter_Graph(t *testing.T) {
	adapter := NewCompressorAdapter(-10, 4, 0.001, 0.05)
	input := make([]graph.Sample, 256)
	for i := range input {
		input[i] = 0.8
	}
	out := runThroughGraph(t, adapter, 48000, input)
	require.Less(t, out[len(out)-1], input[len(input)-1])
}

func TestGateAdapter_Graph(t *testing.T) {
	adapter := NewGateAdapter(-30, -60)
	input := make([]graph.Sample, 256)
	for i := range input {
		input[i] = 0.001
	}
	out := runThroughGraph(t, adapter, 48000, input)
	require.Less(t, math.Abs(float64(out[len(out)-1])), math.Abs(float64(input[len(input)-1])))
}

func TestDCBlockerAdapter_Graph(t *testing.T) {
	adapter := NewDCBlockerAdapter()
	input := make([]graph.Sample, 2000)
	for i := range input {
		input[i] = 0.5
	}
	out := runThroughGraph(t, adapter, 48000, input)

	var sum float32
	for _, v := range out[len(out)-200:] {
		sum += v
	}
	avg := sum / 200
	require.Less(t, math.Abs(float64(avg)), 0.05)
}

func TestNoiseAdapter_Graph(t *testing.T) {
	adapter := NewNoiseAdapter(utility.WhiteNoise, 0.1)
	input := make([]graph.Sample, 1000)
	out := runThroughGraph(t, adapter, 48000, input)

	hasNoise := false
	for _, v := range out {
		if v != 0 {
			hasNoise = true
			break
		}
	}
	require.True(t, hasNoise, "no noise was added")
}

func TestDryWetAdapter(t *testing.T) {
	adapter := NewDryWetAdapter(0.25)
	adapter.Initialize(48000, 4, 1)

	g := graph.New()
	dryID, dryNode := g.AddNode()
	dryOut := dryNode.AddOutput(0)
	wetID, wetNode := g.AddNode()
	wetOut := wetNode.AddOutput(0)

	procID, procNode := g.AddNode()
	dryIn := procNode.AddInput()
	wetIn := procNode.AddInput()
	procOut := procNode.AddOutput(0)

	sinkID, sinkNode := g.AddNode()
	sinkIn := sinkNode.AddInput()

	_, err := g.TryInsertEdge(dryID, dryOut, procID, dryIn)
	require.NoError(t, err)
	_, err = g.TryInsertEdge(wetID, wetOut, procID, wetIn)
	require.NoError(t, err)
	_, err = g.TryInsertEdge(procID, procOut, sinkID, sinkIn)
	require.NoError(t, err)

	s := g.Scheduler()
	s.AddSinkNode(sinkID)
	sched := graph.Compile(s)

	const blockLen = 4
	pool := graph.NewBufferPool(sched.NumBuffers, blockLen)

	exec := graph.NewExecutor(sched, pool)
	exec.Bind(dryID, &fixedSource{sequence: []graph.Sample{1, 1, 1, 1}})
	exec.Bind(wetID, &fixedSource{sequence: []graph.Sample{0, 0, 0, 0}})
	exec.Bind(procID, adapter)
	capture := &captureSink{}
	exec.Bind(sinkID, capture)

	topNode := graph.NewBufferNode(pool, nil)
	topHandle := graph.NewBufferHandle(topNode, nil, nil)
	top := graph.NewBuffers(topHandle, 0, blockLen)

	exec.Process(top, 0, ^graph.VoiceMask(0))

	for _, v := range capture.got {
		require.InDelta(t, 0.75, v, 0.001)
	}
}
