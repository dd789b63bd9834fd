package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// sourceProcessor writes a fixed sequence into its single output.
type sourceProcessor struct{ sequence []Sample }

func (p *sourceProcessor) Initialize(sampleRate float64, maxBlockSize, maxClusters int) uint64 {
	return 0
}

func (p *sourceProcessor) Process(buffers *Buffers, clusterIdx int, voiceMask VoiceMask) VoiceMask {
	out, ok := buffers.Output(0)
	if !ok {
		return voiceMask
	}
	copy(out, p.sequence)
	return voiceMask
}

// copyProcessor copies its single input into its single output.
type copyProcessor struct{}

func (p *copyProcessor) Initialize(sampleRate float64, maxBlockSize, maxClusters int) uint64 {
	return 0
}

func (p *copyProcessor) Process(buffers *Buffers, clusterIdx int, voiceMask VoiceMask) VoiceMask {
	in, ok := buffers.Input(0)
	if !ok {
		return voiceMask
	}
	out, ok := buffers.Output(0)
	if !ok {
		return voiceMask
	}
	for i := range out {
		out[i] = in.At(i)
	}
	return voiceMask
}

// End-to-end: Source(lat=5).out -> Sink.in, Source writes [1,2,3,4],
// Sink copies through, master output carries [1,2,3,4].
func TestExecutor_EndToEnd(t *testing.T) {
	g := New()
	srcID, src := g.AddNode()
	srcOut := src.AddOutput(5)

	sinkID, sink := g.AddNode()
	sinkIn := sink.AddInput()
	sinkOut := sink.AddOutput(0)

	_, err := g.TryInsertEdge(srcID, srcOut, sinkID, sinkIn)
	require.NoError(t, err)

	s := g.Scheduler()
	s.AddSinkNode(sinkID)
	sched := Compile(s)

	const blockLen = 4
	pool := NewBufferPool(sched.NumBuffers, blockLen)

	exec := NewExecutor(sched, pool)
	exec.Bind(srcID, &sourceProcessor{sequence: []Sample{1, 2, 3, 4}})
	exec.Bind(sinkID, &copyProcessor{})

	topNode := NewBufferNode(pool, nil)
	topHandle := NewBufferHandle(topNode, nil, nil)
	top := NewBuffers(topHandle, 0, blockLen)

	mask := exec.Process(top, 0, ^VoiceMask(0))
	require.Equal(t, ^VoiceMask(0), mask)

	sinkBufID := sched.Bindings[sinkID].Outputs[sinkOut].BufID
	require.Equal(t, []Sample{1, 2, 3, 4}, []Sample(pool.buffer(sinkBufID)))
}
