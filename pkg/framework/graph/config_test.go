package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const basicGraphYAML = `
nodes:
  - name: source
    outputs:
      - name: out
        latency: 5
  - name: sink
    inputs:
      - name: in
edges:
  - from: source
    from_port: out
    to: sink
    to_port: in
`

func TestLoadGraph_Basic(t *testing.T) {
	g, names, err := LoadGraph(strings.NewReader(basicGraphYAML))
	require.NoError(t, err)
	require.Contains(t, names, "source")
	require.Contains(t, names, "sink")

	sinkNode, ok := g.Node(names["sink"])
	require.True(t, ok)
	require.Len(t, sinkNode.InputIDs(), 1)

	s := g.Scheduler()
	s.AddSinkNode(names["sink"])
	require.Equal(t, uint64(5), s.Intermediate()[names["sink"]].MaxInputLatency)
}

func TestLoadGraph_UnknownPort(t *testing.T) {
	const doc = `
nodes:
  - name: a
    outputs:
      - name: out
  - name: b
    inputs:
      - name: in
edges:
  - from: a
    from_port: missing
    to: b
    to_port: in
`
	_, _, err := LoadGraph(strings.NewReader(doc))
	require.ErrorIs(t, err, ErrPortMissing)
}

func TestLoadGraph_CycleRejected(t *testing.T) {
	const doc = `
nodes:
  - name: a
    inputs:
      - name: in
    outputs:
      - name: out
edges:
  - from: a
    from_port: out
    to: a
    to_port: in
`
	_, _, err := LoadGraph(strings.NewReader(doc))
	require.ErrorIs(t, err, ErrWouldCreateCycle)
}
