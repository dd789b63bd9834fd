package graph

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// portDoc is one named input or output port in a graph description
// document. Latency is only meaningful for outputs; it is ignored on
// inputs.
type portDoc struct {
	Name    string `yaml:"name"`
	Latency uint64 `yaml:"latency"`
}

type nodeDoc struct {
	Name    string    `yaml:"name"`
	Inputs  []portDoc `yaml:"inputs"`
	Outputs []portDoc `yaml:"outputs"`
}

type edgeDoc struct {
	From     string `yaml:"from"`
	FromPort string `yaml:"from_port"`
	To       string `yaml:"to"`
	ToPort   string `yaml:"to_port"`
}

// GraphDoc is the declarative shape LoadGraph parses: a list of named
// nodes (each with named input/output ports, outputs carrying an
// intrinsic latency in samples) and a list of edges connecting them by
// name. This is the format graphc reads (SPEC_FULL.md, "Configuration /
// graph description loading").
type GraphDoc struct {
	Nodes []nodeDoc `yaml:"nodes"`
	Edges []edgeDoc `yaml:"edges"`
}

// LoadGraph parses a YAML graph description from r, builds the
// corresponding Graph, and returns a name -> NodeID table so callers can
// keep referring to nodes by the names used in the document (e.g. to
// pass --sinks by name on the graphc command line).
func LoadGraph(r io.Reader) (*Graph, map[string]NodeID, error) {
	var doc GraphDoc
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("graph: parse config: %w", err)
	}

	g := New()
	byName := make(map[string]NodeID, len(doc.Nodes))
	inputPorts := make(map[string]map[string]InputID)
	outputPorts := make(map[string]map[string]OutputID)

	for _, nd := range doc.Nodes {
		if nd.Name == "" {
			return nil, nil, fmt.Errorf("graph: parse config: node with empty name")
		}
		if _, exists := byName[nd.Name]; exists {
			return nil, nil, fmt.Errorf("graph: parse config: duplicate node name %q", nd.Name)
		}

		id, node := g.AddNode()
		byName[nd.Name] = id

		ins := make(map[string]InputID, len(nd.Inputs))
		for _, p := range nd.Inputs {
			ins[p.Name] = node.AddInput()
		}
		inputPorts[nd.Name] = ins

		outs := make(map[string]OutputID, len(nd.Outputs))
		for _, p := range nd.Outputs {
			outs[p.Name] = node.AddOutput(p.Latency)
		}
		outputPorts[nd.Name] = outs
	}

	for _, e := range doc.Edges {
		srcNode, ok := byName[e.From]
		if !ok {
			return nil, nil, fmt.Errorf("graph: parse config: edge references unknown node %q", e.From)
		}
		dstNode, ok := byName[e.To]
		if !ok {
			return nil, nil, fmt.Errorf("graph: parse config: edge references unknown node %q", e.To)
		}
		srcPort, ok := outputPorts[e.From][e.FromPort]
		if !ok {
			return nil, nil, fmt.Errorf("graph: parse config: %w: %s.%s", ErrPortMissing, e.From, e.FromPort)
		}
		dstPort, ok := inputPorts[e.To][e.ToPort]
		if !ok {
			return nil, nil, fmt.Errorf("graph: parse config: %w: %s.%s", ErrPortMissing, e.To, e.ToPort)
		}

		if _, err := g.TryInsertEdge(srcNode, srcPort, dstNode, dstPort); err != nil {
			return nil, nil, fmt.Errorf("graph: parse config: edge %s.%s -> %s.%s: %w", e.From, e.FromPort, e.To, e.ToPort, err)
		}
	}

	return g, byName, nil
}
