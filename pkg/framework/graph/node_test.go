package graph

import "testing"

func TestNode_AddOutputIdempotent(t *testing.T) {
	n := NewNode()
	out := n.AddOutput(3)

	if !n.SetLatency(out, 7) {
		t.Fatalf("expected SetLatency to find existing output")
	}

	lat, ok := n.Latency(out)
	if !ok {
		t.Fatalf("expected output to still exist")
	}
	if lat != 7 {
		t.Errorf("expected latency 7, got %d", lat)
	}
}

func TestNode_RemoveInputDropsConnections(t *testing.T) {
	n := NewNode()
	in := n.AddInput()

	if !n.RemoveInput(in) {
		t.Fatalf("expected RemoveInput to report the port existed")
	}
	if n.HasInput(in) {
		t.Errorf("expected input to be gone")
	}
}

func TestNode_SortedIDs(t *testing.T) {
	n := NewNode()
	a := n.AddInput()
	b := n.AddInput()
	c := n.AddInput()

	ids := n.InputIDs()
	if len(ids) != 3 {
		t.Fatalf("expected 3 input ids, got %d", len(ids))
	}
	if ids[0] != a || ids[1] != b || ids[2] != c {
		t.Errorf("expected ascending id order, got %v", ids)
	}
}
