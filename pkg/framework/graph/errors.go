package graph

import (
	"errors"
	"fmt"
)

// ErrPortMissing is returned when an edge operation references an unknown
// node or port.
var ErrPortMissing = errors.New("graph: port missing")

// ErrWouldCreateCycle is returned when inserting an edge would introduce a
// directed cycle. Delay nodes, not feedback edges, are the intended
// mechanism for true feedback.
var ErrWouldCreateCycle = errors.New("graph: edge would create a cycle")

// PortMissingError carries the offending endpoint alongside ErrPortMissing
// so callers can report which node/port was unrecognized.
type PortMissingError struct {
	Node NodeID
	Port any
}

func (e *PortMissingError) Error() string {
	return fmt.Sprintf("graph: node %s has no port %v", e.Node, e.Port)
}

func (e *PortMissingError) Unwrap() error { return ErrPortMissing }

// CycleError carries the edge that would have closed a cycle.
type CycleError struct {
	From NodeID
	To   NodeID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("graph: edge %s -> %s would create a cycle", e.From, e.To)
}

func (e *CycleError) Unwrap() error { return ErrWouldCreateCycle }
