package graph

import (
	"fmt"
	"strings"

	"github.com/vk/circuitgo/internal/flow"
)

// NodeNotFoundError is returned when an operation names a node that is not
// in the store.
type NodeNotFoundError struct {
	ID string
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("node %q not found", e.ID)
}

// PortNotFoundError is returned when a node has no port of that name and
// direction.
type PortNotFoundError struct {
	Node      string
	Direction flow.Direction
	Port      string
}

func (e *PortNotFoundError) Error() string {
	return fmt.Sprintf("node %q has no %sput %q", e.Node, e.Direction, e.Port)
}

// LoadError lists everything Load could not restore. The store returned
// alongside it holds the rest of the graph.
type LoadError struct {
	Errs []error
}

func (e *LoadError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("graph loaded with %d problem(s):\n- %s", len(e.Errs), strings.Join(msgs, "\n- "))
}

// Unwrap exposes the individual problems to errors.Is and errors.As.
func (e *LoadError) Unwrap() []error {
	return e.Errs
}
