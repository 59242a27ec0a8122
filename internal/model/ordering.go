package model

import (
	"errors"
	"fmt"
	"typerecon/internal/cpp"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

var ErrEmissionOrder = errors.New("model: native declarations are not in dependency order")

// CheckEmissionOrder verifies that the emission list can be written in one pass: the
// dependency graph has no cycle and every declaration follows the declarations it embeds.
// Dependencies outside the list must come from the header baseline.
func CheckEmissionOrder(declarations []*cpp.NativeType) error {
	position := make(map[*cpp.NativeType]int64, len(declarations))
	graph := simple.NewDirectedGraph()
	for i, declaration := range declarations {
		if _, found := position[declaration]; found {
			return fmt.Errorf("%w: %s is emitted twice", ErrEmissionOrder, declaration)
		}
		position[declaration] = int64(i)
		graph.AddNode(simple.Node(i))
	}

	for i, declaration := range declarations {
		for _, dependency := range declaration.Dependencies() {
			at, found := position[dependency]
			if !found {
				if dependency.Baseline {
					continue
				}
				return fmt.Errorf("%w: %s depends on %s which is never emitted", ErrEmissionOrder, declaration, dependency)
			}
			if at > int64(i) {
				return fmt.Errorf("%w: %s is emitted before its dependency %s", ErrEmissionOrder, declaration, dependency)
			}
			graph.SetEdge(graph.NewEdge(simple.Node(at), simple.Node(i)))
		}
	}

	if _, err := topo.Sort(graph); err != nil {
		return fmt.Errorf("%w: %v", ErrEmissionOrder, err)
	}
	return nil
}
