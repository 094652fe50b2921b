// internal/phaseengine/ordering.go
// Write ordering and conflict diagnostics for one class's pending writes,
// implementing SPEC_FULL.md supplements 1 and 2.
package phaseengine

import (
	"github.com/nodeforge/classforge/internal/logging"
	"github.com/nodeforge/classforge/internal/scheduler"
)

// orderWrites sorts writes by a Kahn layering of their originating
// transformer ids over writeDependents (scoped to the ids actually present
// among writes), falling back to plain submission order within a layer and
// on any cycle among just those ids — the deterministic fallback §9
// recommends.
func orderWrites(writes []Write, writeDependents map[string][]string) []Write {
	seen := make(map[string]bool, len(writes))
	ids := make([]string, 0, len(writes))
	for _, w := range writes {
		if !seen[w.TransformerID()] {
			seen[w.TransformerID()] = true
			ids = append(ids, w.TransformerID())
		}
	}

	edges := make([]scheduler.Edge, 0, len(writeDependents))
	for parent, children := range writeDependents {
		if !seen[parent] {
			continue
		}
		for _, child := range children {
			if seen[child] {
				edges = append(edges, scheduler.Edge{Parent: parent, Child: child})
			}
		}
	}

	layers, err := scheduler.Layer(ids, edges)
	if err != nil {
		return writes
	}

	ordered := make([]Write, 0, len(writes))
	for _, layer := range layers {
		inLayer := make(map[string]bool, len(layer))
		for _, id := range layer {
			inLayer[id] = true
		}
		for _, w := range writes {
			if inLayer[w.TransformerID()] {
				ordered = append(ordered, w)
			}
		}
	}
	return ordered
}

// logOverlaps warns when two writes in the same class target overlapping
// subtrees (one's recorded path is a prefix of the other's), then still
// lets last-writer-wins-by-order apply (the overlap is diagnosed, not
// rejected).
func logOverlaps(className string, writes []Write) {
	for i := 0; i < len(writes); i++ {
		for j := i + 1; j < len(writes); j++ {
			if pathOverlaps(writes[i].Path(), writes[j].Path()) {
				logging.Sugar().Warnw("overlapping writes in class",
					"class", className,
					"transformer_a", writes[i].TransformerID(),
					"transformer_b", writes[j].TransformerID(),
				)
			}
		}
	}
}

func pathOverlaps(a, b []int) bool {
	return isPrefix(a, b) || isPrefix(b, a)
}

func isPrefix(a, b []int) bool {
	if len(a) > len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
