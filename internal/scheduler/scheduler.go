// internal/scheduler/scheduler.go
// Round scheduler: partitions transformers (plus anchor ids) into ordered
// rounds via Layer. Anchors are virtual transformer ids used to pin real
// transformers to milestones; consecutive anchors in the configured list
// induce an edge anchor[i] -> anchor[i+1].
package scheduler

// DefaultAnchors matches the spec's example configuration.
var DefaultAnchors = []string{"READ_VANILLA", "NO_WRITE"}

// Round computes the layered round order over transformerIDs plus anchors,
// given roundDependents (parent id -> ids that must run in a later round).
// The returned rounds list transformer/anchor ids together, in the shape
// the spec's worked example expects (e.g. [READ_VANILLA, T3], [T1],
// [T2, NO_WRITE]).
//
// Consecutive anchors induce anchor[i] -> anchor[i+1] as spec §4.4 states,
// but that edge alone is not enough to reproduce the worked example: a
// transformer declared as a direct round-dependent of anchor[i] (T1, bound
// to READ_VANILLA) must itself finish before anchor[i+1] (NO_WRITE) runs —
// otherwise a plain Kahn depth assignment lands NO_WRITE one round too
// early, alongside T1 instead of alongside T1's own dependents. So each
// direct dependent of anchor[i] also gets an edge straight to anchor[i+1].
// This does not reach further down the chain (T1's own dependent T2 gets no
// such edge) — an anchor marks the end of the tier directly pinned to the
// previous anchor, not a barrier after every transitive descendant, which
// is what lets NO_WRITE land in T2's round rather than after it. See
// DESIGN.md for the worked-example derivation.
func Round(transformerIDs []string, roundDependents map[string][]string, anchors []string) ([][]string, error) {
	if anchors == nil {
		anchors = DefaultAnchors
	}

	seen := make(map[string]bool, len(transformerIDs)+len(anchors))
	nodes := make([]string, 0, len(transformerIDs)+len(anchors))
	for _, a := range anchors {
		if !seen[a] {
			seen[a] = true
			nodes = append(nodes, a)
		}
	}
	for _, t := range transformerIDs {
		if !seen[t] {
			seen[t] = true
			nodes = append(nodes, t)
		}
	}

	edges := make([]Edge, 0, len(roundDependents)+len(anchors))
	for i := 0; i+1 < len(anchors); i++ {
		edges = append(edges, Edge{Parent: anchors[i], Child: anchors[i+1]})
		for _, direct := range roundDependents[anchors[i]] {
			if direct == anchors[i+1] {
				continue
			}
			edges = append(edges, Edge{Parent: direct, Child: anchors[i+1]})
		}
	}
	for parent, dependents := range roundDependents {
		for _, child := range dependents {
			edges = append(edges, Edge{Parent: parent, Child: child})
		}
	}

	return Layer(nodes, edges)
}
