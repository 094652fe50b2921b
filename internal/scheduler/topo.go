// internal/scheduler/topo.go
// Shared Kahn-style layered topological sort, used both by the round
// scheduler (transformers + anchors) and by the phase engine's write
// ordering supplement (writes within one class, see SPEC_FULL.md
// supplement 1). Keeping one routine for both means a single well-tested
// cycle-detection path.
package scheduler

// Edge means Parent must be placed in a strictly earlier layer than Child.
type Edge struct {
	Parent string
	Child  string
}

// CyclicDependency is returned when the edge set cannot be fully drained;
// it carries the ids left stranded (those never reaching in-degree zero),
// which callers surface to help diagnose the cycle.
type CyclicDependency struct {
	Stranded []string
}

func (e *CyclicDependency) Error() string {
	msg := "scheduler: cyclic dependency among: "
	for i, id := range e.Stranded {
		if i > 0 {
			msg += ", "
		}
		msg += id
	}
	return msg
}

// Layer computes a layered topological order over nodes given edges: all
// nodes of in-degree 0 start at depth 0; each discharged edge sets
// depth(child) = max(depth(child), depth(parent)+1). Nodes are bucketed by
// final depth; empty buckets are dropped, preserving relative layer order.
// Within a layer, nodes keep the relative order they appear in `nodes`.
func Layer(nodes []string, edges []Edge) ([][]string, error) {
	indegree := make(map[string]int, len(nodes))
	children := make(map[string][]string, len(nodes))
	depth := make(map[string]int, len(nodes))
	known := make(map[string]bool, len(nodes))

	for _, n := range nodes {
		indegree[n] = 0
		known[n] = true
	}
	for _, e := range edges {
		if !known[e.Parent] || !known[e.Child] {
			continue
		}
		children[e.Parent] = append(children[e.Parent], e.Child)
		indegree[e.Child]++
	}

	queue := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if indegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	visited := 0
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		visited++
		for _, v := range children[u] {
			if depth[u]+1 > depth[v] {
				depth[v] = depth[u] + 1
			}
			indegree[v]--
			if indegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}

	if visited != len(nodes) {
		stranded := make([]string, 0, len(nodes)-visited)
		for _, n := range nodes {
			if indegree[n] != 0 {
				stranded = append(stranded, n)
			}
		}
		return nil, &CyclicDependency{Stranded: stranded}
	}

	maxDepth := 0
	for _, n := range nodes {
		if depth[n] > maxDepth {
			maxDepth = depth[n]
		}
	}
	layers := make([][]string, maxDepth+1)
	for _, n := range nodes {
		layers[depth[n]] = append(layers[depth[n]], n)
	}

	out := make([][]string, 0, len(layers))
	for _, l := range layers {
		if len(l) > 0 {
			out = append(out, l)
		}
	}
	return out, nil
}
