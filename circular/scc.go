package circular

import "sort"

// SCC is a strongly connected component: a set of schemas that are all mutually reachable.
type SCC struct {
	// Schemas is sorted ascending.
	Schemas []string
	// IsTrivial is true if the SCC has only one schema and no self-loop.
	IsTrivial bool
}

// StronglyConnected returns the non-trivial strongly connected components of g
// using Tarjan's algorithm. Every schema on a cycle belongs to exactly one of them.
func StronglyConnected(g *Graph) []SCC {
	var (
		index   int
		stack   []string
		onStack = make(map[string]bool)
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		result  []SCC
	)

	var strongConnect func(v string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.Targets(v) {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			scc := SCC{}
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc.Schemas = append(scc.Schemas, w)
				if w == v {
					break
				}
			}
			scc.IsTrivial = len(scc.Schemas) == 1 && !g.HasEdge(v, v)
			sort.Strings(scc.Schemas)
			if !scc.IsTrivial {
				result = append(result, scc)
			}
		}
	}

	for _, id := range g.Nodes() {
		if _, visited := indices[id]; !visited {
			strongConnect(id)
		}
	}

	return result
}
