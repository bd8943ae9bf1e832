package circular

import (
	"slices"
	"strings"
)

// Cycle is a closed walk [n0, n1, ..., nk, n0] with no repeated interior node.
type Cycle []string

func (c Cycle) String() string {
	return strings.Join(c, " -> ")
}

// Edges returns the consecutive edges of the cycle.
func (c Cycle) Edges() []Edge {
	if len(c) < 2 {
		return nil
	}

	edges := make([]Edge, 0, len(c)-1)
	for i := 0; i+1 < len(c); i++ {
		edges = append(edges, Edge{Source: c[i], Target: c[i+1]})
	}
	return edges
}

// Contains reports whether name is part of the cycle.
func (c Cycle) Contains(name string) bool {
	return slices.Contains(c, name)
}

// canonical rotates the cycle so it starts at its lexicographically smallest node.
func (c Cycle) canonical() Cycle {
	if len(c) < 2 {
		return slices.Clone(c)
	}

	interior := c[:len(c)-1]
	start := 0
	for i, name := range interior {
		if name < interior[start] {
			start = i
		}
	}

	rotated := make(Cycle, 0, len(c))
	rotated = append(rotated, interior[start:]...)
	rotated = append(rotated, interior[:start]...)
	return append(rotated, rotated[0])
}

// DetectCycles runs a depth-first search from every node, in node order.
//
// Reaching a node already on the current path records the closed walk from that node
// and stops the branch. Reaching a node already finished from the same root stops without
// recording. Cycles are canonicalised by rotation and returned once each, in first-detection order.
func DetectCycles(g *Graph) []Cycle {
	var (
		cycles []Cycle
		seen   = map[string]struct{}{}
	)

	record := func(c Cycle) {
		c = c.canonical()
		key := strings.Join(c, "\x00")
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		cycles = append(cycles, c)
	}

	for _, root := range g.Nodes() {
		var (
			path     []string
			onPath   = map[string]int{}
			finished = map[string]bool{}
		)

		var visit func(node string)
		visit = func(node string) {
			if idx, ok := onPath[node]; ok {
				c := make(Cycle, 0, len(path)-idx+1)
				c = append(c, path[idx:]...)
				record(append(c, node))
				return
			}
			if finished[node] {
				return
			}

			onPath[node] = len(path)
			path = append(path, node)

			for _, target := range g.Targets(node) {
				visit(target)
			}

			path = path[:len(path)-1]
			delete(onPath, node)
			finished[node] = true
		}

		visit(root)
	}

	return cycles
}
