// Package circular finds $ref cycles between schema components and breaks them.
//
// A resolution pass builds a Graph over components/schemas, detects its cycles,
// picks one edge per cycle to cut (the one backed by the fewest references) and
// replaces the references behind that edge with an inert placeholder object.
package circular

import (
	"slices"

	"github.com/specslim/specslim/references"
	"github.com/specslim/specslim/sequencedmap"
	"github.com/specslim/specslim/yml"
	"gopkg.in/yaml.v3"
)

// Edge is a reference from one schema to another.
type Edge struct {
	Source string
	Target string
}

func (e Edge) String() string {
	return e.Source + " -> " + e.Target
}

// Graph is the directed reference graph between schema components.
type Graph struct {
	// adjacency keeps nodes in document order and targets in first-seen order.
	adjacency *sequencedmap.Map[string, *sequencedmap.Map[string, struct{}]]
	// locations is keyed by Edge.String().
	locations *sequencedmap.Map[string, []string]
}

func newGraph() *Graph {
	return &Graph{
		adjacency: sequencedmap.New[string, *sequencedmap.Map[string, struct{}]](),
		locations: sequencedmap.New[string, []string](),
	}
}

// BuildGraph scans every schema under components/schemas and adds an edge S -> T
// for each reference inside S that targets schema T. The location of each reference
// relative to S's body is recorded once per edge, in first-seen order.
// References to other component types or other documents are ignored.
func BuildGraph(doc *yaml.Node) *Graph {
	g := newGraph()

	schemas := Schemas(doc)
	if schemas == nil {
		return g
	}

	for i := 0; i+1 < len(schemas.Content); i += 2 {
		source := yml.ResolveAlias(schemas.Content[i]).Value
		g.addNode(source)

		for _, o := range references.Scan(schemas.Content[i+1]) {
			target, ok := o.Ref.Schema()
			if !ok {
				continue
			}
			g.addEdge(Edge{Source: source, Target: target}, o.Location)
		}
	}

	return g
}

// Schemas returns the components/schemas mapping of doc, or nil.
func Schemas(doc *yaml.Node) *yaml.Node {
	schemas := yml.GetMapValue(yml.GetMapValue(yml.Unwrap(doc), "components"), "schemas")
	if schemas == nil || schemas.Kind != yaml.MappingNode {
		return nil
	}
	return schemas
}

func (g *Graph) addNode(name string) *sequencedmap.Map[string, struct{}] {
	return g.adjacency.GetOrSet(name, sequencedmap.New[string, struct{}]())
}

func (g *Graph) addEdge(e Edge, location string) {
	g.addNode(e.Source).Set(e.Target, struct{}{})

	locations, _ := g.locations.Get(e.String())
	if !slices.Contains(locations, location) {
		g.locations.Set(e.String(), append(locations, location))
	}
}

// Nodes returns every schema name in document order.
func (g *Graph) Nodes() []string {
	return slices.Collect(g.adjacency.Keys())
}

// Targets returns the schemas node references, in first-seen order.
func (g *Graph) Targets(node string) []string {
	targets, ok := g.adjacency.Get(node)
	if !ok {
		return nil
	}
	return slices.Collect(targets.Keys())
}

// HasEdge reports whether source references target.
func (g *Graph) HasEdge(source, target string) bool {
	targets, ok := g.adjacency.Get(source)
	return ok && targets.Has(target)
}

// Edges returns every edge, grouped by source in node order.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for source, targets := range g.adjacency.All() {
		for target := range targets.Keys() {
			edges = append(edges, Edge{Source: source, Target: target})
		}
	}
	return edges
}

// Locations returns where the references behind an edge occur, relative to the source schema body.
func (g *Graph) Locations(e Edge) []string {
	locations, _ := g.locations.Get(e.String())
	return slices.Clone(locations)
}
