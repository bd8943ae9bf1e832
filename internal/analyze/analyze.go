// Package analyze summarises the schema reference graph of a document: its cycles, the strongly
// connected components they live in and the edges resolution would cut.
package analyze

import (
	"github.com/specslim/specslim/circular"
	"github.com/specslim/specslim/yml"
	"gopkg.in/yaml.v3"
)

// Report is the analysis of one document.
type Report struct {
	DocumentTitle   string
	DocumentVersion string
	OpenAPIVersion  string

	Graph *circular.Graph

	TotalSchemas    int
	TotalEdges      int
	TotalReferences int

	SCCs           []circular.SCC
	LargestSCCSize int
	Cycles         []circular.Cycle
	BreakingPoints []circular.BreakingPoint
	// SchemasInCyclesPct is the share of schemas that sit in a non-trivial SCC.
	SchemasInCyclesPct float64

	broken map[circular.Edge]bool
}

// Analyze builds the report for doc without modifying it.
func Analyze(doc *yaml.Node) *Report {
	root := yml.Unwrap(doc)
	info := yml.GetMapValue(root, "info")

	r := &Report{
		DocumentTitle:   scalar(yml.GetMapValue(info, "title")),
		DocumentVersion: scalar(yml.GetMapValue(info, "version")),
		OpenAPIVersion:  scalar(yml.GetMapValue(root, "openapi")),
		broken:          map[circular.Edge]bool{},
	}

	g := circular.BuildGraph(doc)
	r.Graph = g
	r.TotalSchemas = len(g.Nodes())

	for _, e := range g.Edges() {
		r.TotalEdges++
		r.TotalReferences += len(g.Locations(e))
	}

	r.SCCs = circular.StronglyConnected(g)
	inCycles := 0
	for _, scc := range r.SCCs {
		inCycles += len(scc.Schemas)
		r.LargestSCCSize = max(r.LargestSCCSize, len(scc.Schemas))
	}
	if r.TotalSchemas > 0 {
		r.SchemasInCyclesPct = float64(inCycles) / float64(r.TotalSchemas) * 100
	}

	r.Cycles = circular.DetectCycles(g)
	r.BreakingPoints = circular.FindBreakingPoints(r.Cycles, g)
	for _, bp := range r.BreakingPoints {
		r.broken[bp.Edge] = true
	}

	return r
}

// IsBroken reports whether resolution would cut e.
func (r *Report) IsBroken(e circular.Edge) bool {
	return r.broken[e]
}

func scalar(node *yaml.Node) string {
	if node == nil {
		return ""
	}
	return node.Value
}
