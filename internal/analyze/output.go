package analyze

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/specslim/specslim/circular"
	"github.com/specslim/specslim/errors"
	"github.com/specslim/specslim/internal/sliceutil"
)

// Format selects how a report is written.
type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatMermaid Format = "mermaid"
	FormatDOT     Format = "dot"

	ErrUnknownFormat = errors.Error("unknown format")
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F97316"))
)

// Write renders r in the given format.
func Write(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatText, "":
		WriteText(w, r)
		return nil
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatMermaid:
		WriteMermaid(w, r)
		return nil
	case FormatDOT:
		WriteDOT(w, r)
		return nil
	default:
		return ErrUnknownFormat.Wrapf("%s: expected text, json, mermaid or dot", format)
	}
}

// JSONReport is the JSON-serializable form of the analysis report.
type JSONReport struct {
	Document struct {
		Title   string `json:"title"`
		Version string `json:"version"`
		OpenAPI string `json:"openapi"`
	} `json:"document"`

	Summary struct {
		TotalSchemas       int     `json:"totalSchemas"`
		TotalEdges         int     `json:"totalEdges"`
		TotalReferences    int     `json:"totalReferences"`
		SCCCount           int     `json:"sccCount"`
		LargestSCCSize     int     `json:"largestSCCSize"`
		CycleCount         int     `json:"cycleCount"`
		SchemasInCyclesPct float64 `json:"schemasInCyclesPct"`
	} `json:"summary"`

	SCCs   [][]string       `json:"sccs"`
	Cycles []JSONCycleEntry `json:"cycles"`
}

// JSONCycleEntry is the JSON form of a cycle and the edge chosen to break it.
type JSONCycleEntry struct {
	Path           []string `json:"path"`
	Length         int      `json:"length"`
	BrokenEdge     string   `json:"brokenEdge"`
	ReferenceCount int      `json:"referenceCount"`
	Locations      []string `json:"locations"`
}

// WriteJSON writes the report as JSON to the given writer.
func WriteJSON(w io.Writer, r *Report) error {
	jr := JSONReport{
		SCCs: sliceutil.Map(r.SCCs, func(scc circular.SCC) []string { return scc.Schemas }),
		Cycles: sliceutil.Map(r.BreakingPoints, func(bp circular.BreakingPoint) JSONCycleEntry {
			return JSONCycleEntry{
				Path:           bp.Cycle,
				Length:         len(bp.Cycle) - 1,
				BrokenEdge:     bp.Edge.String(),
				ReferenceCount: bp.ReferenceCount,
				Locations:      bp.Locations,
			}
		}),
	}
	jr.Document.Title = r.DocumentTitle
	jr.Document.Version = r.DocumentVersion
	jr.Document.OpenAPI = r.OpenAPIVersion

	jr.Summary.TotalSchemas = r.TotalSchemas
	jr.Summary.TotalEdges = r.TotalEdges
	jr.Summary.TotalReferences = r.TotalReferences
	jr.Summary.SCCCount = len(r.SCCs)
	jr.Summary.LargestSCCSize = r.LargestSCCSize
	jr.Summary.CycleCount = len(r.Cycles)
	jr.Summary.SchemasInCyclesPct = r.SchemasInCyclesPct

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jr)
}

// WriteDOT writes the schema reference graph in Graphviz DOT format.
// Schemas on a cycle are highlighted and the edges resolution would cut are dashed.
func WriteDOT(w io.Writer, r *Report) {
	fmt.Fprintf(w, "digraph schemas {\n")
	fmt.Fprintf(w, "  rankdir=LR;\n")
	fmt.Fprintf(w, "  node [shape=box, style=filled, fontname=\"Helvetica\"];\n\n")

	inSCC := map[string]bool{}
	for _, scc := range r.SCCs {
		for _, name := range scc.Schemas {
			inSCC[name] = true
		}
	}

	for _, name := range r.Graph.Nodes() {
		color, fontColor := "#d4edda", "#155724"
		if inSCC[name] {
			color, fontColor = "#f8d7da", "#721c24"
		}
		fmt.Fprintf(w, "  %q [fillcolor=%q, fontcolor=%q];\n", name, color, fontColor)
	}

	fmt.Fprintln(w)

	for _, e := range r.Graph.Edges() {
		attrs := fmt.Sprintf("label=%q", fmt.Sprintf("%d", len(r.Graph.Locations(e))))
		if r.IsBroken(e) {
			attrs += ", style=dashed, color=red"
		}
		fmt.Fprintf(w, "  %q -> %q [%s];\n", e.Source, e.Target, attrs)
	}

	fmt.Fprintf(w, "}\n")
}

// WriteText writes a human-readable summary to the given writer.
func WriteText(w io.Writer, r *Report) {
	fmt.Fprintf(w, "%s\n", headingStyle.Render(fmt.Sprintf("Schema Reference Report: %s v%s (OpenAPI %s)", r.DocumentTitle, r.DocumentVersion, r.OpenAPIVersion)))
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 60))

	fmt.Fprintf(w, "%s\n", headingStyle.Render("OVERVIEW"))
	fmt.Fprintf(w, "  %s %d  %s %d  %s %d\n\n",
		labelStyle.Render("Schemas:"), r.TotalSchemas,
		labelStyle.Render("Edges:"), r.TotalEdges,
		labelStyle.Render("Refs:"), r.TotalReferences)

	fmt.Fprintf(w, "%s\n", headingStyle.Render("CYCLE HEALTH"))
	fmt.Fprintf(w, "  %s %d  %s %d  %s %d\n",
		labelStyle.Render("SCCs:"), len(r.SCCs),
		labelStyle.Render("Largest:"), r.LargestSCCSize,
		labelStyle.Render("Cycles:"), len(r.Cycles))
	fmt.Fprintf(w, "  %s %.0f%%\n\n", labelStyle.Render("Schemas in cycles:"), r.SchemasInCyclesPct)

	if len(r.SCCs) > 0 {
		fmt.Fprintf(w, "%s\n", headingStyle.Render("STRONGLY CONNECTED COMPONENTS"))
		for i, scc := range r.SCCs {
			fmt.Fprintf(w, "  %d. %s\n", i+1, sccLabel(scc.Schemas))
		}
		fmt.Fprintln(w)
	}

	if len(r.BreakingPoints) == 0 {
		fmt.Fprintf(w, "No circular references.\n")
		return
	}

	fmt.Fprintf(w, "%s\n", warnStyle.Render(fmt.Sprintf("CYCLES (%d)", len(r.BreakingPoints))))
	for i, bp := range r.BreakingPoints {
		fmt.Fprintf(w, "  %d. %s\n", i+1, bp.Cycle)
		fmt.Fprintf(w, "     break %s (%d refs)\n", bp.Edge, bp.ReferenceCount)
		for _, location := range bp.Locations {
			fmt.Fprintf(w, "       - %s\n", location)
		}
	}
}

func sccLabel(schemas []string) string {
	if len(schemas) <= 3 {
		return "{" + strings.Join(schemas, ", ") + "}"
	}
	return fmt.Sprintf("{%s +%d}", schemas[0], len(schemas)-1)
}
