package analyze

import (
	"fmt"
	"io"
	"strings"
)

// SCCToMermaid renders one strongly connected component as a Mermaid flowchart string.
// Edges are labelled with their reference count; edges resolution would cut are dotted.
func SCCToMermaid(r *Report, sccIndex int) string {
	if sccIndex < 0 || sccIndex >= len(r.SCCs) {
		return ""
	}
	scc := r.SCCs[sccIndex]
	memberSet := make(map[string]bool, len(scc.Schemas))
	for _, id := range scc.Schemas {
		memberSet[id] = true
	}

	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, id := range scc.Schemas {
		fmt.Fprintf(&sb, "  %s[%s]\n", mermaidSafeID(id), id)
	}

	for _, e := range r.Graph.Edges() {
		if !memberSet[e.Source] || !memberSet[e.Target] {
			continue
		}
		arrow := "-->"
		if r.IsBroken(e) {
			arrow = "-.->"
		}
		fmt.Fprintf(&sb, "  %s %s|%d| %s\n", mermaidSafeID(e.Source), arrow, len(r.Graph.Locations(e)), mermaidSafeID(e.Target))
	}

	return sb.String()
}

// WriteMermaid writes one flowchart per strongly connected component.
func WriteMermaid(w io.Writer, r *Report) {
	if len(r.SCCs) == 0 {
		fmt.Fprintf(w, "%%%% no circular references\n")
		return
	}

	for i := range r.SCCs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprint(w, SCCToMermaid(r, i))
	}
}

func mermaidSafeID(id string) string {
	r := strings.NewReplacer("-", "_", ".", "_", " ", "_", "/", "_", "~", "_")
	return r.Replace(id)
}
