package circular

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/specslim/specslim/yml"
	"gopkg.in/yaml.v3"
)

// DefaultReportName is used when no report path is given.
const DefaultReportName = "circular_references_report.json"

// Report is the audit record of a resolution run.
type Report struct {
	// Passes is the number of passes that found cycles.
	Passes            int                 `json:"passes" yaml:"passes"`
	DetectedCycles    []DetectedCycle     `json:"detected_cycles" yaml:"detected_cycles"`
	BreakingPoints    []BreakingPointInfo `json:"breaking_points" yaml:"breaking_points"`
	RemovedReferences []RemovedRefInfo    `json:"removed_references" yaml:"removed_references"`
	// RemainingCycles lists cycles still present in the resolved document.
	RemainingCycles []DetectedCycle `json:"remaining_cycles" yaml:"remaining_cycles"`
}

type DetectedCycle struct {
	Cycle string `json:"cycle" yaml:"cycle"`
}

type BreakingPointInfo struct {
	Cycle          string   `json:"cycle" yaml:"cycle"`
	BrokenEdge     string   `json:"broken_edge" yaml:"broken_edge"`
	ReferenceCount int      `json:"reference_count" yaml:"reference_count"`
	Locations      []string `json:"locations" yaml:"locations"`
}

type RemovedRefInfo struct {
	SourceSchema string `json:"source_schema" yaml:"source_schema"`
	TargetSchema string `json:"target_schema" yaml:"target_schema"`
	Path         string `json:"path" yaml:"path"`
}

// NewReport builds a single pass report.
func NewReport(cycles []Cycle, points []BreakingPoint, removed []RemovedReference) *Report {
	r := newReport()
	r.add(cycles, points, removed)
	if len(cycles) > 0 {
		r.Passes = 1
	}
	return r
}

func newReport() *Report {
	return &Report{
		DetectedCycles:    []DetectedCycle{},
		BreakingPoints:    []BreakingPointInfo{},
		RemovedReferences: []RemovedRefInfo{},
		RemainingCycles:   []DetectedCycle{},
	}
}

func (r *Report) add(cycles []Cycle, points []BreakingPoint, removed []RemovedReference) {
	for _, c := range cycles {
		r.DetectedCycles = append(r.DetectedCycles, DetectedCycle{Cycle: c.String()})
	}

	for _, p := range points {
		locations := p.Locations
		if locations == nil {
			locations = []string{}
		}
		r.BreakingPoints = append(r.BreakingPoints, BreakingPointInfo{
			Cycle:          p.Cycle.String(),
			BrokenEdge:     p.Edge.String(),
			ReferenceCount: p.ReferenceCount,
			Locations:      locations,
		})
	}

	for _, rr := range removed {
		r.RemovedReferences = append(r.RemovedReferences, RemovedRefInfo(rr))
	}
}

func (r *Report) setRemaining(cycles []Cycle) {
	r.RemainingCycles = make([]DetectedCycle, 0, len(cycles))
	for _, c := range cycles {
		r.RemainingCycles = append(r.RemainingCycles, DetectedCycle{Cycle: c.String()})
	}
}

// Write encodes the report as indented JSON or YAML.
func (r *Report) Write(w io.Writer, format yml.OutputFormat) error {
	switch format {
	case yml.OutputFormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	case yml.OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}

	return nil
}
