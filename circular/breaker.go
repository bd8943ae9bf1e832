package circular

import (
	"log/slog"

	"github.com/specslim/specslim/jsonpointer"
	"github.com/specslim/specslim/references"
	"github.com/specslim/specslim/yml"
	"gopkg.in/yaml.v3"
)

// PlaceholderKey marks a placeholder and holds the reference it replaced.
const PlaceholderKey = "x-removed-circular-ref"

// BreakingPoint is the edge chosen to cut a cycle.
type BreakingPoint struct {
	Cycle          Cycle
	Edge           Edge
	ReferenceCount int
	Locations      []string
}

// RemovedReference records a reference that was replaced by a placeholder.
type RemovedReference struct {
	SourceSchema string
	TargetSchema string
	// Path is the location of the reference relative to the source schema body.
	Path string
}

// FindBreakingPoints picks, for each cycle, the consecutive edge backed by the fewest
// reference locations. Ties go to the first such edge in cycle order.
// This keeps the number of rewritten references low but is not a minimum cut.
func FindBreakingPoints(cycles []Cycle, g *Graph) []BreakingPoint {
	points := make([]BreakingPoint, 0, len(cycles))

	for _, c := range cycles {
		edges := c.Edges()
		if len(edges) == 0 {
			continue
		}

		best := edges[0]
		bestLocations := g.Locations(best)
		for _, e := range edges[1:] {
			if locations := g.Locations(e); len(locations) < len(bestLocations) {
				best, bestLocations = e, locations
			}
		}

		points = append(points, BreakingPoint{
			Cycle:          c,
			Edge:           best,
			ReferenceCount: len(bestLocations),
			Locations:      bestLocations,
		})
	}

	return points
}

// BreakCycles returns a copy of doc in which every reference behind each breaking point
// is replaced by a placeholder. doc itself is not modified.
//
// Locations are resolved from the source schema body one mapping key or sequence index at a time.
// Locations that no longer resolve, or that no longer hold a reference to the target schema,
// are skipped.
func BreakCycles(doc *yaml.Node, points []BreakingPoint, opts ...Option) (*yaml.Node, []RemovedReference) {
	o := getOptions(opts)

	result := yml.Clone(doc)
	schemas := Schemas(result)

	var removed []RemovedReference

	for _, point := range points {
		source := yml.GetMapValue(schemas, point.Edge.Source)
		if source == nil {
			o.logger.Warn("source schema not found", slog.String("edge", point.Edge.String()))
			continue
		}

		for _, location := range point.Locations {
			if !replaceReference(source, location, point.Edge.Target, o.logger) {
				continue
			}

			removed = append(removed, RemovedReference{
				SourceSchema: point.Edge.Source,
				TargetSchema: point.Edge.Target,
				Path:         location,
			})
			o.logger.Debug("removed circular reference",
				slog.String("edge", point.Edge.String()),
				slog.String("location", location))
		}
	}

	return result, removed
}

func replaceReference(source *yaml.Node, location, target string, logger *slog.Logger) bool {
	leaf, err := jsonpointer.GetLocationTarget(source, location)
	if err != nil {
		logger.Warn("skipping unresolvable reference location",
			slog.String("location", location),
			slog.String("target", target),
			slog.String("error", err.Error()))
		return false
	}

	ref, ok := references.RefValue(leaf)
	if !ok {
		logger.Warn("skipping location without a reference",
			slog.String("location", location),
			slog.String("target", target))
		return false
	}

	if name, ok := ref.Schema(); !ok || name != target {
		logger.Warn("skipping reference to a different target",
			slog.String("location", location),
			slog.String("target", target),
			slog.String("ref", ref.String()))
		return false
	}

	*leaf = *Placeholder(target)
	return true
}

// Placeholder returns the inert object that replaces a removed reference to target.
func Placeholder(target string) *yaml.Node {
	return yml.CreateMapNode([]*yaml.Node{
		yml.CreateStringNode(PlaceholderKey), yml.CreateStringNode(references.SchemaRef(target).String()),
		yml.CreateStringNode("type"), yml.CreateStringNode("object"),
		yml.CreateStringNode("description"), yml.CreateStringNode("Circular reference to " + target + " was removed"),
	})
}
