package circular

import (
	"context"
	"log/slog"

	"github.com/specslim/specslim/yml"
	"gopkg.in/yaml.v3"
)

// Resolve breaks the schema reference cycles of doc and returns the resolved copy with its report.
//
// By default a single pass runs, so cycles sharing edges with a broken one may survive;
// they are listed in Report.RemainingCycles. WithUntilAcyclic repeats the pass until
// no cycle remains, a pass removes nothing or the pass budget is spent.
func Resolve(ctx context.Context, doc *yaml.Node, opts ...Option) (*yaml.Node, *Report, error) {
	o := getOptions(opts)
	report := newReport()

	current := doc
	for pass := 1; pass <= o.maxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		g := BuildGraph(current)
		cycles := DetectCycles(g)
		if len(cycles) == 0 {
			break
		}

		points := FindBreakingPoints(cycles, g)
		next, removed := BreakCycles(current, points, opts...)

		report.Passes = pass
		report.add(cycles, points, removed)
		current = next

		o.logger.Info("resolution pass complete",
			slog.Int("pass", pass),
			slog.Int("cycles", len(cycles)),
			slog.Int("removed", len(removed)))

		if len(removed) == 0 {
			o.logger.Warn("pass removed no references, stopping", slog.Int("pass", pass))
			break
		}
	}

	remaining := DetectCycles(BuildGraph(current))
	report.setRemaining(remaining)
	if len(remaining) > 0 {
		o.logger.Warn("cycles remain after resolution", slog.Int("count", len(remaining)))
	}

	if current == doc {
		current = yml.Clone(doc)
	}

	return current, report, nil
}
