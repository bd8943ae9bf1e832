package slim

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/specslim/specslim/circular"
	"github.com/specslim/specslim/cmd/specslim/commands/cmdutil"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <input> <output>",
	Short: "Break circular schema references in an OpenAPI document",
	Long: `Break the $ref cycles between schema components of an OpenAPI document.

For every cycle the edge backed by the fewest references is cut: each reference
behind it is replaced with a placeholder schema of type object whose
x-removed-circular-ref names the removed target and whose description says so.
A JSON report of the detected cycles, chosen edges and removed references is
written next to the output unless --report names another file.

By default one pass runs, so cycles sharing an edge with a broken one can survive.
--until-acyclic repeats the pass until none remain or --max-passes is reached.

Use '-' as input to read from stdin and '-' as output to write to stdout.`,
	Args: cobra.ExactArgs(2),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringP("report", "r", "", "report path (default "+circular.DefaultReportName+" next to the output)")
	resolveCmd.Flags().Bool("until-acyclic", false, "repeat resolution until no cycle remains")
	resolveCmd.Flags().Int("max-passes", 0, "pass budget for --until-acyclic")
}

func runResolve(cmd *cobra.Command, args []string) error {
	reportPath, _ := cmd.Flags().GetString("report")
	untilAcyclic, _ := cmd.Flags().GetBool("until-acyclic")

	p := newProcessor(cmd)

	start := time.Now()
	report, err := resolveDocument(cmd.Context(), p, args[0], args[1], reportPath, untilAcyclic)
	if err != nil {
		return err
	}

	p.PrintSuccess(fmt.Sprintf("Detected %d cycles, removed %d references in %d passes",
		len(report.DetectedCycles), len(report.RemovedReferences), report.Passes))
	if remaining := len(report.RemainingCycles); remaining > 0 {
		p.PrintWarning(fmt.Sprintf("%d cycles remain", remaining))
	}
	p.reportElapsed("Resolution", start)

	return nil
}

func resolveDocument(ctx context.Context, p *Processor, input, output, reportPath string, untilAcyclic bool) (*circular.Report, error) {
	doc, err := p.LoadDocument(ctx, input)
	if err != nil {
		return nil, err
	}

	opts := []circular.Option{circular.WithLogger(p.Logger)}
	if untilAcyclic {
		opts = append(opts, circular.WithUntilAcyclic(p.Settings.MaxPasses))
	}

	resolved, report, err := circular.Resolve(ctx, doc.Root, opts...)
	if err != nil {
		return nil, err
	}
	doc.Root = resolved

	if err := p.WriteDocument(ctx, doc, output); err != nil {
		return nil, err
	}

	if reportPath == "" {
		reportPath = circular.DefaultReportName
		if !cmdutil.IsStdout(output) {
			reportPath = filepath.Join(filepath.Dir(output), circular.DefaultReportName)
		}
	}
	if err := p.WriteReport(report, reportPath); err != nil {
		return nil, err
	}

	return report, nil
}
