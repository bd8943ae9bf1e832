package slim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/specslim/specslim/document"
	"github.com/specslim/specslim/profile"
	"github.com/specslim/specslim/shorten"
	"github.com/spf13/cobra"
)

var shortenCmd = &cobra.Command{
	Use:   "shorten <profile>",
	Short: "Shorten OpenAPI documents to the operations a profile selects",
	Long: `Shorten one or more OpenAPI 3.x documents down to the paths and methods listed in a profile.

The output holds the selected operations and every component they reference,
directly or transitively. Profiles can also:
- combine several source documents, the first one with a path wins
- filter tags, drop component properties and required entries
- strip fields matched by JSONPath expressions
- break circular schema references and write a report of what was cut

Relative paths in the profile are resolved against the profile's directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runShorten,
}

func init() {
	shortenCmd.Flags().String("jsonpath-version", "", "JSONPath dialect for profiles that do not set one: rfc9535 or legacy")
}

func runShorten(cmd *cobra.Command, args []string) error {
	p := newProcessor(cmd)
	loader := &document.FSLoader{FS: p.FS}

	start := time.Now()
	if _, err := shortenProfile(cmd.Context(), p, loader, args[0]); err != nil {
		return err
	}
	p.reportElapsed("Shortening", start)

	return nil
}

// shortenProfile runs one profile end to end: load, shorten, write the document and the report.
func shortenProfile(ctx context.Context, p *Processor, loader document.Loader, path string) (*shorten.Result, error) {
	prof, err := profile.Load(ctx, p.FS, path)
	if err != nil {
		return nil, err
	}

	logger := p.Logger.With(slog.String("profile", prof.Name))
	logger.Debug("loading sources", slog.Any("inputs", prof.Inputs))

	sources, err := document.LoadAll(ctx, loader, prof.Inputs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", prof.Name, err)
	}

	cfg := prof.ShortenConfig()
	if cfg.JSONPathVersion == "" {
		cfg.JSONPathVersion = shorten.JSONPathVersion(p.Settings.JSONPathVersion)
	}

	result, err := shorten.Shorten(ctx, sources, cfg, shorten.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", prof.Name, err)
	}

	if err := p.WriteDocument(ctx, result.Document, prof.Output); err != nil {
		return nil, err
	}

	if result.Report != nil {
		if reportPath := prof.ReportPath(); reportPath != "" {
			if err := p.WriteReport(result.Report, reportPath); err != nil {
				return nil, err
			}
		}
	}

	printStats(p, prof.Name, result)

	return result, nil
}

func printStats(p *Processor, name string, result *shorten.Result) {
	s := result.Stats
	p.PrintSuccess(fmt.Sprintf("%s: kept %d paths, %d operations and %d components", name, s.Paths, s.Operations, s.Components))

	if s.RemovedProperties+s.RemovedRequired+s.Stripped > 0 {
		p.PrintInfo(fmt.Sprintf("Removed %d properties, %d required entries and %d stripped fields", s.RemovedProperties, s.RemovedRequired, s.Stripped))
	}
	if result.Report != nil {
		p.PrintInfo(fmt.Sprintf("Broke %d circular references in %d passes", s.RemovedReferences, result.Report.Passes))
		if remaining := len(result.Report.RemainingCycles); remaining > 0 {
			p.PrintWarning(fmt.Sprintf("%d cycles remain", remaining))
		}
	}
	if len(result.Warnings) > 0 {
		p.PrintWarning(fmt.Sprintf("%d items were skipped, see the log above", len(result.Warnings)))
	}
}
