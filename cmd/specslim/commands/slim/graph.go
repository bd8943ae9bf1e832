package slim

import (
	"fmt"
	"io"
	"os"

	"github.com/specslim/specslim/cmd/specslim/commands/cmdutil"
	"github.com/specslim/specslim/internal/analyze"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [input]",
	Short: "Show the schema reference cycles of a document without changing it",
	Long: `Analyze the $ref graph between schema components of an OpenAPI document.

Reports the strongly connected components, every detected cycle and the edge
resolve would cut for each of them.

Output formats:
  text    - Human-readable summary (default)
  json    - Machine-readable report for CI pipelines
  mermaid - One flowchart per strongly connected component
  dot     - Graphviz DOT of the whole graph

Stdin is supported, pipe data or use '-':
  cat spec.yaml | specslim graph --format json`,
	Args: cmdutil.StdinOrFileArgs(1, 1),
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().StringP("format", "f", string(analyze.FormatText), "output format: text, json, mermaid, dot")
	graphCmd.Flags().StringP("output", "o", "", "write output to file instead of stdout")
}

func runGraph(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	outputFile, _ := cmd.Flags().GetString("output")

	p := newProcessor(cmd)
	doc, err := p.LoadDocument(cmd.Context(), cmdutil.InputFileFromArgs(args))
	if err != nil {
		return err
	}

	report := analyze.Analyze(doc.Root)

	var w io.Writer = p.stdout()
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	return analyze.Write(w, report, analyze.Format(format))
}
