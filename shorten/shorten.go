// Package shorten trims OpenAPI 3.x documents down to a selected set of operations and
// the components they need, optionally combining several source documents into one.
package shorten

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/specslim/specslim/circular"
	"github.com/specslim/specslim/closure"
	"github.com/specslim/specslim/document"
	"github.com/specslim/specslim/errors"
	"github.com/specslim/specslim/internal/version"
	"github.com/specslim/specslim/sequencedmap"
	"github.com/specslim/specslim/yml"
	"gopkg.in/yaml.v3"
)

const (
	// ErrUnsupportedVersion is returned for documents that are not OpenAPI 3.x.
	ErrUnsupportedVersion = errors.Error("unsupported OpenAPI version")
	// ErrNoSources is returned when Shorten is called without documents.
	ErrNoSources = errors.Error("no source documents")
)

// Config describes what to keep and what to drop.
type Config struct {
	Paths []PathSelection
	// Tags is the tag allow-list. Nil keeps every source tag.
	Tags []string
	// RemoveProperties maps component names to the properties deleted from them.
	RemoveProperties *sequencedmap.Map[string, []string]
	// RemoveRequired holds JSON pointers ending in /required or /required/<field>.
	RemoveRequired []string
	// Strip holds JSONPath expressions whose matches are deleted.
	Strip           []string
	JSONPathVersion JSONPathVersion
	// Info and Servers replace the source values when set.
	Info    *yaml.Node
	Servers *yaml.Node
	// ResolveCircular breaks schema reference cycles in the result.
	ResolveCircular bool
	// MaxPasses above one repeats cycle breaking until the result is acyclic.
	MaxPasses int
}

// Stats counts what a run kept and removed.
type Stats struct {
	Paths              int
	Operations         int
	Components         int
	DanglingReferences int
	RemovedProperties  int
	RemovedRequired    int
	Stripped           int
	RemovedReferences  int
}

// Result is the output of Shorten.
type Result struct {
	Document *document.Document
	Closure  *closure.Closure
	// Report is set when cycles were resolved.
	Report   *circular.Report
	Warnings []Warning
	Stats    Stats
}

type Option func(o *options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger that receives warnings and progress.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

var (
	// MinimumSupportedVersion and MaximumSupportedVersion bound the accepted openapi field, upper bound exclusive.
	MinimumSupportedVersion = version.MustParse("3.0.0")
	MaximumSupportedVersion = version.MustParse("4.0.0")
)

// topLevelFields are copied from the first source, in this order.
var topLevelFields = []string{"openapi", "info", "servers", "externalDocs", "security", "tags", "paths", "components"}

// CheckVersion returns ErrUnsupportedVersion unless doc declares openapi 3.x.
func CheckVersion(doc *yaml.Node) error {
	root := yml.Unwrap(doc)

	if swagger := yml.GetMapValue(root, "swagger"); swagger != nil {
		return ErrUnsupportedVersion.Wrapf("swagger %s documents are not supported", swagger.Value)
	}

	declared := yml.GetMapValue(root, "openapi")
	if declared == nil {
		return ErrUnsupportedVersion.Wrapf("missing openapi field")
	}

	v, err := version.Parse(declared.Value)
	if err != nil {
		return ErrUnsupportedVersion.Wrap(err)
	}
	if !v.InRange(MinimumSupportedVersion, MaximumSupportedVersion) {
		return ErrUnsupportedVersion.Wrapf("openapi %s", declared.Value)
	}

	return nil
}

// Shorten builds a new document holding the selected operations of sources and the components they reference.
//
// Each selection is taken from the first source that has the path with at least one requested method.
// The closures of all sources are merged, later sources winning on name collisions. Top level fields
// come from the first source. Skipped items are reported as warnings rather than errors.
func Shorten(ctx context.Context, sources []*document.Document, cfg Config, opts ...Option) (*Result, error) {
	o := &options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(o)
	}

	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	for _, src := range sources {
		if err := CheckVersion(src.Root); err != nil {
			return nil, fmt.Errorf("%s: %w", src.Path, err)
		}
	}

	result := &Result{}

	paths, contributed, warnings := combinePaths(sources, cfg.Paths)
	result.Warnings = append(result.Warnings, warnings...)

	c := closure.New()
	for i, src := range sources {
		if len(contributed[i]) == 0 {
			continue
		}
		c.Merge(closure.Build(components(src.Content()), contributed[i]...))
	}

	base := sources[0].Content()
	pathsNode := renderPaths(paths)

	for _, name := range securitySchemeNames(yml.GetMapValue(base, "security"), pathsNode) {
		if !addSecurityScheme(c, sources, name) {
			result.Warnings = append(result.Warnings, newWarning(WarningDanglingReference, name, "security scheme not defined"))
		}
	}

	for _, ref := range c.Dangling() {
		result.Warnings = append(result.Warnings, newWarning(WarningDanglingReference, ref.String(), "referenced component not found"))
	}

	if cfg.RemoveProperties != nil {
		result.Stats.RemovedProperties = RemoveComponentProperties(c, cfg.RemoveProperties)
	}

	root := assemble(base, cfg, pathsNode, c)
	doc := &document.Document{
		Root:   &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}},
		Config: yml.GetDefaultConfig(),
	}
	if sources[0].Config != nil {
		cfgCopy := *sources[0].Config
		doc.Config = &cfgCopy
	}

	removedRequired, warnings := RemoveRequired(doc.Root, cfg.RemoveRequired)
	result.Stats.RemovedRequired = removedRequired
	result.Warnings = append(result.Warnings, warnings...)

	stripped, warnings := Strip(doc.Root, cfg.Strip, cfg.JSONPathVersion)
	result.Stats.Stripped = stripped
	result.Warnings = append(result.Warnings, warnings...)

	if cfg.ResolveCircular {
		resolveOpts := []circular.Option{circular.WithLogger(o.logger)}
		if cfg.MaxPasses > 1 {
			resolveOpts = append(resolveOpts, circular.WithUntilAcyclic(cfg.MaxPasses))
		}

		resolved, report, err := circular.Resolve(ctx, doc.Root, resolveOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve circular references: %w", err)
		}
		doc.Root = resolved
		result.Report = report
		result.Stats.RemovedReferences = len(report.RemovedReferences)
	}

	result.Document = doc
	result.Closure = c
	result.Stats.Paths = paths.Len()
	result.Stats.Operations = operationCount(pathsNode)
	result.Stats.Components = c.Len()
	result.Stats.DanglingReferences = len(c.Dangling())

	for _, w := range result.Warnings {
		o.logger.Warn(w.Message, slog.String("kind", string(w.Kind)), slog.String("subject", w.Subject))
	}

	return result, nil
}

// combinePaths takes each selection from the first source that can serve it.
// contributed[i] lists the path items taken from sources[i].
func combinePaths(sources []*document.Document, selections []PathSelection) (*sequencedmap.Map[string, *yaml.Node], [][]*yaml.Node, []Warning) {
	paths := sequencedmap.New[string, *yaml.Node]()
	contributed := make([][]*yaml.Node, len(sources))
	var warnings []Warning

	for _, sel := range selections {
		var missed []Warning
		found := false

		for i, src := range sources {
			items, w := extractSelection(yml.GetMapValue(src.Content(), "paths"), sel)
			if items.Len() == 0 {
				missed = append(missed, w...)
				continue
			}

			for path, item := range items.All() {
				mergePathItem(paths, path, item)
				contributed[i] = append(contributed[i], item)
			}
			warnings = append(warnings, w...)
			found = true
			break
		}

		switch {
		case found:
		case len(sources) == 1:
			warnings = append(warnings, missed...)
		default:
			warnings = append(warnings, newWarning(WarningMissingPath, sel.Path, "not found in any of %d sources", len(sources)))
		}
	}

	return paths, contributed, warnings
}

func components(root *yaml.Node) *yaml.Node {
	return yml.GetMapValue(root, "components")
}

func addSecurityScheme(c *closure.Closure, sources []*document.Document, name string) bool {
	for _, src := range sources {
		scheme := yml.GetMapValue(yml.GetMapValue(components(src.Content()), "securitySchemes"), name)
		if scheme != nil {
			c.Add("securitySchemes", name, yml.Clone(scheme))
			return true
		}
	}
	return false
}

func assemble(base *yaml.Node, cfg Config, paths *yaml.Node, c *closure.Closure) *yaml.Node {
	out := yml.CreateMapNode(nil)

	for _, field := range topLevelFields {
		var value *yaml.Node

		switch field {
		case "info":
			value = cfg.Info
		case "servers":
			value = cfg.Servers
		case "tags":
			value = FilterTags(yml.GetMapValue(base, "tags"), cfg.Tags)
		case "paths":
			value = paths
		case "components":
			if c.Len() > 0 {
				value = c.Node()
			}
		}

		if value == nil && field != "tags" && field != "paths" && field != "components" {
			value = yml.GetMapValue(base, field)
		}
		if value == nil {
			continue
		}

		out.Content = append(out.Content, yml.CreateStringNode(field), yml.Clone(value))
	}

	return out
}
