// Package profile loads the files that describe a shortening run: which documents to read,
// which operations to keep, what to strip and where to write the result.
package profile

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/specslim/specslim/circular"
	"github.com/specslim/specslim/errors"
	"github.com/specslim/specslim/sequencedmap"
	"github.com/specslim/specslim/shorten"
	"github.com/specslim/specslim/system"
	"github.com/specslim/specslim/validation"
	"github.com/specslim/specslim/yml"
	"gopkg.in/yaml.v3"
)

// ErrInvalidProfile is returned for profiles that cannot be parsed or fail validation.
const ErrInvalidProfile = errors.Error("invalid profile")

// Profile is a shortening run read from a YAML or JSON file.
type Profile struct {
	Name string `yaml:"name,omitempty"`
	// Inputs are the source documents, in priority order.
	Inputs []string `yaml:"inputs" validate:"min=1,dive,required"`
	Output string   `yaml:"output" validate:"required"`
	// Report is where the circular reference report goes. It defaults to a file next to Output
	// when ResolveCircular is set.
	Report string `yaml:"report,omitempty" validate:"omitempty,nefield=Output"`
	// Paths maps each selected path, or glob, to its methods. "*" selects every method.
	Paths *sequencedmap.Map[string, []string] `yaml:"-" validate:"-"`
	// Tags is the tag allow-list. Leaving it out keeps every tag.
	Tags []string `yaml:"tags,omitempty"`
	// RemoveProperties maps component names to the properties dropped from them.
	RemoveProperties *sequencedmap.Map[string, []string] `yaml:"-" validate:"-"`
	RemoveRequired   []string                            `yaml:"removeRequired,omitempty" validate:"dive,startswith=/"`
	Strip            []string                            `yaml:"strip,omitempty" validate:"dive,startswith=$"`
	JSONPathVersion  string                              `yaml:"jsonPathVersion,omitempty" validate:"omitempty,oneof=rfc9535 legacy"`
	Info             *yaml.Node                          `yaml:"info,omitempty" validate:"-"`
	Servers          *yaml.Node                          `yaml:"servers,omitempty" validate:"-"`
	ResolveCircular  bool                                `yaml:"resolveCircular,omitempty"`
	// UntilAcyclic above one repeats cycle breaking up to that many passes.
	UntilAcyclic int `yaml:"untilAcyclic,omitempty" validate:"gte=0"`

	// Dir is the directory relative paths were resolved against.
	Dir string `yaml:"-" validate:"-"`
}

var _ yaml.Unmarshaler = (*Profile)(nil)

// UnmarshalYAML decodes the profile keeping the order of the paths and removeProperties mappings.
func (p *Profile) UnmarshalYAML(value *yaml.Node) error {
	type plain Profile
	if err := value.Decode((*plain)(p)); err != nil {
		return err
	}

	var err error
	if p.Paths, err = stringLists(yml.GetMapValue(value, "paths")); err != nil {
		return err
	}
	if p.RemoveProperties, err = stringLists(yml.GetMapValue(value, "removeProperties")); err != nil {
		return err
	}

	return nil
}

// stringLists decodes a mapping whose values are a string or a list of strings.
func stringLists(node *yaml.Node) (*sequencedmap.Map[string, []string], error) {
	node = yml.ResolveAlias(node)
	if node == nil {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, validation.Errorf(validation.RuleValidationTypeMismatch, node, "expected a mapping, got %s", yml.NodeKindToString(node.Kind))
	}

	out := sequencedmap.New[string, []string]()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := yml.ResolveAlias(node.Content[i+1])

		var list []string
		if value.Kind == yaml.ScalarNode {
			list = []string{value.Value}
		} else if err := value.Decode(&list); err != nil {
			return nil, validation.NewValidationError(validation.RuleValidationTypeMismatch, fmt.Errorf("%s: %w", key, err), value)
		}

		out.Set(key, list)
	}

	return out, nil
}

// Parse decodes and validates a profile. Relative paths are left as written.
func Parse(data []byte) (*Profile, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, ErrInvalidProfile.Wrap(err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, ErrInvalidProfile.Wrapf("empty profile")
	}

	if errs := validateSchema(&root); len(errs) > 0 {
		return nil, invalid(errs)
	}

	var p Profile
	if err := root.Decode(&p); err != nil {
		return nil, ErrInvalidProfile.Wrap(err)
	}

	if errs := validateStruct(&p, &root); len(errs) > 0 {
		return nil, invalid(errs)
	}

	return &p, nil
}

// Load reads the profile at path and resolves its relative paths against the profile's directory.
func Load(ctx context.Context, fsys system.VirtualFS, path string) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	p.resolvePaths(filepath.Dir(path))

	return p, nil
}

func (p *Profile) resolvePaths(dir string) {
	p.Dir = dir

	join := func(path string) string {
		if path == "" || filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(dir, path)
	}

	for i, input := range p.Inputs {
		p.Inputs[i] = join(input)
	}
	p.Output = join(p.Output)
	p.Report = join(p.Report)
}

// ReportPath returns where the circular reference report is written, or "" when no report is produced.
func (p *Profile) ReportPath() string {
	if p.Report != "" {
		return p.Report
	}
	if !p.ResolveCircular {
		return ""
	}
	return filepath.Join(filepath.Dir(p.Output), circular.DefaultReportName)
}

// ShortenConfig converts the profile into shortening rules.
func (p *Profile) ShortenConfig() shorten.Config {
	cfg := shorten.Config{
		Tags:             p.Tags,
		RemoveProperties: p.RemoveProperties,
		RemoveRequired:   p.RemoveRequired,
		Strip:            p.Strip,
		JSONPathVersion:  shorten.JSONPathVersion(p.JSONPathVersion),
		Info:             p.Info,
		Servers:          p.Servers,
		ResolveCircular:  p.ResolveCircular,
		MaxPasses:        p.UntilAcyclic,
	}

	if p.Paths != nil {
		for path, methods := range p.Paths.All() {
			cfg.Paths = append(cfg.Paths, shorten.PathSelection{Path: path, Methods: methods})
		}
	}

	return cfg
}

func invalid(errs []error) error {
	validation.SortValidationErrors(errs)
	return ErrInvalidProfile.Wrap(errors.Join(errs...))
}
