// Package document loads and writes OpenAPI documents as yaml.Node trees.
//
// YAML and JSON are both parsed by the YAML decoder. The format of a file is chosen from its extension
// and the original indentation is kept when the document is written back.
package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/specslim/specslim/errors"
	"github.com/specslim/specslim/json"
	"github.com/specslim/specslim/system"
	"github.com/specslim/specslim/yml"
	"gopkg.in/yaml.v3"
)

const (
	// ErrUnsupportedFormat is returned for files that are neither YAML nor JSON by extension.
	ErrUnsupportedFormat = errors.Error("unsupported format")
	// ErrEmptyDocument is returned when the source holds no document.
	ErrEmptyDocument = errors.Error("empty document")
)

// Document is a parsed source document.
type Document struct {
	// Path is where the document was loaded from, if anywhere.
	Path string
	// Root is the document node.
	Root *yaml.Node
	// Config records the format and indentation the document was read with.
	Config *yml.Config
}

// FormatFromPath selects the format from the file extension.
func FormatFromPath(path string) (yml.OutputFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yml.OutputFormatYAML, nil
	case ".json":
		return yml.OutputFormatJSON, nil
	default:
		return "", ErrUnsupportedFormat.Wrapf("%s: expected .yaml, .yml or .json", path)
	}
}

// New wraps an existing node, rendered with the default config.
func New(root *yaml.Node) *Document {
	if root != nil && root.Kind != yaml.DocumentNode {
		root = &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}
	}
	return &Document{Root: root, Config: yml.GetDefaultConfig()}
}

// Parse decodes data. An empty format sniffs it from the content.
func Parse(data []byte, format yml.OutputFormat) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, ErrEmptyDocument
	}

	cfg := yml.GetConfigFromDoc(data)
	if format != "" {
		cfg.OutputFormat = format
	}

	return &Document{Root: &root, Config: cfg}, nil
}

// Read parses a document from r, sniffing its format.
func Read(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return Parse(data, "")
}

// Load reads and parses the document at path from fsys.
func Load(ctx context.Context, fsys system.VirtualFS, path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path

	return doc, nil
}

// Content returns the top level mapping of the document.
func (d *Document) Content() *yaml.Node {
	return yml.Unwrap(d.Root)
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	cfg := *d.Config
	return &Document{
		Path:   d.Path,
		Root:   yml.Clone(d.Root),
		Config: &cfg,
	}
}

// Write renders the document in its configured output format.
// Documents without a config use the one carried by ctx (yml.ContextWithConfig).
func (d *Document) Write(ctx context.Context, w io.Writer) error {
	cfg := d.Config
	if cfg == nil {
		cfg = yml.GetConfigFromContext(ctx)
	}

	return write(d.Root, cfg, w)
}

func write(root *yaml.Node, cfg *yml.Config, w io.Writer) error {
	indentation := cfg.Indentation
	if indentation <= 0 {
		indentation = 2
	}

	switch cfg.OutputFormat {
	case yml.OutputFormatJSON:
		if err := json.YAMLToJSON(root, indentation, w); err != nil {
			return fmt.Errorf("failed to write JSON: %w", err)
		}
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(indentation)
		if err := enc.Encode(root); err != nil {
			return fmt.Errorf("failed to write YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to write YAML: %w", err)
		}
	}

	return nil
}

// Bytes renders the document.
func (d *Document) Bytes(ctx context.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes doc to path in the format selected by the path's extension,
// keeping the indentation the document was read with.
func Save(ctx context.Context, fsys system.WritableVirtualFS, doc *Document, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	cfg := yml.GetDefaultConfig()
	if doc.Config != nil {
		*cfg = *doc.Config
	}
	cfg.OutputFormat = format

	var buf bytes.Buffer
	if err := write(doc.Root, cfg, &buf); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := fsys.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
