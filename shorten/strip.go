package shorten

import (
	"fmt"

	"github.com/speakeasy-api/jsonpath/pkg/jsonpath"
	"github.com/speakeasy-api/jsonpath/pkg/jsonpath/config"
	"github.com/vmware-labs/yaml-jsonpath/pkg/yamlpath"
	"gopkg.in/yaml.v3"
)

// JSONPathVersion selects the JSONPath dialect used by Strip.
type JSONPathVersion string

const (
	// JSONPathRFC9535 is the standard dialect and the default.
	JSONPathRFC9535 JSONPathVersion = "rfc9535"
	// JSONPathLegacy is the yamlpath dialect used by older overlay tooling.
	JSONPathLegacy JSONPathVersion = "legacy"
)

// Queryable finds nodes in a document.
type Queryable interface {
	Query(root *yaml.Node) []*yaml.Node
}

type rfcJSONPathQueryable struct {
	path *jsonpath.JSONPath
}

func (r rfcJSONPathQueryable) Query(root *yaml.Node) []*yaml.Node {
	return r.path.Query(root)
}

type yamlPathQueryable struct {
	path *yamlpath.Path
}

func (y yamlPathQueryable) Query(root *yaml.Node) []*yaml.Node {
	// errors aren't actually possible from yamlpath.
	result, _ := y.path.Find(root)
	return result
}

// NewPath compiles expression in the given dialect. An empty version means RFC 9535.
func NewPath(expression string, version JSONPathVersion) (Queryable, error) {
	switch version {
	case JSONPathRFC9535, "":
		path, err := jsonpath.NewPath(expression, config.WithPropertyNameExtension())
		if err != nil {
			return nil, err
		}
		return rfcJSONPathQueryable{path: path}, nil
	case JSONPathLegacy:
		path, err := yamlpath.NewPath(expression)
		if err != nil {
			return nil, err
		}
		return yamlPathQueryable{path: path}, nil
	default:
		return nil, fmt.Errorf("unknown jsonpath version %q", version)
	}
}

// Strip removes every node matched by the JSONPath expressions, together with its key when it is a mapping value.
// Invalid expressions are skipped with a warning. It returns the number of nodes removed.
func Strip(doc *yaml.Node, expressions []string, version JSONPathVersion) (int, []Warning) {
	removed := 0
	var warnings []Warning

	for _, expression := range expressions {
		path, err := NewPath(expression, version)
		if err != nil {
			warnings = append(warnings, newWarning(WarningInvalidInstruction, expression, "invalid jsonpath: %s", err.Error()))
			continue
		}

		idx := newParentIndex(doc)
		matched := 0
		for _, node := range path.Query(doc) {
			if removeNode(idx, node) {
				matched++
			}
		}
		removed += matched
	}

	return removed, warnings
}

type parentIndex map[*yaml.Node]*yaml.Node

func newParentIndex(root *yaml.Node) parentIndex {
	idx := parentIndex{}
	var index func(node *yaml.Node)
	index = func(node *yaml.Node) {
		for _, child := range node.Content {
			if _, seen := idx[child]; seen {
				continue
			}
			idx[child] = node
			index(child)
		}
	}
	index(root)
	return idx
}

func (idx parentIndex) getParent(node *yaml.Node) *yaml.Node {
	return idx[node]
}

func removeNode(idx parentIndex, node *yaml.Node) bool {
	parent := idx.getParent(node)
	if parent == nil {
		return false
	}

	for i, child := range parent.Content {
		if child != node {
			continue
		}

		switch parent.Kind {
		case yaml.MappingNode:
			if i%2 == 1 {
				// a selected value takes its key with it
				parent.Content = append(parent.Content[:i-1], parent.Content[i+1:]...)
			} else {
				parent.Content = append(parent.Content[:i], parent.Content[i+2:]...)
			}
			return true
		case yaml.SequenceNode:
			parent.Content = append(parent.Content[:i], parent.Content[i+1:]...)
			return true
		}
	}

	return false
}
