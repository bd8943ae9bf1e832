// Package json provides utilities for working with JSON.
package json

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/specslim/specslim/sequencedmap"
	"github.com/specslim/specslim/yml"
	"gopkg.in/yaml.v3"
)

// YAMLToJSON will convert the provided YAML node to JSON in a stable way not reordering keys.
func YAMLToJSON(node *yaml.Node, indentation int, buffer io.Writer) error {
	v, err := handleYAMLNode(node)
	if err != nil {
		return err
	}

	e := json.NewEncoder(buffer)
	e.SetIndent("", strings.Repeat(" ", indentation))
	e.SetEscapeHTML(false)

	return e.Encode(v)
}

func handleYAMLNode(node *yaml.Node) (any, error) {
	if node == nil {
		return nil, nil
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return handleYAMLNode(node.Content[0])
	case yaml.SequenceNode:
		return handleSequenceNode(node)
	case yaml.MappingNode:
		return handleMappingNode(node)
	case yaml.ScalarNode:
		return handleScalarNode(node)
	case yaml.AliasNode:
		return handleYAMLNode(node.Alias)
	default:
		return nil, fmt.Errorf("unknown node kind: %s", yml.NodeKindToString(node.Kind))
	}
}

func handleMappingNode(node *yaml.Node) (any, error) {
	content := yml.ResolveMergeKeys(node.Content)

	v := sequencedmap.New[string, any]()
	for i := 0; i+1 < len(content); i += 2 {
		kv, err := handleYAMLNode(content[i])
		if err != nil {
			return nil, err
		}

		key, ok := kv.(string)
		if !ok {
			keyData, err := json.Marshal(kv)
			if err != nil {
				return nil, err
			}
			key = string(keyData)
		}

		vv, err := handleYAMLNode(content[i+1])
		if err != nil {
			return nil, err
		}

		v.Set(key, vv)
	}

	return v, nil
}

func handleSequenceNode(node *yaml.Node) (any, error) {
	v := make([]any, len(node.Content))
	for i, n := range node.Content {
		vv, err := handleYAMLNode(n)
		if err != nil {
			return nil, err
		}

		v[i] = vv
	}

	return v, nil
}

func handleScalarNode(node *yaml.Node) (any, error) {
	var v any

	if err := node.Decode(&v); err != nil {
		return nil, err
	}

	return v, nil
}
