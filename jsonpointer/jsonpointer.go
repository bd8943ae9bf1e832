// Package jsonpointer provides JSONPointer an implementation of RFC6901 https://datatracker.ietf.org/doc/html/rfc6901
// evaluated against yaml.Node trees.
//
// It also handles "locations": the reference tokens of a pointer joined by "/" without the leading slash,
// which is how reference sites are recorded in reports.
package jsonpointer

import (
	"fmt"
	"strings"

	"github.com/specslim/specslim/errors"
	"gopkg.in/yaml.v3"
)

const (
	// ErrNotFound is returned when the target is not found.
	ErrNotFound = errors.Error("not found")
	// ErrInvalidPath is returned when the path is invalid.
	ErrInvalidPath = errors.Error("invalid path")
	// ErrValidation is returned when the jsonpointer is invalid.
	ErrValidation = errors.Error("validation error")
)

// JSONPointer represents a JSON Pointer value as defined by RFC6901.
// The empty pointer refers to the whole document.
type JSONPointer string

// Validate will validate the JSONPointer is valid as per RFC6901.
func (j JSONPointer) Validate() error {
	if _, err := j.getNavigationStack(); err != nil {
		return ErrValidation.Wrap(err)
	}
	return nil
}

// Parts returns the unescaped reference tokens of the pointer.
func (j JSONPointer) Parts() ([]string, error) {
	stack, err := j.getNavigationStack()
	if err != nil {
		return nil, ErrValidation.Wrap(err)
	}
	return unescapeStack(stack), nil
}

// Location returns the pointer in location form.
func (j JSONPointer) Location() string {
	return strings.TrimPrefix(string(j), "/")
}

// PartsToJSONPointer will convert the exploded parts of a JSONPointer to a JSONPointer.
func PartsToJSONPointer(parts []string) JSONPointer {
	var sb strings.Builder
	for _, part := range parts {
		sb.WriteByte('/')
		sb.WriteString(escape(part))
	}
	return JSONPointer(sb.String())
}

// FromLocation converts a location back into a pointer.
func FromLocation(location string) JSONPointer {
	if location == "" {
		return ""
	}
	return JSONPointer("/" + location)
}

// JoinLocation escapes each part and joins them into a location.
func JoinLocation(parts []string) string {
	escaped := make([]string, len(parts))
	for i, part := range parts {
		escaped[i] = escape(part)
	}
	return strings.Join(escaped, "/")
}

// SplitLocation splits a location into unescaped parts. The empty location has no parts.
func SplitLocation(location string) ([]string, error) {
	if location == "" {
		return nil, nil
	}

	stack, err := splitTokens(location)
	if err != nil {
		return nil, ErrInvalidPath.Wrap(err)
	}
	return unescapeStack(stack), nil
}

// GetTarget evaluates the pointer against node and returns the target node.
// Document and alias nodes are resolved transparently.
func GetTarget(node *yaml.Node, pointer JSONPointer) (*yaml.Node, error) {
	stack, err := pointer.getNavigationStack()
	if err != nil {
		return nil, ErrValidation.Wrap(err)
	}

	return getStackTarget(node, stack, "")
}

// GetLocationTarget is GetTarget for a location relative to node.
func GetLocationTarget(node *yaml.Node, location string) (*yaml.Node, error) {
	return GetTarget(node, FromLocation(location))
}

func getStackTarget(node *yaml.Node, stack []navigationPart, currentPath string) (*yaml.Node, error) {
	node = resolve(node)
	if node == nil {
		return nil, ErrNotFound.Wrap(fmt.Errorf("yaml node is nil at %s", pathOrRoot(currentPath)))
	}

	if len(stack) == 0 {
		return node, nil
	}

	currentPart := stack[0]
	stack = stack[1:]
	currentPath += "/" + currentPart.Value

	switch node.Kind {
	case yaml.MappingNode:
		return getMappingTarget(node, currentPart, stack, currentPath)
	case yaml.SequenceNode:
		return getSequenceTarget(node, currentPart, stack, currentPath)
	case yaml.ScalarNode:
		return nil, ErrInvalidPath.Wrap(fmt.Errorf("cannot navigate through scalar yaml node at %s", currentPath))
	default:
		return nil, ErrInvalidPath.Wrap(fmt.Errorf("unsupported yaml node kind %v at %s", node.Kind, currentPath))
	}
}

func getMappingTarget(node *yaml.Node, currentPart navigationPart, stack []navigationPart, currentPath string) (*yaml.Node, error) {
	key := currentPart.unescapeValue()

	// numeric looking tokens are plain keys inside a mapping
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := resolve(node.Content[i])
		if keyNode != nil && keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return getStackTarget(node.Content[i+1], stack, currentPath)
		}
	}

	// <<: *alias
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		if keyNode.Kind != yaml.ScalarNode || keyNode.Value != "<<" {
			continue
		}

		merged := resolve(node.Content[i+1])
		if merged != nil && merged.Kind == yaml.MappingNode {
			if target, err := getMappingTarget(merged, currentPart, stack, currentPath); err == nil {
				return target, nil
			}
		}
	}

	return nil, ErrNotFound.Wrap(fmt.Errorf("key %s not found in yaml mapping at %s", key, currentPath))
}

func getSequenceTarget(node *yaml.Node, currentPart navigationPart, stack []navigationPart, currentPath string) (*yaml.Node, error) {
	index, ok := currentPart.getIndex()
	if !ok {
		return nil, ErrInvalidPath.Wrap(fmt.Errorf("expected index, got %s at %s", currentPart.Type, currentPath))
	}

	if index < 0 || index >= len(node.Content) {
		return nil, ErrNotFound.Wrap(fmt.Errorf("index %d out of range for yaml sequence of length %d at %s", index, len(node.Content), currentPath))
	}

	return getStackTarget(node.Content[index], stack, currentPath)
}

func resolve(node *yaml.Node) *yaml.Node {
	for node != nil {
		switch node.Kind {
		case yaml.AliasNode:
			node = node.Alias
		case yaml.DocumentNode:
			if len(node.Content) == 0 {
				return nil
			}
			node = node.Content[0]
		default:
			return node
		}
	}
	return nil
}

func unescapeStack(stack []navigationPart) []string {
	parts := make([]string, len(stack))
	for i, part := range stack {
		parts[i] = part.unescapeValue()
	}
	return parts
}

func pathOrRoot(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

// EscapeString escapes a string for use as a reference token in a JSON pointer according to RFC6901.
// It replaces "~" with "~0" and "/" with "~1".
func EscapeString(s string) string {
	return escape(s)
}

// UnescapeString reverses EscapeString.
func UnescapeString(s string) string {
	return unescape(s)
}

func escape(part string) string {
	return strings.ReplaceAll(strings.ReplaceAll(part, "~", "~0"), "/", "~1")
}

func unescape(part string) string {
	return strings.ReplaceAll(strings.ReplaceAll(part, "~1", "/"), "~0", "~")
}
