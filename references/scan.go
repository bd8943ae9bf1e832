package references

import (
	"context"

	"github.com/specslim/specslim/jsonpointer"
	"github.com/specslim/specslim/yml"
	"gopkg.in/yaml.v3"
)

// RefKey is the mapping key that marks a reference.
const RefKey = "$ref"

// Occurrence is a single $ref found in a document tree.
type Occurrence struct {
	Ref Reference
	// Location is the path from the scan root to the mapping holding the $ref key,
	// tokens escaped as in a JSON pointer and joined by "/" without a leading slash.
	// It is empty when the scan root itself is the reference mapping.
	Location string
}

// Scan returns every reference below node in document order.
func Scan(node *yaml.Node) []Occurrence {
	var found []Occurrence
	ScanFunc(node, func(o Occurrence) bool {
		found = append(found, o)
		return true
	})
	return found
}

// ScanFunc calls fn for every reference below node in document order until fn returns false.
func ScanFunc(node *yaml.Node, fn func(Occurrence) bool) {
	_ = yml.Walk(context.Background(), node, func(_ context.Context, n, _ *yaml.Node, path []string) error {
		if n.Kind != yaml.MappingNode {
			return nil
		}

		ref, ok := RefValue(n)
		if !ok {
			return nil
		}

		if !fn(Occurrence{Ref: ref, Location: jsonpointer.JoinLocation(path)}) {
			return yml.ErrTerminate
		}
		return nil
	})
}

// RefValue returns the $ref held directly by a mapping node.
func RefValue(node *yaml.Node) (Reference, bool) {
	value := yml.GetMapValue(node, RefKey)
	if value == nil || value.Kind != yaml.ScalarNode || value.ShortTag() != "!!str" {
		return "", false
	}
	return Reference(value.Value), true
}
