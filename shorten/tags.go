package shorten

import (
	"slices"

	"github.com/specslim/specslim/yml"
	"gopkg.in/yaml.v3"
)

// FilterTags returns a copy of the tags sequence keeping the tag objects whose name is in allow,
// in source order. A nil allow list keeps every tag. It returns nil when nothing is kept.
func FilterTags(tags *yaml.Node, allow []string) *yaml.Node {
	tags = yml.ResolveAlias(tags)
	if tags == nil || tags.Kind != yaml.SequenceNode {
		return nil
	}

	out := yml.CreateSequenceNode(nil)
	for _, tag := range tags.Content {
		name := yml.GetMapValue(tag, "name")
		if allow != nil && (name == nil || !slices.Contains(allow, name.Value)) {
			continue
		}
		out.Content = append(out.Content, yml.Clone(tag))
	}

	if len(out.Content) == 0 {
		return nil
	}
	return out
}
