package yml

import "gopkg.in/yaml.v3"

// Clone returns a deep copy of node that shares no memory with the original.
// Aliases are expanded in place, merge keys are flattened and anchors are dropped,
// so edits to one branch of the copy can never leak into another.
func Clone(node *yaml.Node) *yaml.Node {
	return cloneNode(node, map[*yaml.Node]bool{})
}

func cloneNode(node *yaml.Node, active map[*yaml.Node]bool) *yaml.Node {
	if node == nil {
		return nil
	}

	if node.Kind == yaml.AliasNode {
		target := node.Alias
		if target == nil || active[target] {
			// recursive alias, keep an empty value of the same kind
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		}
		return cloneNode(target, active)
	}

	if active[node] {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
	active[node] = true
	defer delete(active, node)

	out := &yaml.Node{
		Kind:        node.Kind,
		Style:       node.Style,
		Tag:         node.Tag,
		Value:       node.Value,
		HeadComment: node.HeadComment,
		LineComment: node.LineComment,
		FootComment: node.FootComment,
		Line:        node.Line,
		Column:      node.Column,
	}

	content := node.Content
	if node.Kind == yaml.MappingNode {
		content = ResolveMergeKeys(content)
	}

	if len(content) > 0 {
		out.Content = make([]*yaml.Node, 0, len(content))
		for _, child := range content {
			out.Content = append(out.Content, cloneNode(child, active))
		}
	}

	return out
}
