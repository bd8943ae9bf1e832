package yml

import (
	"gopkg.in/yaml.v3"
)

// Unwrap returns the root content of a document node, or node itself for any other kind.
func Unwrap(node *yaml.Node) *yaml.Node {
	if node != nil && node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		return node.Content[0]
	}
	return node
}

func ResolveAlias(node *yaml.Node) *yaml.Node {
	if node == nil {
		return nil
	}

	switch node.Kind {
	case yaml.AliasNode:
		return ResolveAlias(node.Alias)
	default:
		return node
	}
}

func CreateStringNode(value string) *yaml.Node {
	return &yaml.Node{
		Value: value,
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
	}
}

func CreateMapNode(content []*yaml.Node) *yaml.Node {
	return &yaml.Node{
		Content: content,
		Kind:    yaml.MappingNode,
		Tag:     "!!map",
	}
}

func CreateSequenceNode(elements []*yaml.Node) *yaml.Node {
	return &yaml.Node{
		Content: elements,
		Kind:    yaml.SequenceNode,
		Tag:     "!!seq",
	}
}

// IsMapping reports whether node resolves to a mapping.
func IsMapping(node *yaml.Node) bool {
	resolved := ResolveAlias(node)
	return resolved != nil && resolved.Kind == yaml.MappingNode
}

// GetMapElementNodes returns the key and value nodes stored under key in mapNode.
func GetMapElementNodes(mapNode *yaml.Node, key string) (*yaml.Node, *yaml.Node, bool) {
	resolvedMapNode := ResolveAlias(mapNode)
	if resolvedMapNode == nil {
		return nil, nil, false
	}

	if resolvedMapNode.Kind != yaml.MappingNode {
		return nil, nil, false
	}

	for i := 0; i+1 < len(resolvedMapNode.Content); i += 2 {
		keyNode := resolvedMapNode.Content[i]
		if keyNode.Value == key {
			return keyNode, resolvedMapNode.Content[i+1], true
		}
		// alias keys like *keyAlias
		if resolvedKeyNode := ResolveAlias(keyNode); resolvedKeyNode != nil && resolvedKeyNode.Value == key {
			return keyNode, resolvedMapNode.Content[i+1], true
		}
	}

	return nil, nil, false
}

// GetMapValue is GetMapElementNodes returning only the resolved value node.
func GetMapValue(mapNode *yaml.Node, key string) *yaml.Node {
	_, valueNode, ok := GetMapElementNodes(mapNode, key)
	if !ok {
		return nil
	}
	return ResolveAlias(valueNode)
}

// SetMapNodeElement replaces the value stored under key or appends a new pair.
func SetMapNodeElement(mapNode *yaml.Node, key string, valueNode *yaml.Node) {
	resolvedMapNode := ResolveAlias(mapNode)
	if resolvedMapNode == nil || resolvedMapNode.Kind != yaml.MappingNode {
		return
	}

	for i := 0; i+1 < len(resolvedMapNode.Content); i += 2 {
		if resolveKeyValue(resolvedMapNode.Content[i]) == key {
			resolvedMapNode.Content[i+1] = valueNode
			return
		}
	}

	resolvedMapNode.Content = append(resolvedMapNode.Content, CreateStringNode(key), valueNode)
}

// DeleteMapNodeElement removes key from mapNode, reporting whether it was present.
func DeleteMapNodeElement(mapNode *yaml.Node, key string) bool {
	resolvedMapNode := ResolveAlias(mapNode)
	if resolvedMapNode == nil || resolvedMapNode.Kind != yaml.MappingNode {
		return false
	}

	for i := 0; i+1 < len(resolvedMapNode.Content); i += 2 {
		if resolveKeyValue(resolvedMapNode.Content[i]) == key {
			resolvedMapNode.Content = append(resolvedMapNode.Content[:i], resolvedMapNode.Content[i+2:]...)
			return true
		}
	}

	return false
}

// MapKeys returns the keys of mapNode in document order.
func MapKeys(mapNode *yaml.Node) []string {
	resolvedMapNode := ResolveAlias(mapNode)
	if resolvedMapNode == nil || resolvedMapNode.Kind != yaml.MappingNode {
		return nil
	}

	keys := make([]string, 0, len(resolvedMapNode.Content)/2)
	for i := 0; i+1 < len(resolvedMapNode.Content); i += 2 {
		keys = append(keys, resolveKeyValue(resolvedMapNode.Content[i]))
	}
	return keys
}

// IsMergeKey returns true if the given node is a YAML merge key (<<).
func IsMergeKey(node *yaml.Node) bool {
	return node != nil && node.Kind == yaml.ScalarNode && node.Tag == "!!merge" && node.Value == "<<"
}

// ResolveMergeKeys processes a mapping node's content and expands any YAML merge keys (<<).
// Explicit keys in the mapping take precedence over merged keys.
func ResolveMergeKeys(content []*yaml.Node) []*yaml.Node {
	return resolveMergeKeys(content, nil)
}

func resolveKeyValue(node *yaml.Node) string {
	resolved := ResolveAlias(node)
	if resolved == nil {
		return node.Value
	}
	return resolved.Value
}

func resolveMergeKeys(content []*yaml.Node, seen map[*yaml.Node]bool) []*yaml.Node {
	// trailing orphan key
	if len(content)%2 == 1 {
		content = content[:len(content)-1]
	}
	if len(content) < 2 {
		return content
	}

	hasMergeKey := false
	explicitKeys := make(map[string]struct{})

	for i := 0; i < len(content); i += 2 {
		if IsMergeKey(content[i]) {
			hasMergeKey = true
		} else {
			explicitKeys[resolveKeyValue(content[i])] = struct{}{}
		}
	}
	if !hasMergeKey {
		return content
	}

	var mergedContent []*yaml.Node
	seenMerged := make(map[string]struct{})

	for i := 0; i < len(content); i += 2 {
		if !IsMergeKey(content[i]) {
			continue
		}

		resolved := ResolveAlias(content[i+1])
		if resolved == nil {
			continue
		}

		collectMergedPairs(resolved, explicitKeys, seenMerged, &mergedContent, seen)
	}

	result := make([]*yaml.Node, 0, len(mergedContent)+len(content))
	result = append(result, mergedContent...)

	for i := 0; i < len(content); i += 2 {
		if IsMergeKey(content[i]) {
			continue
		}
		result = append(result, content[i], content[i+1])
	}

	return result
}

func collectMergedPairs(node *yaml.Node, explicitKeys, seenMerged map[string]struct{}, out *[]*yaml.Node, seen map[*yaml.Node]bool) {
	switch node.Kind {
	case yaml.MappingNode:
		if seen == nil {
			seen = make(map[*yaml.Node]bool)
		}
		if seen[node] {
			return
		}
		seen[node] = true

		flatContent := resolveMergeKeys(node.Content, seen)

		for j := 0; j < len(flatContent); j += 2 {
			key := resolveKeyValue(flatContent[j])
			if _, isExplicit := explicitKeys[key]; isExplicit {
				continue
			}
			if _, alreadyMerged := seenMerged[key]; alreadyMerged {
				continue
			}
			*out = append(*out, flatContent[j], flatContent[j+1])
			seenMerged[key] = struct{}{}
		}
	case yaml.SequenceNode:
		// <<: [*alias1, *alias2]
		for _, item := range node.Content {
			resolvedItem := ResolveAlias(item)
			if resolvedItem == nil || resolvedItem.Kind != yaml.MappingNode {
				continue
			}
			collectMergedPairs(resolvedItem, explicitKeys, seenMerged, out, seen)
		}
	}
}

// EqualNodes compares two yaml.Node instances for equality.
// It performs a deep comparison of the essential fields.
func EqualNodes(a, b *yaml.Node) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	resolvedA := ResolveAlias(a)
	resolvedB := ResolveAlias(b)

	if resolvedA == nil && resolvedB == nil {
		return true
	}
	if resolvedA == nil || resolvedB == nil {
		return false
	}

	if resolvedA.Kind != resolvedB.Kind {
		return false
	}
	if resolvedA.Tag != resolvedB.Tag {
		return false
	}
	if resolvedA.Value != resolvedB.Value {
		return false
	}

	if len(resolvedA.Content) != len(resolvedB.Content) {
		return false
	}
	for i, contentA := range resolvedA.Content {
		if !EqualNodes(contentA, resolvedB.Content[i]) {
			return false
		}
	}

	return true
}
