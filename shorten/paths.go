package shorten

import (
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/specslim/specslim/sequencedmap"
	"github.com/specslim/specslim/yml"
	"gopkg.in/yaml.v3"
)

// AllMethods selects every operation of a path.
const AllMethods = "*"

// httpMethods are the operation keys of a path item.
var httpMethods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace", "query"}

// sharedPathItemFields apply to every operation of a path item and are kept with any of them.
var sharedPathItemFields = []string{"$ref", "summary", "description", "servers", "parameters"}

// PathSelection names a path, or a doublestar glob over paths, and the methods to keep under it.
type PathSelection struct {
	Path    string
	Methods []string
}

// IsGlob reports whether the selection matches paths by pattern.
func (s PathSelection) IsGlob() bool {
	return strings.Contains(s.Path, "*")
}

func (s PathSelection) matches(path string) bool {
	if !s.IsGlob() {
		return s.Path == path
	}

	// path templates are literal, not alternation groups
	pattern := strings.NewReplacer("{", `\{`, "}", `\}`).Replace(s.Path)
	ok, err := doublestar.Match(pattern, path)
	return err == nil && ok
}

// ExtractPaths copies the selected operations of doc's paths into a new paths mapping.
//
// Methods are matched case-insensitively and copied in the order they were requested,
// after the path item fields shared by all operations. Paths and methods missing from doc
// are skipped with a warning, and a path left without operations is omitted.
func ExtractPaths(doc *yaml.Node, selections []PathSelection) (*yaml.Node, []Warning) {
	extracted := sequencedmap.New[string, *yaml.Node]()
	var warnings []Warning

	srcPaths := yml.GetMapValue(yml.Unwrap(doc), "paths")

	for _, sel := range selections {
		items, w := extractSelection(srcPaths, sel)
		warnings = append(warnings, w...)
		for path, item := range items.All() {
			mergePathItem(extracted, path, item)
		}
	}

	return renderPaths(extracted), warnings
}

// extractSelection returns the path items sel selects from srcPaths, keyed by path in source order.
func extractSelection(srcPaths *yaml.Node, sel PathSelection) (*sequencedmap.Map[string, *yaml.Node], []Warning) {
	items := sequencedmap.New[string, *yaml.Node]()
	var warnings []Warning

	matched := false
	for _, path := range yml.MapKeys(srcPaths) {
		if !sel.matches(path) {
			continue
		}
		matched = true

		item := extractPathItem(yml.GetMapValue(srcPaths, path), sel.Methods)
		if item == nil {
			warnings = append(warnings, newWarning(WarningMissingMethods, path,
				"none of the methods %s exist", strings.Join(sel.Methods, ", ")))
			continue
		}
		items.Set(path, item)
	}

	if !matched {
		warnings = append(warnings, newWarning(WarningMissingPath, sel.Path, "path not found"))
	}

	return items, warnings
}

// extractPathItem copies the shared fields and the requested operations of item.
// It returns nil when no requested operation exists.
func extractPathItem(item *yaml.Node, methods []string) *yaml.Node {
	if !yml.IsMapping(item) {
		return nil
	}

	var operations []*yaml.Node
	for _, method := range expandMethods(item, methods) {
		keyNode, valueNode := findMethod(item, method)
		if keyNode == nil {
			continue
		}
		operations = append(operations, yml.CreateStringNode(keyNode.Value), yml.Clone(valueNode))
	}

	if len(operations) == 0 {
		return nil
	}

	out := yml.CreateMapNode(nil)
	for _, key := range yml.MapKeys(item) {
		if slices.Contains(sharedPathItemFields, key) {
			out.Content = append(out.Content, yml.CreateStringNode(key), yml.Clone(yml.GetMapValue(item, key)))
		}
	}
	out.Content = append(out.Content, operations...)

	return out
}

func expandMethods(item *yaml.Node, methods []string) []string {
	if !slices.Contains(methods, AllMethods) {
		return methods
	}

	var all []string
	for _, key := range yml.MapKeys(item) {
		if slices.Contains(httpMethods, strings.ToLower(key)) {
			all = append(all, key)
		}
	}
	return all
}

func findMethod(item *yaml.Node, method string) (*yaml.Node, *yaml.Node) {
	for i := 0; i+1 < len(item.Content); i += 2 {
		key := yml.ResolveAlias(item.Content[i])
		if strings.EqualFold(key.Value, method) && slices.Contains(httpMethods, strings.ToLower(key.Value)) {
			return key, item.Content[i+1]
		}
	}
	return nil, nil
}

// mergePathItem adds item under path, merging operations into an item selected earlier.
func mergePathItem(paths *sequencedmap.Map[string, *yaml.Node], path string, item *yaml.Node) {
	existing, ok := paths.Get(path)
	if !ok {
		paths.Set(path, item)
		return
	}

	for i := 0; i+1 < len(item.Content); i += 2 {
		key := item.Content[i].Value
		if _, _, found := yml.GetMapElementNodes(existing, key); found {
			continue
		}
		existing.Content = append(existing.Content, item.Content[i], item.Content[i+1])
	}
}

func renderPaths(paths *sequencedmap.Map[string, *yaml.Node]) *yaml.Node {
	out := yml.CreateMapNode(nil)
	for path, item := range paths.All() {
		out.Content = append(out.Content, yml.CreateStringNode(path), item)
	}
	return out
}

// operationCount counts the operations of a rendered paths mapping.
func operationCount(paths *yaml.Node) int {
	count := 0
	for _, path := range yml.MapKeys(paths) {
		for _, key := range yml.MapKeys(yml.GetMapValue(paths, path)) {
			if slices.Contains(httpMethods, strings.ToLower(key)) {
				count++
			}
		}
	}
	return count
}
