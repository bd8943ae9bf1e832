package shorten

import (
	"slices"
	"strings"

	"github.com/specslim/specslim/yml"
	"gopkg.in/yaml.v3"
)

// securitySchemeNames returns the scheme names used by a security requirement list and by
// the operations of paths, in first-seen order.
func securitySchemeNames(security, paths *yaml.Node) []string {
	var names []string
	add := func(requirements *yaml.Node) {
		requirements = yml.ResolveAlias(requirements)
		if requirements == nil || requirements.Kind != yaml.SequenceNode {
			return
		}
		for _, requirement := range requirements.Content {
			for _, name := range yml.MapKeys(requirement) {
				if !slices.Contains(names, name) {
					names = append(names, name)
				}
			}
		}
	}

	add(security)

	for _, path := range yml.MapKeys(paths) {
		item := yml.GetMapValue(paths, path)
		for _, key := range yml.MapKeys(item) {
			if slices.Contains(httpMethods, strings.ToLower(key)) {
				add(yml.GetMapValue(yml.GetMapValue(item, key), "security"))
			}
		}
	}

	return names
}
