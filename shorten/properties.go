package shorten

import (
	"github.com/specslim/specslim/closure"
	"github.com/specslim/specslim/sequencedmap"
	"github.com/specslim/specslim/yml"
	"gopkg.in/yaml.v3"
)

// RemoveComponentProperties deletes properties from the named components of every type in c.
//
// Each name is removed from the component itself and from its properties mapping; a component
// without properties has the name removed from the properties of each allOf member instead.
// Components or properties that do not exist are ignored. It returns the number of keys removed.
func RemoveComponentProperties(c *closure.Closure, remove *sequencedmap.Map[string, []string]) int {
	removed := 0

	for name, props := range remove.All() {
		for _, componentType := range c.Types() {
			component, ok := c.Get(componentType, name)
			if !ok {
				continue
			}
			removed += removeProperties(component, props)
		}
	}

	return removed
}

func removeProperties(component *yaml.Node, props []string) int {
	removed := 0

	for _, prop := range props {
		if yml.DeleteMapNodeElement(component, prop) {
			removed++
		}
	}

	if properties := yml.GetMapValue(component, "properties"); properties != nil {
		for _, prop := range props {
			if yml.DeleteMapNodeElement(properties, prop) {
				removed++
			}
		}
		return removed
	}

	allOf := yml.GetMapValue(component, "allOf")
	if allOf == nil || allOf.Kind != yaml.SequenceNode {
		return removed
	}

	for _, member := range allOf.Content {
		properties := yml.GetMapValue(member, "properties")
		if properties == nil {
			continue
		}
		for _, prop := range props {
			if yml.DeleteMapNodeElement(properties, prop) {
				removed++
			}
		}
	}

	return removed
}
