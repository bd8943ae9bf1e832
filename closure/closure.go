// Package closure computes the transitive set of components referenced from a part of an OpenAPI document.
package closure

import (
	"slices"

	"github.com/specslim/specslim/references"
	"github.com/specslim/specslim/sequencedmap"
	"github.com/specslim/specslim/yml"
	"gopkg.in/yaml.v3"
)

// preferredTypes are rendered first, in this order; other component types follow in source order.
var preferredTypes = []string{"schemas", "parameters", "responses", "requestBodies"}

// Closure holds copies of the components reachable from a set of entry nodes, grouped by component type.
type Closure struct {
	components *sequencedmap.Map[string, *sequencedmap.Map[string, *yaml.Node]]
	// sourceOrder is the order component types appeared in the source components mapping.
	sourceOrder []string
	dangling    *sequencedmap.Map[references.Reference, struct{}]
}

// New returns an empty closure.
func New() *Closure {
	return &Closure{
		components: sequencedmap.New[string, *sequencedmap.Map[string, *yaml.Node]](),
		dangling:   sequencedmap.New[references.Reference, struct{}](),
	}
}

// Build copies every component reachable from the entry nodes out of components.
//
// Reachability is computed with a FIFO worklist and a set of processed components,
// so components that reference each other are copied once and the walk always ends.
// References to components that do not exist are skipped and listed by Dangling.
// References to other documents and to non-component locations are ignored.
func Build(components *yaml.Node, entry ...*yaml.Node) *Closure {
	c := New()
	c.sourceOrder = yml.MapKeys(components)

	var queue []references.Reference
	for _, node := range entry {
		for _, o := range references.Scan(node) {
			queue = append(queue, o.Ref)
		}
	}

	processed := map[string]struct{}{}

	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]

		componentType, name, ok := ref.Component()
		if !ok {
			continue
		}

		key := componentType + "/" + name
		if _, seen := processed[key]; seen {
			continue
		}

		body := yml.GetMapValue(yml.GetMapValue(components, componentType), name)
		if body == nil {
			c.dangling.Set(ref, struct{}{})
			continue
		}
		processed[key] = struct{}{}

		clone := yml.Clone(body)
		c.Add(componentType, name, clone)

		for _, o := range references.Scan(clone) {
			queue = append(queue, o.Ref)
		}
	}

	return c
}

// Add stores body under the component type and name, replacing any previous entry.
func (c *Closure) Add(componentType, name string, body *yaml.Node) {
	bucket := c.components.GetOrSet(componentType, sequencedmap.New[string, *yaml.Node]())
	bucket.Set(name, body)
}

// Get returns the stored body of a component.
func (c *Closure) Get(componentType, name string) (*yaml.Node, bool) {
	bucket, ok := c.components.Get(componentType)
	if !ok {
		return nil, false
	}
	return bucket.Get(name)
}

// Has reports whether the closure contains the component.
func (c *Closure) Has(componentType, name string) bool {
	_, ok := c.Get(componentType, name)
	return ok
}

// Len returns the number of components in the closure.
func (c *Closure) Len() int {
	total := 0
	for bucket := range c.components.Values() {
		total += bucket.Len()
	}
	return total
}

// Types returns the non-empty component types in output order.
func (c *Closure) Types() []string {
	var types []string
	add := func(t string) {
		if slices.Contains(types, t) {
			return
		}
		if bucket, ok := c.components.Get(t); ok && bucket.Len() > 0 {
			types = append(types, t)
		}
	}

	for _, t := range preferredTypes {
		add(t)
	}
	for _, t := range c.sourceOrder {
		add(t)
	}
	for t := range c.components.Keys() {
		add(t)
	}

	return types
}

// Names returns the component names of a type sorted ascending.
func (c *Closure) Names(componentType string) []string {
	bucket, ok := c.components.Get(componentType)
	if !ok {
		return nil
	}
	return slices.Sorted(bucket.Keys())
}

// Dangling returns the references that named missing components, sorted and unique.
func (c *Closure) Dangling() []references.Reference {
	return slices.Sorted(c.dangling.Keys())
}

// Merge adds every component of other to c. Components of other win on name collisions.
func (c *Closure) Merge(other *Closure) {
	if other == nil {
		return
	}

	for _, t := range other.sourceOrder {
		if !slices.Contains(c.sourceOrder, t) {
			c.sourceOrder = append(c.sourceOrder, t)
		}
	}

	for componentType, bucket := range other.components.All() {
		for name, body := range bucket.All() {
			c.Add(componentType, name, body)
		}
	}

	for ref := range other.dangling.Keys() {
		c.dangling.Set(ref, struct{}{})
	}
}

// Node renders the closure as a components mapping.
// Bodies are copied so the result can be edited freely.
func (c *Closure) Node() *yaml.Node {
	root := yml.CreateMapNode(nil)

	for _, componentType := range c.Types() {
		bucket, _ := c.components.Get(componentType)

		typeNode := yml.CreateMapNode(nil)
		for _, name := range c.Names(componentType) {
			body, _ := bucket.Get(name)
			typeNode.Content = append(typeNode.Content, yml.CreateStringNode(name), yml.Clone(body))
		}

		root.Content = append(root.Content, yml.CreateStringNode(componentType), typeNode)
	}

	return root
}
