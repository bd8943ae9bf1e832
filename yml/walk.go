package yml

import (
	"context"
	"strconv"

	"github.com/specslim/specslim/errors"
	"gopkg.in/yaml.v3"
)

const (
	// ErrTerminate is a sentinel error that can be returned from a VisitFunc to stop the walk early.
	ErrTerminate = errors.Error("terminate")
	// ErrSkipChildren can be returned from a VisitFunc to skip the children of the current node.
	ErrSkipChildren = errors.Error("skip children")
)

// VisitFunc is called for every value node in the walked tree.
// path holds the mapping keys and sequence indices leading from the walk root to node;
// it is reused between calls and must be copied if retained.
type VisitFunc func(ctx context.Context, node, parent *yaml.Node, path []string) error

// Walk visits node and every value node below it in document order.
// Mapping keys are not visited; they appear as path segments instead.
// Document nodes are transparent, alias nodes are followed and merge keys are flattened,
// so paths match the ones in a Clone of the tree. An alias back into a node that is
// still being walked is skipped.
func Walk(ctx context.Context, node *yaml.Node, visit VisitFunc) error {
	w := walker{visit: visit, active: map[*yaml.Node]bool{}}
	err := w.walk(ctx, Unwrap(node), nil, make([]string, 0, 16))
	if errors.Is(err, ErrTerminate) {
		return nil
	}

	return err
}

type walker struct {
	visit  VisitFunc
	active map[*yaml.Node]bool
}

func (w *walker) walk(ctx context.Context, node, parent *yaml.Node, path []string) error {
	node = ResolveAlias(node)
	if node == nil || w.active[node] {
		return nil
	}
	w.active[node] = true
	defer delete(w.active, node)

	if err := w.visit(ctx, node, parent, path); err != nil {
		if errors.Is(err, ErrSkipChildren) {
			return nil
		}
		return err
	}

	switch node.Kind {
	case yaml.MappingNode:
		content := ResolveMergeKeys(node.Content)
		for i := 0; i+1 < len(content); i += 2 {
			key := ResolveAlias(content[i])
			if err := w.walk(ctx, content[i+1], node, append(path, key.Value)); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		for i, child := range node.Content {
			if err := w.walk(ctx, child, node, append(path, strconv.Itoa(i))); err != nil {
				return err
			}
		}
	}

	return nil
}
