package document

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/specslim/specslim/system"
	"golang.org/x/sync/errgroup"
)

// DefaultCacheSize is the number of parsed documents a Cache keeps.
const DefaultCacheSize = 64

// Loader loads a document by path.
type Loader interface {
	Load(ctx context.Context, path string) (*Document, error)
}

// FSLoader loads straight from a filesystem.
type FSLoader struct {
	FS system.VirtualFS
}

var _ Loader = (*FSLoader)(nil)

func (l *FSLoader) Load(ctx context.Context, path string) (*Document, error) {
	return Load(ctx, l.FS, path)
}

// LoadAll loads every path concurrently and returns the documents in the order of paths.
// The first failure cancels the remaining loads.
func LoadAll(ctx context.Context, loader Loader, paths []string) ([]*Document, error) {
	docs := make([]*Document, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			doc, err := loader.Load(ctx, path)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return docs, nil
}

// Cache memoises parsed documents by path so batch runs sharing sources parse each one once.
// Callers always receive their own copy.
type Cache struct {
	loader Loader
	docs   *lru.Cache[string, *Document]
}

var _ Loader = (*Cache)(nil)

// NewCache wraps loader with an LRU cache of the given size. A non-positive size uses DefaultCacheSize.
func NewCache(loader Loader, size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	docs, err := lru.New[string, *Document](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create document cache: %w", err)
	}

	return &Cache{loader: loader, docs: docs}, nil
}

func (c *Cache) Load(ctx context.Context, path string) (*Document, error) {
	if doc, ok := c.docs.Get(path); ok {
		return doc.Clone(), nil
	}

	doc, err := c.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	c.docs.Add(path, doc)

	return doc.Clone(), nil
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	return c.docs.Len()
}
