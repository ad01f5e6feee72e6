// Package cache memoises embeddings of repeated texts.
//
// Retrieval embeds every incoming query; the same questions tend to be
// asked repeatedly, so their vectors are kept in a bounded LRU.
package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// Embedder wraps another Embedder with an LRU cache keyed by text.
type Embedder struct {
	next  driven.Embedder
	cache *lru.Cache[string, []float32]
}

// New wraps next with a cache holding up to size vectors.
func New(next driven.Embedder, size int) (*Embedder, error) {
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &Embedder{next: next, cache: c}, nil
}

// Embed returns the cached vector for text, embedding it on a miss.
// Failures are not cached.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		logger.Debug("embedding cache hit (%d chars)", len(text))
		return clone(v), nil
	}

	v, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(text, clone(v))
	return v, nil
}

// Len returns the number of cached vectors.
func (e *Embedder) Len() int {
	return e.cache.Len()
}

// ModelName returns the wrapped model name.
func (e *Embedder) ModelName() string {
	return e.next.ModelName()
}

// Ping pings the wrapped embedder.
func (e *Embedder) Ping(ctx context.Context) error {
	return e.next.Ping(ctx)
}

// Close purges the cache and closes the wrapped embedder.
func (e *Embedder) Close() error {
	e.cache.Purge()
	return e.next.Close()
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
