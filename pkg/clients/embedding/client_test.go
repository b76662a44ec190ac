package embedding

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type EmbeddingClientTest struct {
	suite.Suite
}

func (e *EmbeddingClientTest) TestLRUCachePutGet() {
	cache := NewLRUCache(3)

	cache.Put("a", []float64{1})
	cache.Put("b", []float64{2})

	got, ok := cache.Get("a")
	e.True(ok)
	e.Equal([]float64{1}, got)

	_, ok = cache.Get("missing")
	e.False(ok)
}

func (e *EmbeddingClientTest) TestLRUCacheEviction() {
	cache := NewLRUCache(2)

	cache.Put("a", []float64{1})
	cache.Put("b", []float64{2})

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := cache.Get("a")
	e.True(ok)

	cache.Put("c", []float64{3})

	_, ok = cache.Get("b")
	e.False(ok, "least recently used entry should be evicted")

	_, ok = cache.Get("a")
	e.True(ok)
	_, ok = cache.Get("c")
	e.True(ok)
}

func (e *EmbeddingClientTest) TestLRUCacheUpdateExisting() {
	cache := NewLRUCache(2)

	cache.Put("a", []float64{1})
	cache.Put("a", []float64{9})

	got, ok := cache.Get("a")
	e.True(ok)
	e.Equal([]float64{9}, got)
}

func (e *EmbeddingClientTest) TestVectorToString() {
	e.Equal("[]", VectorToString(nil))
	e.Equal("[0.500000]", VectorToString([]float64{0.5}))
	e.Equal("[1.000000,-2.000000]", VectorToString([]float64{1, -2}))
}

func TestEmbeddingClient(t *testing.T) {
	suite.Run(t, new(EmbeddingClientTest))
}
