package execute

import "sync"

// EmbeddingCache is a bounded LRU (oldest-first eviction) cache of query
// text -> embedding vector, per spec.md §4.8's "Write results into the
// cache (LRU eviction)" and grounded on the teacher's token_cache.go pattern.
type EmbeddingCache struct {
	mu       sync.Mutex
	maxSize  int
	order    []string
	vectors  map[string][]float32
}

func NewEmbeddingCache(maxSize int) *EmbeddingCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &EmbeddingCache{maxSize: maxSize, vectors: map[string][]float32{}}
}

func (c *EmbeddingCache) Get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vectors[key]
	return v, ok
}

func (c *EmbeddingCache) Put(key string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.vectors[key]; !exists {
		if len(c.order) >= c.maxSize {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.vectors, oldest)
		}
		c.order = append(c.order, key)
	}
	c.vectors[key] = vec
}
