// Package cache implements C16 (Caches & Stats): query/LLM LRU-TTL caches,
// the relation-reranker circuit breaker, and running engine statistics.
// Grounded on original_source/retrieval_v3/pipeline/engine_stats.py and the
// teacher's internal/llm/token_cache.go LRU-with-TTL pattern.
package cache

import (
	"sync"
	"time"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
)

// QueryCache is a TTL map keyed on (normalized_query, filter_hash, mode),
// evicting expired entries on Get.
type QueryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]queryCacheEntry
}

type queryCacheEntry struct {
	output    model.RetrievalOutput
	expiresAt time.Time
}

func NewQueryCache(ttl time.Duration) *QueryCache {
	return &QueryCache{ttl: ttl, entries: map[string]queryCacheEntry{}}
}

func (c *QueryCache) Get(key string) (model.RetrievalOutput, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return model.RetrievalOutput{}, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return model.RetrievalOutput{}, false
	}
	return e.output, true
}

func (c *QueryCache) Put(key string, output model.RetrievalOutput) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = queryCacheEntry{output: output, expiresAt: time.Now().Add(c.ttl)}
}

// LRUCache is a bounded oldest-first eviction cache (~100 entries per
// spec.md §4.16). The engine does not construct one; its embedding cache is
// execute.EmbeddingCache.
type LRUCache struct {
	mu      sync.Mutex
	maxSize int
	order   []string
	values  map[string]any
}

func NewLRUCache(maxSize int) *LRUCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &LRUCache{maxSize: maxSize, values: map[string]any{}}
}

func (c *LRUCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *LRUCache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.values[key]; !exists {
		if len(c.order) >= c.maxSize {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.values, oldest)
		}
		c.order = append(c.order, key)
	}
	c.values[key] = value
}

// CircuitBreaker gates C12's phases 2-4 (and governs Phase 1's 1-hop
// expansion indirectly): it trips after recent cumulative timeouts exceed
// 3, and recovers as clean successes accrue.
type CircuitBreaker struct {
	mu             sync.Mutex
	recentTimeouts int
}

func NewCircuitBreaker() *CircuitBreaker { return &CircuitBreaker{} }

// RecordTimeout increments the cumulative timeout counter.
func (cb *CircuitBreaker) RecordTimeout() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.recentTimeouts++
}

// RecordSuccess decrements the counter on a clean run, floored at 0.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.recentTimeouts > 0 {
		cb.recentTimeouts--
	}
}

// Tripped reports whether phases 2-4 should be skipped on the next query.
func (cb *CircuitBreaker) Tripped() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.recentTimeouts > 3
}

// StageStats tracks count/min/max/mean/p50/p95 for one pipeline stage over
// the most recent 100 samples.
type StageStats struct {
	mu      sync.Mutex
	samples map[string][]time.Duration
}

func NewStageStats() *StageStats {
	return &StageStats{samples: map[string][]time.Duration{}}
}

func (s *StageStats) Record(stage string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.samples[stage], d)
	if len(list) > 100 {
		list = list[len(list)-100:]
	}
	s.samples[stage] = list
}

type StageSummary struct {
	Count int
	Min   time.Duration
	Max   time.Duration
	Mean  time.Duration
	P50   time.Duration
	P95   time.Duration
}

func (s *StageStats) Summary(stage string) StageSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	samples := s.samples[stage]
	if len(samples) == 0 {
		return StageSummary{}
	}
	sorted := append([]time.Duration(nil), samples...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	return StageSummary{
		Count: len(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Mean:  sum / time.Duration(len(sorted)),
		P50:   percentile(sorted, 0.50),
		P95:   percentile(sorted, 0.95),
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

// EngineStats tracks the top-level counters returned alongside each
// RetrievalOutput: total queries, average processing time, cache hits, and
// a bounded window of validation scores.
type EngineStats struct {
	mu               sync.Mutex
	totalQueries     int64
	totalProcessTime time.Duration
	cacheHits        int64
	validationScores []float64
}

func NewEngineStats() *EngineStats { return &EngineStats{} }

func (e *EngineStats) RecordQuery(d time.Duration, cacheHit bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.totalQueries++
	e.totalProcessTime += d
	if cacheHit {
		e.cacheHits++
	}
}

func (e *EngineStats) RecordValidation(score float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.validationScores = append(e.validationScores, score)
	if len(e.validationScores) > 100 {
		e.validationScores = e.validationScores[len(e.validationScores)-100:]
	}
}

type EngineSnapshot struct {
	TotalQueries       int64
	AvgProcessingTime  time.Duration
	CacheHits          int64
	ValidationScoreAvg float64
}

func (e *EngineStats) Snapshot() EngineSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := EngineSnapshot{TotalQueries: e.totalQueries, CacheHits: e.cacheHits}
	if e.totalQueries > 0 {
		snap.AvgProcessingTime = e.totalProcessTime / time.Duration(e.totalQueries)
	}
	if len(e.validationScores) > 0 {
		var sum float64
		for _, s := range e.validationScores {
			sum += s
		}
		snap.ValidationScoreAvg = sum / float64(len(e.validationScores))
	}
	return snap
}
