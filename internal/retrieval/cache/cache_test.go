package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
)

func TestQueryCache_PutThenGet(t *testing.T) {
	t.Parallel()
	c := NewQueryCache(time.Minute)
	out := model.RetrievalOutput{Query: "section 12"}
	c.Put("key", out)

	got, ok := c.Get("key")
	assert.True(t, ok)
	assert.Equal(t, out.Query, got.Query)
}

func TestQueryCache_MissOnUnknownKey(t *testing.T) {
	t.Parallel()
	c := NewQueryCache(time.Minute)
	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestQueryCache_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()
	c := NewQueryCache(time.Millisecond)
	c.Put("key", model.RetrievalOutput{Query: "x"})
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("key")
	assert.False(t, ok, "entry must be evicted once its TTL has elapsed")
}

func TestLRUCache_EvictsOldestOnceFull(t *testing.T) {
	t.Parallel()
	c := NewLRUCache(2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3) // evicts "a"

	_, ok := c.Get("a")
	assert.False(t, ok)

	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestLRUCache_OverwriteDoesNotEvict(t *testing.T) {
	t.Parallel()
	c := NewLRUCache(2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("a", 99)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 99, v)

	_, ok = c.Get("b")
	assert.True(t, ok, "overwriting an existing key must not evict another entry")
}

func TestLRUCache_DefaultsSizeWhenNonPositive(t *testing.T) {
	t.Parallel()
	c := NewLRUCache(0)
	for i := 0; i < 100; i++ {
		c.Put(fmt.Sprintf("key-%d", i), i)
	}
	// Should not panic and the most recent entry must still be retrievable.
	v, ok := c.Get("key-99")
	assert.True(t, ok)
	assert.Equal(t, 99, v)
}

func TestCircuitBreaker_TripsAfterFourTimeouts(t *testing.T) {
	t.Parallel()
	cb := NewCircuitBreaker()
	assert.False(t, cb.Tripped())

	for i := 0; i < 3; i++ {
		cb.RecordTimeout()
	}
	assert.False(t, cb.Tripped(), "must not trip at exactly 3 cumulative timeouts")

	cb.RecordTimeout()
	assert.True(t, cb.Tripped(), "must trip once cumulative timeouts exceed 3")
}

func TestCircuitBreaker_SuccessRecoversTowardUntripped(t *testing.T) {
	t.Parallel()
	cb := NewCircuitBreaker()
	for i := 0; i < 5; i++ {
		cb.RecordTimeout()
	}
	a := assert.New(t)
	a.True(cb.Tripped())

	for i := 0; i < 5; i++ {
		cb.RecordSuccess()
	}
	a.False(cb.Tripped())
}

func TestCircuitBreaker_SuccessFlooredAtZero(t *testing.T) {
	t.Parallel()
	cb := NewCircuitBreaker()
	cb.RecordSuccess()
	cb.RecordSuccess()
	assert.False(t, cb.Tripped())
}

func TestStageStats_SummaryReflectsRecordedSamples(t *testing.T) {
	t.Parallel()
	s := NewStageStats()
	for _, d := range []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond} {
		s.Record("dense", d)
	}
	summary := s.Summary("dense")
	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, 10*time.Millisecond, summary.Min)
	assert.Equal(t, 30*time.Millisecond, summary.Max)
	assert.Equal(t, 20*time.Millisecond, summary.Mean)
}

func TestStageStats_UnknownStageIsZeroValue(t *testing.T) {
	t.Parallel()
	s := NewStageStats()
	assert.Equal(t, StageSummary{}, s.Summary("never recorded"))
}

func TestEngineStats_SnapshotAveragesCorrectly(t *testing.T) {
	t.Parallel()
	e := NewEngineStats()
	e.RecordQuery(100*time.Millisecond, false)
	e.RecordQuery(200*time.Millisecond, true)

	snap := e.Snapshot()
	assert.Equal(t, int64(2), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.CacheHits)
	assert.Equal(t, 150*time.Millisecond, snap.AvgProcessingTime)
}

func TestEngineStats_ValidationScoreAverage(t *testing.T) {
	t.Parallel()
	e := NewEngineStats()
	e.RecordValidation(0.8)
	e.RecordValidation(0.6)
	snap := e.Snapshot()
	assert.InDelta(t, 0.7, snap.ValidationScoreAvg, 1e-9)
}
