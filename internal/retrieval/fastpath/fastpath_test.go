package fastpath

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/collaborators"
)

type scriptedIndexer struct {
	matches  []collaborators.ClauseMatch
	err      error
	lookedUp *string
}

func (s scriptedIndexer) LookupClause(_ context.Context, query string) ([]collaborators.ClauseMatch, error) {
	if s.lookedUp != nil {
		*s.lookedUp = query
	}
	return s.matches, s.err
}

func TestIsLegalClauseQuery(t *testing.T) {
	t.Parallel()
	cases := map[string]bool{
		"What does Section 12 say?":              true,
		"Explain Rule 5 of the RTE Act":          true,
		"GO No. 45 on teacher transfers":         true,
		"What is the capital of Andhra Pradesh?": false,
		"":                                       false,
	}
	for query, want := range cases {
		assert.Equal(t, want, IsLegalClauseQuery(query), "query: %q", query)
	}
}

func TestTryFastPath_NilIndexerNeverTriggers(t *testing.T) {
	t.Parallel()
	_, _, results, ok := TryFastPath(context.Background(), nil, "Section 12", "section 12", 0)
	assert.False(t, ok)
	assert.Nil(t, results)
}

func TestTryFastPath_NonLegalQueryNeverTriggers(t *testing.T) {
	t.Parallel()
	indexer := scriptedIndexer{matches: []collaborators.ClauseMatch{
		{ChunkID: "a", Confidence: 0.9}, {ChunkID: "b", Confidence: 0.8},
	}}
	_, _, _, ok := TryFastPath(context.Background(), indexer, "what is the weather today", "what is the weather today", 0)
	assert.False(t, ok)
}

func TestTryFastPath_RequiresAtLeastTwoMatches(t *testing.T) {
	t.Parallel()
	indexer := scriptedIndexer{matches: []collaborators.ClauseMatch{{ChunkID: "a", Confidence: 0.9}}}
	_, _, _, ok := TryFastPath(context.Background(), indexer, "Section 12", "section 12", 0)
	assert.False(t, ok, "a single match must not satisfy the fast path's safety gate")
}

func TestTryFastPath_IndexerErrorFallsThrough(t *testing.T) {
	t.Parallel()
	indexer := scriptedIndexer{err: errors.New("boom")}
	_, _, _, ok := TryFastPath(context.Background(), indexer, "Section 12", "section 12", 0)
	assert.False(t, ok)
}

func TestTryFastPath_SucceedsWithTwoOrMoreMatches(t *testing.T) {
	t.Parallel()
	indexer := scriptedIndexer{matches: []collaborators.ClauseMatch{
		{ChunkID: "a", DocID: "d1", Content: "clause text a", Confidence: 0.95, Vertical: "legal"},
		{ChunkID: "b", DocID: "d2", Content: "clause text b", Confidence: 0.9, Vertical: "legal"},
		{ChunkID: "c", DocID: "d3", Content: "clause text c", Confidence: 0.5, Vertical: "legal"},
	}}

	interp, plan, results, ok := TryFastPath(context.Background(), indexer, "Section 12", "section 12", 2)
	require.True(t, ok)

	assert.Len(t, results, 2, "must respect the topK cap")
	assert.Equal(t, "a", results[0].ChunkID)
	assert.Equal(t, "clause_indexer", results[0].RewriteSource)
	assert.Equal(t, 0.95, results[0].Score)

	assert.Equal(t, 2, plan.TopKTotal)
	assert.Equal(t, 1, plan.NumRewrites)
	assert.Equal(t, 1, plan.NumHops)

	assert.Equal(t, "legal_clause_fast_path_detected", interp.Reasoning)
	assert.Equal(t, 0.95, interp.Confidence)
}

func TestTryFastPath_DefaultsTopKToTenWhenUnset(t *testing.T) {
	t.Parallel()
	matches := make([]collaborators.ClauseMatch, 0, 15)
	for i := 0; i < 15; i++ {
		matches = append(matches, collaborators.ClauseMatch{ChunkID: string(rune('a' + i)), Confidence: 0.9})
	}
	indexer := scriptedIndexer{matches: matches}

	_, plan, results, ok := TryFastPath(context.Background(), indexer, "Section 12", "section 12", 0)
	require.True(t, ok)
	assert.Len(t, results, 10)
	assert.Equal(t, 10, plan.TopKTotal)
}

func TestTryFastPath_UsesOriginalQueryForLookupAndNormalizedForPatternCheck(t *testing.T) {
	t.Parallel()
	// The pattern check must run against the normalized query (a legal-looking
	// original with a non-legal normalized form must not trigger), and the
	// indexer must be asked with the original text, which scriptedIndexer
	// records.
	var lookedUp string
	indexer := scriptedIndexer{matches: []collaborators.ClauseMatch{
		{ChunkID: "a", Confidence: 0.9}, {ChunkID: "b", Confidence: 0.8},
	}, lookedUp: &lookedUp}
	_, _, _, ok := TryFastPath(context.Background(), indexer, "RTE Section 12", "not a legal looking string", 0)
	assert.False(t, ok, "pattern check must use the normalized query")

	_, _, _, ok = TryFastPath(context.Background(), indexer, "RTE Section 12", "right to education section 12", 0)
	require.True(t, ok)
	assert.Equal(t, "RTE Section 12", lookedUp, "the indexer lookup must use the original query")
}
