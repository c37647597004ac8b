package orchestrator

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/collaborators"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/collaborators/fakes"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/config"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/obs"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/query"
)

func newTestEngine() (*Engine, *fakes.VectorStore) {
	cfg := config.Default()
	e := NewEngine(cfg, obs.NoopLogger{}, obs.NoopMetrics{})

	embedder := fakes.NewDeterministicEmbedder(32)
	vs := fakes.NewVectorStore(embedder)
	e.Embedder = embedder
	e.VectorStore = vs
	e.BM25 = fakes.NewBM25Index()
	e.ClauseIndexer = &fakes.ClauseIndexer{}
	e.InternetSearch = &fakes.InternetSearch{}
	return e, vs
}

func TestRetrieve_EarlyExitForConfidentSimpleQA(t *testing.T) {
	t.Parallel()
	e, vs := newTestEngine()

	q := model.Query{Text: "what is the mid day meal scheme", Mode: model.ModeQA}
	normalized := query.Normalize(q.Text)

	legalCollection := e.Config.CollectionFor("legal")
	for i := 0; i < 3; i++ {
		vs.Seed(legalCollection, collaborators.Point{ID: fmt.Sprintf("chunk-%d", i)}, normalized)
	}

	out := e.Retrieve(context.Background(), q)

	require.Len(t, out.Results, 3)
	for _, r := range out.Results {
		assert.Equal(t, model.VerticalLegal, r.Vertical)
		assert.InDelta(t, 1.0, r.Score, 1e-6, "identical seeded content must score a perfect cosine match")
	}
	assert.Equal(t, 3, out.FinalCount)
	assert.Contains(t, out.TraceSteps, "early exit: top results already confident, simple QA")
}

func TestRetrieve_CachesRepeatedQuery(t *testing.T) {
	t.Parallel()
	e, vs := newTestEngine()

	q := model.Query{Text: "what is the mid day meal scheme", Mode: model.ModeQA}
	normalized := query.Normalize(q.Text)
	legalCollection := e.Config.CollectionFor("legal")
	for i := 0; i < 3; i++ {
		vs.Seed(legalCollection, collaborators.Point{ID: fmt.Sprintf("chunk-%d", i)}, normalized)
	}

	first := e.Retrieve(context.Background(), q)
	second := e.Retrieve(context.Background(), q)

	assert.Equal(t, first.FinalCount, second.FinalCount)
	assert.Equal(t, first.Results, second.Results)
	assert.Contains(t, second.TraceSteps, "served from query cache")
	assert.Equal(t, int64(2), e.EngineStats.Snapshot().TotalQueries)
	assert.Equal(t, int64(1), e.EngineStats.Snapshot().CacheHits)
}

func TestRetrieve_LegalClauseFastPathShortCircuitsFullPipeline(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine()
	e.ClauseIndexer = &fakes.ClauseIndexer{Matches: []collaborators.ClauseMatch{
		{ChunkID: "c1", DocID: "d1", Content: "Section 12 text", Confidence: 0.95, Vertical: "legal"},
		{ChunkID: "c2", DocID: "d2", Content: "Section 12 related text", Confidence: 0.9, Vertical: "legal"},
	}}

	out := e.Retrieve(context.Background(), model.Query{Text: "Section 12", Mode: model.ModeQA})

	require.Len(t, out.Results, 2)
	assert.Equal(t, "c1", out.Results[0].ChunkID)
	assert.Contains(t, out.TraceSteps, "legal clause fast path succeeded")
	assert.Empty(t, out.VerticalsSearched, "the fast path does not run the vertical router")
}

func TestRetrieve_NoMatchesReturnsEmptyResultsWithoutPanicking(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine()

	out := e.Retrieve(context.Background(), model.Query{Text: "what is the status of something nobody indexed", Mode: model.ModeQA})

	assert.Equal(t, 0, out.FinalCount)
	assert.Empty(t, out.Results)
}
