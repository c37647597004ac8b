// Package orchestrator implements C15 (Engine Orchestrator): the driver
// that wires C1-C14 and C16 together into the public retrieve() operation.
// Grounded on the teacher's internal/rag/service.Service.Retrieve method as
// the direct architectural ancestor, generalized to spec.md §4.15's 10-step
// flow.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/cache"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/collaborators"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/config"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/execute"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/fastpath"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/internet"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/obs"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/process"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/query"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/rerank"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/routing"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/trace"
)

// Engine bundles every collaborator and cache the orchestrator needs.
type Engine struct {
	Config         *config.Config
	Logger         obs.Logger
	Metrics        obs.Metrics
	Clock          obs.Clock
	VectorStore    collaborators.VectorStore
	Embedder       collaborators.Embedder
	BM25           collaborators.BM25Index
	RewriteLLM     collaborators.Provider
	CategoryLLM    collaborators.Provider
	CrossEncoder   collaborators.CrossEncoder
	InternetSearch collaborators.InternetSearch
	ClauseIndexer  collaborators.ClauseIndexer
	TracePublisher *trace.Publisher

	QueryCache      *cache.QueryCache
	EmbeddingCache  *execute.EmbeddingCache
	CircuitBreaker  *cache.CircuitBreaker
	StageStats      *cache.StageStats
	EngineStats     *cache.EngineStats
}

// NewEngine constructs an Engine with fresh in-process caches, ready to
// serve Retrieve calls.
func NewEngine(cfg *config.Config, logger obs.Logger, metrics obs.Metrics) *Engine {
	if logger == nil {
		logger = obs.NoopLogger{}
	}
	if metrics == nil {
		metrics = obs.NoopMetrics{}
	}
	return &Engine{
		Config:         cfg,
		Logger:         logger,
		Metrics:        metrics,
		Clock:          obs.SystemClock{},
		TracePublisher: trace.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTraceTopic),
		QueryCache:     cache.NewQueryCache(time.Duration(cfg.Cache.TTLSeconds) * time.Second),
		EmbeddingCache: execute.NewEmbeddingCache(cfg.Cache.MaxSize),
		CircuitBreaker: cache.NewCircuitBreaker(),
		StageStats:     cache.NewStageStats(),
		EngineStats:    cache.NewEngineStats(),
	}
}

func (e *Engine) collectionFor(v model.Vertical) string {
	return e.Config.CollectionFor(string(v))
}

func (e *Engine) executeDeps() execute.Deps {
	return execute.Deps{
		VectorStore:    e.VectorStore,
		Embedder:       e.Embedder,
		BM25:           e.BM25,
		EmbeddingCache: e.EmbeddingCache,
		CollectionFor:  e.collectionFor,
	}
}

func cacheKey(normalizedQuery, mode string, customPlan map[string]any) string {
	h := sha256.New()
	h.Write([]byte(normalizedQuery))
	h.Write([]byte("|" + mode))
	fmt.Fprintf(h, "|%v", customPlan)
	return hex.EncodeToString(h.Sum(nil))
}

// Retrieve runs the full 10-step pipeline from spec.md §4.15.
func (e *Engine) Retrieve(ctx context.Context, q model.Query) model.RetrievalOutput {
	start := e.Clock.Now()
	out := model.RetrievalOutput{Query: q.Text, Metadata: map[string]any{}}

	// 1. Normalize.
	normalized := query.Normalize(q.Text)
	out.NormalizedQuery = normalized
	out.AddTrace("normalized query")

	// 2. Cache lookup.
	key := cacheKey(normalized, string(q.Mode), q.CustomPlan)
	if cached, ok := e.QueryCache.Get(key); ok {
		cached.AddTrace("served from query cache")
		e.EngineStats.RecordQuery(e.Clock.Now().Sub(start), true)
		e.TracePublisher.Publish(ctx, cached)
		return cached
	}

	// 3. Fast path.
	if interp, plan, results, ok := fastpath.TryFastPath(ctx, e.ClauseIndexer, q.Text, normalized, q.TopK); ok {
		out.Interpretation = interp
		out.Plan = plan
		out.Results = results
		out.FinalCount = len(results)
		out.TotalCandidates = len(results)
		out.VerticalsSearched = []model.Vertical{}
		out.AddTrace("legal clause fast path succeeded")
		out.ProcessingTime = e.Clock.Now().Sub(start)
		e.QueryCache.Put(key, out)
		e.EngineStats.RecordQuery(out.ProcessingTime, false)
		e.TracePublisher.Publish(ctx, out)
		return out
	}

	// 4. C2, then C3 (one after the other, no per-call timeout), then C4
	// expansion.
	interp := query.Interpret(normalized)
	out.Interpretation = interp
	out.AddTrace("interpreted query as " + string(interp.QueryType))

	// The rewrite count comes from the plan; BuildPlan's vertical-count
	// adjustment only touches top_k, so no verticals are needed for it.
	numRewrites := routing.BuildPlan(q.Mode, interp, nil, q.CustomPlan, q.TopK).NumRewrites
	rewriteProvider := e.RewriteLLM
	if !e.Config.Features.UseLLMRewrites {
		rewriteProvider = nil
	}
	rewrites := query.Rewrite(ctx, rewriteProvider, normalized, q.Mode, numRewrites)

	rewriteTexts := []string{normalized}
	for _, r := range rewrites {
		rewriteTexts = append(rewriteTexts, query.Expand(r.Text, 8))
	}
	out.Rewrites = rewriteTexts
	out.AddTrace(fmt.Sprintf("generated %d rewrites", len(rewrites)))

	// 5. Route + plan.
	verticals := routing.RouteVerticals(normalized, interp)
	if len(q.ForceVerticals) > 0 {
		verticals = q.ForceVerticals
	}
	out.VerticalsSearched = verticals

	plan := routing.BuildPlan(q.Mode, interp, verticals, q.CustomPlan, q.TopK)
	out.Plan = plan
	out.AddTrace(fmt.Sprintf("routed to %d verticals, plan built", len(verticals)))

	workers := execute.WorkerCountFor(e.Config.WorkerPool, q.Mode)

	// 6. Hybrid retrieval on the original query, with early-exit check.
	hop1 := execute.Execute(ctx, e.executeDeps(), []string{normalized}, verticals, plan, workers, 1)
	out.TotalCandidates += len(hop1)

	if isSimpleQA(interp) && earlyExitEligible(hop1) {
		out.AddTrace("early exit: top results already confident, simple QA")
		final := lightweightSpread(hop1, plan.TopKTotal)
		out.Results = final
		out.FinalCount = len(final)
		out.ProcessingTime = e.Clock.Now().Sub(start)
		e.QueryCache.Put(key, out)
		e.EngineStats.RecordQuery(out.ProcessingTime, false)
		e.TracePublisher.Publish(ctx, out)
		return out
	}

	// 7. Remaining rewrites (dense-only), multi-hop, internet.
	all := append([]model.RetrievalResult(nil), hop1...)

	if len(rewriteTexts) > 1 {
		restDeps := e.executeDeps()
		restDeps.BM25 = nil
		rest := execute.Execute(ctx, restDeps, rewriteTexts[1:], verticals, plan, workers, 1)
		all = append(all, rest...)
		out.TotalCandidates += len(rest)
	}

	if plan.NumHops >= 2 && execute.NeedsHop2(hop1, interp.QueryType, q.CustomPlan) {
		hop2 := execute.RunHop2(ctx, e.executeDeps(), hop1, verticals, plan, workers)
		all = append(all, hop2...)
		out.TotalCandidates += len(hop2)
		out.AddTrace("ran multi-hop expansion")
	}

	if internet.ShouldEnable(q.CustomPlan, plan.UseInternet) {
		webResults := internet.Search(ctx, e.InternetSearch, normalized, plan.TopKPerVertical, start.Unix())
		all = append(all, webResults...)
		out.TotalCandidates += len(webResults)
		if len(webResults) > 0 {
			out.VerticalsSearched = append(out.VerticalsSearched, model.VerticalInternet)
			out.AddTrace("internet search contributed results")
		}
	}

	// 8. Dedup (+ supersession partitioning).
	deduped := process.Deduplicate(all)
	normalizedResults := process.Normalize(deduped, process.NormalizeAuto)
	out.AddTrace(fmt.Sprintf("deduped to %d results", len(normalizedResults)))

	// 9. Reranking.
	final := e.rerank(ctx, normalized, interp, plan, normalizedResults)
	final = process.PartitionSupersession(final)

	if len(final) < 3 && fastpath.IsLegalClauseQuery(normalized) && e.ClauseIndexer != nil {
		if matches, err := e.ClauseIndexer.LookupClause(ctx, q.Text); err == nil {
			for _, m := range matches {
				final = append(final, model.RetrievalResult{
					ChunkID: m.ChunkID, DocID: m.DocID, Content: m.Content,
					Score: m.Confidence, Vertical: model.Vertical(m.Vertical),
					Metadata:      map[string]any{"source": "clause_indexer_fallback"},
					RewriteSource: "clause_indexer",
				})
			}
		}
		out.AddTrace("fell back to clause indexer for thin result set")
	}

	if plan.TopKTotal > 0 && len(final) > plan.TopKTotal {
		final = final[:plan.TopKTotal]
	}

	// 10. Package, record timings, cache, stats.
	out.Results = final
	out.FinalCount = len(final)
	out.ProcessingTime = e.Clock.Now().Sub(start)
	out.AddTrace("packaged final output")

	e.QueryCache.Put(key, out)
	e.StageStats.Record("total", out.ProcessingTime)
	e.EngineStats.RecordQuery(out.ProcessingTime, false)
	e.Metrics.ObserveHistogram("retrieval_processing_seconds", out.ProcessingTime.Seconds(), map[string]string{"mode": string(q.Mode)})
	e.Metrics.IncCounter("retrieval_queries_total", map[string]string{"mode": string(q.Mode)})
	e.TracePublisher.Publish(ctx, out)

	return out
}

func (e *Engine) rerank(ctx context.Context, normalized string, interp model.Interpretation, plan model.RetrievalPlan, results []model.RetrievalResult) []model.RetrievalResult {
	isQA := interp.QueryType == model.TypeQA
	useRelation := e.Config.Features.UseRelationEntity
	skipPhases2to4 := rerank.ShouldSkip(e.CircuitBreaker, isQA, results)

	reranked := results
	if useRelation {
		reranked = rerank.Phase1RelationScoring(reranked)
		sortResultsDesc(reranked)
	}
	if useRelation && !skipPhases2to4 {
		recencyIntent := len(interp.TemporalReferences) > 0
		reranked = rerank.Phase2EntityMatching(reranked, interp.DetectedEntities, recencyIntent)
		sortResultsDesc(reranked)

		if len(reranked) >= 5 {
			top5 := reranked[:5]
			vertical := model.VerticalLegal
			if len(top5) > 0 {
				vertical = top5[0].Vertical
			}
			expanded := rerank.Phase3EntityExpansion(ctx, e.VectorStore, e.collectionFor, top5, vertical)
			reranked = append(reranked, expanded...)
		}

		if len(reranked) >= 10 {
			bidirectional := rerank.Phase4BidirectionalSearch(ctx, e.VectorStore, e.collectionFor, reranked[:10])
			reranked = append(reranked, bidirectional...)
		}
		sortResultsDesc(reranked)
	}

	if e.Config.Features.UseCrossEncoder {
		reranked = rerank.CrossEncoderRerank(ctx, e.CrossEncoder, normalized, reranked, plan.RerankTopK, model.Mode(plan.Mode))
	}

	if !rerank.ShouldSkipDiversity(plan.DiversityWeight, reranked) {
		categories := rerank.PredictCategories(normalized, e.CategoryLLM)
		reranked = rerank.DiversityRerank(reranked, categories, plan.DiversityWeight, plan.TopKTotal)
	}

	return reranked
}

func isSimpleQA(interp model.Interpretation) bool {
	return interp.QueryType == model.TypeQA && interp.Scope != model.ScopeBroad
}

func earlyExitEligible(results []model.RetrievalResult) bool {
	n := len(results)
	if n > 3 {
		n = 3
	}
	if n == 0 {
		return false
	}
	var sum, max float64
	for i := 0; i < n; i++ {
		sum += results[i].Score
		if results[i].Score > max {
			max = results[i].Score
		}
	}
	return sum/float64(n) > 0.75 && max > 0.8
}

// lightweightSpread sorts by score and spreads the selection across
// verticals rather than running the full rerank cascade, per spec.md
// §4.15 step 6's early-exit path.
func lightweightSpread(results []model.RetrievalResult, topK int) []model.RetrievalResult {
	sorted := append([]model.RetrievalResult(nil), results...)
	sortResultsDesc(sorted)
	if topK <= 0 || topK > len(sorted) {
		topK = len(sorted)
	}

	byVertical := process.GroupByVertical(sorted)
	verticals := make([]model.Vertical, 0, len(byVertical))
	for v := range byVertical {
		verticals = append(verticals, v)
	}
	sort.Slice(verticals, func(i, j int) bool { return model.VerticalPriority(verticals[i]) < model.VerticalPriority(verticals[j]) })

	out := make([]model.RetrievalResult, 0, topK)
	idx := map[model.Vertical]int{}
	for len(out) < topK {
		progressed := false
		for _, v := range verticals {
			i := idx[v]
			if i >= len(byVertical[v]) {
				continue
			}
			out = append(out, byVertical[v][i])
			idx[v] = i + 1
			progressed = true
			if len(out) >= topK {
				break
			}
		}
		if !progressed {
			break
		}
	}
	return out
}

func sortResultsDesc(results []model.RetrievalResult) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
}
