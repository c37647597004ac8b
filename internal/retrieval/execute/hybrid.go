// Package execute implements C8 (Hybrid Retrieval Executor) and C9
// (Multi-Hop Expander), grounded on spec.md §4.8-4.9 and
// original_source/retrieval_v3/retrieval_core/vertical_retriever.go's
// per-vertical search shape.
package execute

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/collaborators"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/config"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/process"
)

var sectionTypeBoost = map[string]float64{
	"orders":    1.3,
	"order":     1.3,
	"content":   1.2,
	"annexure":  1.0,
	"preamble":  0.85,
	"table":     0.95,
}

const (
	denseSearchTimeout  = 25 * time.Second
	denseOverallTimeout = 60 * time.Second
	bm25Timeout         = 10 * time.Second
	embeddingTimeout    = 5 * time.Second
	denseScoreThreshold = 0.3
)

// Deps bundles the external collaborators the executor needs.
type Deps struct {
	VectorStore      collaborators.VectorStore
	Embedder         collaborators.Embedder
	BM25             collaborators.BM25Index
	EmbeddingCache   *EmbeddingCache
	CollectionFor    func(vertical model.Vertical) string
}

// WorkerCountFor returns the bounded worker-pool size for a mode, per
// spec.md §4.8: 4/6/10 workers for qa/default/deep.
func WorkerCountFor(pools config.WorkerPoolConfig, mode model.Mode) int {
	switch mode {
	case model.ModeQA:
		return pools.QA
	case model.ModeDeepThink, model.ModePolicyDraft:
		return pools.Deep
	default:
		return pools.Default
	}
}

// Execute runs C8 for one hop: batch-embeds the rewrites, fans dense search
// out across (rewrite, vertical) pairs on a bounded worker pool, runs BM25
// in parallel on the first rewrite (when deps.BM25 is set), fuses that first
// rewrite's dense results with the BM25 results via RRF, keeps the other
// rewrites dense-only, and applies section-type boosts.
func Execute(ctx context.Context, deps Deps, rewrites []string, verticals []model.Vertical, plan model.RetrievalPlan, workers int, hopNumber int) []model.RetrievalResult {
	if workers <= 0 {
		workers = 4
	}

	embedCtx, cancel := context.WithTimeout(ctx, embeddingTimeout)
	defer cancel()
	vectors := embedRewrites(embedCtx, deps, rewrites)

	overallCtx, cancelOverall := context.WithTimeout(ctx, denseOverallTimeout)
	defer cancelOverall()

	sem := semaphore.NewWeighted(int64(workers))
	var mu sync.Mutex
	denseByRewrite := map[string][]model.RetrievalResult{}

	var wg sync.WaitGroup
	for _, rewrite := range rewrites {
		vec, ok := vectors[rewrite]
		if !ok {
			continue
		}
		for _, vertical := range verticals {
			rewrite, vertical, vec := rewrite, vertical, vec
			if err := sem.Acquire(overallCtx, 1); err != nil {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer sem.Release(1)
				taskCtx, cancel := context.WithTimeout(overallCtx, denseSearchTimeout)
				defer cancel()
				results := searchVertical(taskCtx, deps, vertical, vec, plan.TopKPerVertical, hopNumber)
				mu.Lock()
				denseByRewrite[rewrite] = append(denseByRewrite[rewrite], results...)
				mu.Unlock()
			}()
		}
	}

	var bm25Results []model.RetrievalResult
	var bm25Wg sync.WaitGroup
	if deps.BM25 != nil && len(rewrites) > 0 {
		bm25Wg.Add(1)
		go func() {
			defer bm25Wg.Done()
			bm25Ctx, cancel := context.WithTimeout(ctx, bm25Timeout)
			defer cancel()
			bm25Results = searchBM25(bm25Ctx, deps, rewrites[0], plan.TopKPerVertical)
		}()
	}

	wg.Wait()
	bm25Wg.Wait()

	out := make([]model.RetrievalResult, 0)
	for i, rewrite := range rewrites {
		dense := denseByRewrite[rewrite]
		sortByScoreDesc(dense)

		var fused []model.RetrievalResult
		if i == 0 && len(bm25Results) > 0 {
			fused = process.ReciprocalRankFusion([]process.RankedList{
				{Results: dense},
				{Results: bm25Results},
			})
		} else {
			fused = dense
		}

		for j := range fused {
			fused[j].RewriteSource = rewrite
			applySectionTypeBoost(&fused[j])
		}
		out = append(out, fused...)
	}

	return out
}

func embedRewrites(ctx context.Context, deps Deps, rewrites []string) map[string][]float32 {
	vectors := map[string][]float32{}
	var uncached []string

	for _, r := range rewrites {
		if deps.EmbeddingCache != nil {
			if v, ok := deps.EmbeddingCache.Get(r); ok {
				vectors[r] = v
				continue
			}
		}
		uncached = append(uncached, r)
	}
	if len(uncached) == 0 || deps.Embedder == nil {
		return vectors
	}

	embedded, err := deps.Embedder.Embed(ctx, uncached)
	if err != nil || len(embedded) != len(uncached) {
		// Fall back to per-query embedding calls.
		for _, r := range uncached {
			single, serr := deps.Embedder.Embed(ctx, []string{r})
			if serr != nil || len(single) == 0 {
				continue
			}
			vectors[r] = single[0]
			if deps.EmbeddingCache != nil {
				deps.EmbeddingCache.Put(r, single[0])
			}
		}
		return vectors
	}

	for i, r := range uncached {
		vectors[r] = embedded[i]
		if deps.EmbeddingCache != nil {
			deps.EmbeddingCache.Put(r, embedded[i])
		}
	}
	return vectors
}

func searchVertical(ctx context.Context, deps Deps, vertical model.Vertical, vec []float32, topK int, hopNumber int) []model.RetrievalResult {
	collection := string(vertical)
	if deps.CollectionFor != nil {
		collection = deps.CollectionFor(vertical)
	}
	points, err := deps.VectorStore.QueryPoints(ctx, collection, vec, topK, denseScoreThreshold, nil)
	if err != nil {
		return nil
	}
	out := make([]model.RetrievalResult, 0, len(points))
	for _, p := range points {
		out = append(out, model.RetrievalResult{
			ChunkID:   p.ID,
			DocID:     docIDFromPayload(p),
			Content:   contentFromPayload(p),
			Score:     p.Score,
			Vertical:  vertical,
			Metadata:  p.Payload,
			HopNumber: hopNumber,
		})
	}
	return out
}

func searchBM25(ctx context.Context, deps Deps, query string, topK int) []model.RetrievalResult {
	hits, err := deps.BM25.Search(ctx, query, topK)
	if err != nil {
		return nil
	}
	out := make([]model.RetrievalResult, 0, len(hits))
	for _, h := range hits {
		out = append(out, model.RetrievalResult{
			ChunkID:  h.ChunkID,
			Content:  h.Content,
			Score:    h.Score,
			Vertical: model.Vertical(h.Vertical),
			Metadata: h.Metadata,
		})
	}
	return out
}

func applySectionTypeBoost(r *model.RetrievalResult) {
	if r.Metadata == nil {
		return
	}
	sectionType, _ := r.Metadata["section_type"].(string)
	if boost, ok := sectionTypeBoost[sectionType]; ok {
		r.Score *= boost
	}
}

func sortByScoreDesc(results []model.RetrievalResult) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
}

func docIDFromPayload(p collaborators.Point) string {
	if p.Payload == nil {
		return ""
	}
	if v, ok := p.Payload["doc_id"].(string); ok {
		return v
	}
	return ""
}

func contentFromPayload(p collaborators.Point) string {
	if p.Payload == nil {
		return ""
	}
	if v, ok := p.Payload["content"].(string); ok {
		return v
	}
	return ""
}
