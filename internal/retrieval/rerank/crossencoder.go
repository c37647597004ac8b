package rerank

import (
	"context"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/collaborators"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
)

// candidateCapByMode implements the mode-adaptive candidate cap: larger
// pools for policy/deep-think modes, per spec.md §4.13.
var candidateCapByMode = map[model.Mode]int{
	model.ModeQA:          15,
	model.ModePolicyBrief: 40,
	model.ModePolicyDraft: 60,
	model.ModeDeepThink:   60,
	model.ModeBrainstorm:  40,
}

func candidateCap(mode model.Mode, rerankTopK int) int {
	if modeCap, ok := candidateCapByMode[mode]; ok {
		if rerankTopK > modeCap {
			return rerankTopK
		}
		return modeCap
	}
	return rerankTopK
}

// CrossEncoderRerank sends the top candidateCap(mode, rerankTopK)
// candidates (the larger of rerank_top_k and the mode's cap) to a pairwise
// scoring model that returns up to rerank_top_k scores, assigns each
// returned score back to its result (the others keep their score) and
// stable-sorts that head descending. Per spec.md §4.13.
func CrossEncoderRerank(ctx context.Context, encoder collaborators.CrossEncoder, query string, results []model.RetrievalResult, rerankTopK int, mode model.Mode) []model.RetrievalResult {
	if encoder == nil || len(results) == 0 {
		return results
	}

	n := candidateCap(mode, rerankTopK)
	if n > len(results) {
		n = len(results)
	}
	head := results[:n]
	tail := results[n:]

	candidates := make([]collaborators.CrossEncoderCandidate, len(head))
	for i, r := range head {
		candidates[i] = collaborators.CrossEncoderCandidate{ChunkID: r.ChunkID, Content: r.Content, Score: r.Score}
	}

	scored, err := encoder.Rerank(ctx, query, candidates, rerankTopK, string(mode))
	if err != nil || len(scored) == 0 {
		return results
	}

	byChunk := map[string]float64{}
	for _, s := range scored {
		byChunk[s.ChunkID] = s.Score
	}

	reranked := make([]model.RetrievalResult, len(head))
	copy(reranked, head)
	for i := range reranked {
		if s, ok := byChunk[reranked[i].ChunkID]; ok {
			reranked[i].Score = s
		}
	}
	sortByScoreDesc(reranked)

	return append(reranked, tail...)
}
