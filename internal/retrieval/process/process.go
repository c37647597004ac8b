// Package process implements C11 (Result Processor): dedup, score
// normalization, and reciprocal rank fusion. Grounded on
// original_source/retrieval_v3/pipeline/result_processor.py.
package process

import (
	"math"
	"sort"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
)

// NormalizationMethod selects how Normalize rescales raw scores to [0,1].
type NormalizationMethod string

const (
	NormalizeMinMax NormalizationMethod = "min-max"
	NormalizeZScore NormalizationMethod = "z-score"
	NormalizeAuto   NormalizationMethod = "auto"
)

const rrfK = 60

// Deduplicate groups results by ChunkID, keeping the highest-scoring
// occurrence of each, and otherwise preserves first-seen order.
func Deduplicate(results []model.RetrievalResult) []model.RetrievalResult {
	best := map[string]int{} // chunk_id -> index into out
	out := make([]model.RetrievalResult, 0, len(results))
	for _, r := range results {
		if idx, ok := best[r.ChunkID]; ok {
			if r.Score > out[idx].Score {
				out[idx] = r
			}
			continue
		}
		best[r.ChunkID] = len(out)
		out = append(out, r)
	}
	return out
}

// Normalize rescales scores to [0,1] in place (on a copy), writing the
// original score into metadata.raw_score exactly once. If all scores are
// equal, every result is assigned 1.0.
func Normalize(results []model.RetrievalResult, method NormalizationMethod) []model.RetrievalResult {
	if len(results) == 0 {
		return results
	}

	out := make([]model.RetrievalResult, len(results))
	copy(out, results)

	scores := make([]float64, len(out))
	for i, r := range out {
		scores[i] = r.Score
	}

	chosen := method
	if chosen == "" || chosen == NormalizeAuto {
		chosen = chooseAuto(scores)
	}

	var normalized []float64
	switch chosen {
	case NormalizeZScore:
		normalized = zScoreNormalize(scores)
	default:
		normalized = minMaxNormalize(scores)
	}

	for i := range out {
		if out[i].Metadata == nil {
			out[i].Metadata = map[string]any{}
		}
		if _, already := out[i].Metadata["raw_score"]; !already {
			out[i].Metadata["raw_score"] = out[i].Score
		}
		out[i].Score = normalized[i]
	}
	return out
}

func chooseAuto(scores []float64) NormalizationMethod {
	if len(scores) == 0 {
		return NormalizeMinMax
	}
	min, max, mean := stats(scores)
	rangeV := max - min
	if mean > 0 && rangeV > 2*mean {
		return NormalizeZScore
	}
	return NormalizeMinMax
}

func stats(scores []float64) (min, max, mean float64) {
	min, max = scores[0], scores[0]
	var sum float64
	for _, s := range scores {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
		sum += s
	}
	mean = sum / float64(len(scores))
	return
}

func minMaxNormalize(scores []float64) []float64 {
	min, max, _ := stats(scores)
	out := make([]float64, len(scores))
	rangeV := max - min
	if rangeV == 0 {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}
	for i, s := range scores {
		out[i] = (s - min) / rangeV
	}
	return out
}

func zScoreNormalize(scores []float64) []float64 {
	_, _, mean := stats(scores)
	var variance float64
	for _, s := range scores {
		variance += (s - mean) * (s - mean)
	}
	variance /= float64(len(scores))
	std := math.Sqrt(variance)

	out := make([]float64, len(scores))
	if std == 0 {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}
	// Rescale the z-scores min-max into [0,1] so downstream comparisons
	// against other normalized lists stay meaningful.
	minZ, maxZ := math.Inf(1), math.Inf(-1)
	z := make([]float64, len(scores))
	for i, s := range scores {
		z[i] = (s - mean) / std
		if z[i] < minZ {
			minZ = z[i]
		}
		if z[i] > maxZ {
			maxZ = z[i]
		}
	}
	rangeZ := maxZ - minZ
	if rangeZ == 0 {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}
	for i := range out {
		out[i] = (z[i] - minZ) / rangeZ
	}
	return out
}

// RankedList is one ranked result list contributing to a fusion.
type RankedList struct {
	Results []model.RetrievalResult
}

// ReciprocalRankFusion fuses multiple ranked lists with k=60:
// score(d) = sum(1/(k+rank_i(d))) over the lists containing d, then
// reassigns score to 1/(rank+1) after the fused list is sorted. Stores
// rrf_score and fusion_method='rrf' in metadata.
func ReciprocalRankFusion(lists []RankedList) []model.RetrievalResult {
	type acc struct {
		result model.RetrievalResult
		rrf    float64
	}
	byChunk := map[string]*acc{}
	order := make([]string, 0)

	for _, list := range lists {
		for rank, r := range list.Results {
			a, ok := byChunk[r.ChunkID]
			if !ok {
				a = &acc{result: r}
				byChunk[r.ChunkID] = a
				order = append(order, r.ChunkID)
			}
			a.rrf += 1.0 / float64(rrfK+rank+1)
		}
	}

	fused := make([]model.RetrievalResult, 0, len(order))
	for _, id := range order {
		fused = append(fused, byChunk[id].result)
	}
	sort.SliceStable(fused, func(i, j int) bool {
		return byChunk[fused[i].ChunkID].rrf > byChunk[fused[j].ChunkID].rrf
	})

	for i := range fused {
		if fused[i].Metadata == nil {
			fused[i].Metadata = map[string]any{}
		}
		fused[i].Metadata["rrf_score"] = 1.0 / float64(i+1)
		fused[i].Metadata["fusion_method"] = "rrf"
		fused[i].Score = 1.0 / float64(i+1)
	}
	return fused
}

// GroupByVertical partitions results into per-vertical slices, preserving
// relative order within each group. Supplements the spec with the original
// aggregator's merge_by_vertical behavior; the orchestrator's early-exit
// path uses it to spread results across verticals.
func GroupByVertical(results []model.RetrievalResult) map[model.Vertical][]model.RetrievalResult {
	out := map[model.Vertical][]model.RetrievalResult{}
	for _, r := range results {
		out[r.Vertical] = append(out[r.Vertical], r)
	}
	return out
}

// PartitionSupersession moves results flagged currency_status=superseded to
// the tail, preserving relative order within each partition.
func PartitionSupersession(results []model.RetrievalResult) []model.RetrievalResult {
	current := make([]model.RetrievalResult, 0, len(results))
	superseded := make([]model.RetrievalResult, 0)
	for _, r := range results {
		if status, _ := r.Metadata["currency_status"].(string); status == "superseded" {
			superseded = append(superseded, r)
			continue
		}
		current = append(current, r)
	}
	return append(current, superseded...)
}
