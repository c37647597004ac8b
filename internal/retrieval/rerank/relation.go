// Package rerank implements C12 (Relation/Entity Reranker), C13
// (Cross-Encoder Reranker), and C14 (Diversity Reranker), grounded on
// spec.md §4.12-4.14.
package rerank

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/cache"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/collaborators"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
)

var relationBoosts = map[string]float64{
	"supersedes":     1.3,
	"amends":         1.15,
	"implements":     1.1,
	"cites":          1.1,
	"governs":        1.08,
}

const supersededPenalty = 0.4

var supersessionSignalWords = regexp.MustCompile(`(?i)\b(?:superseded|repealed|withdrawn|no\s+longer\s+in\s+force|rescinded)\b`)

// RelationEntityConfig governs timeouts and gating, per spec.md §4.12.
type RelationEntityConfig struct {
	DeepMode bool
}

func phase1Timeout(cfg RelationEntityConfig) time.Duration {
	if cfg.DeepMode {
		return 8 * time.Second
	}
	return 5 * time.Second
}

// ShouldSkip implements the phase-gating circuit breaker: skip phases 2-4
// when the breaker is tripped, the query is QA mode, or the top-3 raw
// scores already look good enough.
func ShouldSkip(cb *cache.CircuitBreaker, isQAMode bool, results []model.RetrievalResult) bool {
	if cb != nil && cb.Tripped() {
		return true
	}
	if isQAMode {
		return true
	}
	avg, max := top3Stats(results)
	return avg > 0.65 && max > 0.7
}

func top3Stats(results []model.RetrievalResult) (avg, max float64) {
	n := len(results)
	if n > 3 {
		n = 3
	}
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += results[i].Score
		if results[i].Score > max {
			max = results[i].Score
		}
	}
	return sum / float64(n), max
}

// Phase1RelationScoring downranks superseded documents, boosts documents
// that supersede/amend/implement/cite/govern others, and checks content for
// supersession signal words. Per spec.md §4.12 Phase 1.
func Phase1RelationScoring(results []model.RetrievalResult) []model.RetrievalResult {
	out := make([]model.RetrievalResult, len(results))
	copy(out, results)

	for i := range out {
		relations, _ := out[i].Metadata["relations"].([]any)
		relationTypes := backfillRelationTypes(out[i].Metadata, relations)

		if out[i].Metadata == nil {
			out[i].Metadata = map[string]any{}
		}

		if containsType(relationTypes, "superseded_by") || supersessionSignalWords.MatchString(out[i].Content) {
			out[i].Score *= supersededPenalty
			out[i].Metadata["currency_status"] = "superseded"
			continue
		}
		if containsType(relationTypes, "supersedes") {
			out[i].Score *= relationBoosts["supersedes"]
			out[i].Metadata["currency_status"] = "current"
		}
		for _, t := range []string{"amends", "implements", "cites", "governs"} {
			if containsType(relationTypes, t) {
				out[i].Score *= relationBoosts[t]
			}
		}
	}
	return out
}

func backfillRelationTypes(metadata map[string]any, relations []any) []string {
	if metadata == nil {
		return nil
	}
	if types, ok := metadata["relation_types"].([]string); ok && !onlyUnknown(types) {
		return types
	}
	types := make([]string, 0, len(relations))
	for _, r := range relations {
		if m, ok := r.(map[string]any); ok {
			if t, ok := m["type"].(string); ok {
				types = append(types, t)
			}
		}
	}
	metadata["relation_types"] = types
	return types
}

func onlyUnknown(types []string) bool {
	for _, t := range types {
		if t != "unknown" {
			return false
		}
	}
	return true
}

func containsType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

// ExpandNeighbors runs Phase 1's 1-hop expansion: from the top-20 only, walk
// amends/supersedes/amended_by/superseded_by relations and fetch neighbors
// in one batched call, scoring them at parent_score * 0.8.
func ExpandNeighbors(ctx context.Context, store collaborators.VectorStore, collectionFor func(model.Vertical) string, results []model.RetrievalResult) []model.RetrievalResult {
	n := len(results)
	if n > 20 {
		n = 20
	}

	seenFamily := map[string]bool{}
	var neighborIDs []string
	parentByNeighbor := map[string]model.RetrievalResult{}

	for i := 0; i < n; i++ {
		r := results[i]
		family, _ := r.Metadata["go_family"].(string)
		if family != "" && seenFamily[family] {
			continue
		}
		for _, relType := range []string{"amends", "supersedes", "amended_by", "superseded_by"} {
			ids := relationTargets(r.Metadata, relType)
			for _, id := range ids {
				neighborIDs = append(neighborIDs, id)
				parentByNeighbor[id] = r
			}
		}
		if family != "" {
			seenFamily[family] = true
		}
	}

	if len(neighborIDs) == 0 || store == nil {
		return nil
	}

	out := make([]model.RetrievalResult, 0, len(neighborIDs))
	for _, vertical := range model.AllVerticals {
		collection := collectionName(vertical, collectionFor)
		points, err := store.Retrieve(ctx, collection, neighborIDs)
		if err != nil {
			continue
		}
		for _, p := range points {
			parent := parentByNeighbor[p.ID]
			out = append(out, model.RetrievalResult{
				ChunkID:  p.ID,
				Content:  stringField(p.Payload, "content"),
				Score:    parent.Score * 0.8,
				Vertical: vertical,
				Metadata: mergeMeta(p.Payload, map[string]any{"neighbor_expansion": true}),
			})
		}
	}
	return out
}

func relationTargets(metadata map[string]any, relType string) []string {
	relations, _ := metadata["relations"].([]any)
	var out []string
	for _, r := range relations {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := m["type"].(string); t != relType {
			continue
		}
		if id, ok := m["target_id"].(string); ok {
			out = append(out, id)
		}
	}
	return out
}

func stringField(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	v, _ := payload[key].(string)
	return v
}

func mergeMeta(payload map[string]any, extra map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range payload {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// collectionName lets every phase ask for a vertical's collection name
// without importing the config package directly.
func collectionName(v model.Vertical, collectionFor func(model.Vertical) string) string {
	if collectionFor != nil {
		return collectionFor(v)
	}
	return string(v)
}

// entity weights for Phase 2 overlap scoring, per spec.md §4.12.
var entityWeights = map[string]float64{
	"go_numbers":  1.5,
	"sections":    1.4,
	"articles":    1.3,
	"acts":        1.2,
	"schemes":     1.1,
	"departments": 1.0,
	"dates":       0.8,
}

var informalEntityPatterns = regexp.MustCompile(`(?i)\bGOs?\b|\bsections?\b|\brecent\b|\b20\d{2}\b`)

// Phase2EntityMatching extracts query entities, compares them against each
// result's entity payload (falling back to direct fields and the doc id),
// and applies a weighted-overlap boost plus optional recency adjustment.
func Phase2EntityMatching(results []model.RetrievalResult, queryEntities map[string][]string, recencyIntent bool) []model.RetrievalResult {
	out := make([]model.RetrievalResult, len(results))
	copy(out, results)

	for i := range out {
		overlap := weightedOverlap(queryEntities, out[i])
		if overlap > 0 {
			out[i].Score *= 1 + 0.3*overlap
			if out[i].Metadata == nil {
				out[i].Metadata = map[string]any{}
			}
			out[i].Metadata["matched_entities"] = overlap
		}
		if recencyIntent {
			applyRecencyAdjustment(&out[i])
		}
	}
	return out
}

func weightedOverlap(queryEntities map[string][]string, r model.RetrievalResult) float64 {
	var total float64
	for field, weight := range entityWeights {
		qvals := queryEntities[field]
		if len(qvals) == 0 {
			continue
		}
		rvals := resultEntityValues(r, field)
		if hasIntersection(qvals, rvals) {
			total += weight
		}
	}
	return total
}

func resultEntityValues(r model.RetrievalResult, field string) []string {
	if r.Metadata == nil {
		return nil
	}
	if vals, ok := r.Metadata[field].([]string); ok {
		return vals
	}
	// Fallbacks to direct singular fields and the doc id itself.
	switch field {
	case "go_numbers":
		if v, ok := r.Metadata["go_number"].(string); ok {
			return []string{v}
		}
		if strings.Contains(strings.ToLower(r.DocID), "go") {
			return []string{r.DocID}
		}
	case "dates":
		if v, ok := r.Metadata["year"].(string); ok {
			return []string{v}
		}
	case "sections":
		if v, ok := r.Metadata["section"].(string); ok {
			return []string{v}
		}
	}
	return nil
}

func hasIntersection(a, b []string) bool {
	set := map[string]bool{}
	for _, v := range a {
		set[strings.ToLower(v)] = true
	}
	for _, v := range b {
		if set[strings.ToLower(v)] {
			return true
		}
	}
	return false
}

func applyRecencyAdjustment(r *model.RetrievalResult) {
	status, _ := r.Metadata["currency_status"].(string)
	switch status {
	case "current":
		r.Score *= 1.75
	case "superseded", "expired":
		r.Score *= 0.3
	}
}

// indexedEntityFields are the fields Phase 3 is allowed to query against,
// explicitly excluding "years" (unindexed).
var indexedEntityFields = []string{"departments", "acts", "schemes", "go_numbers", "sections", "go_refs"}

// Phase3EntityExpansion finds the most frequent entities across the top-5,
// restricts to indexed fields, and issues one filter query per field.
func Phase3EntityExpansion(ctx context.Context, store collaborators.VectorStore, collectionFor func(model.Vertical) string, top5 []model.RetrievalResult, vertical model.Vertical) []model.RetrievalResult {
	if store == nil {
		return nil
	}
	freq := map[string]map[string]int{}
	for _, field := range indexedEntityFields {
		freq[field] = map[string]int{}
	}
	for _, r := range top5 {
		for _, field := range indexedEntityFields {
			for _, v := range resultEntityValues(r, field) {
				freq[field][v]++
			}
		}
	}

	collection := collectionName(vertical, collectionFor)
	var out []model.RetrievalResult
	for _, field := range indexedEntityFields {
		top := mostFrequent(freq[field])
		if top == "" {
			continue
		}
		filter := &collaborators.Filter{Must: []collaborators.FilterCondition{{Key: field, Match: &collaborators.MatchValue{Value: top}}}}
		points, _, err := store.Scroll(ctx, collection, filter, 10, "")
		if err != nil {
			continue
		}
		for _, p := range points {
			out = append(out, model.RetrievalResult{
				ChunkID:  p.ID,
				Content:  stringField(p.Payload, "content"),
				Score:    0.6,
				Vertical: vertical,
				Metadata: mergeMeta(p.Payload, map[string]any{"found_via_relation": "entity_expansion"}),
			})
		}
	}
	return out
}

func mostFrequent(counts map[string]int) string {
	var best string
	var bestCount int
	for k, c := range counts {
		if c > bestCount {
			bestCount = c
			best = k
		}
	}
	return best
}

// Phase4BidirectionalSearch finds, for the top-10, documents whose
// relations target this doc with type "supersedes" (downrank the original
// in place by supersededPenalty, add the superseder at x1.5 of the
// original's prior score) or "amends" (add at x1.2).
func Phase4BidirectionalSearch(ctx context.Context, store collaborators.VectorStore, collectionFor func(model.Vertical) string, top10 []model.RetrievalResult) []model.RetrievalResult {
	n := len(top10)
	if n > 10 {
		n = 10
	}
	var out []model.RetrievalResult
	for i := 0; i < n; i++ {
		r := top10[i]
		collection := collectionName(r.Vertical, collectionFor)
		supersededBy := findTargeting(ctx, store, collection, r.ChunkID, "supersedes")
		if len(supersededBy) > 0 {
			top10[i].Score *= supersededPenalty
		}
		for _, sup := range supersededBy {
			sup.Score = r.Score * 1.5
			out = append(out, sup)
		}
		amendedBy := findTargeting(ctx, store, collection, r.ChunkID, "amends")
		for _, amd := range amendedBy {
			amd.Score = r.Score * 1.2
			out = append(out, amd)
		}
	}
	return out
}

func findTargeting(ctx context.Context, store collaborators.VectorStore, collection, targetID, relType string) []model.RetrievalResult {
	if store == nil {
		return nil
	}
	filter := &collaborators.Filter{Must: []collaborators.FilterCondition{
		{Key: "relation_target", Match: &collaborators.MatchValue{Value: targetID}},
		{Key: "relation_type", Match: &collaborators.MatchValue{Value: relType}},
	}}
	points, _, err := store.Scroll(ctx, collection, filter, 5, "")
	if err != nil {
		return nil
	}
	out := make([]model.RetrievalResult, 0, len(points))
	for _, p := range points {
		out = append(out, model.RetrievalResult{
			ChunkID:  p.ID,
			Content:  stringField(p.Payload, "content"),
			Metadata: p.Payload,
		})
	}
	return out
}

// sortByScoreDesc is shared by all three rerank stages.
func sortByScoreDesc(results []model.RetrievalResult) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
}
