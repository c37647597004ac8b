// Package fastpath implements C7 (Legal Clause Fast-Path), grounded on
// original_source/retrieval_v3/pipeline/legal_clause_handler.py.
package fastpath

import (
	"context"
	"regexp"
	"strings"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/collaborators"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
)

var legalClausePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:section|clause|article|rule|sub-rule|amendment)\s+\d+`),
	regexp.MustCompile(`(?i)\bsection\s+\d+\b`),
	regexp.MustCompile(`(?i)\brule\s+\d+\b`),
	regexp.MustCompile(`(?i)\barticle\s+\d+\w*\b`),
	regexp.MustCompile(`(?i)\b(?:rte|cce|apsermc|education)\s+(?:act\s+)?section\s+\d+`),
	regexp.MustCompile(`(?i)\b(?:rte|cce|apsermc)\s+(?:act|rule)\b`),
	regexp.MustCompile(`(?i)\bsection\s+\d+\s+(?:of\s+)?(?:rte|cce|apsermc|education)\s+act`),
	regexp.MustCompile(`\b\d+\(\d+\)\(\w+\)\b`),
	regexp.MustCompile(`(?i)\b(?:act|rule|regulation)\s+\d+`),
	regexp.MustCompile(`(?i)\b(?:go|government\s+order)\s+(?:no\.?\s*)?\d+`),
	regexp.MustCompile(`(?i)__preserved_\d+__`),
	regexp.MustCompile(`(?i)\b(?:section|article|rule)\s+__preserved_\d+__`),
}

var legalKeywords = []string{"section", "article", "rule", "clause", "act", "rte", "cce", "apsermc"}
var hasDigit = regexp.MustCompile(`\d+`)

// IsLegalClauseQuery reports whether a query reads like a request for a
// specific legal clause/section/rule, per spec.md §4.7's "enhanced legal-
// clause pattern bank ... or the heuristic 'legal keyword + digit'".
func IsLegalClauseQuery(query string) bool {
	lower := strings.ToLower(query)
	for _, p := range legalClausePatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	hasKeyword := false
	for _, kw := range legalKeywords {
		if strings.Contains(lower, kw) {
			hasKeyword = true
			break
		}
	}
	return hasKeyword && hasDigit.MatchString(lower)
}

// TryFastPath attempts C7: if the query looks like a legal clause lookup and
// an indexer is available, look up the original (non-normalized) query. With
// >= 2 confident matches, synthesize a minimal Interpretation/RetrievalPlan
// and return the results directly. Returns ok=false otherwise, so the caller
// falls through to the full pipeline.
func TryFastPath(ctx context.Context, indexer collaborators.ClauseIndexer, query, normalizedQuery string, topK int) (model.Interpretation, model.RetrievalPlan, []model.RetrievalResult, bool) {
	var zeroInterp model.Interpretation
	var zeroPlan model.RetrievalPlan

	if indexer == nil || !IsLegalClauseQuery(normalizedQuery) {
		return zeroInterp, zeroPlan, nil, false
	}

	matches, err := indexer.LookupClause(ctx, query)
	if err != nil || len(matches) < 2 {
		return zeroInterp, zeroPlan, nil, false
	}

	if topK <= 0 {
		topK = 10
	}
	finalTopK := topK
	if len(matches) < finalTopK {
		finalTopK = len(matches)
	}

	results := make([]model.RetrievalResult, 0, finalTopK)
	for _, m := range matches[:finalTopK] {
		results = append(results, model.RetrievalResult{
			ChunkID:       m.ChunkID,
			DocID:         m.DocID,
			Content:       m.Content,
			Score:         m.Confidence,
			Vertical:      model.Vertical(m.Vertical),
			Metadata:      map[string]any{"source": "clause_indexer"},
			RewriteSource: "clause_indexer",
		})
	}

	interp := model.Interpretation{
		QueryType:          model.TypeQA,
		Scope:              model.ScopeNarrow,
		NeedsInternet:      false,
		NeedsDeepMode:      false,
		Confidence:         0.95,
		DetectedEntities:   map[string][]string{"legal_clauses": {normalizedQuery}},
		Keywords:           []string{strings.ToLower(normalizedQuery)},
		TemporalReferences: nil,
		Reasoning:          "legal_clause_fast_path_detected",
	}

	plan := model.RetrievalPlan{
		NumRewrites:     1,
		NumHops:         1,
		TopKPerVertical: finalTopK,
		TopKTotal:       finalTopK,
		UseInternet:     false,
		UseHybrid:       false,
		RerankTopK:      finalTopK,
		DiversityWeight: 0,
		Mode:            "fast_clause_lookup",
	}

	return interp, plan, results, true
}
