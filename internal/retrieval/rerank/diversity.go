package rerank

import (
	"context"
	"strings"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/collaborators"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
)

// policyCategoryKeywords is a small lexicon used to predict the policy
// categories a query touches, for MMR coverage scoring. Not a full
// classifier — a cheap heuristic, per spec.md §4.14's "predicts a small
// set of policy categories for the query".
var policyCategoryKeywords = map[string][]string{
	"education_access":  {"enrollment", "enrolment", "admission", "dropout", "out of school"},
	"teacher_workforce": {"teacher", "recruitment", "transfer", "salary", "training"},
	"curriculum":        {"curriculum", "syllabus", "pedagogy", "textbook"},
	"infrastructure":    {"building", "toilet", "classroom", "infrastructure"},
	"welfare_schemes":   {"scheme", "scholarship", "meal", "uniform", "stipend"},
	"governance":        {"compliance", "monitoring", "audit", "committee"},
}

// PredictCategories returns the policy categories whose keywords appear in
// the query. The orchestrator calls it once per query, only when the
// diversity pass runs; the categories are not stored in the output metadata.
func PredictCategories(query string, provider collaborators.Provider) []string {
	lower := strings.ToLower(query)
	var categories []string
	for cat, keywords := range policyCategoryKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				categories = append(categories, cat)
				break
			}
		}
	}
	if len(categories) > 0 || provider == nil {
		return categories
	}
	// Optional LLM fallback only when the keyword lexicon found nothing;
	// best-effort, swallow errors.
	raw, err := provider.Generate(context.Background(), "List up to 3 policy categories (single words) this query concerns: "+query)
	if err != nil || raw == "" {
		return nil
	}
	for _, tok := range strings.Fields(raw) {
		tok = strings.Trim(strings.ToLower(tok), ",.;")
		if tok != "" {
			categories = append(categories, tok)
		}
	}
	return categories
}

// ShouldSkipDiversity implements the two skip conditions from spec.md §4.14:
// diversity_weight == 0, or the top-3 candidates already span >= 2
// verticals.
func ShouldSkipDiversity(diversityWeight float64, candidates []model.RetrievalResult) bool {
	if diversityWeight == 0 {
		return true
	}
	n := len(candidates)
	if n > 3 {
		n = 3
	}
	verticals := map[model.Vertical]bool{}
	for i := 0; i < n; i++ {
		verticals[candidates[i].Vertical] = true
	}
	return len(verticals) >= 2
}

func categoryScore(r model.RetrievalResult, categories []string) float64 {
	if len(categories) == 0 {
		return 0
	}
	content := strings.ToLower(r.Content)
	var hits float64
	for _, cat := range categories {
		for _, kw := range policyCategoryKeywords[cat] {
			if strings.Contains(content, kw) {
				hits++
				break
			}
		}
	}
	return hits / float64(len(categories))
}

// DiversityRerank performs MMR-style selection: lambda = 1 - diversityWeight
// trades relevance against coverage of the predicted category set.
func DiversityRerank(candidates []model.RetrievalResult, categories []string, diversityWeight float64, topN int) []model.RetrievalResult {
	if len(candidates) == 0 {
		return candidates
	}
	if topN <= 0 || topN > len(candidates) {
		topN = len(candidates)
	}

	lambda := 1 - diversityWeight
	remaining := make([]model.RetrievalResult, len(candidates))
	copy(remaining, candidates)

	selected := make([]model.RetrievalResult, 0, topN)
	coveredCategories := map[string]bool{}

	for len(selected) < topN && len(remaining) > 0 {
		bestIdx := -1
		bestScore := -1.0
		for i, r := range remaining {
			relevance := r.Score
			noveltyBonus := newCategoryCoverage(r, categories, coveredCategories)
			mmrScore := lambda*relevance + (1-lambda)*noveltyBonus
			if mmrScore > bestScore {
				bestScore = mmrScore
				bestIdx = i
			}
		}
		chosen := remaining[bestIdx]
		selected = append(selected, chosen)
		for _, cat := range matchedCategories(chosen, categories) {
			coveredCategories[cat] = true
		}
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}

func matchedCategories(r model.RetrievalResult, categories []string) []string {
	content := strings.ToLower(r.Content)
	var out []string
	for _, cat := range categories {
		for _, kw := range policyCategoryKeywords[cat] {
			if strings.Contains(content, kw) {
				out = append(out, cat)
				break
			}
		}
	}
	return out
}

func newCategoryCoverage(r model.RetrievalResult, categories []string, covered map[string]bool) float64 {
	matched := matchedCategories(r, categories)
	if len(matched) == 0 {
		return 0
	}
	var novel float64
	for _, cat := range matched {
		if !covered[cat] {
			novel++
		}
	}
	return novel / float64(len(matched))
}
