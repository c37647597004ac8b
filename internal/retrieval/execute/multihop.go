package execute

import (
	"context"
	"regexp"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
)

var (
	hopGoRefPattern   = regexp.MustCompile(`(?i)GO\.?\s*(?:Ms\.?|Rt\.?)?\s*No\.?\s*\d+`)
	hopSectionPattern = regexp.MustCompile(`(?i)Section\s+\d+(?:\([a-z0-9]+\))?`)
)

// NeedsHop2 implements the multi-hop trigger condition from spec.md §4.9:
// the max of the top-5 raw scores is below 0.6, or the query type warrants
// deeper coverage, or the caller explicitly asked for deep_search.
func NeedsHop2(hop1Results []model.RetrievalResult, queryType model.QueryType, customPlan map[string]any) bool {
	if v, ok := customPlan["deep_search"].(bool); ok && v {
		return true
	}
	switch queryType {
	case model.TypePolicy, model.TypeFramework, model.TypeBrainstorm:
		return true
	}
	return maxTop5RawScore(hop1Results) < 0.6
}

func maxTop5RawScore(results []model.RetrievalResult) float64 {
	n := len(results)
	if n > 5 {
		n = 5
	}
	max := 0.0
	for i := 0; i < n; i++ {
		if results[i].Score > max {
			max = results[i].Score
		}
	}
	return max
}

// ExtractHopQueries regex-extracts up to 3 GO refs and up to 3 section
// refs from the top-10 hop-1 content, per spec.md §4.9.
func ExtractHopQueries(hop1Results []model.RetrievalResult) []string {
	n := len(hop1Results)
	if n > 10 {
		n = 10
	}

	var goRefs, sections []string
	seen := map[string]bool{}
	addUnique := func(dst *[]string, limit int, val string) {
		if len(*dst) >= limit || seen[val] {
			return
		}
		seen[val] = true
		*dst = append(*dst, val)
	}

	for i := 0; i < n; i++ {
		content := hop1Results[i].Content
		for _, m := range hopGoRefPattern.FindAllString(content, -1) {
			addUnique(&goRefs, 3, m)
		}
		for _, m := range hopSectionPattern.FindAllString(content, -1) {
			addUnique(&sections, 3, m)
		}
	}

	out := make([]string, 0, len(goRefs)+len(sections))
	out = append(out, goRefs...)
	out = append(out, sections...)
	return out
}

// RunHop2 searches the hop-2 queries across the same verticals at half the
// per-vertical top_k, tagging results with HopNumber=2.
func RunHop2(ctx context.Context, deps Deps, hop1Results []model.RetrievalResult, verticals []model.Vertical, plan model.RetrievalPlan, workers int) []model.RetrievalResult {
	hopQueries := ExtractHopQueries(hop1Results)
	if len(hopQueries) == 0 {
		return nil
	}

	hopPlan := plan
	hopPlan.TopKPerVertical = plan.TopKPerVertical / 2
	if hopPlan.TopKPerVertical < 1 {
		hopPlan.TopKPerVertical = 1
	}

	return Execute(ctx, deps, hopQueries, verticals, hopPlan, workers, 2)
}
