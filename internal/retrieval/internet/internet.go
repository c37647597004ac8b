// Package internet implements C10 (Internet Handler), grounded on
// original_source/retrieval_v3/pipeline/internet_handler.py and the
// teacher's internal/tools/web search adapter shape.
package internet

import (
	"context"
	"fmt"
	"time"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/collaborators"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
)

const searchTimeout = 10 * time.Second

// ShouldEnable decides whether the internet vertical runs: an explicit
// custom_plan.internet_enabled override takes priority over the plan's
// use_internet flag derived from interpretation.
func ShouldEnable(customPlan map[string]any, planUseInternet bool) bool {
	if v, ok := customPlan["internet_enabled"].(bool); ok {
		return v
	}
	return planUseInternet
}

// Search calls the external search collaborator and converts hits to
// RetrievalResults with a decaying score, per spec.md §4.10. Failures are
// swallowed and return an empty slice — internet search is best-effort.
func Search(ctx context.Context, searcher collaborators.InternetSearch, query string, topK int, nowUnix int64) []model.RetrievalResult {
	if searcher == nil {
		return nil
	}

	searchCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	hits, err := searcher.Search(searchCtx, query, topK, searchTimeout.Seconds())
	if err != nil || len(hits) == 0 {
		return nil
	}

	out := make([]model.RetrievalResult, 0, len(hits))
	for i, h := range hits {
		score := 0.85 - 0.05*float64(i)
		if score < 0 {
			score = 0
		}
		out = append(out, model.RetrievalResult{
			ChunkID:  fmt.Sprintf("web_%d_%d", i, nowUnix),
			DocID:    h.URL,
			Content:  h.Title + "\n" + h.Snippet,
			Score:    score,
			Vertical: model.VerticalInternet,
			Metadata: map[string]any{
				"is_web": true,
				"url":    h.URL,
				"domain": h.Domain,
				"title":  h.Title,
			},
		})
	}
	return out
}
