package rerank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
)

func candidate(chunkID string, score float64, vertical model.Vertical, content string) model.RetrievalResult {
	return model.RetrievalResult{ChunkID: chunkID, Score: score, Vertical: vertical, Content: content}
}

func TestShouldSkipDiversity_ZeroWeightAlwaysSkips(t *testing.T) {
	t.Parallel()
	candidates := []model.RetrievalResult{candidate("a", 0.9, model.VerticalLegal, "")}
	assert.True(t, ShouldSkipDiversity(0, candidates))
}

func TestShouldSkipDiversity_SkipsWhenTop3AlreadySpanTwoVerticals(t *testing.T) {
	t.Parallel()
	candidates := []model.RetrievalResult{
		candidate("a", 0.9, model.VerticalLegal, ""),
		candidate("b", 0.8, model.VerticalGO, ""),
		candidate("c", 0.7, model.VerticalLegal, ""),
	}
	assert.True(t, ShouldSkipDiversity(0.4, candidates))
}

func TestShouldSkipDiversity_DoesNotSkipWhenTop3AreOneVertical(t *testing.T) {
	t.Parallel()
	candidates := []model.RetrievalResult{
		candidate("a", 0.9, model.VerticalLegal, ""),
		candidate("b", 0.8, model.VerticalLegal, ""),
		candidate("c", 0.7, model.VerticalLegal, ""),
	}
	assert.False(t, ShouldSkipDiversity(0.4, candidates))
}

func TestDiversityRerank_RespectsTopN(t *testing.T) {
	t.Parallel()
	candidates := []model.RetrievalResult{
		candidate("a", 0.9, model.VerticalLegal, "teacher recruitment process"),
		candidate("b", 0.8, model.VerticalGO, "scheme scholarship details"),
		candidate("c", 0.7, model.VerticalLegal, "curriculum syllabus update"),
		candidate("d", 0.6, model.VerticalData, "infrastructure classroom building"),
	}
	out := DiversityRerank(candidates, []string{"teacher_workforce", "welfare_schemes", "curriculum"}, 0.5, 2)
	assert.Len(t, out, 2)
}

func TestDiversityRerank_ZeroDiversityWeightFallsBackToPureRelevance(t *testing.T) {
	t.Parallel()
	candidates := []model.RetrievalResult{
		candidate("a", 0.5, model.VerticalLegal, "teacher recruitment"),
		candidate("b", 0.9, model.VerticalGO, "teacher recruitment"),
		candidate("c", 0.7, model.VerticalData, "teacher recruitment"),
	}
	out := DiversityRerank(candidates, []string{"teacher_workforce"}, 0, 3)
	assert.Equal(t, "b", out[0].ChunkID, "lambda=1 must select purely by relevance score")
	assert.Equal(t, "c", out[1].ChunkID)
	assert.Equal(t, "a", out[2].ChunkID)
}

func TestDiversityRerank_PrefersUncoveredCategoryWhenRelevanceTies(t *testing.T) {
	t.Parallel()
	candidates := []model.RetrievalResult{
		candidate("a", 0.5, model.VerticalLegal, "teacher recruitment details"),
		candidate("c", 0.5, model.VerticalLegal, "teacher transfer details"),
		candidate("b", 0.5, model.VerticalGO, "scheme scholarship details"),
	}
	// High diversity weight: the first pick is "a", the first of the tied
	// items since bestScore uses a strict '>' comparison. It covers
	// teacher_workforce, so "c" (same category) has no novelty left and "b"
	// (uncovered welfare_schemes) wins the second slot.
	out := DiversityRerank(candidates, []string{"teacher_workforce", "welfare_schemes"}, 0.9, 2)
	assert.Len(t, out, 2)
	assert.Equal(t, []string{"a", "b"}, chunkIDsOf(out))
}

func TestDiversityRerank_EmptyInputReturnsEmpty(t *testing.T) {
	t.Parallel()
	out := DiversityRerank(nil, []string{"teacher_workforce"}, 0.5, 5)
	assert.Empty(t, out)
}

func TestPredictCategories_MatchesKeywordLexiconWithoutCallingProvider(t *testing.T) {
	t.Parallel()
	categories := PredictCategories("what is the teacher recruitment process", nil)
	assert.Contains(t, categories, "teacher_workforce")
}

func TestPredictCategories_NoMatchAndNilProviderReturnsNil(t *testing.T) {
	t.Parallel()
	categories := PredictCategories("xyz abc qqq", nil)
	assert.Nil(t, categories)
}

func chunkIDsOf(results []model.RetrievalResult) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ChunkID
	}
	return ids
}
