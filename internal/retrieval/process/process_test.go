package process

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
)

func result(chunkID string, score float64, vertical model.Vertical) model.RetrievalResult {
	return model.RetrievalResult{ChunkID: chunkID, Score: score, Vertical: vertical}
}

func TestDeduplicate_KeepsHighestScoringOccurrence(t *testing.T) {
	t.Parallel()
	in := []model.RetrievalResult{
		result("a", 0.4, model.VerticalLegal),
		result("b", 0.9, model.VerticalGO),
		result("a", 0.7, model.VerticalLegal),
	}
	out := Deduplicate(in)

	assert.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ChunkID)
	assert.Equal(t, 0.7, out[0].Score, "duplicate must keep the higher of the two scores")
	assert.Equal(t, "b", out[1].ChunkID)
}

func TestDeduplicate_PreservesFirstSeenOrder(t *testing.T) {
	t.Parallel()
	in := []model.RetrievalResult{
		result("c", 0.1, model.VerticalData),
		result("a", 0.2, model.VerticalLegal),
		result("b", 0.3, model.VerticalGO),
	}
	out := Deduplicate(in)
	assert.Equal(t, []string{"c", "a", "b"}, chunkIDs(out))
}

func chunkIDs(results []model.RetrievalResult) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ChunkID
	}
	return ids
}

func TestNormalize_EqualScoresCollapseToOne(t *testing.T) {
	t.Parallel()
	in := []model.RetrievalResult{
		result("a", 0.5, model.VerticalLegal),
		result("b", 0.5, model.VerticalGO),
	}
	out := Normalize(in, NormalizeMinMax)
	for _, r := range out {
		assert.Equal(t, 1.0, r.Score)
	}
}

func TestNormalize_MinMaxPreservesRelativeOrder(t *testing.T) {
	t.Parallel()
	in := []model.RetrievalResult{
		result("a", 0.2, model.VerticalLegal),
		result("b", 0.8, model.VerticalGO),
		result("c", 0.5, model.VerticalData),
	}
	out := Normalize(in, NormalizeMinMax)

	assert.Equal(t, 0.0, out[0].Score)
	assert.Equal(t, 1.0, out[1].Score)
	assert.InDelta(t, 0.5, out[2].Score, 1e-9)
	assert.True(t, out[0].Score < out[2].Score && out[2].Score < out[1].Score)
}

func TestNormalize_RecordsRawScoreOnce(t *testing.T) {
	t.Parallel()
	in := []model.RetrievalResult{result("a", 0.3, model.VerticalLegal), result("b", 0.9, model.VerticalGO)}
	out := Normalize(in, NormalizeMinMax)
	assert.Equal(t, 0.3, out[0].Metadata["raw_score"])
	assert.Equal(t, 0.9, out[1].Metadata["raw_score"])
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	t.Parallel()
	in := []model.RetrievalResult{result("a", 0.3, model.VerticalLegal), result("b", 0.9, model.VerticalGO)}
	_ = Normalize(in, NormalizeMinMax)
	assert.Equal(t, 0.3, in[0].Score)
	assert.Equal(t, 0.9, in[1].Score)
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()
	in := []model.RetrievalResult{
		result("a", 0.2, model.VerticalLegal),
		result("b", 0.8, model.VerticalGO),
	}
	once := Normalize(in, NormalizeMinMax)
	twice := Normalize(once, NormalizeMinMax)
	for i := range once {
		assert.InDelta(t, once[i].Score, twice[i].Score, 1e-9)
	}
}

func TestReciprocalRankFusion_FavorsItemRankedHighAcrossLists(t *testing.T) {
	t.Parallel()
	listA := RankedList{Results: []model.RetrievalResult{
		result("x", 0, model.VerticalLegal),
		result("y", 0, model.VerticalLegal),
		result("z", 0, model.VerticalLegal),
	}}
	listB := RankedList{Results: []model.RetrievalResult{
		result("x", 0, model.VerticalLegal),
		result("z", 0, model.VerticalLegal),
		result("y", 0, model.VerticalLegal),
	}}

	fused := ReciprocalRankFusion([]RankedList{listA, listB})

	a := assert.New(t)
	a.Equal("x", fused[0].ChunkID, "item ranked first in both lists should fuse to first place")
	// x: 1/61 + 1/61 = 2/61; y: 1/62 + 1/63; z: 1/63 + 1/62 -> y and z tie.
	a.InDelta(1.0, fused[0].Metadata["rrf_score"], 1e-9)
	a.Equal("rrf", fused[0].Metadata["fusion_method"])
}

func TestReciprocalRankFusion_FinalScoreIsRankBased(t *testing.T) {
	t.Parallel()
	list := RankedList{Results: []model.RetrievalResult{
		result("a", 0, model.VerticalLegal),
		result("b", 0, model.VerticalGO),
		result("c", 0, model.VerticalData),
	}}
	fused := ReciprocalRankFusion([]RankedList{list})

	for i, r := range fused {
		assert.InDelta(t, 1.0/float64(i+1), r.Score, 1e-9)
		assert.InDelta(t, 1.0/float64(i+1), r.Metadata["rrf_score"], 1e-9)
	}
}

func TestReciprocalRankFusion_SingleItemInAllLists(t *testing.T) {
	t.Parallel()
	lists := []RankedList{
		{Results: []model.RetrievalResult{result("only", 0, model.VerticalLegal)}},
		{Results: []model.RetrievalResult{result("only", 0, model.VerticalLegal)}},
	}
	fused := ReciprocalRankFusion(lists)
	assert.Len(t, fused, 1)
	assert.Equal(t, 1.0, fused[0].Score)
}

func TestGroupByVertical_PreservesOrderWithinGroup(t *testing.T) {
	t.Parallel()
	in := []model.RetrievalResult{
		result("a", 0.9, model.VerticalLegal),
		result("b", 0.1, model.VerticalGO),
		result("c", 0.5, model.VerticalLegal),
	}
	groups := GroupByVertical(in)
	assert.Equal(t, []string{"a", "c"}, chunkIDs(groups[model.VerticalLegal]))
	assert.Equal(t, []string{"b"}, chunkIDs(groups[model.VerticalGO]))
}

func TestPartitionSupersession_MovesSupersededToTail(t *testing.T) {
	t.Parallel()
	superseded := result("old", 0.9, model.VerticalLegal)
	superseded.Metadata = map[string]any{"currency_status": "superseded"}
	current := result("new", 0.1, model.VerticalLegal)

	out := PartitionSupersession([]model.RetrievalResult{superseded, current})

	assert.Equal(t, []string{"new", "old"}, chunkIDs(out))
}

func TestPartitionSupersession_PreservesRelativeOrderWithinPartitions(t *testing.T) {
	t.Parallel()
	a := result("a", 0.9, model.VerticalLegal)
	b := result("b", 0.8, model.VerticalLegal)
	b.Metadata = map[string]any{"currency_status": "superseded"}
	c := result("c", 0.7, model.VerticalLegal)
	d := result("d", 0.6, model.VerticalLegal)
	d.Metadata = map[string]any{"currency_status": "superseded"}

	out := PartitionSupersession([]model.RetrievalResult{a, b, c, d})
	assert.Equal(t, []string{"a", "c", "b", "d"}, chunkIDs(out))
}
