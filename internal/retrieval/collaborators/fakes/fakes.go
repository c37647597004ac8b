// Package fakes provides deterministic in-memory implementations of every
// collaborators interface, for tests that need reproducible vectors and
// fusion/rerank results without a live service. The embedder follows the
// teacher's internal/rag/embedder.deterministicEmbedder (FNV-hashed byte
// 3-grams, L2-normalized).
package fakes

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"strings"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/collaborators"
)

// DeterministicEmbedder hashes byte 3-grams into a fixed-size, L2-normalized
// vector. Same text always yields the same vector.
type DeterministicEmbedder struct {
	Dim int
}

func NewDeterministicEmbedder(dim int) *DeterministicEmbedder {
	if dim <= 0 {
		dim = 64
	}
	return &DeterministicEmbedder{Dim: dim}
}

func (d *DeterministicEmbedder) Dimension() int { return d.Dim }

func (d *DeterministicEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = d.embedOne(t)
	}
	return out, nil
}

func (d *DeterministicEmbedder) embedOne(s string) []float32 {
	v := make([]float32, d.Dim)
	b := []byte(s)
	if len(b) == 0 {
		return v
	}
	if len(b) < 3 {
		addGram(b, v)
	} else {
		for i := 0; i <= len(b)-3; i++ {
			addGram(b[i:i+3], v)
		}
	}
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum > 0 {
		inv := float32(1.0 / math.Sqrt(sum))
		for i := range v {
			v[i] *= inv
		}
	}
	return v
}

func addGram(gram []byte, v []float32) {
	h := fnv.New64a()
	_, _ = h.Write(gram)
	hv := h.Sum64()
	idx := int(hv % uint64(len(v)))
	w := float32(int32(hv>>32)) / float32(1<<31)
	v[idx] += w
}

// VectorStore is an in-memory collaborators.VectorStore over fixed points,
// scored by cosine similarity against DeterministicEmbedder vectors.
type VectorStore struct {
	Collections_ map[string][]collaborators.Point
	Embedder     *DeterministicEmbedder
}

func NewVectorStore(embedder *DeterministicEmbedder) *VectorStore {
	return &VectorStore{Collections_: map[string][]collaborators.Point{}, Embedder: embedder}
}

// Seed registers a point with precomputed content text (embedded on the
// fly for cosine scoring) in a collection.
func (v *VectorStore) Seed(collection string, p collaborators.Point, content string) {
	vecs, _ := v.Embedder.Embed(context.Background(), []string{content})
	if p.Payload == nil {
		p.Payload = map[string]any{}
	}
	p.Payload["_vector"] = vecs[0]
	v.Collections_[collection] = append(v.Collections_[collection], p)
}

func (v *VectorStore) QueryPoints(_ context.Context, collection string, queryVector []float32, limit int, scoreThreshold float64, filter *collaborators.Filter) ([]collaborators.Point, error) {
	pts := v.Collections_[collection]
	scored := make([]collaborators.Point, 0, len(pts))
	for _, p := range pts {
		if !matches(p, filter) {
			continue
		}
		vec, _ := p.Payload["_vector"].([]float32)
		score := cosine(queryVector, vec)
		if score < scoreThreshold {
			continue
		}
		out := p
		out.Score = score
		scored = append(scored, out)
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (v *VectorStore) Scroll(_ context.Context, collection string, filter *collaborators.Filter, limit int, _ string) ([]collaborators.Point, string, error) {
	pts := v.Collections_[collection]
	out := make([]collaborators.Point, 0, len(pts))
	for _, p := range pts {
		if matches(p, filter) {
			out = append(out, p)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, "", nil
}

func (v *VectorStore) Retrieve(_ context.Context, collection string, ids []string) ([]collaborators.Point, error) {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []collaborators.Point
	for _, p := range v.Collections_[collection] {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (v *VectorStore) Collections(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(v.Collections_))
	for k := range v.Collections_ {
		out = append(out, k)
	}
	return out, nil
}

func matches(p collaborators.Point, f *collaborators.Filter) bool {
	if f == nil {
		return true
	}
	for _, c := range f.Must {
		if !matchCondition(p, c) {
			return false
		}
	}
	if len(f.Should) == 0 {
		return true
	}
	for _, c := range f.Should {
		if matchCondition(p, c) {
			return true
		}
	}
	return false
}

func matchCondition(p collaborators.Point, c collaborators.FilterCondition) bool {
	val, ok := p.Payload[c.Key]
	if !ok {
		return false
	}
	if c.Match != nil {
		return val == c.Match.Value
	}
	return true
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// BM25Index is a trivial substring-overlap sparse index for tests.
type BM25Index struct {
	Hits map[string][]collaborators.BM25Hit
}

func NewBM25Index() *BM25Index { return &BM25Index{Hits: map[string][]collaborators.BM25Hit{}} }

func (b *BM25Index) Search(_ context.Context, query string, topK int) ([]collaborators.BM25Hit, error) {
	q := strings.ToLower(query)
	var out []collaborators.BM25Hit
	for key, hits := range b.Hits {
		if strings.Contains(q, strings.ToLower(key)) || strings.Contains(strings.ToLower(key), q) {
			out = append(out, hits...)
		}
	}
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// Provider is a scripted collaborators.Provider for rewriter tests.
type Provider struct {
	Response string
	Err      error
}

func (p *Provider) Generate(_ context.Context, _ string) (string, error) { return p.Response, p.Err }

// CrossEncoder keeps each candidate's incoming score, stable-sorts them
// descending and truncates to topK, so results are deterministic for
// assertions.
type CrossEncoder struct{}

func (CrossEncoder) Rerank(_ context.Context, _ string, candidates []collaborators.CrossEncoderCandidate, topK int, _ string) ([]collaborators.CrossEncoderCandidate, error) {
	out := make([]collaborators.CrossEncoderCandidate, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// InternetSearch returns a scripted set of web hits.
type InternetSearch struct {
	Hits []collaborators.WebHit
	Err  error
}

func (i *InternetSearch) Search(_ context.Context, _ string, topK int, _ float64) ([]collaborators.WebHit, error) {
	if i.Err != nil {
		return nil, i.Err
	}
	out := i.Hits
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// ClauseIndexer returns a scripted set of clause matches.
type ClauseIndexer struct {
	Matches []collaborators.ClauseMatch
}

func (c *ClauseIndexer) LookupClause(_ context.Context, _ string) ([]collaborators.ClauseMatch, error) {
	return c.Matches, nil
}
