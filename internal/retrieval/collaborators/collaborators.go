// Package collaborators defines the external-system interfaces the
// retrieval engine consumes. Every concrete implementation (Qdrant, OpenAI,
// Anthropic, a deterministic test fake, ...) lives in a subpackage; the
// core pipeline never imports a concrete adapter directly.
package collaborators

import "context"

// FilterCondition is a leaf condition in the minimal vector-store filter
// shape named in spec.md §6: {key, match:{value}} or {key, range:{gte,lte}}.
type FilterCondition struct {
	Key   string
	Match *MatchValue
	Range *RangeValue
}

type MatchValue struct{ Value any }
type RangeValue struct{ GTE, LTE any }

// Filter is the {must:[...], should:[...]} shape. Nested conditions over
// arrays of relations (e.g. entities.departments) are expressed as ordinary
// FilterConditions whose Key is a dotted path.
type Filter struct {
	Must   []FilterCondition
	Should []FilterCondition
}

// Point is a single vector-store hit or scroll row.
type Point struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// VectorStore is the external vector store named in spec.md §6. The core
// treats it as read-only; create_collection/create_payload_index are
// ingestion-side operations and are not part of this interface.
type VectorStore interface {
	// QueryPoints runs a nearest-neighbor search in collection, limited to
	// limit results with score >= scoreThreshold, honoring the optional
	// filter. withPayload is always true for the core's usage.
	QueryPoints(ctx context.Context, collection string, queryVector []float32, limit int, scoreThreshold float64, filter *Filter) ([]Point, error)
	// Scroll pages through a collection without vector similarity, used for
	// BM25 index building and relation/clause lookups.
	Scroll(ctx context.Context, collection string, filter *Filter, limit int, offset string) (points []Point, nextOffset string, err error)
	// Retrieve batch-fetches points by id, used for neighbor expansion.
	Retrieve(ctx context.Context, collection string, ids []string) ([]Point, error)
	// Collections lists known collection names.
	Collections(ctx context.Context) ([]string, error)
}

// Embedder is the external embedding model named in spec.md §6. Expected to
// be deterministic; the embedding cache assumes it.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// BM25Hit is a single sparse-search result.
type BM25Hit struct {
	ChunkID  string
	Score    float64
	Content  string
	Vertical string
	Metadata map[string]any
}

// BM25Index is the internal-external BM25 index named in spec.md §6.
type BM25Index interface {
	Search(ctx context.Context, query string, topK int) ([]BM25Hit, error)
}

// Provider is the external generation LLM, used by the query rewriter and
// by the diversity reranker's category-prediction fallback (the
// answer-generation layer is out of scope). Mirrors the shape of the
// teacher's internal/llm.Provider but trimmed to a single prompt-in,
// text-out call.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// CrossEncoderCandidate is one (content, score) pair submitted for pairwise
// reranking.
type CrossEncoderCandidate struct {
	ChunkID string
	Content string
	Score   float64
}

// CrossEncoder is the external pairwise reranking model.
type CrossEncoder interface {
	Rerank(ctx context.Context, query string, candidates []CrossEncoderCandidate, topK int, mode string) ([]CrossEncoderCandidate, error)
}

// WebHit is a single internet-search result.
type WebHit struct {
	Title, Snippet, URL, Domain string
}

// InternetSearch is the external web search collaborator.
type InternetSearch interface {
	Search(ctx context.Context, query string, topK int, timeout float64) ([]WebHit, error)
}

// ClauseMatch is a single instant-lookup hit from the clause indexer.
type ClauseMatch struct {
	ChunkID, DocID, Content, Vertical string
	Confidence                        float64
}

// ClauseIndexer is the external clause index consulted by the legal-clause
// fast path (C7).
type ClauseIndexer interface {
	LookupClause(ctx context.Context, query string) ([]ClauseMatch, error)
}
