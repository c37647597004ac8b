// Package model holds the core, collaborator-agnostic data types shared by
// every retrieval pipeline stage.
package model

import "time"

// Mode is the operating mode requested by the caller.
type Mode string

const (
	ModeQA          Mode = "qa"
	ModeDeepThink    Mode = "deep_think"
	ModeBrainstorm   Mode = "brainstorm"
	ModePolicyBrief  Mode = "policy_brief"
	ModePolicyDraft  Mode = "policy_draft"
)

// Query is the caller's request into the engine.
type Query struct {
	Text            string
	Mode            Mode
	TopK            int // optional override, 0 = unset
	CustomPlan      map[string]any
	ForceVerticals  []Vertical
	ExternalContext string
}

// QueryType classifies the intent of a query.
type QueryType string

const (
	TypeQA         QueryType = "qa"
	TypePolicy     QueryType = "policy"
	TypeList       QueryType = "list"
	TypeFramework  QueryType = "framework"
	TypeCompliance QueryType = "compliance"
	TypeComparison QueryType = "comparison"
	TypeHistory    QueryType = "history"
	TypeBrainstorm QueryType = "brainstorm"
	TypeHR         QueryType = "hr"
)

// Scope classifies how broad a query's intended coverage is.
type Scope string

const (
	ScopeNarrow Scope = "narrow"
	ScopeMedium Scope = "medium"
	ScopeBroad  Scope = "broad"
)

// Interpretation is the immutable output of the query interpreter (C2) or
// of the legal-clause fast path's synthesized equivalent.
type Interpretation struct {
	QueryType          QueryType
	Scope              Scope
	NeedsInternet      bool
	NeedsDeepMode      bool
	Confidence         float64
	DetectedEntities   map[string][]string
	Keywords           []string
	TemporalReferences []string
	Reasoning          string
}

// RetrievalPlan drives how much work the executor does.
type RetrievalPlan struct {
	NumRewrites      int
	NumHops          int // 1 or 2
	TopKPerVertical  int
	TopKTotal        int
	UseInternet      bool
	UseHybrid        bool
	RerankTopK       int
	DiversityWeight  float64 // [0,1]
	Mode             string
}

// Rewrite is one generated query variant.
type Rewrite struct {
	Text         string
	TargetDomain string
	Rationale    string
}

// Vertical is a named corpus partition mapped 1:1 to an external collection.
type Vertical string

const (
	VerticalLegal    Vertical = "legal"
	VerticalGO       Vertical = "go"
	VerticalJudicial Vertical = "judicial"
	VerticalData     Vertical = "data"
	VerticalSchemes  Vertical = "schemes"
	VerticalInternet Vertical = "internet"
)

// AllVerticals lists the five corpus verticals, in fixed search priority
// order (lower index = searched first): legal < go < judicial < schemes < data.
var AllVerticals = []Vertical{VerticalLegal, VerticalGO, VerticalJudicial, VerticalSchemes, VerticalData}

// VerticalPriority returns the fixed sort priority for a vertical; unknown
// verticals sort last.
func VerticalPriority(v Vertical) int {
	for i, cand := range AllVerticals {
		if cand == v {
			return i
		}
	}
	return len(AllVerticals)
}

// RetrievalResult is a single retrieved (and possibly reranked) chunk.
type RetrievalResult struct {
	ChunkID       string
	DocID         string
	Content       string
	Score         float64
	Vertical      Vertical
	Metadata      map[string]any
	RewriteSource string
	HopNumber     int // 1 or 2
}

// RetrievalOutput is the complete result of one retrieve() call.
type RetrievalOutput struct {
	Query             string
	NormalizedQuery   string
	Interpretation    Interpretation
	Plan              RetrievalPlan
	Rewrites          []string
	VerticalsSearched []Vertical
	Results           []RetrievalResult
	TotalCandidates   int
	FinalCount        int
	ProcessingTime    time.Duration
	Metadata          map[string]any
	TraceSteps        []string
}

// AddTrace appends a human-readable decision-trace entry.
func (o *RetrievalOutput) AddTrace(step string) {
	o.TraceSteps = append(o.TraceSteps, step)
}
