package routing

import "github.com/Nithin8919/policyretrieval/internal/retrieval/model"

// modeBaseline is the default plan for one operating mode, per spec.md
// §4.6's mode baselines table.
type modeBaseline struct {
	numRewrites     int
	numHops         int
	topKPerVertical int
	topKTotal       int
	useInternet     bool
	useHybrid       bool
	rerankTopK      int
	diversityWeight float64
}

var modeBaselines = map[model.Mode]modeBaseline{
	model.ModeQA: {
		numRewrites: 1, numHops: 1, topKPerVertical: 5, topKTotal: 10,
		useInternet: false, useHybrid: true, rerankTopK: 10, diversityWeight: 0.1,
	},
	model.ModePolicyBrief: {
		numRewrites: 3, numHops: 1, topKPerVertical: 10, topKTotal: 25,
		useInternet: false, useHybrid: true, rerankTopK: 20, diversityWeight: 0.3,
	},
	model.ModePolicyDraft: {
		numRewrites: 4, numHops: 2, topKPerVertical: 15, topKTotal: 40,
		useInternet: true, useHybrid: true, rerankTopK: 30, diversityWeight: 0.4,
	},
	model.ModeDeepThink: {
		numRewrites: 5, numHops: 2, topKPerVertical: 20, topKTotal: 60,
		useInternet: true, useHybrid: true, rerankTopK: 40, diversityWeight: 0.5,
	},
	model.ModeBrainstorm: {
		numRewrites: 4, numHops: 1, topKPerVertical: 15, topKTotal: 40,
		useInternet: true, useHybrid: true, rerankTopK: 30, diversityWeight: 0.6,
	},
}

// compliance has its own baseline, below policy_brief on rewrites, top_k,
// rerank_top_k and diversity, grounded on spec.md §4.6 listing it among the
// baseline modes.
var complianceBaseline = modeBaseline{
	numRewrites: 2, numHops: 1, topKPerVertical: 10, topKTotal: 20,
	useInternet: false, useHybrid: true, rerankTopK: 15, diversityWeight: 0.15,
}

func baselineFor(mode model.Mode, qtype model.QueryType) modeBaseline {
	if qtype == model.TypeCompliance {
		return complianceBaseline
	}
	if b, ok := modeBaselines[mode]; ok {
		return b
	}
	return modeBaselines[model.ModeQA]
}

// BuildPlan runs C6: combine the mode baseline with scope/vertical
// adjustments and custom_plan overrides. Per spec.md §4.6.
func BuildPlan(mode model.Mode, interp model.Interpretation, verticals []model.Vertical, customPlan map[string]any, topKOverride int) model.RetrievalPlan {
	b := baselineFor(mode, interp.QueryType)

	plan := model.RetrievalPlan{
		NumRewrites:     b.numRewrites,
		NumHops:         b.numHops,
		TopKPerVertical: b.topKPerVertical,
		TopKTotal:       b.topKTotal,
		UseInternet:     b.useInternet || interp.NeedsInternet,
		UseHybrid:       b.useHybrid,
		RerankTopK:      b.rerankTopK,
		DiversityWeight: b.diversityWeight,
		Mode:            string(mode),
	}

	if interp.NeedsDeepMode && plan.NumHops < 2 {
		plan.NumHops = 2
	}

	applyScopeAdjustment(&plan, interp.Scope)
	applyVerticalAdjustment(&plan, len(verticals))
	applyCustomPlan(&plan, customPlan)

	if topKOverride > 0 {
		plan.TopKTotal = topKOverride
	}

	if mode == model.ModeQA {
		plan.NumRewrites = 1
		plan.NumHops = 1
	}

	return plan
}

func applyScopeAdjustment(plan *model.RetrievalPlan, scope model.Scope) {
	switch scope {
	case model.ScopeNarrow:
		plan.TopKPerVertical = scaleInt(plan.TopKPerVertical, 0.7)
		plan.TopKTotal = scaleInt(plan.TopKTotal, 0.7)
		plan.DiversityWeight *= 0.5
	case model.ScopeBroad:
		plan.TopKPerVertical = scaleInt(plan.TopKPerVertical, 1.3)
		plan.TopKTotal = scaleInt(plan.TopKTotal, 1.3)
		plan.DiversityWeight = minFloat(plan.DiversityWeight*1.5, 0.9)
	}
}

func applyVerticalAdjustment(plan *model.RetrievalPlan, numVerticals int) {
	switch {
	case numVerticals == 1:
		plan.TopKPerVertical = scaleInt(plan.TopKPerVertical, 1.5)
	case numVerticals >= 4:
		plan.TopKPerVertical = scaleInt(plan.TopKPerVertical, 0.8)
		plan.TopKTotal = scaleInt(plan.TopKTotal, 1.2)
	}
}

func applyCustomPlan(plan *model.RetrievalPlan, customPlan map[string]any) {
	if customPlan == nil {
		return
	}
	if v, ok := customPlan["num_rewrites"].(int); ok {
		plan.NumRewrites = v
	}
	if v, ok := customPlan["num_hops"].(int); ok {
		plan.NumHops = v
	}
	if v, ok := customPlan["top_k_per_vertical"].(int); ok {
		plan.TopKPerVertical = v
	}
	if v, ok := customPlan["top_k_total"].(int); ok {
		plan.TopKTotal = v
	}
	if v, ok := customPlan["internet_enabled"].(bool); ok {
		plan.UseInternet = v
	}
	if v, ok := customPlan["use_hybrid"].(bool); ok {
		plan.UseHybrid = v
	}
	if v, ok := customPlan["rerank_top_k"].(int); ok {
		plan.RerankTopK = v
	}
	if v, ok := customPlan["diversity_weight"].(float64); ok {
		plan.DiversityWeight = v
	}
}

func scaleInt(v int, factor float64) int {
	scaled := int(float64(v)*factor + 0.5)
	if scaled < 1 {
		return 1
	}
	return scaled
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
