// Package routing implements C5 (Vertical Router) and C6 (Plan Builder).
package routing

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
)

var (
	broadPolicyKeywords = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\ball\s+(?:policies|verticals|sources)\b`),
		regexp.MustCompile(`(?i)\bcomprehensive\b`),
		regexp.MustCompile(`(?i)\bacross\s+(?:all|every)\b`),
		regexp.MustCompile(`(?i)\bholistic\b`),
	}

	entityLegalGoPattern = regexp.MustCompile(`(?i)\bsection\s+\d+|\bGO\.?\s*(?:Ms\.?|Rt\.?)?\s*No\.?\s*\d+`)

	// keywordVerticalTable scores candidate verticals from bare keyword hits.
	keywordVerticalTable = []struct {
		pattern  *regexp.Regexp
		vertical model.Vertical
	}{
		{regexp.MustCompile(`(?i)\bact\b|\bclause\b|\bstatute\b`), model.VerticalLegal},
		{regexp.MustCompile(`(?i)\border\b|\bcircular\b|\bgo\b`), model.VerticalGO},
		{regexp.MustCompile(`(?i)\bcourt\b|\bjudgment\b|\bjudgement\b|\bruling\b`), model.VerticalJudicial},
		{regexp.MustCompile(`(?i)\bscheme\b|\byojana\b|\bprogramme\b`), model.VerticalSchemes},
		{regexp.MustCompile(`(?i)\bdata\b|\bstatistics\b|\breport\b|\bsurvey\b`), model.VerticalData},
	}

	// typeDefaults gives fixed default vertical sets per query type, used
	// when entity/keyword signals are thin.
	typeDefaults = map[model.QueryType][]model.Vertical{
		model.TypeQA:         {model.VerticalLegal, model.VerticalGO},
		model.TypeCompliance: {model.VerticalLegal, model.VerticalGO},
		model.TypeHistory:    {model.VerticalGO, model.VerticalJudicial, model.VerticalLegal},
		model.TypeComparison: {model.VerticalSchemes, model.VerticalData, model.VerticalGO},
	}
)

// RouteVerticals runs C5: given an interpretation and the normalized query,
// returns the set of verticals to search, in fixed priority order. Per
// spec.md §4.5.
func RouteVerticals(normalizedQuery string, interp model.Interpretation) []model.Vertical {
	if isBroadPolicyQuery(normalizedQuery, interp.QueryType) {
		return append([]model.Vertical(nil), model.AllVerticals...)
	}

	set := map[model.Vertical]bool{}

	if entityLegalGoPattern.MatchString(normalizedQuery) {
		set[model.VerticalLegal] = true
		set[model.VerticalGO] = true
	}

	for _, kv := range keywordVerticalTable {
		if kv.pattern.MatchString(normalizedQuery) {
			set[kv.vertical] = true
		}
	}

	if defaults, ok := typeDefaults[interp.QueryType]; ok {
		for _, v := range defaults {
			set[v] = true
		}
	}

	if len(set) == 0 {
		set[model.VerticalLegal] = true
		set[model.VerticalGO] = true
	}

	out := make([]model.Vertical, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return model.VerticalPriority(out[i]) < model.VerticalPriority(out[j]) })
	return out
}

func isBroadPolicyQuery(q string, qtype model.QueryType) bool {
	switch qtype {
	case model.TypeFramework, model.TypeBrainstorm, model.TypePolicy:
		return true
	}
	for _, p := range broadPolicyKeywords {
		if p.MatchString(q) {
			return true
		}
	}
	return false
}
