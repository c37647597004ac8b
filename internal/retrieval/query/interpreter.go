package query

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
)

// Pattern banks for query-type detection, ported verbatim from
// original_source/retrieval_v3/query_understanding/query_interpreter.py's
// class-level regex lists.
var (
	qaPatterns = compileAll(
		`\bwhat\s+is\b`, `\bwhat\s+are\b`, `\bwho\s+is\b`, `\bwhen\s+was\b`,
		`\bwhere\s+is\b`, `\bhow\s+many\b`, `\bdefine\b`,
		`\bexplain\b(?:\s+how\s+to\b)?`, `\btell\s+me\s+about\b`,
	)
	frameworkPatterns = compileAll(
		`\bdesign\b`, `\bcreate\s+a\s+framework\b`, `\bdevelop\s+a\s+plan\b`,
		`\bpropose\b`, `\bcomprehensive\s+(?:framework|plan|strategy)\b`,
		`\bhow\s+to\s+(?:implement|design|create|build)\b`, `\bstrategy\s+for\b`,
		`\bapproach\s+to\b`,
	)
	listPatterns = compileAll(
		`\blist\s+(?:all|the)?\b`, `\benumerate\b`,
		`\bwhat\s+are\s+(?:all|the)\s+\w+\s+(?:for|in|of)\b`,
		`\bshow\s+me\s+all\b`, `\bgive\s+me\s+(?:all|the)\s+\w+\b`,
		`\btypes\s+of\b`, `\bcategories\s+of\b`,
	)
	compliancePatterns = compileAll(
		`\bcheck\s+compliance\b`, `\bis\s+\w+\s+compliant\b`, `\bvalidate\b`,
		`\bverify\b`, `\bmeets?\s+requirements?\b`, `\badhere\s+to\b`,
		`\bfollows?\s+the\s+rules?\b`,
	)
	comparisonPatterns = compileAll(
		`\bcompare\b`, `\bdifference\s+between\b`, `\bvs\.?\b`, `\bversus\b`,
		`\bhow\s+does\s+\w+\s+differ\b`, `\bsimilarities\s+and\s+differences\b`,
	)
	historyPatterns = compileAll(
		`\bhistory\s+of\b`, `\bhow\s+has\s+\w+\s+changed\b`, `\bevolution\s+of\b`,
		`\bover\s+time\b`, `\bprevious\b`, `\bold\s+(?:version|rule|policy)\b`,
		`\bsuperseded\b`, `\bamended\b`,
	)
	hrPatterns = compileAll(
		`\bhiring\b`, `\brecruitment\b`, `\bappointment\b`, `\bvacancy\b`,
		`\bpost\b`, `\bjob\b`, `\bsalary\b`, `\bpayscale\b`, `\bremuneration\b`,
		`\bcontract\s+teacher\b`, `\bprivate\s+sector\b`, `\boutsourcing\b`,
		`\bstaffing\b`, `\bhuman\s+resource\b`, `\bservice\s+rules\b`, `\bemployment\b`,
	)

	narrowIndicators = compileAll(
		`\bspecific\b`, `\bexact\b`, `\bsection\s+\d+\b`,
		`\bGO\.?\s*(?:Ms\.?|Rt\.?)?\s*No\.?\s*\d+\b`, `\bclause\s+\d+\b`,
		`\bparagraph\s+\d+\b`, `\bone\s+\w+\b`,
	)
	broadIndicators = compileAll(
		`\ball\b`, `\bcomplete\b`, `\bcomprehensive\b`, `\bentire\b`, `\bfull\b`,
		`\beverything\s+about\b`, `\boverall\b`, `\bholistic\b`, `\bmultiple\b`,
	)
	internetTriggers = compileAll(
		`\blatest\b`, `\brecent\b`, `\bcurrent\b`, `\b202[4-9]\b`, `\b203\d\b`,
		`\bthis\s+year\b`, `\bnew\b`, `\bupdated\b`, `\btoday\b`, `\bnow\b`,
	)
	relativeTimePatterns = compileAll(
		`\blast\s+year\b`, `\bthis\s+year\b`, `\bnext\s+year\b`, `\brecent\b`,
		`\bcurrent\b`, `\bprevious\b`,
	)

	entityGoRefs   = regexp.MustCompile(`(?i)GO\.?\s*(?:Ms\.?|Rt\.?)?\s*No\.?\s*(\d+)`)
	entitySections = regexp.MustCompile(`(?i)Section\s+(\d+(?:\([a-z0-9]+\))?)`)
	entityActs     = regexp.MustCompile(`(?i)(RTE|Right\s+to\s+Education|SSA|RMSA|MDM)\s+Act`)
	entityYears    = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	entitySchemes  = regexp.MustCompile(`(?i)(Nadu-Nedu|Samagra\s+Shiksha|Mid\s+Day\s+Meal|Amma\s+Vodi)`)
	entityHRTerms  = regexp.MustCompile(`(?i)(salary|payscale|recruitment|hiring|contract|private|appointment|vacancy|post)`)

	keywordToken = regexp.MustCompile(`\b\w+\b`)

	brainstormWords = []string{"ideas", "suggestions", "brainstorm", "innovate"}

	stopwords = map[string]bool{
		"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
		"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
		"with": true, "by": true, "from": true, "as": true, "is": true, "are": true,
		"was": true, "were": true, "be": true, "been": true, "being": true,
		"have": true, "has": true, "had": true, "do": true, "does": true, "did": true,
		"will": true, "would": true, "should": true, "could": true, "may": true,
		"might": true, "must": true, "can": true, "what": true, "when": true,
		"where": true, "who": true, "how": true, "why": true, "which": true,
	}
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

type typeBank struct {
	typ      model.QueryType
	patterns []*regexp.Regexp
}

var typeBanks = []typeBank{
	{model.TypeQA, qaPatterns},
	{model.TypeFramework, frameworkPatterns},
	{model.TypeList, listPatterns},
	{model.TypeCompliance, compliancePatterns},
	{model.TypeComparison, comparisonPatterns},
	{model.TypeHistory, historyPatterns},
	{model.TypeHR, hrPatterns},
}

// Interpret runs the C2 Query Interpreter: a rule-based classifier for
// query type, scope, internet/deep-mode needs, entities, keywords, and
// temporal references, per spec.md §4.2.
func Interpret(normalizedQuery string) model.Interpretation {
	qtype, confidence := detectQueryType(normalizedQuery)
	scope := detectScope(normalizedQuery)
	needsInternet := needsInternet(normalizedQuery)
	needsDeep := needsDeepMode(qtype, scope)
	entities := extractEntities(normalizedQuery)
	keywords := extractKeywords(normalizedQuery)
	temporal := detectTemporalReferences(normalizedQuery)
	reasoning := generateReasoning(qtype, scope, needsInternet, needsDeep)

	return model.Interpretation{
		QueryType:          qtype,
		Scope:              scope,
		NeedsInternet:      needsInternet,
		NeedsDeepMode:      needsDeep,
		Confidence:         confidence,
		DetectedEntities:   entities,
		Keywords:           keywords,
		TemporalReferences: temporal,
		Reasoning:          reasoning,
	}
}

func detectQueryType(q string) (model.QueryType, float64) {
	scores := map[model.QueryType]float64{}
	var total float64
	for _, bank := range typeBanks {
		for _, p := range bank.patterns {
			if p.MatchString(q) {
				scores[bank.typ]++
				total++
			}
		}
	}

	if total == 0 {
		return model.TypeQA, 0.3
	}

	var topType model.QueryType
	var topScore float64 = -1
	// Iterate typeBanks (not the map) for deterministic tie-breaking that
	// matches Python dict insertion order (qa, framework, list, compliance,
	// comparison, history, hr).
	for _, bank := range typeBanks {
		s := scores[bank.typ] / total
		if s > topScore {
			topScore = s
			topType = bank.typ
		}
	}

	if topScore < 0.3 {
		lower := strings.ToLower(q)
		for _, w := range brainstormWords {
			if strings.Contains(lower, w) {
				return model.TypeBrainstorm, 0.7
			}
		}
	}

	return topType, topScore
}

func detectScope(q string) model.Scope {
	var narrow, broad int
	for _, p := range narrowIndicators {
		if p.MatchString(q) {
			narrow++
		}
	}
	for _, p := range broadIndicators {
		if p.MatchString(q) {
			broad++
		}
	}

	wordCount := len(strings.Fields(q))
	if wordCount <= 5 {
		narrow++
	} else if wordCount > 15 {
		broad++
	}

	switch {
	case broad > narrow:
		return model.ScopeBroad
	case narrow > broad:
		return model.ScopeNarrow
	default:
		return model.ScopeMedium
	}
}

func needsInternet(q string) bool {
	for _, p := range internetTriggers {
		if p.MatchString(q) {
			return true
		}
	}
	return false
}

func needsDeepMode(qtype model.QueryType, scope model.Scope) bool {
	if qtype == model.TypeFramework || qtype == model.TypeBrainstorm {
		return true
	}
	if scope == model.ScopeBroad {
		return true
	}
	if qtype == model.TypePolicy && scope == model.ScopeMedium {
		return true
	}
	return false
}

func extractEntities(q string) map[string][]string {
	entities := map[string][]string{}
	addIfAny := func(name string, matches []string) {
		if len(matches) > 0 {
			entities[name] = dedupStrings(matches)
		}
	}

	addIfAny("go_refs", firstGroupAll(entityGoRefs, q))
	addIfAny("sections", firstGroupAll(entitySections, q))
	addIfAny("acts", firstGroupAll(entityActs, q))
	addIfAny("years", firstGroupAll(entityYears, q))
	addIfAny("schemes", firstGroupAll(entitySchemes, q))
	addIfAny("hr_terms", firstGroupAll(entityHRTerms, q))

	return entities
}

// firstGroupAll returns the first capture group of every match, mirroring
// Python's re.findall behavior for a pattern with exactly one group.
func firstGroupAll(re *regexp.Regexp, text string) []string {
	matches := re.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if len(m) > 1 {
			out = append(out, m[1])
		}
	}
	return out
}

func dedupStrings(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func extractKeywords(q string) []string {
	words := keywordToken.FindAllString(strings.ToLower(q), -1)
	keywords := make([]string, 0, 10)
	for _, w := range words {
		if stopwords[w] || len(w) <= 2 {
			continue
		}
		keywords = append(keywords, w)
		if len(keywords) == 10 {
			break
		}
	}
	return keywords
}

func detectTemporalReferences(q string) []string {
	var temporal []string
	temporal = append(temporal, firstGroupAll(entityYears, q)...)
	for _, p := range relativeTimePatterns {
		temporal = append(temporal, p.FindAllString(q, -1)...)
	}
	return dedupStrings(temporal)
}

func generateReasoning(qtype model.QueryType, scope model.Scope, needsInternet, needsDeep bool) string {
	parts := []string{
		"Query classified as " + string(qtype),
		"scope is " + string(scope),
	}
	if needsInternet {
		parts = append(parts, "requires internet search for current information")
	}
	if needsDeep {
		parts = append(parts, "requires deep retrieval mode for comprehensive results")
	}
	return strings.Join(parts, ", ")
}
