package query

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/collaborators"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
)

// domainVocab maps a target domain to the vocabulary that signals it's
// relevant, and the template used to build a rewrite once it is. Grounded on
// spec.md §4.3's "detect relevant domains via vocabulary overlap ... emit one
// rewrite per domain using a template + extracted key terms".
type domainDef struct {
	domain   string
	vocab    []string
	template string
}

var domainDefs = []domainDef{
	{
		domain:   "legal",
		vocab:    []string{"act", "section", "clause", "rule", "article", "statute", "legal", "provision"},
		template: "legal provisions and statutory text regarding %s",
	},
	{
		domain:   "government_order",
		vocab:    []string{"go", "government order", "order no", "ms no", "rt no", "circular"},
		template: "government orders and circulars concerning %s",
	},
	{
		domain:   "judicial",
		vocab:    []string{"court", "judgment", "judgement", "ruling", "tribunal", "writ", "petition"},
		template: "judicial decisions and court rulings on %s",
	},
	{
		domain:   "scheme",
		vocab:    []string{"scheme", "yojana", "programme", "program", "mission", "initiative"},
		template: "welfare scheme details and eligibility for %s",
	},
	{
		domain:   "statistical",
		vocab:    []string{"data", "statistics", "report", "survey", "enrollment", "enrolment", "figures"},
		template: "statistical reports and data concerning %s",
	},
}

var (
	whatIsPattern     = regexp.MustCompile(`(?i)\bwhat\s+(?:is|are)\b`)
	howToPattern      = regexp.MustCompile(`(?i)\bhow\s+(?:to|do|does)\b`)
	requirementsPattern = regexp.MustCompile(`(?i)\brequirements?\b`)
	listIntentPattern = regexp.MustCompile(`(?i)\blist\b|\ball\b|\benumerate\b`)
)

// detectQueryPattern names the shallow syntactic pattern a query follows,
// used only to pick a catch-all phrasing, per spec.md §4.3's "detect pattern
// (what-is/how-to/requirements/list/general)".
func detectQueryPattern(q string) string {
	switch {
	case whatIsPattern.MatchString(q):
		return "what-is"
	case howToPattern.MatchString(q):
		return "how-to"
	case requirementsPattern.MatchString(q):
		return "requirements"
	case listIntentPattern.MatchString(q):
		return "list"
	default:
		return "general"
	}
}

// keyTerms pulls the non-stopword tokens out of a query for use inside
// rewrite templates.
func keyTerms(q string, limit int) string {
	words := keywordToken.FindAllString(strings.ToLower(q), -1)
	out := make([]string, 0, limit)
	for _, w := range words {
		if stopwords[w] || len(w) <= 2 {
			continue
		}
		out = append(out, w)
		if len(out) == limit {
			break
		}
	}
	if len(out) == 0 {
		return q
	}
	return strings.Join(out, " ")
}

func relevantDomains(normalizedQuery string) []domainDef {
	lower := strings.ToLower(normalizedQuery)
	var matched []domainDef
	for _, d := range domainDefs {
		for _, term := range d.vocab {
			if strings.Contains(lower, term) {
				matched = append(matched, d)
				break
			}
		}
	}
	return matched
}

// ruleRewrite is the deterministic, non-LLM rewrite path: detect pattern,
// detect relevant domains by vocabulary overlap, emit one rewrite per
// matched domain, plus a catch-all whenever fewer than numRewrites domains
// matched.
func ruleRewrite(normalizedQuery string, numRewrites int) []model.Rewrite {
	terms := keyTerms(normalizedQuery, 6)
	pattern := detectQueryPattern(normalizedQuery)
	domains := relevantDomains(normalizedQuery)

	rewrites := make([]model.Rewrite, 0, numRewrites)
	for _, d := range domains {
		if len(rewrites) >= numRewrites {
			break
		}
		rewrites = append(rewrites, model.Rewrite{
			Text:         fmt.Sprintf(d.template, terms),
			TargetDomain: d.domain,
			Rationale:    fmt.Sprintf("vocabulary overlap with %s domain (pattern: %s)", d.domain, pattern),
		})
	}

	needsCatchAll := len(rewrites) == 0 || len(rewrites) < numRewrites
	if needsCatchAll && len(rewrites) < numRewrites {
		rewrites = append(rewrites, model.Rewrite{
			Text:         fmt.Sprintf("comprehensive policy information about %s", terms),
			TargetDomain: "general",
			Rationale:    "catch-all: broaden coverage beyond the vocabulary-matched domains",
		})
	}

	if len(rewrites) == 0 {
		rewrites = []model.Rewrite{{
			Text:         normalizedQuery,
			TargetDomain: "general",
			Rationale:    "no domain vocabulary matched; use the normalized query unchanged",
		}}
	}

	if len(rewrites) > numRewrites {
		rewrites = rewrites[:numRewrites]
	}
	return rewrites
}

var rewriteBlockPattern = regexp.MustCompile(`(?is)DOMAIN:\s*(.+?)\s*REWRITE:\s*(.+?)\s*REASON:\s*(.+?)(?:\n\n|\z)`)

// llmRewrite parses "DOMAIN:/REWRITE:/REASON:" blocks out of a generation
// response, per spec.md §4.3's LLM path. Returns nil (triggering rule-path
// fallback) if nothing parses.
func llmRewrite(raw string) []model.Rewrite {
	matches := rewriteBlockPattern.FindAllStringSubmatch(raw, -1)
	out := make([]model.Rewrite, 0, len(matches))
	for _, m := range matches {
		out = append(out, model.Rewrite{
			TargetDomain: strings.TrimSpace(m[1]),
			Text:         strings.TrimSpace(m[2]),
			Rationale:    strings.TrimSpace(m[3]),
		})
	}
	return out
}

func buildRewritePrompt(normalizedQuery string, numRewrites int) string {
	return fmt.Sprintf(
		"Generate %d distinct search rewrites of the query below, each targeting a different retrieval domain "+
			"(legal, government_order, judicial, scheme, statistical, or general).\n"+
			"Query: %s\n\n"+
			"Respond with exactly %d blocks, each in this exact form, separated by a blank line:\n"+
			"DOMAIN: <domain>\nREWRITE: <rewritten query>\nREASON: <one sentence>\n",
		numRewrites, normalizedQuery, numRewrites,
	)
}

// Rewrite produces between 1 and numRewrites rewrites targeting domain
// verticals (spec.md §4.3). When provider is non-nil and mode != qa, the LLM
// path is attempted first; any failure (error or unparseable response) falls
// back to the deterministic rule path.
func Rewrite(ctx context.Context, provider collaborators.Provider, normalizedQuery string, mode model.Mode, numRewrites int) []model.Rewrite {
	if numRewrites <= 0 {
		numRewrites = 1
	}
	if numRewrites > 5 {
		numRewrites = 5
	}

	if provider != nil && mode != model.ModeQA {
		raw, err := provider.Generate(ctx, buildRewritePrompt(normalizedQuery, numRewrites))
		if err == nil {
			if parsed := llmRewrite(raw); len(parsed) > 0 {
				if len(parsed) > numRewrites {
					parsed = parsed[:numRewrites]
				}
				return parsed
			}
		}
	}

	return ruleRewrite(normalizedQuery, numRewrites)
}
