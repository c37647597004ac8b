package query

import "strings"

// expansionEntry is one matchable domain term/phrase and the synonyms it
// contributes when matched. Grounded on spec.md §4.4: "matches against a
// compiled dictionary of domain terms ... appends its synonym list".
type expansionEntry struct {
	term     string
	synonyms []string
}

var expansionDictionary = []expansionEntry{
	{"go", []string{"government order", "g.o.", "order"}},
	{"rte", []string{"right to education", "right to education act"}},
	{"fln", []string{"foundational literacy", "foundational numeracy", "fln mission"}},
	{"mid day meal", []string{"mdm", "nutritious meal programme", "school lunch scheme"}},
	{"teacher", []string{"teaching staff", "faculty", "instructor"}},
	{"recruitment", []string{"hiring", "appointment", "staffing"}},
	{"transfer", []string{"posting", "reassignment", "relocation"}},
	{"scheme", []string{"programme", "yojana", "welfare initiative"}},
	{"compliance", []string{"adherence", "conformity", "regulatory compliance"}},
	{"budget", []string{"allocation", "funding", "expenditure"}},
	{"enrollment", []string{"enrolment", "admission", "registration"}},
	{"infrastructure", []string{"facilities", "school buildings", "amenities"}},
}

// techIndicators and curriculumIndicators gate the special ai/technology/
// curriculum branch: both families must have at least one hit.
var techIndicators = []string{"ai", "artificial intelligence", "technology", "digital", "ict", "computer", "online"}
var curriculumIndicators = []string{"curriculum", "syllabus", "pedagogy", "teaching method", "lesson plan", "classroom"}

var techCurriculumTerms = []string{
	"digital literacy integration",
	"ict in curriculum",
	"ed-tech pedagogy",
	"blended learning framework",
	"AI-assisted instruction",
}

const defaultMaxExpansionTerms = 8

// Expand appends domain synonyms to a query, deduping anything already
// present (case-insensitively) and capping total appended terms at
// maxTerms. A maxTerms <= 0 uses the default cap.
func Expand(normalizedQuery string, maxTerms int) string {
	if maxTerms <= 0 {
		maxTerms = defaultMaxExpansionTerms
	}

	lower := strings.ToLower(normalizedQuery)
	present := map[string]bool{}
	for _, w := range strings.Fields(lower) {
		present[w] = true
	}

	var appended []string
	addTerm := func(term string) bool {
		tl := strings.ToLower(term)
		if present[tl] || strings.Contains(lower, tl) {
			return false
		}
		for _, a := range appended {
			if a == tl {
				return false
			}
		}
		appended = append(appended, tl)
		return true
	}

	for _, entry := range expansionDictionary {
		if !strings.Contains(lower, entry.term) {
			continue
		}
		for _, syn := range entry.synonyms {
			if len(appended) >= maxTerms {
				break
			}
			addTerm(syn)
		}
		if len(appended) >= maxTerms {
			break
		}
	}

	if hasAny(lower, techIndicators) && hasAny(lower, curriculumIndicators) {
		for _, t := range techCurriculumTerms {
			if len(appended) >= maxTerms {
				break
			}
			addTerm(t)
		}
	}

	if len(appended) == 0 {
		return normalizedQuery
	}
	if len(appended) > maxTerms {
		appended = appended[:maxTerms]
	}
	return normalizedQuery + " " + strings.Join(appended, " ")
}

func hasAny(text string, indicators []string) bool {
	for _, ind := range indicators {
		if strings.Contains(text, ind) {
			return true
		}
	}
	return false
}
