// Package query implements C1 (Normalizer), C2 (Interpreter), C3
// (Rewriter), and C4 (Domain Expander) from the retrieval pipeline.
//
// Normalizer is a direct Go port of
// original_source/retrieval_v3/query_understanding/query_normalizer.py:
// the same seven-step pipeline (clean, preserve, lowercase, expand
// abbreviations, fix OCR errors, normalize whitespace, restore) in the same
// order, so the idempotence property in spec.md §8 holds for the same
// reason it holds in the original.
package query

import (
	"regexp"
	"strings"
)

// abbreviations is the domain acronym table, ported verbatim from the
// Python ABBREVIATIONS dict.
var abbreviations = map[string]string{
	"go":     "government order",
	"gos":    "government orders",
	"rte":    "right to education",
	"fln":    "foundational literacy numeracy",
	"ssa":    "sarva shiksha abhiyan",
	"mdm":    "mid day meal",
	"rmsa":   "rashtriya madhyamik shiksha abhiyan",
	"npegel": "national programme for education of girls at elementary level",
	"niepa":  "national institute of educational planning and administration",
	"ncert":  "national council of educational research and training",
	"ncte":   "national council for teacher education",
	"tet":    "teacher eligibility test",
	"ctet":   "central teacher eligibility test",
	"aptet":  "andhra pradesh teacher eligibility test",

	"cse":  "commissioner of school education",
	"dee":  "director of elementary education",
	"dse":  "director of school education",
	"spo":  "state project office",
	"dpo":  "district project office",
	"mpo":  "mandal project office",
	"brcc": "block resource centre coordinator",
	"crc":  "cluster resource centre",

	"pwds": "persons with disabilities",
	"cwsn": "children with special needs",
	"oosc": "out of school children",
	"ecce": "early childhood care and education",
	"npe":  "national policy on education",

	"smdc": "school management and development committee",
	"vmc":  "village monitoring committee",
	"pta":  "parent teacher association",
}

var (
	goPattern       = regexp.MustCompile(`(?i)GO\.?\s*(?:Ms\.?|Rt\.?)?\s*No\.?\s*(\d+)`)
	sectionPattern  = regexp.MustCompile(`(?i)Section\s+(\d+(?:\([a-z0-9]+\))?)`)
	yearPattern     = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	multiSpace      = regexp.MustCompile(`\s+`)
	excessivePunct  = regexp.MustCompile(`([!?.]){2,}`)
	tabsNewlines    = regexp.MustCompile(`[\t\n\r]+`)
	multiSpaceOnly  = regexp.MustCompile(` {2,}`)
	punctSpacing    = regexp.MustCompile(`\s*([,;:.!?])\s*`)
	ocrIsolatedL    = regexp.MustCompile(`(?i)\bl\b`)
	ocrIsolatedO    = regexp.MustCompile(`\bO\b`)
)

// ocrReplacements runs in order: the first two entries are regex-based
// (isolated "l"/"O" misread as digits), "committe" is matched as a whole
// word because it is a prefix of its own correction, and the rest are plain
// substring fixes, matching the Python dict's mixed regex/literal list.
var ocrReplacements = []struct {
	isRegex bool
	from    *regexp.Regexp
	literal string
	to      string
}{
	{isRegex: true, from: ocrIsolatedL, to: "1"},
	{isRegex: true, from: ocrIsolatedO, to: "0"},
	{literal: "goverment", to: "government"},
	{literal: "govenment", to: "government"},
	{isRegex: true, from: regexp.MustCompile(`\bcommitte\b`), to: "committee"},
	{literal: "recieve", to: "receive"},
	{literal: "occured", to: "occurred"},
	{literal: "andhra pradesh", to: "andhra pradesh"},
	{literal: "right toeducation", to: "right to education"},
}

// Normalize is the deterministic, pure normalize(text) -> text function
// from spec.md §4.1.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	cleaned := basicClean(text)
	preserved := preservePatterns(cleaned)
	lowered, placeholders := selectiveLowercase(cleaned, preserved)
	expanded := expandAbbreviations(lowered)
	fixed := fixCommonErrors(expanded)
	spaced := normalizeWhitespace(fixed)
	restored := restorePatterns(spaced, placeholders)

	return strings.TrimSpace(restored)
}

func basicClean(text string) string {
	text = multiSpace.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = strings.NewReplacer(`"`, `"`, `"`, `"`, "'", "'", "'", "'").Replace(text)
	text = excessivePunct.ReplaceAllString(text, "$1")
	return text
}

type preservedPatterns struct {
	goRefs, sections, years []string
}

func preservePatterns(text string) preservedPatterns {
	var p preservedPatterns
	for _, m := range goPattern.FindAllString(text, -1) {
		p.goRefs = append(p.goRefs, m)
	}
	for _, m := range sectionPattern.FindAllString(text, -1) {
		p.sections = append(p.sections, m)
	}
	for _, m := range yearPattern.FindAllString(text, -1) {
		p.years = append(p.years, m)
	}
	return p
}

// selectiveLowercase replaces preserved patterns with numbered placeholders,
// lowercases everything, and returns the placeholder->original map needed
// to restore them afterward.
func selectiveLowercase(text string, preserved preservedPatterns) (string, map[string]string) {
	placeholders := map[string]string{}
	counter := 0
	replaceAll := func(text string, patterns []string) string {
		for _, pattern := range patterns {
			placeholder := placeholderFor(counter)
			text = strings.Replace(text, pattern, placeholder, 1)
			placeholders[placeholder] = pattern
			counter++
		}
		return text
	}
	text = replaceAll(text, preserved.goRefs)
	text = replaceAll(text, preserved.sections)
	text = replaceAll(text, preserved.years)

	return strings.ToLower(text), placeholders
}

// placeholderFor is already lowercase so it survives the lowercasing step
// and restorePatterns can find it again.
func placeholderFor(counter int) string {
	return "__preserved_" + itoa(counter) + "__"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func expandAbbreviations(text string) string {
	words := strings.Fields(text)
	out := make([]string, 0, len(words))
	for _, word := range words {
		clean := strings.TrimRight(word, ".,!?;:")
		punct := word[len(clean):]
		if expansion, ok := abbreviations[clean]; ok {
			out = append(out, expansion+punct)
		} else {
			out = append(out, word)
		}
	}
	return strings.Join(out, " ")
}

func fixCommonErrors(text string) string {
	for _, r := range ocrReplacements {
		if r.isRegex {
			text = r.from.ReplaceAllString(text, r.to)
		} else {
			text = strings.ReplaceAll(text, r.literal, r.to)
		}
	}
	return text
}

func normalizeWhitespace(text string) string {
	text = tabsNewlines.ReplaceAllString(text, " ")
	text = multiSpaceOnly.ReplaceAllString(text, " ")
	text = punctSpacing.ReplaceAllString(text, "$1 ")
	return strings.TrimSpace(text)
}

func restorePatterns(text string, placeholders map[string]string) string {
	for placeholder, original := range placeholders {
		text = strings.ReplaceAll(text, placeholder, original)
	}
	return text
}

// Variants returns the normalized form plus notable alternates (no
// abbreviation expansion; aggressive re-expansion of the normalized form),
// deduplicated. Ported from get_normalized_variants. Neither the
// orchestrator nor the CLI calls it; it is not on the retrieval path.
func Variants(text string) []string {
	normalized := Normalize(text)
	seen := map[string]bool{normalized: true}
	out := []string{normalized}

	basic := normalizeWhitespace(strings.ToLower(basicClean(text)))
	if !seen[basic] {
		seen[basic] = true
		out = append(out, basic)
	}

	aggressive := expandAbbreviations(normalized)
	if !seen[aggressive] {
		seen[aggressive] = true
		out = append(out, aggressive)
	}

	return out
}
