package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"What does GO.Ms.No. 45 say about RTE admissions??",
		"  Section   12(a)   of the   Education Act  ",
		"goverment recieve committe in 2019",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		assert.Equal(t, once, twice, "Normalize must be idempotent for %q", in)
	}
}

func TestNormalize_PreservesGoAndSectionReferences(t *testing.T) {
	t.Parallel()
	out := Normalize("What does GO.Ms.No. 45 say about Section 12(a)?")
	assert.Contains(t, out, "GO.Ms.No. 45")
	assert.Contains(t, out, "Section 12(a)")
}

func TestNormalize_ExpandsAbbreviations(t *testing.T) {
	t.Parallel()
	out := Normalize("RTE rules on FLN")
	assert.Contains(t, out, "right to education")
	assert.Contains(t, out, "foundational literacy numeracy")
}

func TestNormalize_FixesCommonOCRErrors(t *testing.T) {
	t.Parallel()
	out := Normalize("the goverment committe will recieve the report")
	assert.Contains(t, out, "government")
	assert.Contains(t, out, "committee")
	assert.Contains(t, out, "receive")
}

func TestNormalize_CollapsesWhitespace(t *testing.T) {
	t.Parallel()
	out := Normalize("too    many     spaces")
	assert.Equal(t, "too many spaces", out)
}

func TestNormalize_Empty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", Normalize(""))
}

func TestVariants_AlwaysIncludesNormalizedForm(t *testing.T) {
	t.Parallel()
	variants := Variants("RTE Section 12(a)")
	assert.Contains(t, variants, Normalize("RTE Section 12(a)"))
}

func TestVariants_Deduplicated(t *testing.T) {
	t.Parallel()
	variants := Variants("plain text with no abbreviations")
	seen := map[string]bool{}
	for _, v := range variants {
		assert.False(t, seen[v], "Variants returned a duplicate entry %q", v)
		seen[v] = true
	}
}
