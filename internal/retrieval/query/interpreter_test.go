package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
)

func TestInterpret_ClassifiesQAQueries(t *testing.T) {
	t.Parallel()
	interp := Interpret("what is the mid day meal scheme")
	assert.Equal(t, model.TypeQA, interp.QueryType)
}

func TestInterpret_ClassifiesFrameworkQueries(t *testing.T) {
	t.Parallel()
	interp := Interpret("design a comprehensive framework for teacher recruitment")
	assert.Equal(t, model.TypeFramework, interp.QueryType)
	assert.True(t, interp.NeedsDeepMode, "framework queries always need deep mode")
}

func TestInterpret_ClassifiesComplianceQueries(t *testing.T) {
	t.Parallel()
	interp := Interpret("verify compliance with the RTE act admission rules")
	assert.Equal(t, model.TypeCompliance, interp.QueryType)
}

func TestInterpret_DefaultsToQAWhenNoPatternMatches(t *testing.T) {
	t.Parallel()
	interp := Interpret("xyz abc qqq")
	assert.Equal(t, model.TypeQA, interp.QueryType)
	assert.Equal(t, 0.3, interp.Confidence)
}

func TestInterpret_NarrowScopeForShortSpecificQueries(t *testing.T) {
	t.Parallel()
	interp := Interpret("section 12 admissions")
	assert.Equal(t, model.ScopeNarrow, interp.Scope)
}

func TestInterpret_BroadScopeForLongComprehensiveQueries(t *testing.T) {
	t.Parallel()
	interp := Interpret("give me a complete and comprehensive overview of everything about the entire teacher recruitment and training and welfare scheme system across the whole state")
	assert.Equal(t, model.ScopeBroad, interp.Scope)
}

func TestInterpret_DetectsInternetTrigger(t *testing.T) {
	t.Parallel()
	interp := Interpret("what is the latest government order on teacher transfers")
	assert.True(t, interp.NeedsInternet)
}

func TestInterpret_NoInternetTriggerForHistoricalQuery(t *testing.T) {
	t.Parallel()
	interp := Interpret("what did section 12 originally state")
	assert.False(t, interp.NeedsInternet)
}

func TestInterpret_ExtractsGoAndSectionEntities(t *testing.T) {
	t.Parallel()
	interp := Interpret("GO.Ms.No. 45 refers to Section 12(a) of the RTE Act")
	assert.Contains(t, interp.DetectedEntities["go_refs"], "45")
	assert.Contains(t, interp.DetectedEntities["sections"], "12(a)")
}

func TestInterpret_ExtractsYearAsTemporalReference(t *testing.T) {
	t.Parallel()
	interp := Interpret("what changed in the 2019 policy")
	assert.Contains(t, interp.TemporalReferences, "2019")
}

func TestInterpret_KeywordsExcludeStopwordsAndShortWords(t *testing.T) {
	t.Parallel()
	interp := Interpret("what is the teacher recruitment policy for 2019")
	assert.NotContains(t, interp.Keywords, "the")
	assert.NotContains(t, interp.Keywords, "is")
	assert.Contains(t, interp.Keywords, "teacher")
	assert.Contains(t, interp.Keywords, "recruitment")
}

func TestInterpret_KeywordsCappedAtTen(t *testing.T) {
	t.Parallel()
	interp := Interpret("alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima")
	assert.LessOrEqual(t, len(interp.Keywords), 10)
}
