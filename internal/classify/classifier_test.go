package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
)

func catalogOf(domains ...domain.Domain) *Catalog {
	return &Catalog{Domains: domains}
}

func TestClassifyNoKeywordMatch(t *testing.T) {
	c := NewClassifier(catalogOf(
		domain.Domain{Key: "thermal", Keywords: []string{"熱制御", "放熱"}, Specificity: 4},
	))
	assert.Empty(t, c.Classify("軌道の計算方法"))
}

func TestClassifySubsumedKeywordGetsMinimalCredit(t *testing.T) {
	c := NewClassifier(catalogOf(
		domain.Domain{Key: "thermal", Keywords: []string{"熱制御"}, Specificity: 3},
		domain.Domain{Key: "control", Keywords: []string{"制御"}, Specificity: 3},
	))

	scores := c.Classify("熱制御の方法")
	require.Len(t, scores, 2)

	// "制御" is explained by "熱制御" which is present: 0.1 credit.
	var controlScore, thermalScore float64
	for _, s := range scores {
		switch s.DomainKey {
		case "control":
			controlScore = s.Score
		case "thermal":
			thermalScore = s.Score
		}
	}
	// Same specificity, so the multiplier is identical: compare bases.
	assert.InDelta(t, 0.1*1.6, controlScore, 1e-9)
	assert.Greater(t, thermalScore, controlScore)
}

func TestClassifySpecificityOrdering(t *testing.T) {
	// A specificity-5 domain owning "熱制御" ranks
	// above a specificity-2 domain owning the substring "制御".
	c := NewClassifier(catalogOf(
		domain.Domain{Key: "domainA", Keywords: []string{"熱制御"}, Specificity: 5},
		domain.Domain{Key: "domainB", Keywords: []string{"制御"}, Specificity: 2},
	))

	scores := c.Classify("熱制御について")
	require.Len(t, scores, 2)
	assert.Equal(t, "domainA", scores[0].DomainKey)
	assert.Equal(t, "domainB", scores[1].DomainKey)

	// domainA: coverage 3/7 -> mid tier 2.5, unclaimed, x2.2.
	assert.InDelta(t, 2.5*2.2, scores[0].Score, 1e-9)
	// domainB: subsumed -> 0.1, x1.3.
	assert.InDelta(t, 0.1*1.3, scores[1].Score, 1e-9)
}

func TestClassifyCoverageTiers(t *testing.T) {
	c := NewClassifier(catalogOf(
		domain.Domain{Key: "thermal", Keywords: []string{"熱制御"}, Specificity: 1},
	))

	// Exact match: coverage 1.0, high tier.
	scores := c.Classify("熱制御")
	require.Len(t, scores, 1)
	assert.InDelta(t, 4.0, scores[0].Score, 1e-9)

	// Long query: coverage 3/18 < 0.2, low tier.
	scores = c.Classify("衛星システムにおける熱制御の試験の実施方法")
	require.Len(t, scores, 1)
	assert.InDelta(t, 1.5, scores[0].Score, 1e-9)
}

func TestClassifyClaimedByMoreSpecializedDomain(t *testing.T) {
	// Two domains own the exact same keyword; the less specialized one
	// gets halved tier credit.
	c := NewClassifier(catalogOf(
		domain.Domain{Key: "narrow", Keywords: []string{"熱制御"}, Specificity: 5},
		domain.Domain{Key: "broad", Keywords: []string{"熱制御"}, Specificity: 2},
	))

	scores := c.Classify("熱制御")
	require.Len(t, scores, 2)
	assert.Equal(t, "narrow", scores[0].DomainKey)
	assert.InDelta(t, 4.0*2.2, scores[0].Score, 1e-9)
	assert.InDelta(t, 2.0*1.3, scores[1].Score, 1e-9)
}

func TestClassifyGlossaryExpansion(t *testing.T) {
	c := NewClassifier(&Catalog{
		Domains: []domain.Domain{
			{Key: "thermal", Keywords: []string{"熱制御"}, Specificity: 3},
		},
		Glossary: []GlossaryEntry{
			{Term: "温度管理", Domain: "thermal", Formal: []string{"熱制御"}},
		},
	})

	scores := c.Classify("衛星の温度管理")
	require.Len(t, scores, 1)
	// Keyword only via glossary expansion (0.5) + glossary-confirmed
	// domain (+3.0), multiplier 1.6.
	assert.InDelta(t, (0.5+3.0)*1.6, scores[0].Score, 1e-9)
}

func TestClassifyGlossaryWithoutDomainOnlyExpands(t *testing.T) {
	c := NewClassifier(&Catalog{
		Domains: []domain.Domain{
			{Key: "thermal", Keywords: []string{"熱制御"}, Specificity: 1},
		},
		Glossary: []GlossaryEntry{
			{Term: "温度管理", Formal: []string{"熱制御"}},
		},
	})

	scores := c.Classify("衛星の温度管理")
	require.Len(t, scores, 1)
	assert.InDelta(t, 0.5, scores[0].Score, 1e-9)
}

func TestClassifyTieKeepsCatalogOrder(t *testing.T) {
	c := NewClassifier(catalogOf(
		domain.Domain{Key: "first", Keywords: []string{"試験"}, Specificity: 3},
		domain.Domain{Key: "second", Keywords: []string{"試験"}, Specificity: 3},
	))

	scores := c.Classify("試験")
	require.Len(t, scores, 2)
	assert.Equal(t, "first", scores[0].DomainKey)
	assert.Equal(t, "second", scores[1].DomainKey)
	assert.Equal(t, scores[0].Score, scores[1].Score)
}

func TestDeriveFilter(t *testing.T) {
	scores := []domain.DomainScore{
		{DomainKey: "a", Score: 10, PrimaryDocs: []string{"D1", "D2"}, RelatedDocs: []string{"D3"}},
		{DomainKey: "b", Score: 8, PrimaryDocs: []string{"D4"}, RelatedDocs: []string{"D5"}},
		{DomainKey: "c", Score: 7.9, PrimaryDocs: []string{"D9"}},
	}

	filter := DeriveFilter(scores)
	// Top 2 primaries always; related included because 8 >= 0.7*10.
	assert.Equal(t, domain.DocFilter{"D1", "D2", "D3", "D4", "D5"}, filter)
}

func TestDeriveFilterRelatedCutoff(t *testing.T) {
	scores := []domain.DomainScore{
		{DomainKey: "a", Score: 10, PrimaryDocs: []string{"D1"}, RelatedDocs: []string{"D2"}},
		{DomainKey: "b", Score: 3, PrimaryDocs: []string{"D4"}, RelatedDocs: []string{"D5"}},
	}

	filter := DeriveFilter(scores)
	// b scores below 70% of the top: its related docs are excluded.
	assert.Equal(t, domain.DocFilter{"D1", "D2", "D4"}, filter)
}

func TestDeriveFilterEmpty(t *testing.T) {
	assert.Nil(t, DeriveFilter(nil))
}
