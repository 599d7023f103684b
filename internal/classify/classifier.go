package classify

import (
	"sort"
	"strings"

	"docrag/internal/domain"
)

// Scoring constants. These encode the precision/recall tuning of the
// classifier and are deliberately not configurable.
const (
	glossaryOnlyCredit = 0.5 // keyword inferred via glossary expansion, not typed
	subsumedCredit     = 0.1 // match explained by a longer keyword in the query
	glossaryBonus      = 3.0 // glossary entry named this domain directly

	highCoverage = 0.5
	midCoverage  = 0.2

	highCredit        = 4.0
	highCreditClaimed = 2.0
	midCredit         = 2.5
	midCreditClaimed  = 1.5
	lowCredit         = 1.5
	lowCreditClaimed  = 0.8
)

// Classifier scores queries against the domain catalog. It is a pure
// function of the catalog and the query, with no I/O.
type Classifier struct {
	catalog *Catalog

	// allKeywords spans every domain, for the subsumption check.
	allKeywords []string
	// keywordMaxSpecificity records, per exact keyword, the highest
	// specificity among the domains that own it.
	keywordMaxSpecificity map[string]int
}

func NewClassifier(catalog *Catalog) *Classifier {
	c := &Classifier{
		catalog:               catalog,
		keywordMaxSpecificity: make(map[string]int),
	}
	for _, d := range catalog.Domains {
		for _, kw := range d.Keywords {
			c.allKeywords = append(c.allKeywords, kw)
			if sp, ok := c.keywordMaxSpecificity[kw]; !ok || d.Specificity > sp {
				c.keywordMaxSpecificity[kw] = d.Specificity
			}
		}
	}
	return c
}

// Classify returns the domains matching the query, highest score first.
// Domains with non-positive base score are excluded. Ties keep catalog
// declaration order.
func (c *Classifier) Classify(query string) []domain.DomainScore {
	normalized, glossaryDomains := c.expandWithGlossary(query)

	var results []domain.DomainScore
	for _, d := range c.catalog.Domains {
		baseScore := 0.0

		for _, kw := range d.Keywords {
			matchedOriginal := strings.Contains(query, kw)
			matchedNormalized := !matchedOriginal && strings.Contains(normalized, kw)

			if !matchedOriginal && !matchedNormalized {
				continue
			}

			// The keyword was not literally typed; it only appeared
			// after glossary expansion. Flat partial credit, no
			// coverage analysis.
			if matchedNormalized {
				baseScore += glossaryOnlyCredit
				continue
			}

			if c.isSubsumed(kw, query) {
				baseScore += subsumedCredit
				continue
			}

			// When a more specialized domain owns the same keyword,
			// the match is claimed by that domain and credit halves.
			claimed := c.keywordMaxSpecificity[kw] > d.Specificity

			coverage := coverageScore(kw, query)
			switch {
			case coverage >= highCoverage:
				baseScore += pick(claimed, highCreditClaimed, highCredit)
			case coverage >= midCoverage:
				baseScore += pick(claimed, midCreditClaimed, midCredit)
			default:
				baseScore += pick(claimed, lowCreditClaimed, lowCredit)
			}
		}

		if glossaryDomains[d.Key] {
			baseScore += glossaryBonus
		}

		if baseScore <= 0 {
			continue
		}

		// Narrow domains get boosted, broad ones suppressed:
		// specificity 1 -> x1.0 up to 5 -> x2.2.
		multiplier := 1.0 + float64(d.Specificity-1)*0.3

		results = append(results, domain.DomainScore{
			DomainKey:   d.Key,
			Name:        d.Name,
			Score:       baseScore * multiplier,
			PrimaryDocs: d.PrimaryDocs,
			RelatedDocs: d.RelatedDocs,
			ExpertNote:  d.ExpertNote,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// expandWithGlossary appends the formal variants of every glossary term
// found in the query to a normalized copy used only for matching, and
// collects the domains those terms name.
func (c *Classifier) expandWithGlossary(query string) (string, map[string]bool) {
	normalized := query
	confirmed := make(map[string]bool)

	for _, entry := range c.catalog.Glossary {
		if entry.Term == "" || !strings.Contains(query, entry.Term) {
			continue
		}
		if entry.Domain != "" {
			confirmed[entry.Domain] = true
		}
		if len(entry.Formal) > 0 {
			normalized += " " + strings.Join(entry.Formal, " ")
		}
	}
	return normalized, confirmed
}

// isSubsumed reports whether kw's occurrence in the query is an artifact
// of a longer keyword (from any domain) that is also present.
func (c *Classifier) isSubsumed(kw, query string) bool {
	for _, other := range c.allKeywords {
		if other != kw && strings.Contains(other, kw) && strings.Contains(query, other) {
			return true
		}
	}
	return false
}

// coverageScore approximates the fraction of the query the keyword
// explains. Measured in runes; no token boundary is assumed because word
// segmentation is unreliable for Japanese.
func coverageScore(kw, query string) float64 {
	queryLen := len([]rune(query))
	if queryLen == 0 {
		return 0
	}
	if kw == query {
		return 1.0
	}
	ratio := float64(len([]rune(kw))) / float64(queryLen)
	if ratio > 1.0 {
		return 1.0
	}
	return ratio
}

func pick(claimed bool, claimedCredit, credit float64) float64 {
	if claimed {
		return claimedCredit
	}
	return credit
}

// DeriveFilter builds the document filter from the classification result:
// primary docs of the top 2 domains, plus related docs of any top-2 domain
// scoring at least 70% of the best score. Order-preserving, deduplicated.
func DeriveFilter(scores []domain.DomainScore) domain.DocFilter {
	if len(scores) == 0 {
		return nil
	}

	var filter domain.DocFilter
	seen := make(map[string]struct{})
	add := func(docs []string) {
		for _, doc := range docs {
			if _, dup := seen[doc]; dup || doc == "" {
				continue
			}
			seen[doc] = struct{}{}
			filter = append(filter, doc)
		}
	}

	top := scores[0].Score
	limit := 2
	if len(scores) < limit {
		limit = len(scores)
	}
	for _, s := range scores[:limit] {
		add(s.PrimaryDocs)
		if s.Score >= top*0.7 {
			add(s.RelatedDocs)
		}
	}
	return filter
}
