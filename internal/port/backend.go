package port

import (
	"context"

	"docrag/internal/domain"
)

// SearchBackend is one retrieval method. Implementations return hits
// ranked by RawScore descending; the filter is applied before ranking.
type SearchBackend interface {
	// Search returns the top-k hits for the query. A nil filter admits
	// every document.
	Search(ctx context.Context, query string, topK int, filter domain.DocFilter) ([]domain.SearchHit, error)

	// Method tags the hits this backend produces.
	Method() domain.Method
}

// QueryExpander produces alternate phrasings of a query.
type QueryExpander interface {
	// Synonyms expands the query through the synonym dictionary. The
	// original query is always element 0.
	Synonyms(query string) []string

	// LLMExpand asks a language model for alternate phrasings. The
	// original query is always element 0; on any failure only the
	// original is returned along with the error.
	LLMExpand(ctx context.Context, query string) ([]string, error)
}
