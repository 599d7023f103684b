package domain

import "strings"

// Chunk is the immutable unit of retrievable text, created once at ingestion.
type Chunk struct {
	ID       string
	DocID    string
	Filename string
	Tokens   []string
	Text     string
}

// Method identifies one retrieval strategy.
type Method string

const (
	MethodKeyword   Method = "keyword"
	MethodSynonym   Method = "synonym"
	MethodVector    Method = "vector"
	MethodSummary   Method = "summary"
	MethodLLMExpand Method = "llm_expand"
	MethodCrossRef  Method = "cross_ref"
)

// SearchHit is the result of one backend for one query. RawScore is on the
// backend's native scale (unbounded for keyword, [0,1] for vector).
type SearchHit struct {
	DocID    string
	ChunkID  string
	Filename string
	Text     string
	RawScore float64
	Method   Method
}

// FusedHit is the merged view of all backend hits for one chunk.
// CombinedScore is ordinal: it ranks hits within one query and is not
// comparable across queries or against fixed thresholds.
type FusedHit struct {
	DocID         string   `json:"doc_id"`
	ChunkID       string   `json:"chunk_id"`
	Filename      string   `json:"filename"`
	Text          string   `json:"text"`
	CombinedScore float64  `json:"combined_score"`
	Methods       []Method `json:"methods"`
}

// HasMethod reports whether method already contributed to this hit.
func (h *FusedHit) HasMethod(m Method) bool {
	for _, existing := range h.Methods {
		if existing == m {
			return true
		}
	}
	return false
}

// Domain is a named topical category with a keyword vocabulary and
// document affinity, loaded once from the knowledge catalog.
type Domain struct {
	Key         string
	Name        string
	Keywords    []string
	Specificity int
	PrimaryDocs []string
	RelatedDocs []string
	ExpertNote  string
}

// DomainScore is the result of classifying one query against one Domain.
type DomainScore struct {
	DomainKey   string   `json:"domain"`
	Name        string   `json:"name"`
	Score       float64  `json:"score"`
	PrimaryDocs []string `json:"primary_docs,omitempty"`
	RelatedDocs []string `json:"related_docs,omitempty"`
	ExpertNote  string   `json:"expert_note,omitempty"`
}

// DocFilter narrows retrieval to a set of acceptable document ids. Each
// entry matches by containment, so a base document number also admits its
// sub-variants (e.g. "JERG-2-200" matches "JERG-2-200-HB001").
type DocFilter []string

// Match reports whether docID is admitted by the filter. An empty filter
// admits everything.
func (f DocFilter) Match(docID string) bool {
	if len(f) == 0 {
		return true
	}
	for _, v := range f {
		if v != "" && strings.Contains(docID, v) {
			return true
		}
	}
	return false
}

// Posting records one chunk's term frequency for an index term.
type Posting struct {
	ChunkID string
	TF      int
}

// Stats summarizes the indexed corpus.
type Stats struct {
	TotalDocs   int
	TotalChunks int
	AvgChunkLen float64
}

// DocumentInfo describes one indexed source document.
type DocumentInfo struct {
	DocID      string `json:"doc_id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count"`
}
