package usecase

import (
	"fmt"
	"strings"

	"docrag/internal/port"
	"docrag/internal/xref"
)

// Validator cross-checks the index, the stored stats, and the
// cross-reference graph for consistency after ingestion.
type Validator struct {
	store port.IndexStore
	graph *xref.Graph // may be nil when no graph was built
}

func NewValidator(store port.IndexStore, graph *xref.Graph) *Validator {
	return &Validator{store: store, graph: graph}
}

// ValidationReport lists every problem found. An empty Problems slice
// means the index is consistent.
type ValidationReport struct {
	Documents int
	Chunks    int
	Summaries int
	Vectors   int
	Problems  []string
}

func (r *ValidationReport) OK() bool {
	return len(r.Problems) == 0
}

func (v *Validator) Run() (*ValidationReport, error) {
	report := &ValidationReport{}

	docs, err := v.store.ListDocuments()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	report.Documents = len(docs)

	chunks, err := v.store.ListChunks()
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	report.Chunks = len(chunks)

	docIDs := make(map[string]struct{}, len(docs))
	chunkCounts := make(map[string]int)
	for _, d := range docs {
		docIDs[d.DocID] = struct{}{}
	}
	for _, c := range chunks {
		chunkCounts[c.DocID]++
		if _, known := docIDs[c.DocID]; !known {
			report.Problems = append(report.Problems, fmt.Sprintf("chunk %s belongs to unknown document %s", c.ID, c.DocID))
		}
		if strings.TrimSpace(c.Text) == "" {
			report.Problems = append(report.Problems, fmt.Sprintf("chunk %s has empty text", c.ID))
		}
		if len(c.Tokens) == 0 {
			report.Problems = append(report.Problems, fmt.Sprintf("chunk %s has no tokens", c.ID))
		}
	}
	for _, d := range docs {
		if chunkCounts[d.DocID] == 0 {
			report.Problems = append(report.Problems, fmt.Sprintf("document %s has no chunks", d.DocID))
		} else if d.ChunkCount != chunkCounts[d.DocID] {
			report.Problems = append(report.Problems,
				fmt.Sprintf("document %s records %d chunks but %d are stored", d.DocID, d.ChunkCount, chunkCounts[d.DocID]))
		}
	}

	stats, err := v.store.GetStats()
	if err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}
	if stats.TotalDocs != len(docs) {
		report.Problems = append(report.Problems, fmt.Sprintf("stats record %d documents but %d are stored", stats.TotalDocs, len(docs)))
	}
	if stats.TotalChunks != len(chunks) {
		report.Problems = append(report.Problems, fmt.Sprintf("stats record %d chunks but %d are stored", stats.TotalChunks, len(chunks)))
	}

	if n, err := v.store.SummaryCount(); err == nil {
		report.Summaries = n
		if n > len(chunks) {
			report.Problems = append(report.Problems, fmt.Sprintf("%d summaries for %d chunks", n, len(chunks)))
		}
	}
	if n, err := v.store.VectorCount(); err == nil {
		report.Vectors = n
		if n > len(chunks) {
			report.Problems = append(report.Problems, fmt.Sprintf("%d vectors for %d chunks", n, len(chunks)))
		}
	}

	if v.graph != nil {
		for id := range v.graph.Nodes {
			if _, known := docIDs[id]; !known {
				report.Problems = append(report.Problems, fmt.Sprintf("graph node %s is not an indexed document", id))
			}
		}
		if v.graph.TotalNodes != len(v.graph.Nodes) {
			report.Problems = append(report.Problems,
				fmt.Sprintf("graph records %d nodes but holds %d", v.graph.TotalNodes, len(v.graph.Nodes)))
		}
		if v.graph.TotalEdges != len(v.graph.Edges) {
			report.Problems = append(report.Problems,
				fmt.Sprintf("graph records %d edges but holds %d", v.graph.TotalEdges, len(v.graph.Edges)))
		}
	}

	return report, nil
}
