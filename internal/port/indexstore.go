package port

import "docrag/internal/domain"

// IndexStore is the persistence contract for the corpus index: chunks,
// keyword postings, summary postings, vectors, and corpus stats.
type IndexStore interface {
	GetChunk(id string) (domain.Chunk, error)

	GetChunksByDoc(docID string) ([]domain.Chunk, error)

	ListChunks() ([]domain.Chunk, error)

	ListDocuments() ([]domain.DocumentInfo, error)

	GetPostings(term string) ([]domain.Posting, error)

	GetSummaryPostings(term string) ([]domain.Posting, error)

	GetSummary(chunkID string) (string, error)

	SummaryCount() (int, error)

	GetVector(chunkID string) ([]float32, error)

	ListVectors() (map[string][]float32, error)

	VectorCount() (int, error)

	GetStats() (domain.Stats, error)

	BatchIndex(files []IndexedFile) error

	PutSummary(chunkID, summary string, tokens []string) error

	PutVector(chunkID string, vector []float32) error

	UpdateStats(stats domain.Stats) error

	Close() error
}

// IndexedFile is one document's ingestion batch.
type IndexedFile struct {
	Info     domain.DocumentInfo
	Chunks   []domain.Chunk
	Postings map[string]map[string]int // term -> chunk id -> tf
}
