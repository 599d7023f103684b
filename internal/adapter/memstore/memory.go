package memstore

import (
	"fmt"
	"sort"
	"sync"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// MemoryStore is an in-memory IndexStore used by tests and small corpora.
type MemoryStore struct {
	mu        sync.RWMutex
	docs      map[string]domain.DocumentInfo
	docChunks map[string][]string
	chunks    map[string]domain.Chunk
	postings  map[string][]domain.Posting
	sumPost   map[string][]domain.Posting
	summaries map[string]string
	vectors   map[string][]float32
	stats     domain.Stats
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:      make(map[string]domain.DocumentInfo),
		docChunks: make(map[string][]string),
		chunks:    make(map[string]domain.Chunk),
		postings:  make(map[string][]domain.Posting),
		sumPost:   make(map[string][]domain.Posting),
		summaries: make(map[string]string),
		vectors:   make(map[string][]float32),
	}
}

func (s *MemoryStore) GetChunk(id string) (domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.chunks[id]
	if !ok {
		return domain.Chunk{}, fmt.Errorf("chunk not found: %s", id)
	}
	return chunk, nil
}

func (s *MemoryStore) GetChunksByDoc(docID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.docChunks[docID]
	chunks := make([]domain.Chunk, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.chunks[id]; ok {
			chunks = append(chunks, c)
		}
	}
	return chunks, nil
}

func (s *MemoryStore) ListChunks() ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.chunks))
	for id := range s.chunks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	chunks := make([]domain.Chunk, 0, len(ids))
	for _, id := range ids {
		chunks = append(chunks, s.chunks[id])
	}
	return chunks, nil
}

func (s *MemoryStore) ListDocuments() ([]domain.DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.docs))
	for k := range s.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	docs := make([]domain.DocumentInfo, 0, len(keys))
	for _, k := range keys {
		docs = append(docs, s.docs[k])
	}
	return docs, nil
}

func (s *MemoryStore) GetPostings(term string) ([]domain.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.postings[term], nil
}

func (s *MemoryStore) GetSummaryPostings(term string) ([]domain.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sumPost[term], nil
}

func (s *MemoryStore) GetSummary(chunkID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaries[chunkID], nil
}

func (s *MemoryStore) SummaryCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.summaries), nil
}

func (s *MemoryStore) GetVector(chunkID string) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vectors[chunkID], nil
}

func (s *MemoryStore) ListVectors() (map[string][]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]float32, len(s.vectors))
	for k, v := range s.vectors {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) VectorCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}

func (s *MemoryStore) GetStats() (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats, nil
}

func (s *MemoryStore) UpdateStats(stats domain.Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
	return nil
}

func (s *MemoryStore) BatchIndex(files []port.IndexedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, file := range files {
		info := file.Info
		info.ChunkCount = len(file.Chunks)
		s.docs[info.DocID] = info
		for _, chunk := range file.Chunks {
			s.chunks[chunk.ID] = chunk
			s.docChunks[chunk.DocID] = append(s.docChunks[chunk.DocID], chunk.ID)
		}
		for term, chunkTFs := range file.Postings {
			for chunkID, tf := range chunkTFs {
				s.postings[term] = append(s.postings[term], domain.Posting{ChunkID: chunkID, TF: tf})
			}
		}
	}
	return nil
}

func (s *MemoryStore) PutSummary(chunkID, summary string, tokens []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[chunkID] = summary

	tf := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}
	for term, count := range tf {
		postings := s.sumPost[term]
		found := false
		for i := range postings {
			if postings[i].ChunkID == chunkID {
				postings[i].TF = count
				found = true
				break
			}
		}
		if !found {
			postings = append(postings, domain.Posting{ChunkID: chunkID, TF: count})
		}
		s.sumPost[term] = postings
	}
	return nil
}

func (s *MemoryStore) PutVector(chunkID string, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors[chunkID] = vector
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
