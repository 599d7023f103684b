package index

import (
	"context"
	"math"
	"sort"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// VectorBackend searches precomputed chunk embeddings by cosine
// similarity. Brute force over the stored vectors; scores are in [0,1]
// and results below the threshold are excluded by the backend itself.
type VectorBackend struct {
	store     port.IndexStore
	embedder  port.Embedder
	threshold float64
	vectors   map[string][]float32
}

func NewVectorBackend(store port.IndexStore, embedder port.Embedder, threshold float64) (*VectorBackend, error) {
	vectors, err := store.ListVectors()
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.ErrBackendUnavailable
	}
	return &VectorBackend{
		store:     store,
		embedder:  embedder,
		threshold: threshold,
		vectors:   vectors,
	}, nil
}

func (r *VectorBackend) Method() domain.Method {
	return domain.MethodVector
}

func (r *VectorBackend) Search(ctx context.Context, query string, topK int, filter domain.DocFilter) ([]domain.SearchHit, error) {
	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, nil
	}
	queryVec := embeddings[0]

	type scored struct {
		chunkID string
		score   float64
	}
	candidates := make([]scored, 0, len(r.vectors))
	for chunkID, vec := range r.vectors {
		sim := cosineSimilarity(queryVec, vec)
		if sim <= 0 || sim < r.threshold {
			continue
		}
		candidates = append(candidates, scored{chunkID: chunkID, score: sim})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].chunkID < candidates[j].chunkID
	})

	hits := make([]domain.SearchHit, 0, topK)
	for _, cand := range candidates {
		chunk, err := r.store.GetChunk(cand.chunkID)
		if err != nil {
			continue
		}
		if !filter.Match(chunk.DocID) {
			continue
		}
		hits = append(hits, domain.SearchHit{
			DocID:    chunk.DocID,
			ChunkID:  chunk.ID,
			Filename: chunk.Filename,
			Text:     chunk.Text,
			RawScore: cand.score,
			Method:   domain.MethodVector,
		})
		if len(hits) == topK {
			break
		}
	}

	return hits, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
