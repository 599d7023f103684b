package usecase

import (
	"context"
	"fmt"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// VectorBuilder embeds every chunk and stores the vectors for the
// brute-force vector backend. Like summaries, vectors are built out of
// band and are optional at retrieval time.
type VectorBuilder struct {
	store     port.IndexStore
	embedder  port.Embedder
	batchSize int
}

func NewVectorBuilder(store port.IndexStore, embedder port.Embedder, batchSize int) *VectorBuilder {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &VectorBuilder{
		store:     store,
		embedder:  embedder,
		batchSize: batchSize,
	}
}

// VectorResult summarizes one build run.
type VectorResult struct {
	Generated int
	Skipped   int
}

// Run embeds chunks that do not have a vector yet, in batches.
func (u *VectorBuilder) Run(ctx context.Context, progress ProgressFunc) (*VectorResult, error) {
	chunks, err := u.store.ListChunks()
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}

	var pending []domain.Chunk
	result := &VectorResult{}
	for _, chunk := range chunks {
		if v, err := u.store.GetVector(chunk.ID); err == nil && len(v) > 0 {
			result.Skipped++
			continue
		}
		pending = append(pending, chunk)
	}

	for start := 0; start < len(pending); start += u.batchSize {
		if progress != nil {
			progress(start, len(pending), "")
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := start + u.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := u.embedder.Embed(ctx, texts)
		if err != nil {
			return result, fmt.Errorf("embedding batch failed: %w", err)
		}
		if len(vectors) != len(batch) {
			return result, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(batch))
		}

		for i, c := range batch {
			if err := u.store.PutVector(c.ID, vectors[i]); err != nil {
				return result, fmt.Errorf("failed to store vector for %s: %w", c.ID, err)
			}
			result.Generated++
		}
	}
	if progress != nil {
		progress(len(pending), len(pending), "")
	}

	return result, nil
}
