package index

import (
	"context"
	"math"
	"sort"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// KeywordBackend ranks chunks with BM25 over the term postings in the
// index store. Raw scores are unbounded; callers normalize before fusion.
type KeywordBackend struct {
	store     port.IndexStore
	tokenizer port.Tokenizer
	k1        float64
	b         float64
	method    domain.Method
	postings  func(term string) ([]domain.Posting, error)
}

func NewKeywordBackend(store port.IndexStore, tokenizer port.Tokenizer, k1, b float64) *KeywordBackend {
	return &KeywordBackend{
		store:     store,
		tokenizer: tokenizer,
		k1:        k1,
		b:         b,
		method:    domain.MethodKeyword,
		postings:  store.GetPostings,
	}
}

// NewSummaryBackend ranks against the secondary summary postings instead
// of the full-text postings. Same scoring, shorter texts.
func NewSummaryBackend(store port.IndexStore, tokenizer port.Tokenizer, k1, b float64) *KeywordBackend {
	return &KeywordBackend{
		store:     store,
		tokenizer: tokenizer,
		k1:        k1,
		b:         b,
		method:    domain.MethodSummary,
		postings:  store.GetSummaryPostings,
	}
}

func (r *KeywordBackend) Method() domain.Method {
	return r.method
}

func (r *KeywordBackend) Search(ctx context.Context, query string, topK int, filter domain.DocFilter) ([]domain.SearchHit, error) {
	queryTokens := r.tokenizer.Tokenize(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	stats, err := r.store.GetStats()
	if err != nil {
		return nil, err
	}
	if stats.TotalChunks == 0 {
		return nil, domain.ErrEmptyIndex
	}

	chunkScores := make(map[string]float64)
	chunkCache := make(map[string]domain.Chunk)

	for _, term := range queryTokens {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		postings, err := r.postings(term)
		if err != nil {
			continue
		}

		n := float64(len(postings))
		N := float64(stats.TotalChunks)
		idf := math.Log((N-n+0.5)/(n+0.5) + 1)

		for _, posting := range postings {
			chunk, ok := chunkCache[posting.ChunkID]
			if !ok {
				chunk, err = r.store.GetChunk(posting.ChunkID)
				if err != nil {
					continue
				}
				chunkCache[posting.ChunkID] = chunk
			}
			if !filter.Match(chunk.DocID) {
				continue
			}

			dl := float64(len(chunk.Tokens))
			avgDl := stats.AvgChunkLen
			tf := float64(posting.TF)

			score := idf * (tf * (r.k1 + 1)) / (tf + r.k1*(1-r.b+r.b*dl/avgDl))
			chunkScores[posting.ChunkID] += score
		}
	}

	hits := make([]domain.SearchHit, 0, len(chunkScores))
	for chunkID, score := range chunkScores {
		if score <= 0 {
			continue
		}
		chunk := chunkCache[chunkID]
		hits = append(hits, domain.SearchHit{
			DocID:    chunk.DocID,
			ChunkID:  chunk.ID,
			Filename: chunk.Filename,
			Text:     chunk.Text,
			RawScore: score,
			Method:   r.method,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].RawScore != hits[j].RawScore {
			return hits[i].RawScore > hits[j].RawScore
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}

	return hits, nil
}
