package retrieval

import (
	"sort"

	"docrag/internal/domain"
)

// crossMethodDiscount is the factor applied when a new method agrees with
// an already-seen chunk. Agreement is rewarded, but below what a single
// dominant method could contribute.
const crossMethodDiscount = 0.5

// Batch is one backend's ranked output plus its fusion parameters.
// Normalize divides raw scores by the batch maximum; backends whose
// scores are already bounded to [0,1] set it to false.
type Batch struct {
	Hits      []domain.SearchHit
	Weight    float64
	Normalize bool
}

// Merge fuses ranked lists from multiple methods into one ranking.
//
// Per chunk: the first contribution sets the score; a repeat hit from a
// method already recorded keeps the maximum (the best phrasing wins, they
// do not accumulate); a hit from a new method adds half its contribution.
// The combined score therefore never decreases as batches merge in.
//
// The output is sorted by combined score descending and truncated to
// limit. Equal scores keep first-seen order; no further tie-break is
// defined on purpose.
func Merge(batches []Batch, limit int) []domain.FusedHit {
	fused := make(map[string]*domain.FusedHit)
	var order []string

	for _, batch := range batches {
		if len(batch.Hits) == 0 {
			continue
		}

		scale := 1.0
		if batch.Normalize {
			maxScore := 0.0
			for _, h := range batch.Hits {
				if h.RawScore > maxScore {
					maxScore = h.RawScore
				}
			}
			if maxScore <= 0 {
				continue
			}
			scale = 1.0 / maxScore
		}

		for _, hit := range batch.Hits {
			contribution := hit.RawScore * scale * batch.Weight

			existing, ok := fused[hit.ChunkID]
			if !ok {
				fused[hit.ChunkID] = &domain.FusedHit{
					DocID:         hit.DocID,
					ChunkID:       hit.ChunkID,
					Filename:      hit.Filename,
					Text:          hit.Text,
					CombinedScore: contribution,
					Methods:       []domain.Method{hit.Method},
				}
				order = append(order, hit.ChunkID)
				continue
			}

			if existing.HasMethod(hit.Method) {
				if contribution > existing.CombinedScore {
					existing.CombinedScore = contribution
				}
			} else {
				existing.CombinedScore += contribution * crossMethodDiscount
				existing.Methods = append(existing.Methods, hit.Method)
			}
		}
	}

	results := make([]domain.FusedHit, 0, len(order))
	for _, chunkID := range order {
		results = append(results, *fused[chunkID])
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CombinedScore > results[j].CombinedScore
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
