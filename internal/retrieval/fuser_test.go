package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
)

func batchHit(chunkID string, score float64, method domain.Method) domain.SearchHit {
	return domain.SearchHit{
		DocID:    "D1",
		ChunkID:  chunkID,
		Filename: "d1.txt",
		Text:     "text " + chunkID,
		RawScore: score,
		Method:   method,
	}
}

func TestMergeSingleBatchNormalizes(t *testing.T) {
	fused := Merge([]Batch{
		{
			Hits: []domain.SearchHit{
				batchHit("c1", 8.0, domain.MethodKeyword),
				batchHit("c2", 4.0, domain.MethodKeyword),
			},
			Weight:    1.0,
			Normalize: true,
		},
	}, 10)

	require.Len(t, fused, 2)
	assert.Equal(t, "c1", fused[0].ChunkID)
	assert.InDelta(t, 1.0, fused[0].CombinedScore, 1e-9)
	assert.InDelta(t, 0.5, fused[1].CombinedScore, 1e-9)
	assert.Equal(t, []domain.Method{domain.MethodKeyword}, fused[0].Methods)
}

func TestMergeEqualScoresCollapseToWeight(t *testing.T) {
	// Max-normalizing a batch of equal scores yields weight for every
	// entry.
	fused := Merge([]Batch{
		{
			Hits: []domain.SearchHit{
				batchHit("c1", 3.7, domain.MethodKeyword),
				batchHit("c2", 3.7, domain.MethodKeyword),
				batchHit("c3", 3.7, domain.MethodKeyword),
			},
			Weight:    0.8,
			Normalize: true,
		},
	}, 10)

	require.Len(t, fused, 3)
	for _, f := range fused {
		assert.InDelta(t, 0.8, f.CombinedScore, 1e-9)
	}
}

func TestMergeSkipsBatchWithNonPositiveMax(t *testing.T) {
	fused := Merge([]Batch{
		{
			Hits:      []domain.SearchHit{batchHit("c1", 0, domain.MethodKeyword)},
			Weight:    1.0,
			Normalize: true,
		},
	}, 10)
	assert.Empty(t, fused)
}

func TestMergeSameMethodTakesMax(t *testing.T) {
	// Two synonym phrasings hit the same chunk: best phrasing wins,
	// scores do not accumulate.
	fused := Merge([]Batch{
		{
			Hits:      []domain.SearchHit{batchHit("c1", 10, domain.MethodSynonym)},
			Weight:    0.8,
			Normalize: true,
		},
		{
			Hits: []domain.SearchHit{
				batchHit("c1", 5, domain.MethodSynonym),
				batchHit("c2", 10, domain.MethodSynonym),
			},
			Weight:    0.8,
			Normalize: true,
		},
	}, 10)

	require.Len(t, fused, 2)
	for _, f := range fused {
		if f.ChunkID == "c1" {
			// First batch contributed 0.8; the second batch's 0.4 is
			// lower and is ignored.
			assert.InDelta(t, 0.8, f.CombinedScore, 1e-9)
			assert.Equal(t, []domain.Method{domain.MethodSynonym}, f.Methods)
		}
	}
}

func TestMergeNewMethodAddsHalfContribution(t *testing.T) {
	fused := Merge([]Batch{
		{
			Hits:      []domain.SearchHit{batchHit("c1", 10, domain.MethodKeyword)},
			Weight:    1.0,
			Normalize: true,
		},
		{
			Hits:      []domain.SearchHit{batchHit("c1", 0.9, domain.MethodVector)},
			Weight:    0.9,
			Normalize: false,
		},
	}, 10)

	require.Len(t, fused, 1)
	// 1.0 + (0.9 * 0.9) * 0.5
	assert.InDelta(t, 1.405, fused[0].CombinedScore, 1e-9)
	assert.Equal(t, []domain.Method{domain.MethodKeyword, domain.MethodVector}, fused[0].Methods)
}

func TestMergeScoreMonotonicallyNonDecreasing(t *testing.T) {
	base := Merge([]Batch{
		{Hits: []domain.SearchHit{batchHit("c1", 10, domain.MethodKeyword)}, Weight: 1.0, Normalize: true},
	}, 10)

	more := Merge([]Batch{
		{Hits: []domain.SearchHit{batchHit("c1", 10, domain.MethodKeyword)}, Weight: 1.0, Normalize: true},
		{Hits: []domain.SearchHit{batchHit("c1", 0.5, domain.MethodVector)}, Weight: 0.9, Normalize: false},
		{Hits: []domain.SearchHit{batchHit("c1", 3, domain.MethodSummary)}, Weight: 0.7, Normalize: true},
	}, 10)

	require.Len(t, base, 1)
	require.Len(t, more, 1)
	assert.GreaterOrEqual(t, more[0].CombinedScore, base[0].CombinedScore)
}

func TestMergeMethodsContainOnlyActualContributors(t *testing.T) {
	fused := Merge([]Batch{
		{Hits: []domain.SearchHit{batchHit("c1", 5, domain.MethodKeyword)}, Weight: 1.0, Normalize: true},
		{Hits: []domain.SearchHit{batchHit("c2", 5, domain.MethodVector)}, Weight: 0.9, Normalize: false},
	}, 10)

	require.Len(t, fused, 2)
	for _, f := range fused {
		switch f.ChunkID {
		case "c1":
			assert.Equal(t, []domain.Method{domain.MethodKeyword}, f.Methods)
		case "c2":
			assert.Equal(t, []domain.Method{domain.MethodVector}, f.Methods)
		}
	}
}

func TestMergeSortedDescendingNonNegative(t *testing.T) {
	fused := Merge([]Batch{
		{
			Hits: []domain.SearchHit{
				batchHit("c1", 1, domain.MethodKeyword),
				batchHit("c2", 9, domain.MethodKeyword),
				batchHit("c3", 5, domain.MethodKeyword),
			},
			Weight:    1.0,
			Normalize: true,
		},
	}, 10)

	require.Len(t, fused, 3)
	for i := range fused {
		assert.GreaterOrEqual(t, fused[i].CombinedScore, 0.0)
		if i > 0 {
			assert.LessOrEqual(t, fused[i].CombinedScore, fused[i-1].CombinedScore)
		}
	}
}

func TestMergeTiesKeepFirstSeenOrder(t *testing.T) {
	// Equal combined scores keep first-seen order; this is documented
	// behavior, not an accident.
	fused := Merge([]Batch{
		{
			Hits: []domain.SearchHit{
				batchHit("c9", 5, domain.MethodKeyword),
				batchHit("c1", 5, domain.MethodKeyword),
			},
			Weight:    1.0,
			Normalize: true,
		},
	}, 10)

	require.Len(t, fused, 2)
	assert.Equal(t, "c9", fused[0].ChunkID)
	assert.Equal(t, "c1", fused[1].ChunkID)
}

func TestMergeTruncatesToLimit(t *testing.T) {
	fused := Merge([]Batch{
		{
			Hits: []domain.SearchHit{
				batchHit("c1", 3, domain.MethodKeyword),
				batchHit("c2", 2, domain.MethodKeyword),
				batchHit("c3", 1, domain.MethodKeyword),
			},
			Weight:    1.0,
			Normalize: true,
		},
	}, 2)

	require.Len(t, fused, 2)
	assert.Equal(t, "c1", fused[0].ChunkID)
}
