package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/adapter/memstore"
	"docrag/internal/domain"
	"docrag/internal/port"
	"docrag/internal/xref"
)

func TestValidateConsistentIndex(t *testing.T) {
	store := memstore.NewMemoryStore()
	seedChunks(t, store, 2)
	require.NoError(t, store.UpdateStats(domain.Stats{TotalDocs: 1, TotalChunks: 2, AvgChunkLen: 5}))

	report, err := NewValidator(store, nil).Run()
	require.NoError(t, err)

	assert.True(t, report.OK(), "problems: %v", report.Problems)
	assert.Equal(t, 1, report.Documents)
	assert.Equal(t, 2, report.Chunks)
}

func TestValidateDetectsStatsDrift(t *testing.T) {
	store := memstore.NewMemoryStore()
	seedChunks(t, store, 2)
	require.NoError(t, store.UpdateStats(domain.Stats{TotalDocs: 7, TotalChunks: 9}))

	report, err := NewValidator(store, nil).Run()
	require.NoError(t, err)
	assert.False(t, report.OK())
}

func TestValidateDetectsEmptyChunk(t *testing.T) {
	store := memstore.NewMemoryStore()
	require.NoError(t, store.BatchIndex([]port.IndexedFile{{
		Info:   domain.DocumentInfo{DocID: "JERG-2-310", Filename: "JERG-2-310.txt", ChunkCount: 1},
		Chunks: []domain.Chunk{{ID: "JERG-2-310_0", DocID: "JERG-2-310", Text: "   "}},
	}}))
	require.NoError(t, store.UpdateStats(domain.Stats{TotalDocs: 1, TotalChunks: 1}))

	report, err := NewValidator(store, nil).Run()
	require.NoError(t, err)
	assert.False(t, report.OK())
}

func TestValidateDetectsUnknownGraphNode(t *testing.T) {
	store := memstore.NewMemoryStore()
	seedChunks(t, store, 1)
	require.NoError(t, store.UpdateStats(domain.Stats{TotalDocs: 1, TotalChunks: 1, AvgChunkLen: 5}))

	graph := &xref.Graph{
		Nodes:      map[string]*xref.Node{"JERG-9-999": {DocID: "JERG-9-999"}},
		TotalNodes: 1,
	}
	report, err := NewValidator(store, graph).Run()
	require.NoError(t, err)
	assert.False(t, report.OK())
}
