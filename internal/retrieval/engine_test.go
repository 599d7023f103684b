package retrieval

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/config"
	"docrag/internal/adapter/analyzer"
	"docrag/internal/adapter/store"
	"docrag/internal/domain"
	"docrag/internal/port"
	"docrag/internal/xref"
)

type seedDoc struct {
	docID string
	text  string
}

// indexDocs writes a fresh index and reference graph for docs, replacing
// any previous db file the way the index command's full rebuild does.
func indexDocs(t *testing.T, dir string, docs []seedDoc) {
	t.Helper()

	require.NoError(t, config.EnsureDataDir(dir))
	os.Remove(config.IndexDBPath(dir))

	tokenizer := analyzer.NewTokenizer()

	st, err := store.NewBoltStore(config.IndexDBPath(dir))
	require.NoError(t, err)

	var files []port.IndexedFile
	var chunks []domain.Chunk
	totalTokens := 0
	for _, d := range docs {
		tokens := tokenizer.Tokenize(d.text)
		chunk := domain.Chunk{
			ID:       d.docID + "_0",
			DocID:    d.docID,
			Filename: d.docID + ".txt",
			Tokens:   tokens,
			Text:     d.text,
		}
		chunks = append(chunks, chunk)
		totalTokens += len(tokens)

		postings := make(map[string]map[string]int)
		for _, tok := range tokens {
			if postings[tok] == nil {
				postings[tok] = make(map[string]int)
			}
			postings[tok][chunk.ID]++
		}
		files = append(files, port.IndexedFile{
			Info:     domain.DocumentInfo{DocID: d.docID, Filename: chunk.Filename, ChunkCount: 1},
			Chunks:   []domain.Chunk{chunk},
			Postings: postings,
		})
	}
	require.NoError(t, st.BatchIndex(files))
	require.NoError(t, st.UpdateStats(domain.Stats{
		TotalDocs:   len(docs),
		TotalChunks: len(chunks),
		AvgChunkLen: float64(totalTokens) / float64(len(chunks)),
	}))
	require.NoError(t, st.Close())

	extractor, err := xref.NewRegexExtractor("")
	require.NoError(t, err)
	require.NoError(t, xref.Save(xref.Build(chunks, extractor), config.GraphPath(dir)))
}

// seedCorpus indexes two small documents, one referencing the other, and
// writes the knowledge files the engine loads on startup.
func seedCorpus(t *testing.T, dir string) {
	t.Helper()

	indexDocs(t, dir, []seedDoc{
		{"JERG-2-310", "熱制御系の設計基準。放熱面の設計はJERG-2-320を参照。"},
		{"JERG-2-320", "ラジエータおよび放熱面の設計基準。"},
	})

	knowledgeDir := filepath.Join(dir, "knowledge")
	require.NoError(t, os.MkdirAll(knowledgeDir, 0755))
	domainMap := `domains:
  thermal_control:
    name: 熱制御
    keywords: [熱制御, 放熱]
    specificity: 4
    primary_docs: [JERG-2-310]
    related_docs: [JERG-2-320]
`
	require.NoError(t, os.WriteFile(filepath.Join(knowledgeDir, "domain_map.yaml"), []byte(domainMap), 0644))

	trees := `trees:
  thermal_design:
    description: 熱設計の基本手順
    trigger_patterns:
      - 熱設計.*(手順|進め方)
    steps:
      - 熱環境条件を整理する
      - 熱数学モデルで解析する
`
	require.NoError(t, os.WriteFile(filepath.Join(knowledgeDir, "decision_trees.yaml"), []byte(trees), 0644))
}

func TestEngineEndToEnd(t *testing.T) {
	dir := t.TempDir()
	seedCorpus(t, dir)

	engine := NewEngine(dir, config.DefaultConfig())
	defer engine.Close()

	result, err := engine.Retrieve(context.Background(), "熱制御", 10, nil)
	require.NoError(t, err)

	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "JERG-2-310", result.Hits[0].DocID)
	assert.Equal(t, domain.DocFilter{"JERG-2-310", "JERG-2-320"}, result.DocFilterApplied)
	assert.Contains(t, result.MethodsUsed, domain.MethodKeyword)
	require.NotEmpty(t, result.DomainMatches)
	assert.Equal(t, "thermal_control", result.DomainMatches[0].DomainKey)
}

func TestEngineStatsAndDocuments(t *testing.T) {
	dir := t.TempDir()
	seedCorpus(t, dir)

	engine := NewEngine(dir, config.DefaultConfig())
	defer engine.Close()

	stats, err := engine.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalDocs)
	assert.Equal(t, 2, stats.TotalChunks)

	docs, err := engine.Documents()
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestEngineMissingIndex(t *testing.T) {
	engine := NewEngine(t.TempDir(), config.DefaultConfig())
	defer engine.Close()

	_, err := engine.Retrieve(context.Background(), "q", 10, nil)
	require.ErrorIs(t, err, domain.ErrEmptyIndex)
}

func TestEngineReloadSwapsSnapshot(t *testing.T) {
	dir := t.TempDir()
	seedCorpus(t, dir)

	engine := NewEngine(dir, config.DefaultConfig())
	defer engine.Close()

	before, err := engine.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, before.TotalDocs)

	// Full rebuild out of band with an extra document, while the engine's
	// read-only handle stays open on the replaced file.
	indexDocs(t, dir, []seedDoc{
		{"JERG-2-310", "熱制御系の設計基準。放熱面の設計はJERG-2-320を参照。"},
		{"JERG-2-320", "ラジエータおよび放熱面の設計基準。"},
		{"JERG-2-210", "電源系の設計基準。"},
	})

	require.NoError(t, engine.Reload())

	after, err := engine.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, after.TotalDocs)
}

func TestEngineReloadWaitsForInFlightReaders(t *testing.T) {
	dir := t.TempDir()
	seedCorpus(t, dir)

	engine := NewEngine(dir, config.DefaultConfig())
	defer engine.Close()

	old, err := engine.current()
	require.NoError(t, err)

	// An in-flight request pins the old generation with an open read
	// transaction.
	tx, err := old.store.(*store.BoltStore).DB().Begin(false)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- engine.Reload() }()

	// The swap happens while the old generation is still pinned; new
	// requests see the new snapshot immediately.
	require.Eventually(t, func() bool {
		snap := engine.snap.Load()
		return snap != nil && snap != old
	}, 5*time.Second, 10*time.Millisecond)

	stats, err := engine.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalDocs)

	select {
	case err := <-done:
		t.Fatalf("reload finished before the reader did: %v", err)
	default:
	}

	require.NoError(t, tx.Rollback())
	require.NoError(t, <-done)
}

func TestEngineMatchesProcedure(t *testing.T) {
	dir := t.TempDir()
	seedCorpus(t, dir)

	engine := NewEngine(dir, config.DefaultConfig())
	defer engine.Close()

	result, err := engine.Retrieve(context.Background(), "熱設計の手順は", 10, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Procedure)
	assert.Equal(t, "thermal_design", result.Procedure.Key)
	assert.Len(t, result.Procedure.Steps, 2)

	result, err = engine.Retrieve(context.Background(), "熱制御", 10, nil)
	require.NoError(t, err)
	assert.Nil(t, result.Procedure)
}

func TestEngineClassifyOnly(t *testing.T) {
	dir := t.TempDir()
	seedCorpus(t, dir)

	engine := NewEngine(dir, config.DefaultConfig())
	defer engine.Close()

	scores, err := engine.Classify("放熱設計")
	require.NoError(t, err)
	require.NotEmpty(t, scores)
	assert.Equal(t, "thermal_control", scores[0].DomainKey)
}
