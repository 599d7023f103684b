package usecase

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/fs"
	"docrag/internal/domain"
	"docrag/internal/port"
)

// docIDPattern recognizes a standards document number embedded in a
// filename, e.g. "JERG-2-310A.txt" or "JAXA-JERG-0-039-TM001.md".
var docIDPattern = regexp.MustCompile(`JERG-\d{1,2}-\d{3}(?:-[A-Z]+\d+[A-Z]?)?`)

// Ingester turns corpus text files into the chunk and posting index.
// One file is one document; the index is rebuilt from scratch on each run.
type Ingester struct {
	store     port.IndexStore
	walker    *fs.Walker
	chunker   *chunker.TextChunker
	tokenizer port.Tokenizer
}

func NewIngester(store port.IndexStore, walker *fs.Walker, chunker *chunker.TextChunker, tokenizer port.Tokenizer) *Ingester {
	return &Ingester{
		store:     store,
		walker:    walker,
		chunker:   chunker,
		tokenizer: tokenizer,
	}
}

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	FilesIndexed  int
	ChunksCreated int
	Chunks        []domain.Chunk
	Errors        []string
}

// ProgressFunc reports ingestion progress: processed out of total, with
// the file currently being read.
type ProgressFunc func(processed, total int, currentFile string)

// Run walks root, chunks and tokenizes every matching file, and writes
// the whole corpus to the store in one batch. The returned chunks feed
// graph construction without a second store pass.
func (u *Ingester) Run(root string, progress ProgressFunc) (*IngestResult, error) {
	result := &IngestResult{}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk corpus: %w", err)
	}

	var batch []port.IndexedFile
	totalTokens := 0

	for i, file := range files {
		if progress != nil {
			progress(i, len(files), file.RelPath)
		}

		content, err := fs.ReadFile(file.Path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file.RelPath, err))
			continue
		}

		docID := DocIDFromFilename(filepath.Base(file.Path))
		chunks := u.chunker.Chunk(content, docID, filepath.Base(file.Path))
		if len(chunks) == 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: no indexable text", file.RelPath))
			continue
		}

		postings := make(map[string]map[string]int)
		for ci := range chunks {
			chunks[ci].Tokens = u.tokenizer.Tokenize(chunks[ci].Text)
			totalTokens += len(chunks[ci].Tokens)
			for _, term := range chunks[ci].Tokens {
				if postings[term] == nil {
					postings[term] = make(map[string]int)
				}
				postings[term][chunks[ci].ID]++
			}
		}

		batch = append(batch, port.IndexedFile{
			Info: domain.DocumentInfo{
				DocID:      docID,
				Filename:   filepath.Base(file.Path),
				ChunkCount: len(chunks),
			},
			Chunks:   chunks,
			Postings: postings,
		})
		result.FilesIndexed++
		result.ChunksCreated += len(chunks)
		result.Chunks = append(result.Chunks, chunks...)
	}
	if progress != nil {
		progress(len(files), len(files), "")
	}

	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: no indexable files under %s", domain.ErrEmptyIndex, root)
	}

	if err := u.store.BatchIndex(batch); err != nil {
		return nil, fmt.Errorf("failed to write index: %w", err)
	}

	avgChunkLen := 0.0
	if result.ChunksCreated > 0 {
		avgChunkLen = float64(totalTokens) / float64(result.ChunksCreated)
	}
	stats := domain.Stats{
		TotalDocs:   result.FilesIndexed,
		TotalChunks: result.ChunksCreated,
		AvgChunkLen: avgChunkLen,
	}
	if err := u.store.UpdateStats(stats); err != nil {
		return nil, fmt.Errorf("failed to update stats: %w", err)
	}

	return result, nil
}

// DocIDFromFilename derives the document id from a corpus filename. A
// recognizable document number wins, which drops agency prefixes and
// trailing revision letters ("JAXA-JERG-2-310A.txt" -> "JERG-2-310").
// Anything else falls back to the bare filename without its extension.
func DocIDFromFilename(filename string) string {
	if m := docIDPattern.FindString(filename); m != "" {
		return m
	}
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	return base
}
