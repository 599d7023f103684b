package chunker

import (
	"fmt"
	"strings"

	"docrag/internal/domain"
)

// TextChunker splits document text on sentence and line boundaries and
// packs the segments into fixed-size chunks with a trailing overlap.
// Sizes are measured in runes because the corpus is mostly Japanese.
type TextChunker struct {
	chunkSize int
	overlap   int
}

func NewTextChunker(chunkSize, overlap int) *TextChunker {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 100
	}
	return &TextChunker{
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// Chunk splits text into chunks for docID. Chunk ids are docID plus an
// ordinal, stable across rebuilds of the same text.
func (c *TextChunker) Chunk(text, docID, filename string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	segments := splitSegments(text)

	var chunks []domain.Chunk
	var current []rune
	idx := 0

	emit := func() {
		trimmed := strings.TrimSpace(string(current))
		if trimmed == "" {
			return
		}
		chunks = append(chunks, domain.Chunk{
			ID:       fmt.Sprintf("%s_%d", docID, idx),
			DocID:    docID,
			Filename: filename,
			Text:     trimmed,
		})
		idx++
	}

	for _, seg := range segments {
		segRunes := []rune(seg)
		if len(current)+len(segRunes) > c.chunkSize && len(current) > 0 {
			emit()
			if len(current) > c.overlap {
				carried := make([]rune, c.overlap)
				copy(carried, current[len(current)-c.overlap:])
				current = append(carried, segRunes...)
			} else {
				current = segRunes
			}
		} else {
			current = append(current, segRunes...)
		}
	}
	emit()

	return chunks
}

// splitSegments breaks text after Japanese full stops and newlines, keeping
// the delimiter with the preceding segment.
func splitSegments(text string) []string {
	var segments []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '。' || r == '\n' {
			if strings.TrimSpace(current.String()) != "" {
				segments = append(segments, current.String())
			}
			current.Reset()
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		segments = append(segments, current.String())
	}

	return segments
}
